// Package mlkit is a small machine learning library for teaching: the
// classic algorithms written out plainly, with the convergence rules,
// tie-breaks and quality statistics that make their results reproducible.
//
// # Installation
//
//	go get github.com/YuminosukeSato/mlkit
//
// # Quick Start
//
// Clustering two blobs with K-means:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/mlkit/sklearn/cluster"
//	)
//
//	func main() {
//	    X := [][]float64{{0, 0}, {0, 1}, {10, 10}, {10, 11}}
//	    km := cluster.NewKMeans(cluster.WithKMeansK(2), cluster.WithKMeansRandomState(42))
//	    labels, err := km.FitPredict(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(labels, km.Centroids())
//	}
//
// Classifiers take a dataset whose last attribute is the class and return
// a confusion matrix:
//
//	ds, _ := dataset.New([]string{"outlook", "wind", "play"}, rows)
//	cm, err := tree.NewID3(tree.WithPercentSplit(66)).BuildClassifier(ds)
//	fmt.Print(cm)
//
// # Packages
//
//   - core/dataset: typed attributes, statistics and attribute transforms
//   - core/model: fitted state, capability interfaces, gob persistence
//   - metrics: distances, confusion matrix and report, regression errors
//   - preprocessing: scalers and the ordinal encoder
//   - sklearn/model_selection: holdout, rFold, cross-validation
//   - sklearn/cluster: K-means, DBSCAN, SSE/SSB and cluster summaries
//   - sklearn/tree: ID3 decision trees
//   - sklearn/neighbors: k-nearest neighbours
//   - linear: batch gradient descent and the normal-equation reference
//   - optimize: simulated annealing over a tour of points
//   - pkg/errors, pkg/log: error taxonomy, warnings and structured logging
//
// The mlkit command in cmd/mlkit runs a YAML experiment over a CSV file,
// printing a summary per algorithm and optionally writing PNG charts and
// gob-encoded models.
//
// # Randomness
//
// Every randomized component takes a RandomState option. A seed of -1, the
// default, seeds from the clock; any other value makes runs repeatable.
package mlkit
