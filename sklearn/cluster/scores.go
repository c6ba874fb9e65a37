// Package cluster implements K-means and DBSCAN clustering and their
// SSE/SSB quality scores.
package cluster

import (
	"sort"
	"strconv"

	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/preprocessing"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
)

// Noise is the cluster id DBSCAN assigns to points that belong to no cluster.
const Noise = -1

// Instance is a data row tagged with the cluster it was assigned to.
type Instance struct {
	Attributes []float64
	Cluster    int
	// Index is the row's position in the input.
	Index int
}

// Result is the outcome of a clustering run.
type Result struct {
	Clusters         []Instance
	Centroids        [][]float64
	InitialCentroids [][]float64
}

// Labels returns the cluster id of every instance in input order.
func (r *Result) Labels() []int {
	labels := make([]int, len(r.Clusters))
	for _, inst := range r.Clusters {
		labels[inst.Index] = inst.Cluster
	}
	return labels
}

// ClusterInfo summarises one cluster.
type ClusterInfo struct {
	Label   string
	Size    int
	Percent string
}

// SSE returns the within-cluster sum of squared distances between each
// point and its centroid. Points whose centroid is nil (an emptied k-means
// cluster) or whose label is negative are skipped. With normalize set,
// the squared errors are min-max scaled to [0, 1] before summing.
func SSE(X [][]float64, labels []int, centroids [][]float64, dist metrics.DistanceFunc, normalize bool) (float64, error) {
	if len(X) != len(labels) {
		return 0, errors.NewDimensionError("SSE", len(X), len(labels), 0)
	}
	if dist == nil {
		dist = metrics.Euclidean
	}
	squared := make([]float64, 0, len(X))
	for i, p := range X {
		c := labels[i]
		if c < 0 || c >= len(centroids) || centroids[c] == nil {
			continue
		}
		d, err := dist(p, centroids[c])
		if err != nil {
			return 0, errors.Wrapf(err, "SSE: row %d", i)
		}
		squared = append(squared, d*d)
	}
	return sumScaled(squared, normalize), nil
}

// SSB returns the between-cluster scatter: for every cluster, its size
// times the squared distance between its centroid and the mean of all
// points. Noise points count towards the overall mean but form no cluster.
// When centroids is nil, or has no entry for a cluster id, the centroid is
// the mean of the cluster's members.
func SSB(X [][]float64, labels []int, centroids [][]float64, dist metrics.DistanceFunc, normalize bool) (float64, error) {
	if len(X) != len(labels) {
		return 0, errors.NewDimensionError("SSB", len(X), len(labels), 0)
	}
	if err := checkRows("SSB", X); err != nil {
		return 0, err
	}
	if dist == nil {
		dist = metrics.Euclidean
	}

	members := make(map[int][][]float64)
	for i, c := range labels {
		if c < 0 {
			continue
		}
		members[c] = append(members[c], X[i])
	}
	ids := make([]int, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	grand := mean(X)
	squared := make([]float64, 0, len(ids))
	for _, id := range ids {
		var c []float64
		if id < len(centroids) {
			c = centroids[id]
		}
		if c == nil {
			c = mean(members[id])
		}
		d, err := dist(c, grand)
		if err != nil {
			return 0, errors.Wrapf(err, "SSB: cluster %d", id)
		}
		squared = append(squared, float64(len(members[id]))*d*d)
	}
	return sumScaled(squared, normalize), nil
}

// ClustersInfo reports size and share of every cluster, ordered by id with
// noise last.
func ClustersInfo(labels []int) []ClusterInfo {
	counts := make(map[int]int)
	for _, c := range labels {
		counts[c]++
	}
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if (a < 0) != (b < 0) {
			return b < 0
		}
		return a < b
	})

	total := decimal.NewFromInt(int64(len(labels)))
	info := make([]ClusterInfo, 0, len(ids))
	for _, id := range ids {
		label := strconv.Itoa(id)
		if id == Noise {
			label = "Noise"
		}
		pct := decimal.NewFromInt(int64(counts[id] * 100)).Div(total)
		info = append(info, ClusterInfo{
			Label:   label,
			Size:    counts[id],
			Percent: pct.StringFixed(2) + "%",
		})
	}
	return info
}

// checkRows rejects empty input and ragged rows.
func checkRows(op string, X [][]float64) error {
	if len(X) == 0 {
		return errors.ErrEmptyData
	}
	for _, r := range X {
		if len(r) != len(X[0]) {
			return errors.NewDimensionError(op, len(X[0]), len(r), 1)
		}
	}
	return nil
}

func sumScaled(values []float64, normalize bool) float64 {
	if len(values) == 0 {
		return 0
	}
	if normalize {
		values = preprocessing.MinMaxScale(values, 0, 1)
	}
	return floats.Sum(values)
}

// mean returns the component-wise mean of rows.
func mean(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	c := make([]float64, len(rows[0]))
	for _, r := range rows {
		floats.Add(c, r)
	}
	floats.Scale(1/float64(len(rows)), c)
	return c
}

func (r Result) clone() Result {
	clusters := make([]Instance, len(r.Clusters))
	for i, in := range r.Clusters {
		in.Attributes = append([]float64(nil), in.Attributes...)
		clusters[i] = in
	}
	return Result{
		Clusters:         clusters,
		Centroids:        copyRows(r.Centroids),
		InitialCentroids: copyRows(r.InitialCentroids),
	}
}

func copyRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		if r != nil {
			out[i] = append([]float64(nil), r...)
		}
	}
	return out
}
