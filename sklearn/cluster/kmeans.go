package cluster

import (
	"context"
	"math/rand"
	"time"

	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
	"gonum.org/v1/gonum/floats"
)

// KMeans is K-means clustering by Lloyd's algorithm.
type KMeans struct {
	model.BaseEstimator

	// Hyperparameters
	k                int                  // number of clusters
	maxIter          int                  // iteration cap
	distanceName     string               // metrics.Distance name
	distance         metrics.DistanceFunc // overrides distanceName
	normalize        bool                 // scale SSE/SSB to [0,1]
	initialCentroids [][]float64          // explicit starting centroids
	saveSteps        bool                 // record every iteration
	randomState      int64                // -1 seeds from the clock

	// Fitted state
	data       [][]float64
	labels     []int
	centroids  [][]float64
	initial    [][]float64
	iterations int
	converged  bool
	steps      []Result

	rng    *rand.Rand
	logger log.Logger
}

// KMeansOption configures a KMeans.
type KMeansOption func(*KMeans)

// WithKMeansK sets the number of clusters.
func WithKMeansK(k int) KMeansOption {
	return func(km *KMeans) {
		km.k = k
	}
}

// WithKMeansMaxIter caps the number of assignment passes.
func WithKMeansMaxIter(maxIter int) KMeansOption {
	return func(km *KMeans) {
		km.maxIter = maxIter
	}
}

// WithKMeansDistance selects a distance by name, e.g. "euclidean" or "manhattan".
func WithKMeansDistance(name string) KMeansOption {
	return func(km *KMeans) {
		km.distanceName = name
	}
}

// WithKMeansDistanceFunc sets an arbitrary distance function.
func WithKMeansDistanceFunc(fn metrics.DistanceFunc) KMeansOption {
	return func(km *KMeans) {
		km.distance = fn
	}
}

// WithKMeansNormalize toggles normalized SSE and SSB.
func WithKMeansNormalize(normalize bool) KMeansOption {
	return func(km *KMeans) {
		km.normalize = normalize
	}
}

// WithKMeansInitialCentroids fixes the starting centroids. There must be exactly K of them.
func WithKMeansInitialCentroids(centroids [][]float64) KMeansOption {
	return func(km *KMeans) {
		km.initialCentroids = copyRows(centroids)
	}
}

// WithKMeansSaveSteps records the clusters and centroids after every iteration.
func WithKMeansSaveSteps(save bool) KMeansOption {
	return func(km *KMeans) {
		km.saveSteps = save
	}
}

// WithKMeansRandomState sets the seed used to pick starting centroids.
func WithKMeansRandomState(seed int64) KMeansOption {
	return func(km *KMeans) {
		km.randomState = seed
		if seed >= 0 {
			km.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// WithKMeansLogger sets the logger.
func WithKMeansLogger(l log.Logger) KMeansOption {
	return func(km *KMeans) {
		km.logger = l
	}
}

// NewKMeans creates a KMeans with K=2, at most 500 iterations and
// normalized scores unless overridden.
func NewKMeans(options ...KMeansOption) *KMeans {
	km := &KMeans{
		k:           2,
		maxIter:     500,
		normalize:   true,
		randomState: -1,
	}

	for _, opt := range options {
		opt(km)
	}

	if km.rng == nil {
		km.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if km.logger == nil {
		km.logger = log.GetLoggerWithName("KMeans")
	}
	km.logger = km.logger.With(log.ModelNameKey, "KMeans")

	return km
}

// Fit partitions X into K clusters.
//
// Each pass assigns every point to its nearest centroid, ties going to the
// lower index, then moves each centroid to the mean of its members. Passes
// stop once no assignment changes or after maxIter. An emptied cluster
// gets a nil centroid and attracts no further points.
func (km *KMeans) Fit(X [][]float64) (*Result, error) {
	if err := checkRows("KMeans.Fit", X); err != nil {
		return nil, err
	}
	n, dims := len(X), len(X[0])
	if km.k < 1 || km.k > n {
		return nil, errors.NewInvalidKError("KMeans.Fit", km.k, 1, n)
	}
	if km.maxIter < 1 {
		return nil, errors.NewValidationError("maxIter", "must be at least 1", km.maxIter)
	}
	dist, err := km.distanceFunc()
	if err != nil {
		return nil, err
	}

	centroids, err := km.startCentroids(X, dims)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	km.logger.Info("Clustering started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, dims,
		log.KKey, km.k,
		log.RandomSeedKey, km.randomState,
	)

	data := copyRows(X)
	initial := copyRows(centroids)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	var steps []Result
	iterations, converged := 0, false
	for pass := 0; pass < km.maxIter; pass++ {
		changed, err := assign(data, centroids, labels, dist)
		if err != nil {
			return nil, err
		}
		if !changed {
			converged = true
			break
		}
		iterations++
		centroids = recompute(data, labels, km.k)

		if km.saveSteps {
			steps = append(steps, snapshot(data, labels, centroids, initial))
		}
		if km.logger.Enabled(context.Background(), log.LevelDebug) {
			km.logger.Debug("Iteration finished",
				log.IterationKey, iterations,
			)
		}
	}

	km.data = data
	km.labels = labels
	km.centroids = centroids
	km.initial = initial
	km.iterations = iterations
	km.converged = converged
	km.steps = steps
	km.distance = dist
	km.SetFitted()

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("KMeans", km.maxIter,
			"assignments still changing when the iteration limit was reached"))
	}

	km.logger.Info("Clustering finished",
		log.IterationKey, iterations,
		log.ConvergedKey, converged,
		log.ClusterCountKey, km.k,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return km.result(), nil
}

// FitPredict fits X and returns its cluster labels.
func (km *KMeans) FitPredict(X [][]float64) ([]int, error) {
	if _, err := km.Fit(X); err != nil {
		return nil, err
	}
	return km.Labels(), nil
}

// Predict assigns new points to the nearest fitted centroid.
func (km *KMeans) Predict(X [][]float64) ([]int, error) {
	if err := km.RequireFitted("KMeans", "Predict"); err != nil {
		return nil, err
	}
	labels := make([]int, len(X))
	for i := range labels {
		labels[i] = -1
	}
	if _, err := assign(X, km.centroids, labels, km.distance); err != nil {
		return nil, err
	}
	return labels, nil
}

// Labels returns the cluster of each training point.
func (km *KMeans) Labels() []int {
	return append([]int(nil), km.labels...)
}

// Centroids returns the final centroids.
func (km *KMeans) Centroids() [][]float64 {
	return copyRows(km.centroids)
}

// InitialCentroids returns the starting centroids.
func (km *KMeans) InitialCentroids() [][]float64 {
	return copyRows(km.initial)
}

// Iterations counts the passes that changed at least one label.
func (km *KMeans) Iterations() int {
	return km.iterations
}

// Converged reports whether assignments settled before maxIter.
func (km *KMeans) Converged() bool {
	return km.converged
}

// Steps returns a copy of the state after every iteration when
// WithKMeansSaveSteps(true) was set.
func (km *KMeans) Steps() []Result {
	if km.steps == nil {
		return nil
	}
	out := make([]Result, len(km.steps))
	for i, r := range km.steps {
		out[i] = r.clone()
	}
	return out
}

// Result returns the outcome of the last Fit.
func (km *KMeans) Result() (*Result, error) {
	if err := km.RequireFitted("KMeans", "Result"); err != nil {
		return nil, err
	}
	return km.result(), nil
}

// SSE returns the within-cluster sum of squared errors.
func (km *KMeans) SSE() (float64, error) {
	if err := km.RequireFitted("KMeans", "SSE"); err != nil {
		return 0, err
	}
	return SSE(km.data, km.labels, km.centroids, km.distance, km.normalize)
}

// SSB returns the between-cluster sum of squares.
func (km *KMeans) SSB() (float64, error) {
	if err := km.RequireFitted("KMeans", "SSB"); err != nil {
		return 0, err
	}
	return SSB(km.data, km.labels, km.centroids, km.distance, km.normalize)
}

// ClustersInfo returns the size and share of each cluster.
func (km *KMeans) ClustersInfo() ([]ClusterInfo, error) {
	if err := km.RequireFitted("KMeans", "ClustersInfo"); err != nil {
		return nil, err
	}
	return ClustersInfo(km.labels), nil
}

func (km *KMeans) result() *Result {
	r := snapshot(km.data, km.labels, km.centroids, km.initial)
	return &r
}

func (km *KMeans) distanceFunc() (metrics.DistanceFunc, error) {
	if km.distance != nil {
		return km.distance, nil
	}
	return metrics.Distance(km.distanceName)
}

// startCentroids validates the explicit centroids or samples K distinct rows.
func (km *KMeans) startCentroids(X [][]float64, dims int) ([][]float64, error) {
	if len(km.initialCentroids) > 0 {
		if len(km.initialCentroids) != km.k {
			return nil, errors.NewValidationError("initialCentroids",
				"number of centroids must equal K", len(km.initialCentroids))
		}
		for _, c := range km.initialCentroids {
			if len(c) != dims {
				return nil, errors.NewDimensionError("KMeans.Fit", dims, len(c), 1)
			}
		}
		return copyRows(km.initialCentroids), nil
	}

	perm := km.rng.Perm(len(X))
	centroids := make([][]float64, km.k)
	for i := range centroids {
		centroids[i] = append([]float64(nil), X[perm[i]]...)
	}
	return centroids, nil
}

// assign moves every point to its nearest centroid and reports whether any label changed.
func assign(X, centroids [][]float64, labels []int, dist metrics.DistanceFunc) (bool, error) {
	changed := false
	for i, p := range X {
		best, bestDist := -1, 0.0
		for c, centroid := range centroids {
			if centroid == nil {
				continue
			}
			d, err := dist(p, centroid)
			if err != nil {
				return false, errors.Wrapf(err, "assign row %d", i)
			}
			if best == -1 || d < bestDist {
				best, bestDist = c, d
			}
		}
		if best == -1 {
			continue
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed, nil
}

// recompute replaces each centroid with the mean of its members.
func recompute(X [][]float64, labels []int, k int) [][]float64 {
	sums := make([][]float64, k)
	counts := make([]int, k)
	for i, p := range X {
		c := labels[i]
		if c < 0 {
			continue
		}
		if sums[c] == nil {
			sums[c] = make([]float64, len(p))
		}
		floats.Add(sums[c], p)
		counts[c]++
	}
	for c := range sums {
		if counts[c] > 0 {
			floats.Scale(1/float64(counts[c]), sums[c])
		}
	}
	return sums
}

func snapshot(X [][]float64, labels []int, centroids, initial [][]float64) Result {
	clusters := make([]Instance, len(X))
	for i, p := range X {
		clusters[i] = Instance{
			Attributes: append([]float64(nil), p...),
			Cluster:    labels[i],
			Index:      i,
		}
	}
	return Result{
		Clusters:         clusters,
		Centroids:        copyRows(centroids),
		InitialCentroids: copyRows(initial),
	}
}
