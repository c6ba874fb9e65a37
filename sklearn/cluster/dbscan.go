package cluster

import (
	"time"

	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

// DBSCAN defaults.
const (
	DefaultEps    = 0.9
	DefaultMinPts = 6
)

// DBSCAN groups points that lie in dense regions. A point with at least
// minPts points (itself included) within eps is a core point; clusters
// grow from core points through their neighbourhoods. Points reachable
// from no core point are noise.
//
// Neighbourhood queries scan every point, so a fit is O(n²).
type DBSCAN struct {
	model.BaseEstimator

	eps          float64
	minPts       int
	distanceName string
	distance     metrics.DistanceFunc
	logger       log.Logger

	data      [][]float64
	labels    []int
	nClusters int
}

// DBSCANOption configures a DBSCAN.
type DBSCANOption func(*DBSCAN)

// WithEps sets the neighbourhood radius.
func WithEps(eps float64) DBSCANOption {
	return func(d *DBSCAN) { d.eps = eps }
}

// WithMinPts sets how many neighbours make a core point.
func WithMinPts(minPts int) DBSCANOption {
	return func(d *DBSCAN) { d.minPts = minPts }
}

// WithDBSCANDistance selects a distance by name.
func WithDBSCANDistance(name string) DBSCANOption {
	return func(d *DBSCAN) { d.distanceName = name }
}

// WithDBSCANDistanceFunc sets a custom distance; it takes precedence over a name.
func WithDBSCANDistanceFunc(fn metrics.DistanceFunc) DBSCANOption {
	return func(d *DBSCAN) { d.distance = fn }
}

// WithDBSCANLogger sets the logger.
func WithDBSCANLogger(l log.Logger) DBSCANOption {
	return func(d *DBSCAN) { d.logger = l }
}

// NewDBSCAN creates a DBSCAN with eps 0.9 and minPts 6.
func NewDBSCAN(opts ...DBSCANOption) *DBSCAN {
	d := &DBSCAN{eps: DefaultEps, minPts: DefaultMinPts}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.GetLoggerWithName("DBSCAN")
	}
	d.logger = d.logger.With(log.ModelNameKey, "DBSCAN")
	return d
}

// Fit labels every row of X with a cluster id starting at 1, or Noise.
func (d *DBSCAN) Fit(X [][]float64) (*Result, error) {
	if err := checkRows("DBSCAN.Fit", X); err != nil {
		return nil, err
	}
	if d.eps < 0 {
		return nil, errors.NewValidationError("eps", "must not be negative", d.eps)
	}
	if d.minPts < 1 {
		return nil, errors.NewValidationError("minPts", "must be at least 1", d.minPts)
	}
	dist := d.distance
	if dist == nil {
		var err error
		if dist, err = metrics.Distance(d.distanceName); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	d.logger.Info("Clustering started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(X),
		log.FeaturesKey, len(X[0]),
	)

	data := copyRows(X)
	labels, clusters, err := dbscan(data, d.eps, d.minPts, dist)
	if err != nil {
		return nil, err
	}

	d.data = data
	d.labels = labels
	d.nClusters = clusters
	d.distance = dist
	d.SetFitted()

	d.logger.Info("Clustering finished",
		log.ClusterCountKey, clusters,
		log.NoiseCountKey, d.NoiseCount(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	r := snapshot(data, labels, nil, nil)
	return &r, nil
}

// FitPredict fits X and returns the labels.
func (d *DBSCAN) FitPredict(X [][]float64) ([]int, error) {
	if _, err := d.Fit(X); err != nil {
		return nil, err
	}
	return d.Labels(), nil
}

// Labels returns the cluster id of every fitted row.
func (d *DBSCAN) Labels() []int {
	return append([]int(nil), d.labels...)
}

// NClusters returns how many clusters were found.
func (d *DBSCAN) NClusters() int {
	return d.nClusters
}

// NoiseCount returns how many rows were labelled Noise.
func (d *DBSCAN) NoiseCount() int {
	n := 0
	for _, c := range d.labels {
		if c == Noise {
			n++
		}
	}
	return n
}

// SSB returns the between-cluster scatter, centroids being the cluster means.
func (d *DBSCAN) SSB(normalize bool) (float64, error) {
	if err := d.RequireFitted("DBSCAN", "SSB"); err != nil {
		return 0, err
	}
	return SSB(d.data, d.labels, nil, d.distance, normalize)
}

// ClustersInfo returns size and share of every cluster, noise last.
func (d *DBSCAN) ClustersInfo() ([]ClusterInfo, error) {
	if err := d.RequireFitted("DBSCAN", "ClustersInfo"); err != nil {
		return nil, err
	}
	return ClustersInfo(d.labels), nil
}

// dbscan runs the clustering pass. While running, label 0 marks
// unclassified points; noise is never final, a later expansion can claim it.
func dbscan(X [][]float64, eps float64, minPts int, dist metrics.DistanceFunc) ([]int, int, error) {
	n := len(X)
	labels := make([]int, n)
	visited := make([]bool, n)
	id := 0

	for p := range X {
		if visited[p] {
			continue
		}
		visited[p] = true
		neighbors, err := regionQuery(X, p, eps, dist)
		if err != nil {
			return nil, 0, err
		}
		if len(neighbors) < minPts {
			continue
		}
		id++
		labels[p] = id

		// Depth-first expansion with an explicit stack.
		stack := [][]int{neighbors}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, q := range top {
				if !visited[q] {
					visited[q] = true
					qn, err := regionQuery(X, q, eps, dist)
					if err != nil {
						return nil, 0, err
					}
					if len(qn) >= minPts {
						stack = append(stack, qn)
					}
				}
				if labels[q] < 1 {
					labels[q] = id
				}
			}
		}
	}

	for i, c := range labels {
		if c == 0 {
			labels[i] = Noise
		}
	}
	return labels, id, nil
}

// regionQuery returns every point within eps of X[p], p included.
func regionQuery(X [][]float64, p int, eps float64, dist metrics.DistanceFunc) ([]int, error) {
	var out []int
	for q := range X {
		d, err := dist(X[p], X[q])
		if err != nil {
			return nil, errors.Wrapf(err, "DBSCAN neighbourhood of row %d", p)
		}
		if d <= eps {
			out = append(out, q)
		}
	}
	return out, nil
}
