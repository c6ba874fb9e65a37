package cluster

import (
	"testing"

	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var twoBlobs = [][]float64{{0, 0}, {0, 1}, {10, 10}, {10, 11}}

func TestKMeans_ConvergesWithExplicitCentroids(t *testing.T) {
	for _, name := range []string{"euclidean", "manhattan"} {
		t.Run(name, func(t *testing.T) {
			km := NewKMeans(
				WithKMeansK(2),
				WithKMeansDistance(name),
				WithKMeansInitialCentroids([][]float64{{0, 0}, {10, 10}}),
			)
			res, err := km.Fit(twoBlobs)
			require.NoError(t, err)

			assert.Equal(t, 1, km.Iterations())
			assert.True(t, km.Converged())
			assert.Equal(t, []int{0, 0, 1, 1}, res.Labels())
			assert.Equal(t, [][]float64{{0, 0.5}, {10, 10.5}}, res.Centroids)
			assert.Equal(t, [][]float64{{0, 0}, {10, 10}}, res.InitialCentroids)
			for i, inst := range res.Clusters {
				assert.Equal(t, i, inst.Index)
				assert.Equal(t, twoBlobs[i], inst.Attributes)
			}
		})
	}
}

func TestKMeans_FinalCentroidsAreStable(t *testing.T) {
	km := NewKMeans(WithKMeansK(2), WithKMeansRandomState(7))
	_, err := km.Fit(twoBlobs)
	require.NoError(t, err)

	labels := km.Labels()
	changed, err := assign(twoBlobs, km.Centroids(), labels, metrics.Euclidean)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestKMeans_SeedIsDeterministic(t *testing.T) {
	X := [][]float64{{1, 1}, {1.5, 2}, {3, 4}, {5, 7}, {3.5, 5}, {4.5, 5}, {3.5, 4.5}}

	a, err := NewKMeans(WithKMeansK(2), WithKMeansRandomState(42)).FitPredict(X)
	require.NoError(t, err)
	b, err := NewKMeans(WithKMeansK(2), WithKMeansRandomState(42)).FitPredict(X)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestKMeans_RandomCentroidsAreDistinctRows(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}, {4}}
	km := NewKMeans(WithKMeansK(5), WithKMeansRandomState(3))
	_, err := km.Fit(X)
	require.NoError(t, err)

	seen := make(map[float64]bool)
	for _, c := range km.InitialCentroids() {
		require.Len(t, c, 1)
		assert.False(t, seen[c[0]], "centroid %v chosen twice", c)
		seen[c[0]] = true
	}
}

func TestKMeans_EmptyClusterKeepsNilCentroid(t *testing.T) {
	km := NewKMeans(
		WithKMeansK(2),
		WithKMeansInitialCentroids([][]float64{{0}, {100}}),
	)
	res, err := km.Fit([][]float64{{0}, {1}, {2}})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 0}, res.Labels())
	assert.Equal(t, []float64{1}, res.Centroids[0])
	assert.Nil(t, res.Centroids[1])
	assert.Equal(t, 1, km.Iterations())

	sse, err := km.SSE()
	require.NoError(t, err)
	assert.Equal(t, 2.0, sse) // scaled errors 1, 0, 1
}

func TestKMeans_Steps(t *testing.T) {
	km := NewKMeans(
		WithKMeansK(2),
		WithKMeansInitialCentroids([][]float64{{0, 0}, {0, 1}}),
		WithKMeansSaveSteps(true),
	)
	_, err := km.Fit(twoBlobs)
	require.NoError(t, err)

	steps := km.Steps()
	require.Len(t, steps, km.Iterations())
	last := steps[len(steps)-1]
	assert.Equal(t, km.Centroids(), last.Centroids)
	assert.Equal(t, [][]float64{{0, 0}, {0, 1}}, last.InitialCentroids)
	assert.Equal(t, []int{0, 1, 1, 1}, steps[0].Labels())
}

func TestKMeans_StepsReturnsCopy(t *testing.T) {
	km := NewKMeans(
		WithKMeansK(2),
		WithKMeansInitialCentroids([][]float64{{0, 0}, {0, 1}}),
		WithKMeansSaveSteps(true),
	)
	_, err := km.Fit(twoBlobs)
	require.NoError(t, err)

	steps := km.Steps()
	require.NotEmpty(t, steps)
	wantCentroid := append([]float64(nil), steps[0].Centroids[0]...)
	wantAttrs := append([]float64(nil), steps[0].Clusters[0].Attributes...)
	wantLabel := steps[0].Clusters[0].Cluster

	steps[0].Centroids[0][0] = 99
	steps[0].Clusters[0].Attributes[0] = 99
	steps[0].Clusters[0].Cluster = 7
	steps[0].InitialCentroids[0][0] = 99
	steps[0] = Result{}

	again := km.Steps()
	assert.Equal(t, wantCentroid, again[0].Centroids[0])
	assert.Equal(t, wantAttrs, again[0].Clusters[0].Attributes)
	assert.Equal(t, wantLabel, again[0].Clusters[0].Cluster)
	assert.Equal(t, [][]float64{{0, 0}, {0, 1}}, again[0].InitialCentroids)
}

func TestKMeans_Predict(t *testing.T) {
	km := NewKMeans(WithKMeansK(2), WithKMeansInitialCentroids([][]float64{{0, 0}, {10, 10}}))

	_, err := km.Predict([][]float64{{1, 1}})
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))

	_, err = km.Fit(twoBlobs)
	require.NoError(t, err)
	labels, err := km.Predict([][]float64{{1, 1}, {9, 9}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, labels)

	_, err = km.Predict([][]float64{{1, 1, 1}})
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestKMeans_Scores(t *testing.T) {
	km := NewKMeans(
		WithKMeansK(2),
		WithKMeansNormalize(false),
		WithKMeansInitialCentroids([][]float64{{0, 0}, {10, 10}}),
	)
	_, err := km.Fit(twoBlobs)
	require.NoError(t, err)

	sse, err := km.SSE()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sse, 1e-12)

	ssb, err := km.SSB()
	require.NoError(t, err)
	assert.InDelta(t, 200.0, ssb, 1e-9)

	info, err := km.ClustersInfo()
	require.NoError(t, err)
	assert.Equal(t, []ClusterInfo{
		{Label: "0", Size: 2, Percent: "50.00%"},
		{Label: "1", Size: 2, Percent: "50.00%"},
	}, info)
}

func TestKMeans_InvalidParameters(t *testing.T) {
	tests := []struct {
		name  string
		opts  []KMeansOption
		check func(t *testing.T, err error)
	}{
		{
			name: "K larger than dataset",
			opts: []KMeansOption{WithKMeansK(5)},
			check: func(t *testing.T, err error) {
				var kErr *errors.InvalidKError
				require.True(t, errors.As(err, &kErr))
				assert.Equal(t, 4, kErr.Max)
			},
		},
		{
			name: "K zero",
			opts: []KMeansOption{WithKMeansK(0)},
			check: func(t *testing.T, err error) {
				var kErr *errors.InvalidKError
				assert.True(t, errors.As(err, &kErr))
			},
		},
		{
			name: "centroid count differs from K",
			opts: []KMeansOption{WithKMeansK(2), WithKMeansInitialCentroids([][]float64{{0, 0}})},
			check: func(t *testing.T, err error) {
				var vErr *errors.ValidationError
				assert.True(t, errors.As(err, &vErr))
			},
		},
		{
			name: "unknown distance",
			opts: []KMeansOption{WithKMeansDistance("cosine")},
			check: func(t *testing.T, err error) {
				var uErr *errors.UnknownMetricError
				assert.True(t, errors.As(err, &uErr))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKMeans(tt.opts...).Fit(twoBlobs)
			require.Error(t, err)
			tt.check(t, err)
		})
	}

	_, err := NewKMeans().Fit(nil)
	assert.ErrorIs(t, err, errors.ErrEmptyData)
}

func TestKMeans_IterationLimitWarns(t *testing.T) {
	provider, logger := log.NewTestLoggerProvider(log.LevelWarn)
	prev := log.GetProvider()
	log.SetProvider(provider)
	t.Cleanup(func() { log.SetProvider(prev) })

	km := NewKMeans(
		WithKMeansK(2),
		WithKMeansMaxIter(1),
		WithKMeansInitialCentroids([][]float64{{0, 0}, {0, 1}}),
	)
	_, err := km.Fit(twoBlobs)
	require.NoError(t, err)

	assert.False(t, km.Converged())
	assert.Equal(t, 1, km.Iterations())
	assert.True(t, logger.ContainsMessage("KMeans failed to converge after 1 iterations: assignments still changing when the iteration limit was reached"))
}

func TestKMeans_Logging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	km := NewKMeans(
		WithKMeansK(2),
		WithKMeansLogger(logger),
		WithKMeansInitialCentroids([][]float64{{0, 0}, {10, 10}}),
	)
	_, err := km.Fit(twoBlobs)
	require.NoError(t, err)

	assert.True(t, logger.ContainsMessage("Clustering finished"))
	assert.True(t, logger.ContainsField(log.ModelNameKey, "KMeans"))
	assert.True(t, logger.ContainsField(log.IterationKey, 1.0))
	assert.True(t, logger.ContainsField(log.ConvergedKey, true))
}

func TestDBSCAN_DenseRunAndNoise(t *testing.T) {
	d := NewDBSCAN(WithEps(1.5), WithMinPts(2))
	res, err := d.Fit([][]float64{{0, 0}, {0, 1}, {0, 2}, {50, 50}})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 1, Noise}, res.Labels())
	assert.Nil(t, res.Centroids)
	assert.Equal(t, 1, d.NClusters())
	assert.Equal(t, 1, d.NoiseCount())

	info, err := d.ClustersInfo()
	require.NoError(t, err)
	assert.Equal(t, []ClusterInfo{
		{Label: "1", Size: 3, Percent: "75.00%"},
		{Label: "Noise", Size: 1, Percent: "25.00%"},
	}, info)

	ssb, err := d.SSB(false)
	require.NoError(t, err)
	assert.InDelta(t, 918.9375, ssb, 1e-9)
}

func TestDBSCAN_NoiseIsReclaimed(t *testing.T) {
	// Point 0 has too few neighbours on its own but lies within eps of the
	// core point 1.
	labels, err := NewDBSCAN(WithEps(1), WithMinPts(3)).FitPredict([][]float64{{0}, {1}, {2}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, labels)
}

func TestDBSCAN_SeparateClusters(t *testing.T) {
	d := NewDBSCAN(WithEps(1.5), WithMinPts(2), WithDBSCANDistance("manhattan"))
	labels, err := d.FitPredict([][]float64{{0, 0}, {0, 1}, {10, 10}, {10, 11}, {50, 50}})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 2, 2, Noise}, labels)
	assert.Equal(t, 2, d.NClusters())
}

func TestDBSCAN_Defaults(t *testing.T) {
	d := NewDBSCAN()
	labels, err := d.FitPredict(twoBlobs)
	require.NoError(t, err)
	assert.Equal(t, []int{Noise, Noise, Noise, Noise}, labels)
	assert.Equal(t, 0, d.NClusters())
}

func TestDBSCAN_Errors(t *testing.T) {
	_, err := NewDBSCAN(WithMinPts(0)).Fit(twoBlobs)
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = NewDBSCAN(WithEps(-1)).Fit(twoBlobs)
	assert.True(t, errors.As(err, &vErr))

	_, err = NewDBSCAN().Fit([][]float64{{0, 0}, {1}})
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	_, err = NewDBSCAN().SSB(true)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestScores(t *testing.T) {
	labels := []int{0, 0, 1, 1}
	centroids := [][]float64{{0, 0.5}, {10, 10.5}}

	sse, err := SSE(twoBlobs, labels, centroids, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sse)

	ssb, err := SSB(twoBlobs, labels, nil, nil, false)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, ssb, 1e-9)

	_, err = SSE(twoBlobs, []int{0}, centroids, nil, false)
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	assert.Empty(t, ClustersInfo(nil))
}
