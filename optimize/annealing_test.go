package optimize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

var line = []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}}

func quiet() Option {
	logger, _ := log.NewTestLogger(log.LevelError)
	return WithLogger(logger)
}

func TestEnergy(t *testing.T) {
	tests := []struct {
		name string
		tour []Point
		want float64
	}{
		{"empty", nil, 0},
		{"single", []Point{{1, 1}}, 0},
		{"right triangle", []Point{{0, 0}, {3, 4}, {3, 0}}, 9},
		{"line", line, 3},
		{"line out of order", []Point{{0, 0}, {2, 0}, {1, 0}, {3, 0}}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Energy(tt.tour), 1e-12)
		})
	}
}

func TestCooling(t *testing.T) {
	assert.InDelta(t, 0.9, LinearCooling(1, 0.5), 1e-12)
	assert.InDelta(t, 0.975, QuadraticCooling(1, 0.5), 1e-12)
	assert.InDelta(t, 1.0, QuadraticCooling(1, 0), 1e-12)

	for _, name := range []string{"", "linear", "quadratic"} {
		fn, err := CoolingByName(name)
		require.NoError(t, err, name)
		assert.NotNil(t, fn)
	}

	_, err := CoolingByName("exponential")
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestSimulatedAnnealing_StopsAtZero(t *testing.T) {
	sa := NewSimulatedAnnealing(
		WithTemperature(0.25),
		WithSaveHistory(true),
		WithRandomState(1),
		quiet(),
	)
	res, err := sa.Fit(line)
	require.NoError(t, err)

	// 0.15, 0.05, then clamped to 0
	assert.Equal(t, 3, res.Steps)
	require.Len(t, res.History, 3)
	assert.Equal(t, 0.0, res.History[2].Temperature)
	assert.InDelta(t, 0.01, res.History[0].Progress, 1e-12)
	assert.InDelta(t, 0.03, res.History[2].Progress, 1e-12)
	for i, s := range res.History {
		assert.Equal(t, i+1, s.Step)
	}
}

func TestSimulatedAnnealing_ZeroTemperatureOnlyImproves(t *testing.T) {
	// every swap of a sorted line makes the path strictly longer
	sa := NewSimulatedAnnealing(
		WithCoolingFunc(func(float64, float64) float64 { return 0 }),
		WithSaveHistory(true),
		WithRandomState(3),
		quiet(),
	)
	res, err := sa.Fit(line)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Steps)
	assert.False(t, res.History[0].Accepted)
	assert.Equal(t, line, res.Tour)
	assert.Equal(t, line, res.Best)
	assert.InDelta(t, 3.0, res.BestEnergy, 1e-12)
}

func TestSimulatedAnnealing_KeepsBest(t *testing.T) {
	points := []Point{{3, 0}, {0, 0}, {4, 0}, {1, 0}, {2, 0}, {5, 0}}
	input := append([]Point(nil), points...)

	for _, cooling := range []string{"linear", "quadratic"} {
		t.Run(cooling, func(t *testing.T) {
			sa := NewSimulatedAnnealing(
				WithTemperature(5),
				WithCooling(cooling),
				WithSaveHistory(true),
				WithRandomState(42),
				quiet(),
			)
			res, err := sa.Fit(points)
			require.NoError(t, err)
			assert.Equal(t, input, points, "input must not be modified")

			assert.LessOrEqual(t, res.BestEnergy, Energy(points))
			assert.LessOrEqual(t, res.BestEnergy, res.Energy)
			assert.InDelta(t, Energy(res.Best), res.BestEnergy, 1e-12)
			assert.InDelta(t, Energy(res.Tour), res.Energy, 1e-12)
			assert.ElementsMatch(t, points, res.Best)
			assert.ElementsMatch(t, points, res.Tour)

			require.Len(t, res.History, res.Steps)
			prev := res.History[0]
			for _, s := range res.History[1:] {
				assert.LessOrEqual(t, s.Temperature, prev.Temperature)
				assert.LessOrEqual(t, s.BestEnergy, prev.BestEnergy)
				prev = s
			}
			assert.Equal(t, 0.0, prev.Temperature)
			assert.Equal(t, res.BestEnergy, prev.BestEnergy)
		})
	}
}

func TestSimulatedAnnealing_Deterministic(t *testing.T) {
	points := []Point{{0, 0}, {5, 5}, {1, 0}, {4, 5}, {2, 1}, {3, 3}}
	run := func() *Result {
		res, err := NewSimulatedAnnealing(WithTemperature(2), WithRandomState(7), quiet()).Fit(points)
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	assert.Equal(t, a.Best, b.Best)
	assert.Equal(t, a.Tour, b.Tour)
	assert.Equal(t, a.Steps, b.Steps)
}

func TestSimulatedAnnealing_VirtualClock(t *testing.T) {
	sa := NewSimulatedAnnealing(
		WithTemperature(0.15),
		WithStepDelay(50*time.Millisecond),
		WithTimeBudget(100*time.Millisecond),
		WithSaveHistory(true),
		WithRandomState(1),
		quiet(),
	)
	res, err := sa.Fit(line)
	require.NoError(t, err)
	require.Len(t, res.History, 2)
	assert.InDelta(t, 0.5, res.History[0].Progress, 1e-12)
	assert.InDelta(t, 1.0, res.History[1].Progress, 1e-12)
}

func TestSimulatedAnnealing_StepLimitWarns(t *testing.T) {
	provider, logger := log.NewTestLoggerProvider(log.LevelWarn)
	prev := log.GetProvider()
	log.SetProvider(provider)
	t.Cleanup(func() { log.SetProvider(prev) })

	sa := NewSimulatedAnnealing(
		WithCoolingFunc(func(temp, _ float64) float64 { return temp }),
		WithMaxSteps(20),
		WithRandomState(1),
		quiet(),
	)
	res, err := sa.Fit(line)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Steps)
	assert.Empty(t, res.History)
	assert.True(t, logger.ContainsMessage("SimulatedAnnealing failed to converge after 20 iterations"))
}

func TestSimulatedAnnealing_FitData(t *testing.T) {
	sa := NewSimulatedAnnealing(WithTemperature(0.25), WithRandomState(1), quiet())
	res, err := sa.FitData([][]float64{{0, 0, 9}, {3, 4, 9}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []Point{{0, 0}, {3, 4}}, res.Best)
	assert.InDelta(t, 5.0, res.BestEnergy, 1e-12)

	got, err := sa.Result()
	require.NoError(t, err)
	assert.Same(t, res, got)

	_, err = sa.FitData([][]float64{{0, 0}, {1}})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestSimulatedAnnealing_Errors(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		points []Point
	}{
		{"one point", nil, []Point{{0, 0}}},
		{"no points", nil, nil},
		{"zero temperature", []Option{WithTemperature(0)}, line},
		{"negative temperature", []Option{WithTemperature(-1)}, line},
		{"unknown cooling", []Option{WithCooling("cubic")}, line},
		{"zero budget", []Option{WithTimeBudget(0)}, line},
		{"zero step limit", []Option{WithMaxSteps(0)}, line},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{quiet()}, tt.opts...)
			_, err := NewSimulatedAnnealing(opts...).Fit(tt.points)
			var vErr *errors.ValidationError
			assert.True(t, errors.As(err, &vErr))
		})
	}

	_, err := NewSimulatedAnnealing().Result()
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestSimulatedAnnealing_Logging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	sa := NewSimulatedAnnealing(WithTemperature(0.25), WithRandomState(1), WithLogger(logger))
	_, err := sa.Fit(line)
	require.NoError(t, err)

	assert.True(t, logger.ContainsMessage("Annealing started"))
	assert.True(t, logger.ContainsMessage("Step finished"))
	assert.True(t, logger.ContainsMessage("Annealing finished"))
	assert.True(t, logger.ContainsField(log.TemperatureKey, 0.25))
	assert.True(t, logger.ContainsField(log.IterationKey, 3.0))
	assert.True(t, logger.ContainsField(log.RandomSeedKey, 1.0))
}
