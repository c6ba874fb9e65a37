// Package optimize implements simulated annealing over the visiting order
// of a set of points.
package optimize

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
	"github.com/YuminosukeSato/mlkit/sklearn/model_selection"
)

// Annealing defaults.
const (
	DefaultTemperature = 100.0
	DefaultStepDelay   = 10 * time.Millisecond
	DefaultTimeBudget  = 1000 * time.Millisecond
	DefaultMaxSteps    = 100000
)

// Point is a location in the plane.
type Point struct {
	X, Y float64
}

// Step records one annealing step.
type Step struct {
	Step        int
	Progress    float64
	Temperature float64
	Energy      float64
	BestEnergy  float64
	Accepted    bool
}

// Result is the outcome of one annealing run.
type Result struct {
	// Tour is the ordering accepted last.
	Tour   []Point
	Energy float64
	// Best is the lowest-energy ordering seen at any step.
	Best       []Point
	BestEnergy float64
	Steps      int
	History    []Step
}

// SimulatedAnnealing searches for a short path through a set of points by
// swapping two of them per step. A worse ordering is accepted with
// probability exp(-ΔE/T) while the temperature T falls with the chosen
// cooling schedule. The run ends on the step at which T reaches zero.
//
// Progress for the cooling schedule comes from a virtual clock: step i has
// progress i·delay/budget, so runs do not depend on wall time.
type SimulatedAnnealing struct {
	model.BaseEstimator

	temperature float64
	coolingName string
	cooling     CoolingFunc
	delay       time.Duration
	budget      time.Duration
	maxSteps    int
	saveHistory bool
	randomState int64
	rng         *rand.Rand
	logger      log.Logger

	result *Result
}

// Option configures a SimulatedAnnealing.
type Option func(*SimulatedAnnealing)

// WithTemperature sets the initial temperature.
func WithTemperature(t float64) Option {
	return func(sa *SimulatedAnnealing) { sa.temperature = t }
}

// WithCooling selects a cooling schedule by name: "linear" or "quadratic".
func WithCooling(name string) Option {
	return func(sa *SimulatedAnnealing) { sa.coolingName = name }
}

// WithCoolingFunc sets a custom cooling schedule; it takes precedence over a name.
func WithCoolingFunc(fn CoolingFunc) Option {
	return func(sa *SimulatedAnnealing) { sa.cooling = fn }
}

// WithStepDelay sets the virtual time between two steps.
func WithStepDelay(d time.Duration) Option {
	return func(sa *SimulatedAnnealing) { sa.delay = d }
}

// WithTimeBudget sets the virtual duration that maps to progress 1.
func WithTimeBudget(d time.Duration) Option {
	return func(sa *SimulatedAnnealing) { sa.budget = d }
}

// WithMaxSteps caps the number of steps for schedules that never reach zero.
func WithMaxSteps(n int) Option {
	return func(sa *SimulatedAnnealing) { sa.maxSteps = n }
}

// WithSaveHistory records every step in Result.History.
func WithSaveHistory(on bool) Option {
	return func(sa *SimulatedAnnealing) { sa.saveHistory = on }
}

// WithRandomState seeds the neighbour moves and the acceptance test.
func WithRandomState(seed int64) Option {
	return func(sa *SimulatedAnnealing) {
		sa.randomState = seed
		sa.rng = model_selection.NewRand(seed)
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(sa *SimulatedAnnealing) { sa.logger = l }
}

// NewSimulatedAnnealing creates an annealer starting at temperature 100
// with linear cooling.
func NewSimulatedAnnealing(opts ...Option) *SimulatedAnnealing {
	sa := &SimulatedAnnealing{
		temperature: DefaultTemperature,
		delay:       DefaultStepDelay,
		budget:      DefaultTimeBudget,
		maxSteps:    DefaultMaxSteps,
		randomState: -1,
	}
	for _, opt := range opts {
		opt(sa)
	}
	if sa.rng == nil {
		sa.rng = model_selection.NewRand(sa.randomState)
	}
	if sa.logger == nil {
		sa.logger = log.GetLoggerWithName("SimulatedAnnealing")
	}
	sa.logger = sa.logger.With(log.ModelNameKey, "SimulatedAnnealing")
	return sa
}

// FitData anneals the points given as rows, reading x from column 0 and y
// from column 1.
func (sa *SimulatedAnnealing) FitData(data [][]float64) (*Result, error) {
	points := make([]Point, len(data))
	for i, row := range data {
		if len(row) < 2 {
			return nil, errors.NewDimensionError("SimulatedAnnealing.FitData", 2, len(row), 1)
		}
		points[i] = Point{X: row[0], Y: row[1]}
	}
	return sa.Fit(points)
}

// Fit anneals the ordering of points. The input slice is not modified.
func (sa *SimulatedAnnealing) Fit(points []Point) (*Result, error) {
	cooling, err := sa.validate(len(points))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sa.logger.Info("Annealing started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(points),
		log.TemperatureKey, sa.temperature,
		log.RandomSeedKey, sa.randomState,
	)

	cur := append([]Point(nil), points...)
	curE := Energy(cur)
	best := append([]Point(nil), cur...)
	bestE := curE
	var history []Step

	temp := sa.temperature
	step := 0
	for step < sa.maxSteps {
		step++
		progress := float64(time.Duration(step)*sa.delay) / float64(sa.budget)
		temp = cooling(temp, progress)
		if temp <= 0 {
			temp = 0
		}

		cand := sa.neighbour(cur)
		candE := Energy(cand)
		accepted := candE < curE
		// T = 0 admits only strict improvements
		if !accepted && temp > 0 {
			accepted = sa.rng.Float64() < errors.StabilizeExp(-(candE-curE)/temp)
		}
		if accepted {
			cur, curE = cand, candE
		}
		if curE < bestE {
			best = append(best[:0], cur...)
			bestE = curE
		}

		if sa.saveHistory {
			history = append(history, Step{
				Step:        step,
				Progress:    progress,
				Temperature: temp,
				Energy:      curE,
				BestEnergy:  bestE,
				Accepted:    accepted,
			})
		}
		if sa.logger.Enabled(context.Background(), log.LevelDebug) {
			sa.logger.Debug("Step finished",
				log.IterationKey, step,
				log.TemperatureKey, temp,
				log.EnergyKey, curE,
			)
		}
		if temp == 0 {
			break
		}
	}

	if temp > 0 {
		errors.Warn(errors.NewConvergenceWarning("SimulatedAnnealing", step,
			"temperature still above zero when the step limit was reached"))
	}

	sa.result = &Result{
		Tour:       cur,
		Energy:     curE,
		Best:       best,
		BestEnergy: bestE,
		Steps:      step,
		History:    history,
	}
	sa.SetFitted()

	sa.logger.Info("Annealing finished",
		log.IterationKey, step,
		log.EnergyKey, bestE,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return sa.result, nil
}

func (sa *SimulatedAnnealing) validate(n int) (CoolingFunc, error) {
	if n < 2 {
		return nil, errors.NewValidationError("points", "need at least two points", n)
	}
	if !(sa.temperature > 0) || math.IsInf(sa.temperature, 0) {
		return nil, errors.NewValidationError("temperature", "must be positive and finite", sa.temperature)
	}
	if sa.delay <= 0 || sa.budget <= 0 {
		return nil, errors.NewValidationError("timeBudget", "step delay and budget must be positive", sa.budget)
	}
	if sa.maxSteps < 1 {
		return nil, errors.NewValidationError("maxSteps", "must be at least 1", sa.maxSteps)
	}
	if sa.cooling != nil {
		return sa.cooling, nil
	}
	return CoolingByName(sa.coolingName)
}

// neighbour returns a copy of tour with two distinct positions swapped.
func (sa *SimulatedAnnealing) neighbour(tour []Point) []Point {
	i := sa.rng.Intn(len(tour))
	j := sa.rng.Intn(len(tour) - 1)
	if j >= i {
		j++
	}
	out := append([]Point(nil), tour...)
	out[i], out[j] = out[j], out[i]
	return out
}

// Result returns the last run, or NotFittedError before one.
func (sa *SimulatedAnnealing) Result() (*Result, error) {
	if err := sa.RequireFitted("SimulatedAnnealing", "Result"); err != nil {
		return nil, err
	}
	return sa.result, nil
}

// Energy is the length of the path visiting tour in order.
func Energy(tour []Point) float64 {
	sum := 0.0
	for i := 0; i+1 < len(tour); i++ {
		// both vectors are 2-D so the length check cannot fail
		d, _ := metrics.Euclidean(
			[]float64{tour[i].X, tour[i].Y},
			[]float64{tour[i+1].X, tour[i+1].Y},
		)
		sum += d
	}
	return sum
}
