package linear

import (
	"context"
	"math"
	"time"

	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// Gradient descent defaults.
const (
	DefaultAlpha     = 1e-3
	DefaultPrecision = 1e-4
	DefaultMaxIter   = 500
	DefaultGap       = 100
)

var (
	_ model.Regressor = (*GradientDescent)(nil)
	_ model.Regressor = (*LinearRegression)(nil)
)

// PredictionLine is the model's output on every training row at one
// iteration.
type PredictionLine struct {
	Iteration int
	Final     bool
	Values    []float64
}

// GradientDescent fits a linear model h(x) = θ0 + θ1·x1 + ... + θd·xd by
// batch gradient descent on the half mean squared error
// Σ(h(x)-y)²/(2n). All weights start at zero and are updated together
// each iteration with gradient Σ(h(x)-y)·x/n. Fitting stops when the MSE
// changes by at most precision or after maxIter iterations.
type GradientDescent struct {
	model.BaseEstimator

	// ハイパーパラメータ
	alpha      float64
	precision  float64
	maxIter    int
	saveError  bool
	gap        int
	yCol       int
	univariate bool
	logger     log.Logger

	// 学習結果（gobで保存できるよう公開）
	Theta      []float64
	MSE        float64
	Iterations int
	Converged  bool

	history []float64
	lines   []PredictionLine
}

// NewGradientDescent creates a regressor with alpha 1e-3, precision 1e-4
// and at most 500 iterations.
func NewGradientDescent(opts ...Option) *GradientDescent {
	gd := &GradientDescent{
		alpha:     DefaultAlpha,
		precision: DefaultPrecision,
		maxIter:   DefaultMaxIter,
		gap:       DefaultGap,
		yCol:      -1,
	}
	for _, opt := range opts {
		opt(gd)
	}
	if gd.logger == nil {
		gd.logger = log.GetLoggerWithName("GradientDescent")
	}
	gd.logger = gd.logger.With(log.ModelNameKey, "GradientDescent")
	return gd
}

// Train splits data into features and target and fits. The target is the
// configured y column, or column 1 with column 0 as the only feature for
// the univariate model.
func (gd *GradientDescent) Train(data [][]float64) error {
	if len(data) == 0 {
		return errors.NewModelError("GradientDescent.Train", "empty data", errors.ErrEmptyData)
	}
	width := len(data[0])
	yCol := gd.yCol
	if gd.univariate {
		yCol = 1
	} else if yCol < 0 {
		yCol = width - 1
	}
	if width < 2 || yCol >= width {
		return errors.NewValidationError("yColumn", "out of range", yCol)
	}

	X := make([][]float64, len(data))
	y := make([]float64, len(data))
	for i, row := range data {
		if len(row) != width {
			return errors.NewDimensionError("GradientDescent.Train", width, len(row), 1)
		}
		y[i] = row[yCol]
		x := make([]float64, 0, width-1)
		x = append(x, row[:yCol]...)
		x = append(x, row[yCol+1:]...)
		X[i] = x
	}
	return gd.Fit(X, y)
}

// Fit learns the weights from X and y.
func (gd *GradientDescent) Fit(X [][]float64, y []float64) error {
	if err := gd.validate(); err != nil {
		return err
	}
	A, err := gd.design(X, "GradientDescent.Fit")
	if err != nil {
		return err
	}
	n, m := A.Dims()
	if len(y) != n {
		return errors.NewDimensionError("GradientDescent.Fit", n, len(y), 0)
	}

	start := time.Now()
	gd.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, m-1,
		log.LearningRateKey, gd.alpha,
	)

	target := mat.NewVecDense(n, append([]float64(nil), y...))
	theta := mat.NewVecDense(m, nil)
	var h, residual, grad mat.VecDense

	halfMSE := func() float64 {
		h.MulVec(A, theta)
		residual.SubVec(&h, target)
		return mat.Dot(&residual, &residual) / float64(2*n)
	}

	gd.history = nil
	gd.lines = nil
	converged := false
	iter := 0
	eNew := halfMSE()
	for iter < gd.maxIter {
		eOld := eNew
		if gd.saveError {
			gd.history = append(gd.history, eOld)
		}

		// residual holds h(x)-y for the current theta
		grad.MulVec(A.T(), &residual)
		theta.AddScaledVec(theta, -gd.alpha/float64(n), &grad)

		if gd.saveError && iter%gd.gap == 0 {
			gd.snapshot(A, theta, iter, false)
		}

		eNew = halfMSE()
		iter++
		if err := errors.CheckScalar("GradientDescent.Fit", eNew, iter); err != nil {
			gd.logger.Error("Training diverged", err,
				log.IterationKey, iter,
				log.LearningRateKey, gd.alpha,
			)
			return err
		}
		if gd.logger.Enabled(context.Background(), log.LevelDebug) {
			gd.logger.Debug("Iteration finished", log.IterationKey, iter, log.LossKey, eNew)
		}
		if math.Abs(eNew-eOld) <= gd.precision {
			converged = true
			break
		}
	}
	if gd.saveError {
		gd.snapshot(A, theta, iter, true)
	}

	gd.Theta = append([]float64(nil), theta.RawVector().Data...)
	gd.MSE = eNew
	gd.Iterations = iter
	gd.Converged = converged
	gd.SetFitted()

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("GradientDescent", iter,
			"MSE still changing by more than precision"))
	}

	gd.logger.Info("Training finished",
		log.IterationKey, iter,
		log.LossKey, eNew,
		log.ConvergedKey, converged,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (gd *GradientDescent) validate() error {
	if gd.alpha <= 0 {
		return errors.NewValidationError("alpha", "must be positive", gd.alpha)
	}
	if gd.precision < 0 {
		return errors.NewValidationError("precision", "must not be negative", gd.precision)
	}
	if gd.maxIter < 1 {
		return errors.NewValidationError("maxIter", "must be at least 1", gd.maxIter)
	}
	if gd.gap < 1 {
		return errors.NewValidationError("predictionLineGap", "must be at least 1", gd.gap)
	}
	return nil
}

// design returns X with a leading column of ones. The univariate model
// keeps only the first feature.
func (gd *GradientDescent) design(X [][]float64, op string) (*mat.Dense, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	d := len(X[0])
	if gd.univariate {
		d = 1
	}
	A := mat.NewDense(len(X), d+1, nil)
	for i, row := range X {
		if len(row) != len(X[0]) {
			return nil, errors.NewDimensionError(op, len(X[0]), len(row), 1)
		}
		A.Set(i, 0, 1)
		for j := 0; j < d; j++ {
			A.Set(i, j+1, row[j])
		}
	}
	return A, nil
}

func (gd *GradientDescent) snapshot(A *mat.Dense, theta *mat.VecDense, iter int, final bool) {
	var h mat.VecDense
	h.MulVec(A, theta)
	gd.lines = append(gd.lines, PredictionLine{
		Iteration: iter,
		Final:     final,
		Values:    append([]float64(nil), h.RawVector().Data...),
	})
}

// PredictValues returns h(x) for every row of X.
func (gd *GradientDescent) PredictValues(X [][]float64) ([]float64, error) {
	if err := gd.RequireFitted("GradientDescent", "PredictValues"); err != nil {
		return nil, err
	}
	A, err := gd.design(X, "GradientDescent.PredictValues")
	if err != nil {
		return nil, err
	}
	if _, c := A.Dims(); c != len(gd.Theta) {
		return nil, errors.NewDimensionError("GradientDescent.PredictValues", len(gd.Theta)-1, c-1, 1)
	}
	var h mat.VecDense
	h.MulVec(A, mat.NewVecDense(len(gd.Theta), gd.Theta))
	return append([]float64(nil), h.RawVector().Data...), nil
}

// Predict returns h(x) for every row of X and, when actual is non-nil, the
// half MSE of the predictions against it. Without actual values mse is NaN.
func (gd *GradientDescent) Predict(X [][]float64, actual []float64) (values []float64, mse float64, err error) {
	values, err = gd.PredictValues(X)
	if err != nil {
		return nil, 0, err
	}
	if actual == nil {
		return values, math.NaN(), nil
	}
	if len(actual) != len(values) {
		return nil, 0, errors.NewDimensionError("GradientDescent.Predict", len(values), len(actual), 0)
	}
	sum := 0.0
	for i, v := range values {
		d := v - actual[i]
		sum += d * d
	}
	return values, sum / float64(2*len(values)), nil
}

// ErrorHistory returns the MSE before each iteration, recorded with
// WithSaveError.
func (gd *GradientDescent) ErrorHistory() []float64 {
	return append([]float64(nil), gd.history...)
}

// PredictionLines returns the snapshots taken every gap iterations plus a
// final one, recorded with WithSaveError.
func (gd *GradientDescent) PredictionLines() []PredictionLine {
	return append([]PredictionLine(nil), gd.lines...)
}
