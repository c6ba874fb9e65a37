package linear

import "github.com/YuminosukeSato/mlkit/pkg/log"

// Option configures a GradientDescent.
type Option func(*GradientDescent)

// WithAlpha sets the learning rate.
func WithAlpha(alpha float64) Option {
	return func(gd *GradientDescent) {
		gd.alpha = alpha
	}
}

// WithPrecision sets the stopping tolerance on the change in MSE between
// two iterations.
func WithPrecision(precision float64) Option {
	return func(gd *GradientDescent) {
		gd.precision = precision
	}
}

// WithMaxIter sets the iteration cap.
func WithMaxIter(n int) Option {
	return func(gd *GradientDescent) {
		gd.maxIter = n
	}
}

// WithSaveError records the MSE of every iteration and periodic
// prediction-line snapshots.
func WithSaveError(save bool) Option {
	return func(gd *GradientDescent) {
		gd.saveError = save
	}
}

// WithPredictionLineGap sets how many iterations separate two
// prediction-line snapshots.
func WithPredictionLineGap(gap int) Option {
	return func(gd *GradientDescent) {
		gd.gap = gap
	}
}

// WithYColumn selects the target column for Train. Negative means the
// last column.
func WithYColumn(col int) Option {
	return func(gd *GradientDescent) {
		gd.yCol = col
	}
}

// WithUnivariate fits y = w0 + w1*x on the first feature only. Train then
// reads x from column 0 and y from column 1.
func WithUnivariate(on bool) Option {
	return func(gd *GradientDescent) {
		gd.univariate = on
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(gd *GradientDescent) {
		gd.logger = l
	}
}
