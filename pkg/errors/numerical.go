package errors

import (
	"math"
)

// maxExp is the largest exponent StabilizeExp passes to math.Exp.
const maxExp = 700.0

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckNumericalStability returns a NumericalInstabilityError carrying
// values when any of them is NaN or ±Inf, such as a diverged weight vector.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if !finite(v) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar is CheckNumericalStability for a single value such as a loss.
func CheckScalar(operation string, value float64, iteration int) error {
	if finite(value) {
		return nil
	}
	return NewNumericalInstabilityError(operation, []float64{value}, iteration)
}

// SafeDivide returns numerator/denominator, or 0 when the denominator is
// zero. Precision, recall and accuracy use it so that 0/0 is 0, never NaN.
func SafeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// ClipValue clamps value to [min, max].
func ClipValue(value, min, max float64) float64 {
	return math.Max(min, math.Min(max, value))
}

// StabilizeExp is math.Exp with its argument capped at maxExp and
// underflowing to 0 below -maxExp. Boltzmann acceptance exp(-ΔE/T) calls
// it with T close to zero.
func StabilizeExp(value float64) float64 {
	switch {
	case value > maxExp:
		return math.Exp(maxExp)
	case value < -maxExp:
		return 0
	}
	return math.Exp(value)
}
