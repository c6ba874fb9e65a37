package optimize

import "github.com/YuminosukeSato/mlkit/pkg/errors"

// CoolingFunc returns the next temperature given the current one and the
// elapsed fraction of the time budget.
type CoolingFunc func(temp, progress float64) float64

// LinearCooling lowers the temperature by 0.1 per step.
func LinearCooling(temp, _ float64) float64 {
	return temp - 0.1
}

// QuadraticCooling lowers the temperature by 0.1·progress², slowly at first.
func QuadraticCooling(temp, progress float64) float64 {
	return temp - 0.1*progress*progress
}

var coolings = map[string]CoolingFunc{
	"linear":    LinearCooling,
	"quadratic": QuadraticCooling,
}

// CoolingByName looks up a schedule. An empty name selects linear.
func CoolingByName(name string) (CoolingFunc, error) {
	if name == "" {
		return LinearCooling, nil
	}
	fn, ok := coolings[name]
	if !ok {
		return nil, errors.NewValidationError("cooling", "must be linear or quadratic", name)
	}
	return fn, nil
}
