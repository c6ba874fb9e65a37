package metrics

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

// DistanceFunc measures the distance between two equal-length vectors.
type DistanceFunc func(a, b []float64) (float64, error)

// Distance names accepted by Distance.
const (
	EuclideanName   = "euclidean"
	ManhattanName   = "manhattan"
	HammingName     = "hamming"
	CategoricalName = "categorical"
)

var distances = map[string]DistanceFunc{
	EuclideanName:   Euclidean,
	ManhattanName:   Manhattan,
	HammingName:     Hamming,
	CategoricalName: Hamming,
}

// Distance returns the distance function registered under name.
// An empty name selects Euclidean.
func Distance(name string) (DistanceFunc, error) {
	if name == "" {
		return Euclidean, nil
	}
	fn, ok := distances[name]
	if !ok {
		return nil, errors.NewUnknownMetricError(name, DistanceNames())
	}
	return fn, nil
}

// DistanceNames lists the registered distance names in sorted order.
func DistanceNames() []string {
	names := make([]string, 0, len(distances))
	for name := range distances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Euclidean returns sqrt(Σ(a_i-b_i)²).
func Euclidean(a, b []float64) (float64, error) {
	if err := sameLength("Euclidean", a, b); err != nil {
		return 0, err
	}
	return floats.Distance(a, b, 2), nil
}

// Manhattan returns Σ|a_i-b_i|.
func Manhattan(a, b []float64) (float64, error) {
	if err := sameLength("Manhattan", a, b); err != nil {
		return 0, err
	}
	return floats.Distance(a, b, 1), nil
}

// Hamming counts the positions where a and b differ. With ordinal-encoded
// nominal features this is the categorical mismatch count.
func Hamming(a, b []float64) (float64, error) {
	if err := sameLength("Hamming", a, b); err != nil {
		return 0, err
	}
	var d float64
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d, nil
}

// floats.Distance panics on unequal lengths.
func sameLength(op string, a, b []float64) error {
	if len(a) != len(b) {
		return errors.NewDimensionError(op, len(a), len(b), 1)
	}
	return nil
}
