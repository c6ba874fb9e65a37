package preprocessing

import (
	"gonum.org/v1/gonum/floats"
)

// MinMaxScale maps values linearly onto [lo, hi]. When every value is
// equal the range is zero and each value maps to lo.
func MinMaxScale(values []float64, lo, hi float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	min, max := floats.Min(values), floats.Max(values)
	span := max - min
	for i, v := range values {
		if span == 0 {
			out[i] = lo
			continue
		}
		out[i] = lo + (v-min)/span*(hi-lo)
	}
	return out
}
