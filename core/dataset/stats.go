package dataset

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NumericSummary describes one numeric attribute.
type NumericSummary struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64 // population standard deviation
}

// Statistics summarizes a dataset per attribute.
type Statistics struct {
	Instances  int
	Attributes int
	Numeric    map[string]NumericSummary
	Nominal    map[string]map[string]int
}

// Statistics computes per-attribute summaries: numeric attributes get
// min, max, mean, median and standard deviation, nominal attributes get
// value frequencies.
func (d *Dataset) Statistics() Statistics {
	s := Statistics{
		Instances:  len(d.rows),
		Attributes: len(d.attributes),
		Numeric:    make(map[string]NumericSummary),
		Nominal:    make(map[string]map[string]int),
	}
	for _, a := range d.attributes {
		if a.Type == Nominal {
			s.Nominal[a.Name] = d.Frequency(a.Index)
			continue
		}
		col := d.numericColumn(a.Index)
		mean, std := stat.PopMeanStdDev(col, nil)
		s.Numeric[a.Name] = NumericSummary{
			Min:    floats.Min(col),
			Max:    floats.Max(col),
			Mean:   mean,
			Median: Median(col),
			StdDev: std,
		}
	}
	return s
}

func (d *Dataset) numericColumn(c int) []float64 {
	col := make([]float64, len(d.rows))
	for i, row := range d.rows {
		col[i] = row[c].(float64)
	}
	return col
}

// Median returns the middle value of values, averaging the two middle
// values when the count is even. It returns 0 for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
