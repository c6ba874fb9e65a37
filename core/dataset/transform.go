package dataset

import (
	"fmt"
	"sort"
	"strconv"

	mlerrors "github.com/YuminosukeSato/mlkit/pkg/errors"
)

// ThresholdFunc picks the split point used by NumericToNominal.
type ThresholdFunc func(values []float64) float64

// RemoveAttributes returns a dataset without the given columns.
func (d *Dataset) RemoveAttributes(cols ...int) (*Dataset, error) {
	drop := make(map[int]bool, len(cols))
	for _, c := range cols {
		if err := d.checkColumn(c); err != nil {
			return nil, err
		}
		drop[c] = true
	}
	if len(drop) == len(d.attributes) {
		return nil, mlerrors.NewValidationError("cols", "cannot remove every attribute", cols)
	}

	var attrs []Attribute
	for _, a := range d.attributes {
		if !drop[a.Index] {
			a.Index = len(attrs)
			attrs = append(attrs, a)
		}
	}
	rows := make([][]any, len(d.rows))
	for i, row := range d.rows {
		kept := make([]any, 0, len(attrs))
		for c, v := range row {
			if !drop[c] {
				kept = append(kept, v)
			}
		}
		rows[i] = kept
	}
	return build(attrs, rows)
}

// ReplaceAttributes applies fns[i] to every cell of column cols[i].
// Column types are re-inferred afterwards.
func (d *Dataset) ReplaceAttributes(cols []int, fns []func(any) any) (*Dataset, error) {
	if len(cols) != len(fns) {
		return nil, mlerrors.NewDimensionError("dataset.ReplaceAttributes", len(cols), len(fns), 0)
	}
	for _, c := range cols {
		if err := d.checkColumn(c); err != nil {
			return nil, err
		}
	}
	rows := d.Rows()
	for _, row := range rows {
		for i, c := range cols {
			row[c] = fns[i](row[c])
		}
	}
	return New(d.Names(), rows)
}

// NumericToNominal discretizes numeric columns into two values,
// "<= t" and "> t", where t is fn applied to the column. A nil fn
// uses the median.
func (d *Dataset) NumericToNominal(cols []int, fn ThresholdFunc) (*Dataset, error) {
	if fn == nil {
		fn = Median
	}
	thresholds := make(map[int]float64, len(cols))
	for _, c := range cols {
		if err := d.checkColumn(c); err != nil {
			return nil, err
		}
		if d.attributes[c].Type != Numeric {
			return nil, mlerrors.NewValueError("dataset.NumericToNominal",
				fmt.Sprintf("attribute %q is already nominal", d.attributes[c].Name))
		}
		thresholds[c] = fn(d.numericColumn(c))
	}

	attrs := d.Attributes()
	for c := range thresholds {
		attrs[c].Type = Nominal
	}
	rows := d.Rows()
	for _, row := range rows {
		for c, t := range thresholds {
			ts := strconv.FormatFloat(t, 'f', -1, 64)
			if row[c].(float64) <= t {
				row[c] = "<= " + ts
			} else {
				row[c] = "> " + ts
			}
		}
	}
	return build(attrs, rows)
}

// NominalColumns returns the indexes of nominal attributes, excluding the target.
func (d *Dataset) NominalColumns() []int {
	var out []int
	for _, a := range d.attributes[:len(d.attributes)-1] {
		if a.Type == Nominal {
			out = append(out, a.Index)
		}
	}
	return out
}

// NumericColumns returns the indexes of numeric attributes, excluding the target.
func (d *Dataset) NumericColumns() []int {
	var out []int
	for _, a := range d.attributes[:len(d.attributes)-1] {
		if a.Type == Numeric {
			out = append(out, a.Index)
		}
	}
	return out
}

// SortedValues returns the distinct values of column c in ascending order.
func (d *Dataset) SortedValues(c int) []string {
	freq := d.Frequency(c)
	out := make([]string, 0, len(freq))
	for v := range freq {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (d *Dataset) checkColumn(c int) error {
	if c < 0 || c >= len(d.attributes) {
		return mlerrors.NewValidationError("column", fmt.Sprintf("must be in [0, %d)", len(d.attributes)), c)
	}
	return nil
}
