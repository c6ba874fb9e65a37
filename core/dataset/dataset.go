// Package dataset holds the rectangular, typed table every mlkit engine consumes.
//
// Column types are inferred from the last row: a cell that converts to a
// number makes its column NUMERIC, anything else makes it NOMINAL. Numeric
// cells are stored as float64 and nominal cells as string, so callers can
// type-switch on Row values without further conversion.
//
// Datasets are immutable. Transforms return new datasets and accessors
// return copies.
package dataset

import (
	"fmt"

	"github.com/spf13/cast"

	mlerrors "github.com/YuminosukeSato/mlkit/pkg/errors"
)

// Type tags an attribute as numeric or nominal.
type Type int

const (
	// Numeric columns hold float64 cells.
	Numeric Type = iota
	// Nominal columns hold string cells.
	Nominal
)

func (t Type) String() string {
	if t == Numeric {
		return "NUMERIC"
	}
	return "NOMINAL"
}

// Attribute describes one column.
type Attribute struct {
	Name  string
	Index int
	Type  Type
}

// Dataset is an ordered set of equal-length rows with named, typed columns.
type Dataset struct {
	attributes []Attribute
	byName     map[string]int
	rows       [][]any
}

// New builds a dataset from attribute names and raw rows, inferring types
// from the last row. rows is copied.
func New(names []string, rows [][]any) (*Dataset, error) {
	if len(names) == 0 {
		return nil, mlerrors.NewValidationError("names", "at least one attribute is required", len(names))
	}
	if len(rows) == 0 {
		return nil, mlerrors.NewModelError("dataset.New", "empty data", mlerrors.ErrEmptyData)
	}

	last := rows[len(rows)-1]
	if len(last) != len(names) {
		return nil, mlerrors.NewDimensionError("dataset.New", len(names), len(last), 1)
	}
	attrs := make([]Attribute, len(names))
	for i, name := range names {
		attrs[i] = Attribute{Name: name, Index: i, Type: inferType(last[i])}
	}
	return build(attrs, rows)
}

// FromFloats builds an all-numeric dataset.
func FromFloats(names []string, X [][]float64) (*Dataset, error) {
	rows := make([][]any, len(X))
	for i, x := range X {
		row := make([]any, len(x))
		for j, v := range x {
			row[j] = v
		}
		rows[i] = row
	}
	return New(names, rows)
}

// WithRows returns a dataset with the same attributes holding rows.
// Types are not re-inferred; rows produced by Rows, holdout or rFold
// of d are always compatible.
func (d *Dataset) WithRows(rows [][]any) (*Dataset, error) {
	attrs := make([]Attribute, len(d.attributes))
	copy(attrs, d.attributes)
	return build(attrs, rows)
}

func build(attrs []Attribute, rows [][]any) (*Dataset, error) {
	byName := make(map[string]int, len(attrs))
	for i, a := range attrs {
		if _, dup := byName[a.Name]; dup {
			return nil, mlerrors.NewValidationError("names", "attribute names must be unique", a.Name)
		}
		byName[a.Name] = i
	}

	out := make([][]any, len(rows))
	for r, row := range rows {
		if len(row) != len(attrs) {
			return nil, mlerrors.NewDimensionError("dataset.New", len(attrs), len(row), 1)
		}
		cells := make([]any, len(row))
		for c, v := range row {
			cell, err := normalize(v, attrs[c].Type)
			if err != nil {
				return nil, mlerrors.NewValueError("dataset.New",
					fmt.Sprintf("row %d, attribute %q: %v", r, attrs[c].Name, err))
			}
			cells[c] = cell
		}
		out[r] = cells
	}
	return &Dataset{attributes: attrs, byName: byName, rows: out}, nil
}

func inferType(v any) Type {
	if v == nil {
		return Nominal
	}
	if _, err := cast.ToFloat64E(v); err != nil {
		return Nominal
	}
	return Numeric
}

func normalize(v any, t Type) (any, error) {
	if t == Numeric {
		if v == nil {
			return nil, fmt.Errorf("missing numeric value")
		}
		return cast.ToFloat64E(v)
	}
	if v == nil {
		return "", nil
	}
	return cast.ToStringE(v)
}

// Attributes returns a copy of the attribute list in column order.
func (d *Dataset) Attributes() []Attribute {
	out := make([]Attribute, len(d.attributes))
	copy(out, d.attributes)
	return out
}

// Attribute looks up an attribute by name.
func (d *Dataset) Attribute(name string) (Attribute, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Attribute{}, false
	}
	return d.attributes[i], true
}

// Names returns the attribute names in column order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.attributes))
	for i, a := range d.attributes {
		out[i] = a.Name
	}
	return out
}

// Target is the last attribute, the class for classifiers.
func (d *Dataset) Target() Attribute {
	return d.attributes[len(d.attributes)-1]
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// NumAttributes returns the number of columns.
func (d *Dataset) NumAttributes() int { return len(d.attributes) }

// HasNominal reports whether any column is nominal.
func (d *Dataset) HasNominal() bool {
	for _, a := range d.attributes {
		if a.Type == Nominal {
			return true
		}
	}
	return false
}

// Rows returns a deep copy of all rows.
func (d *Dataset) Rows() [][]any {
	out := make([][]any, len(d.rows))
	for i := range d.rows {
		out[i] = d.Row(i)
	}
	return out
}

// Row returns a copy of row i.
func (d *Dataset) Row(i int) []any {
	row := make([]any, len(d.rows[i]))
	copy(row, d.rows[i])
	return row
}

// Column returns the cells of column c.
func (d *Dataset) Column(c int) []any {
	out := make([]any, len(d.rows))
	for i, row := range d.rows {
		out[i] = row[c]
	}
	return out
}

// Floats extracts the given numeric columns as a matrix. With no
// columns it extracts every column.
func (d *Dataset) Floats(cols ...int) ([][]float64, error) {
	if len(cols) == 0 {
		cols = make([]int, len(d.attributes))
		for i := range cols {
			cols[i] = i
		}
	}
	for _, c := range cols {
		if err := d.checkColumn(c); err != nil {
			return nil, err
		}
		if d.attributes[c].Type != Numeric {
			return nil, mlerrors.NewValueError("dataset.Floats",
				fmt.Sprintf("attribute %q is nominal", d.attributes[c].Name))
		}
	}
	out := make([][]float64, len(d.rows))
	for i, row := range d.rows {
		x := make([]float64, len(cols))
		for j, c := range cols {
			x[j] = row[c].(float64)
		}
		out[i] = x
	}
	return out, nil
}

// Labels returns the target column as strings.
func (d *Dataset) Labels() []string {
	t := len(d.attributes) - 1
	out := make([]string, len(d.rows))
	for i, row := range d.rows {
		out[i] = Label(row[t])
	}
	return out
}

// Label formats a cell as a class label. Numeric labels use the shortest
// decimal representation, so 1.0 becomes "1".
func Label(v any) string {
	return cast.ToString(v)
}

// Frequency counts the occurrences of each value in column c.
func (d *Dataset) Frequency(c int) map[string]int {
	freq := make(map[string]int)
	for _, row := range d.rows {
		freq[Label(row[c])]++
	}
	return freq
}
