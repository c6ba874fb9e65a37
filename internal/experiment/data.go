package experiment

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/YuminosukeSato/mlkit/core/dataset"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/preprocessing"
)

// LoadCSV reads a CSV file whose first record is the header.
func LoadCSV(path, target string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()
	return ReadCSV(f, target)
}

// ReadCSV parses CSV records into a dataset. When target names a column
// it is moved to the end so that it becomes the class attribute.
// Empty cells become missing values.
func ReadCSV(r io.Reader, target string) (*dataset.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	if len(records) < 2 {
		return nil, errors.NewModelError("ReadCSV", "empty data", errors.ErrEmptyData)
	}

	header := records[0]
	order := make([]int, 0, len(header))
	t := -1
	for i, name := range header {
		if target != "" && name == target {
			t = i
			continue
		}
		order = append(order, i)
	}
	if target != "" && t < 0 {
		return nil, errors.NewValidationError("dataset.target", "no such column", target)
	}
	if t >= 0 {
		order = append(order, t)
	}

	names := make([]string, len(order))
	for i, c := range order {
		names[i] = strings.TrimSpace(header[c])
	}
	rows := make([][]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]any, len(order))
		for i, c := range order {
			if v := strings.TrimSpace(rec[c]); v != "" {
				row[i] = v
			}
		}
		rows = append(rows, row)
	}
	return dataset.New(names, rows)
}

// Scale rescales the numeric feature columns of ds with the named scaler.
// An empty name returns ds unchanged.
func Scale(ds *dataset.Dataset, name string) (*dataset.Dataset, error) {
	scaler, err := preprocessing.NewScaler(name)
	if err != nil {
		return nil, err
	}
	if scaler == nil {
		return ds, nil
	}
	cols := ds.NumericColumns()
	if len(cols) == 0 {
		return ds, nil
	}
	X, err := ds.Floats(cols...)
	if err != nil {
		return nil, err
	}
	scaled, err := preprocessing.ScaleRows(scaler, X)
	if err != nil {
		return nil, err
	}
	rows := ds.Rows()
	for i, row := range rows {
		for j, c := range cols {
			row[c] = scaled[i][j]
		}
	}
	return ds.WithRows(rows)
}
