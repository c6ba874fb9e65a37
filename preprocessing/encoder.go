package preprocessing

import (
	"sort"

	"github.com/spf13/cast"

	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

// Unknown is the code OrdinalEncoder gives to a value not seen in Fit.
const Unknown = -1

// OrdinalEncoder turns mixed numeric/nominal feature rows into float
// vectors. Nominal columns get the index of the value in the sorted set
// of values seen during Fit; numeric columns pass through.
type OrdinalEncoder struct {
	model.BaseEstimator

	// Columns are the nominal column indexes.
	Columns []int
	// Codes maps column index to value to code.
	Codes map[int]map[string]int
	// NFeatures は特徴量の数
	NFeatures int
}

// NewOrdinalEncoder creates an encoder for the given nominal columns.
func NewOrdinalEncoder(columns ...int) *OrdinalEncoder {
	return &OrdinalEncoder{Columns: append([]int(nil), columns...)}
}

// Fit learns the value codes of the nominal columns.
func (e *OrdinalEncoder) Fit(rows [][]any) error {
	if len(rows) == 0 {
		return errors.NewModelError("OrdinalEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	e.NFeatures = len(rows[0])
	e.Codes = make(map[int]map[string]int, len(e.Columns))
	for _, c := range e.Columns {
		if c < 0 || c >= e.NFeatures {
			return errors.NewValidationError("columns", "out of range", c)
		}
		seen := make(map[string]bool)
		var values []string
		for _, row := range rows {
			v := cast.ToString(row[c])
			if !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
		sort.Strings(values)
		codes := make(map[string]int, len(values))
		for i, v := range values {
			codes[v] = i
		}
		e.Codes[c] = codes
	}
	e.SetFitted()
	return nil
}

// Transform encodes rows. Unseen nominal values become Unknown.
func (e *OrdinalEncoder) Transform(rows [][]any) ([][]float64, error) {
	if err := e.RequireFitted("OrdinalEncoder", "Transform"); err != nil {
		return nil, err
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != e.NFeatures {
			return nil, errors.NewDimensionError("OrdinalEncoder.Transform", e.NFeatures, len(row), 1)
		}
		x := make([]float64, len(row))
		for j, v := range row {
			if codes, ok := e.Codes[j]; ok {
				code, seen := codes[cast.ToString(v)]
				if !seen {
					code = Unknown
				}
				x[j] = float64(code)
				continue
			}
			f, err := cast.ToFloat64E(v)
			if err != nil {
				return nil, errors.NewValueError("OrdinalEncoder.Transform", err.Error())
			}
			x[j] = f
		}
		out[i] = x
	}
	return out, nil
}

// FitTransform fits on rows and encodes them.
func (e *OrdinalEncoder) FitTransform(rows [][]any) ([][]float64, error) {
	if err := e.Fit(rows); err != nil {
		return nil, err
	}
	return e.Transform(rows)
}
