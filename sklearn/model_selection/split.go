// Package model_selection splits datasets for evaluation and drives
// r-fold cross-validation over a classifier.
package model_selection

import (
	"math"
	"math/rand"
	"time"

	"github.com/YuminosukeSato/mlkit/core/dataset"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

// DefaultTrainPercent is used by Holdout when percentSplit is 0.
const DefaultTrainPercent = 200.0 / 3.0

// Fold is one train/test pair of an r-fold partition.
type Fold[T any] struct {
	Train []T
	Test  []T
}

// NewRand returns a generator seeded with seed, or with the clock when seed is negative.
func NewRand(seed int64) *rand.Rand {
	if seed >= 0 {
		return rand.New(rand.NewSource(seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// shuffled returns a uniformly permuted copy of rows. Elements are copied
// shallowly.
func shuffled[T any](rows []T, rng *rand.Rand) []T {
	if rng == nil {
		rng = NewRand(-1)
	}
	out := make([]T, len(rows))
	copy(out, rows)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Holdout shuffles a copy of rows and splits it at k = ceil(n*percentSplit/100):
// train is rows[0:k] and test is rows[k:n]. A percentSplit of 0 uses a
// 2/3 train split. A percentSplit of 100 or more returns the whole
// shuffled set as both train and test.
func Holdout[T any](rows []T, percentSplit float64, rng *rand.Rand) (train, test []T, err error) {
	n := len(rows)
	if n == 0 {
		return nil, nil, errors.NewModelError("Holdout", "empty data", errors.ErrEmptyData)
	}
	if percentSplit < 0 || math.IsNaN(percentSplit) {
		return nil, nil, errors.NewValidationError("percentSplit", "must be in [0, 100]", percentSplit)
	}

	data := shuffled(rows, rng)
	if percentSplit >= 100 {
		test = make([]T, n)
		copy(test, data)
		return data, test, nil
	}

	k := int(math.Ceil(float64(2*n) / 3))
	if percentSplit > 0 {
		k = int(math.Ceil(float64(n) * percentSplit / 100))
	}
	return data[:k:k], data[k:], nil
}

// RFold shuffles a copy of rows, cuts it into contiguous chunks of
// ceil(n/r) rows and returns r folds, fold k testing on chunk k and
// training on the rest. When fewer than r chunks exist the trailing
// folds have an empty test set.
func RFold[T any](rows []T, r int, rng *rand.Rand) ([]Fold[T], error) {
	n := len(rows)
	if n == 0 {
		return nil, errors.NewModelError("RFold", "empty data", errors.ErrEmptyData)
	}
	if r < 2 || r > n {
		return nil, errors.NewInvalidKError("RFold", r, 2, n)
	}

	data := shuffled(rows, rng)
	size := int(math.Ceil(float64(n) / float64(r)))
	var chunks [][]T
	for i := 0; i < n; i += size {
		end := min(i+size, n)
		chunks = append(chunks, data[i:end])
	}

	folds := make([]Fold[T], r)
	for k := 0; k < r; k++ {
		var train []T
		for i, c := range chunks {
			if i != k {
				train = append(train, c...)
			}
		}
		var test []T
		if k < len(chunks) {
			test = append(test, chunks[k]...)
		}
		folds[k] = Fold[T]{Train: train, Test: test}
	}
	return folds, nil
}

// HoldoutDataset applies Holdout to the rows of ds.
func HoldoutDataset(ds *dataset.Dataset, percentSplit float64, rng *rand.Rand) (train, test *dataset.Dataset, err error) {
	trainRows, testRows, err := Holdout(ds.Rows(), percentSplit, rng)
	if err != nil {
		return nil, nil, err
	}
	if train, err = ds.WithRows(trainRows); err != nil {
		return nil, nil, err
	}
	if test, err = ds.WithRows(testRows); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
