package model_selection

import (
	"github.com/YuminosukeSato/mlkit/core/dataset"
	"github.com/YuminosukeSato/mlkit/metrics"
)

// ClassifyFunc predicts the class of a row laid out like the training rows.
// ok is false when the model declines to label it.
type ClassifyFunc func(row []any) (label string, ok bool)

// Score classifies every test row and returns the calculated matrix.
// labels are the training classes; test classes outside them are added
// to the matrix as they appear. Weighted averages use the test class counts.
func Score(labels []string, test *dataset.Dataset, targetCol int, classify ClassifyFunc) (*metrics.ConfusionMatrix, error) {
	cm, err := metrics.NewConfusionMatrix(labels)
	if err != nil {
		return nil, err
	}
	for _, row := range test.Rows() {
		pred, ok := classify(row)
		if !ok {
			err = cm.AddUnclassified()
		} else {
			err = cm.Add(dataset.Label(row[targetCol]), pred)
		}
		if err != nil {
			return nil, err
		}
	}
	cm.SetFrequency(test.Frequency(targetCol))
	return cm.Calculate(), nil
}
