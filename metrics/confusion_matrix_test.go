package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

func fill(t *testing.T, cm *ConfusionMatrix, actual, predicted string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, cm.Add(actual, predicted))
	}
}

func binaryMatrix(t *testing.T) *ConfusionMatrix {
	t.Helper()
	cm, err := NewConfusionMatrix([]string{"b", "a"})
	require.NoError(t, err)
	fill(t, cm, "a", "a", 8)
	fill(t, cm, "a", "b", 2)
	fill(t, cm, "b", "a", 1)
	fill(t, cm, "b", "b", 9)
	return cm
}

func TestConfusionMatrixBinary(t *testing.T) {
	cm := binaryMatrix(t)
	cm.SetFrequency(map[string]int{"a": 10, "b": 10})
	cm.Calculate()

	assert.Equal(t, []string{"a", "b"}, cm.Labels())
	assert.InDelta(t, 0.85, cm.Accuracy(), 1e-12)
	assert.Equal(t, 17, cm.Correct())
	assert.Equal(t, 3, cm.Incorrect())
	assert.Equal(t, 20, cm.Total())
	assert.InDelta(t, 0.15, cm.ErrorRate(), 1e-12)

	a, ok := cm.ClassMetrics("a")
	require.True(t, ok)
	assert.Equal(t, 8, a.TP)
	assert.Equal(t, 1, a.FP)
	assert.Equal(t, 2, a.FN)
	assert.InDelta(t, 8.0/9.0, a.Precision, 1e-4)
	assert.InDelta(t, 0.8, a.Recall, 1e-12)
	assert.InDelta(t, 2*0.8*(8.0/9.0)/(0.8+8.0/9.0), a.FMeasure, 1e-12)

	b := cm.Metrics()["b"]
	assert.InDelta(t, 9.0/11.0, b.Precision, 1e-12)
	assert.InDelta(t, 0.9, b.Recall, 1e-12)

	w := cm.Weighted()
	assert.InDelta(t, (8.0/9.0+9.0/11.0)/2, w.Precision, 1e-12)
	assert.InDelta(t, 0.85, w.Recall, 1e-12)
}

func TestConfusionMatrixWeightedAbsentClass(t *testing.T) {
	cm, err := NewConfusionMatrix([]string{"a", "b", "c"})
	require.NoError(t, err)
	fill(t, cm, "a", "a", 5)
	fill(t, cm, "b", "b", 5)
	cm.SetFrequency(map[string]int{"a": 5, "b": 5, "c": 0})
	cm.Calculate()

	w := cm.Weighted()
	assert.InDelta(t, 1.0, w.Precision, 1e-12)
	assert.InDelta(t, 1.0, w.Recall, 1e-12)
	assert.InDelta(t, 1.0, w.FMeasure, 1e-12)
}

func TestConfusionMatrixWeightedDefaultsToRowCounts(t *testing.T) {
	cm := binaryMatrix(t)
	cm.Calculate()

	w := cm.Weighted()
	assert.InDelta(t, (10*8.0/9.0+10*9.0/11.0)/20, w.Precision, 1e-12)
	assert.InDelta(t, 0.85, w.Recall, 1e-12)
}

func TestConfusionMatrixInvariants(t *testing.T) {
	cm, err := NewConfusionMatrix([]string{"x", "y", "z"})
	require.NoError(t, err)
	fill(t, cm, "x", "x", 3)
	fill(t, cm, "y", "x", 2)
	fill(t, cm, "z", "z", 1)
	require.NoError(t, cm.AddUnclassified())
	require.NoError(t, cm.AddUnclassified())
	cm.Calculate()

	assert.Equal(t, 8, cm.Correct()+cm.Incorrect()+cm.Unclassified())
	assert.Equal(t, cm.Total(), cm.Correct()+cm.Incorrect()+cm.Unclassified())
	assert.InDelta(t, 4.0/6.0, cm.Accuracy(), 1e-12)

	for label, m := range cm.Metrics() {
		for _, v := range []float64{m.Precision, m.Recall, m.FMeasure} {
			assert.GreaterOrEqual(t, v, 0.0, label)
			assert.LessOrEqual(t, v, 1.0, label)
		}
	}

	// y was never predicted: its precision is 0/0 and must be 0
	y, _ := cm.ClassMetrics("y")
	assert.Equal(t, 0.0, y.Precision)
	assert.Equal(t, 0.0, y.FMeasure)
}

func TestConfusionMatrixLifecycle(t *testing.T) {
	cm := binaryMatrix(t)
	assert.False(t, cm.Calculated())
	cm.Calculate()
	acc := cm.Accuracy()
	cm.Calculate()

	assert.True(t, cm.Calculated())
	assert.Equal(t, acc, cm.Accuracy())
	assert.Equal(t, 17, cm.Correct())

	err := cm.Add("a", "a")
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))
	assert.Error(t, cm.AddUnclassified())
}

func TestConfusionMatrixUnseenLabel(t *testing.T) {
	cm, err := NewConfusionMatrix([]string{"a", "c"})
	require.NoError(t, err)
	require.NoError(t, cm.Add("a", "a"))
	require.NoError(t, cm.Add("b", "c"))

	assert.Equal(t, []string{"a", "b", "c"}, cm.Labels())
	assert.Equal(t, [][]int{{1, 0, 0}, {0, 0, 1}, {0, 0, 0}}, cm.Matrix())
	assert.Equal(t, 1, cm.Count("b", "c"))
	assert.Equal(t, 0, cm.Count("q", "c"))
}

func TestConfusionMatrixEmptyAndBeta(t *testing.T) {
	_, err := NewConfusionMatrix(nil)
	assert.Error(t, err)

	cm, err := NewConfusionMatrix([]string{"a"})
	require.NoError(t, err)
	cm.Calculate()
	assert.Equal(t, 0.0, cm.Accuracy())
	assert.Equal(t, 0, cm.Total())

	cm = binaryMatrix(t)
	assert.Error(t, cm.SetBeta(-1))
	require.NoError(t, cm.SetBeta(2))
	cm.Calculate()
	a, _ := cm.ClassMetrics("a")
	p, r := 8.0/9.0, 0.8
	assert.InDelta(t, 3*r*p/(r+2*p), a.FMeasure, 1e-12)
}

func TestConfusionMatrixFold(t *testing.T) {
	cm := binaryMatrix(t)
	assert.Equal(t, -1, cm.Fold())
	cm.SetFold(4)
	assert.Equal(t, 4, cm.Fold())
}

func TestConfusionMatrixReport(t *testing.T) {
	cm := binaryMatrix(t)
	cm.SetFrequency(map[string]int{"a": 10, "b": 10})
	require.NoError(t, cm.AddUnclassified())

	table := cm.Table()
	require.Len(t, table, 4)
	assert.Equal(t, []string{"Class", "Precision", "Recall", "F-Measure"}, table[0])
	assert.Equal(t, []string{"a", "0.889", "0.800", "0.842"}, table[1])
	assert.Equal(t, "Weighted Avg.", table[3][0])

	assert.Equal(t, [][]string{
		{"Classified as", "a", "b"},
		{"a", "8", "2"},
		{"b", "1", "9"},
	}, cm.MatrixTable())

	report := cm.String()
	assert.Contains(t, report, "Accuracy: 0.850")
	assert.Contains(t, report, "UnClassified Instances: 1")
	assert.Contains(t, report, "Total Number of Instances: 21")
	assert.Contains(t, report, "Confusion Matrix")
	for _, line := range strings.Split(report, "\n") {
		assert.Equal(t, strings.TrimRight(line, " "), line)
	}
}

func TestConfusionMatrixLanguage(t *testing.T) {
	cm := binaryMatrix(t)

	require.NoError(t, cm.SetLanguage("pt", nil))
	require.NoError(t, cm.SetFixedDecimal(2))
	assert.Contains(t, cm.String(), "Accurácia: 0.85")
	assert.Equal(t, "Classe", cm.Table()[0][0])

	require.NoError(t, cm.SetLanguage("de", map[string]string{KeyAccuracy: "Genauigkeit"}))
	assert.Equal(t, "de", cm.Language())
	report := cm.String()
	assert.Contains(t, report, "Genauigkeit: 0.85")
	// keys missing from a custom table fall back to English
	assert.Contains(t, report, "Confusion Matrix")

	err := cm.SetLanguage("fr", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "de, en, pt")
	assert.Equal(t, "de", cm.Language())

	assert.Error(t, cm.SetFixedDecimal(-1))
}
