package metrics

import (
	"sort"
	"strings"

	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

// ClassMetrics holds the per-class counts and rates of a calculated matrix.
type ClassMetrics struct {
	TP        int
	FP        int
	FN        int
	Precision float64
	Recall    float64
	FMeasure  float64
}

// ConfusionMatrix cross-tabulates true against predicted labels.
//
// A matrix is created with the training labels, accumulates one instance
// at a time through Add and AddUnclassified, and is finalized by
// Calculate. Every (true, predicted) cell exists from creation, so
// classes never predicted still show up with zero counts.
type ConfusionMatrix struct {
	labels       []string
	index        map[string]int
	cells        [][]int
	unclassified int
	frequency    map[string]int
	beta         float64
	fold         int

	calculated bool
	metrics    map[string]ClassMetrics
	weighted   ClassMetrics
	accuracy   float64
	correct    int
	incorrect  int

	fixed    int32
	language string
	regional map[string]map[string]string
}

// NewConfusionMatrix creates an empty matrix over the distinct, sorted labels.
func NewConfusionMatrix(labels []string) (*ConfusionMatrix, error) {
	if len(labels) == 0 {
		return nil, errors.NewValidationError("labels", "at least one label is required", labels)
	}
	uniq := make(map[string]bool, len(labels))
	var sorted []string
	for _, l := range labels {
		if !uniq[l] {
			uniq[l] = true
			sorted = append(sorted, l)
		}
	}
	sort.Strings(sorted)

	cm := &ConfusionMatrix{
		labels:    sorted,
		index:     make(map[string]int, len(sorted)),
		cells:     make([][]int, len(sorted)),
		frequency: make(map[string]int),
		beta:      1,
		fold:      -1,
		fixed:     defaultFixedDecimal,
		language:  defaultLanguage,
		regional:  copyRegional(),
	}
	for i, l := range sorted {
		cm.index[l] = i
		cm.cells[i] = make([]int, len(sorted))
	}
	return cm, nil
}

// Add records one classified instance.
func (cm *ConfusionMatrix) Add(actual, predicted string) error {
	if cm.calculated {
		return errors.NewValueError("ConfusionMatrix.Add", "matrix is already calculated")
	}
	cm.cells[cm.labelIndex(actual)][cm.labelIndex(predicted)]++
	return nil
}

// AddUnclassified records an instance the model declined to label.
func (cm *ConfusionMatrix) AddUnclassified() error {
	if cm.calculated {
		return errors.NewValueError("ConfusionMatrix.AddUnclassified", "matrix is already calculated")
	}
	cm.unclassified++
	return nil
}

// labelIndex inserts an unseen label in sorted position, zero-filling its
// row and column.
func (cm *ConfusionMatrix) labelIndex(label string) int {
	if i, ok := cm.index[label]; ok {
		return i
	}
	pos := sort.SearchStrings(cm.labels, label)
	cm.labels = append(cm.labels, "")
	copy(cm.labels[pos+1:], cm.labels[pos:])
	cm.labels[pos] = label

	for r := range cm.cells {
		row := append(cm.cells[r], 0)
		copy(row[pos+1:], row[pos:])
		row[pos] = 0
		cm.cells[r] = row
	}
	cm.cells = append(cm.cells, nil)
	copy(cm.cells[pos+1:], cm.cells[pos:])
	cm.cells[pos] = make([]int, len(cm.labels))

	for i, l := range cm.labels {
		cm.index[l] = i
	}
	return pos
}

// SetFrequency sets the per-class weights used by the weighted averages,
// normally the class counts of the test set. Without it the weights are
// the true-label counts of the matrix.
func (cm *ConfusionMatrix) SetFrequency(freq map[string]int) {
	cm.frequency = make(map[string]int, len(freq))
	for k, v := range freq {
		cm.frequency[k] = v
	}
}

// SetBeta sets the F-measure weight. The default 1 gives the harmonic mean.
func (cm *ConfusionMatrix) SetBeta(beta float64) error {
	if beta < 0 {
		return errors.NewValidationError("beta", "must be non-negative", beta)
	}
	cm.beta = beta
	return nil
}

// SetFold tags the matrix with a cross-validation fold index.
func (cm *ConfusionMatrix) SetFold(i int) { cm.fold = i }

// Fold returns the fold tag, -1 when the matrix is not from cross-validation.
func (cm *ConfusionMatrix) Fold() int { return cm.fold }

// Calculate derives TP/FP/FN, precision, recall, F-measure, their
// weighted averages and accuracy. Any 0/0 rate is 0. Each class is
// weighted by its test frequency, or 1 when it has none, and the sums
// are divided by the number of test examples. Calling it again is a no-op.
func (cm *ConfusionMatrix) Calculate() *ConfusionMatrix {
	if cm.calculated {
		return cm
	}
	n := len(cm.labels)
	var classified int
	var undefined []string
	cm.metrics = make(map[string]ClassMetrics, n)

	freq := cm.frequency
	if len(freq) == 0 {
		freq = cm.rowCounts()
	}

	var wPrec, wRec, wF float64
	for k, label := range cm.labels {
		m := ClassMetrics{TP: cm.cells[k][k]}
		for j := 0; j < n; j++ {
			classified += cm.cells[k][j]
			if j != k {
				m.FN += cm.cells[k][j]
				m.FP += cm.cells[j][k]
			}
		}
		if m.TP+m.FP == 0 || m.TP+m.FN == 0 {
			undefined = append(undefined, label)
		}
		m.Recall = errors.SafeDivide(float64(m.TP), float64(m.TP+m.FN))
		m.Precision = errors.SafeDivide(float64(m.TP), float64(m.TP+m.FP))
		m.FMeasure = errors.SafeDivide((cm.beta+1)*m.Recall*m.Precision, m.Recall+cm.beta*m.Precision)
		cm.metrics[label] = m

		w := float64(freq[label])
		if w <= 0 {
			w = 1
		}
		wPrec += m.Precision * w
		wRec += m.Recall * w
		wF += m.FMeasure * w
		cm.correct += m.TP
	}

	cm.incorrect = classified - cm.correct
	cm.accuracy = errors.SafeDivide(float64(cm.correct), float64(classified))
	total := float64(classified + cm.unclassified)
	cm.weighted = ClassMetrics{
		Precision: errors.SafeDivide(wPrec, total),
		Recall:    errors.SafeDivide(wRec, total),
		FMeasure:  errors.SafeDivide(wF, total),
	}
	cm.calculated = true

	if len(undefined) > 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision/recall",
			"no predicted or no true samples for "+strings.Join(undefined, ", "), 0))
	}
	return cm
}

func (cm *ConfusionMatrix) rowCounts() map[string]int {
	counts := make(map[string]int, len(cm.labels))
	for i, label := range cm.labels {
		for _, c := range cm.cells[i] {
			counts[label] += c
		}
	}
	return counts
}

// Calculated reports whether Calculate has run.
func (cm *ConfusionMatrix) Calculated() bool { return cm.calculated }

// Labels returns the class labels in matrix order.
func (cm *ConfusionMatrix) Labels() []string {
	out := make([]string, len(cm.labels))
	copy(out, cm.labels)
	return out
}

// Count returns the number of instances of actual predicted as predicted.
func (cm *ConfusionMatrix) Count(actual, predicted string) int {
	i, ok := cm.index[actual]
	j, ok2 := cm.index[predicted]
	if !ok || !ok2 {
		return 0
	}
	return cm.cells[i][j]
}

// Matrix returns a copy of the counts, rows are true labels.
func (cm *ConfusionMatrix) Matrix() [][]int {
	out := make([][]int, len(cm.cells))
	for i, row := range cm.cells {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// Metrics returns the per-class metrics keyed by label.
func (cm *ConfusionMatrix) Metrics() map[string]ClassMetrics {
	out := make(map[string]ClassMetrics, len(cm.metrics))
	for k, v := range cm.metrics {
		out[k] = v
	}
	return out
}

// ClassMetrics returns the metrics of a single class.
func (cm *ConfusionMatrix) ClassMetrics(label string) (ClassMetrics, bool) {
	m, ok := cm.metrics[label]
	return m, ok
}

// Weighted returns the frequency-weighted average precision, recall and F-measure.
func (cm *ConfusionMatrix) Weighted() ClassMetrics { return cm.weighted }

// Accuracy is correct / classified, 0 when nothing was classified.
func (cm *ConfusionMatrix) Accuracy() float64 { return cm.accuracy }

// Correct counts instances whose predicted label equals the true one.
func (cm *ConfusionMatrix) Correct() int { return cm.correct }

// Incorrect counts classified instances with a wrong prediction.
func (cm *ConfusionMatrix) Incorrect() int { return cm.incorrect }

// Unclassified counts instances the model declined to label.
func (cm *ConfusionMatrix) Unclassified() int { return cm.unclassified }

// Total counts every evaluated instance, unclassified ones included.
func (cm *ConfusionMatrix) Total() int {
	return cm.correct + cm.incorrect + cm.unclassified
}

// ErrorRate is 1 - accuracy.
func (cm *ConfusionMatrix) ErrorRate() float64 {
	if !cm.calculated {
		return 0
	}
	return 1 - cm.accuracy
}
