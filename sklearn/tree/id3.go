// Package tree implements ID3 decision-tree induction over nominal attributes.
package tree

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/YuminosukeSato/mlkit/core/dataset"
	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
	"github.com/YuminosukeSato/mlkit/sklearn/model_selection"
)

// ID3 builds a decision tree by splitting on the attribute with the highest
// information gain. Every distinct value of the chosen attribute gets its
// own branch. Numeric columns are treated as categories, so continuous
// attributes should be discretized first (see dataset.NumericToNominal).
type ID3 struct {
	model.BaseEstimator

	percentSplit float64
	target       string
	randomState  int64
	rng          *rand.Rand
	logger       log.Logger

	tree      *Tree
	targetCol int
	labels    []string
	cm        *metrics.ConfusionMatrix
}

// ID3Option configures an ID3.
type ID3Option func(*ID3)

// WithPercentSplit sets the training share used by BuildClassifier.
// Zero selects the default two-thirds split.
func WithPercentSplit(pct float64) ID3Option {
	return func(t *ID3) { t.percentSplit = pct }
}

// WithTargetAttribute names the class column. The default is the last column.
func WithTargetAttribute(name string) ID3Option {
	return func(t *ID3) { t.target = name }
}

// WithID3RandomState seeds the holdout shuffle.
func WithID3RandomState(seed int64) ID3Option {
	return func(t *ID3) {
		t.randomState = seed
		t.rng = model_selection.NewRand(seed)
	}
}

// WithID3Logger sets the logger.
func WithID3Logger(l log.Logger) ID3Option {
	return func(t *ID3) { t.logger = l }
}

// NewID3 creates an unfitted ID3 classifier.
func NewID3(opts ...ID3Option) *ID3 {
	t := &ID3{randomState: -1}
	for _, opt := range opts {
		opt(t)
	}
	if t.rng == nil {
		t.rng = model_selection.NewRand(t.randomState)
	}
	if t.logger == nil {
		t.logger = log.GetLoggerWithName("ID3")
	}
	t.logger = t.logger.With(log.ModelNameKey, "ID3")
	return t
}

// Name implements model.Classifier.
func (t *ID3) Name() string { return "ID3" }

// Fit grows the tree on every row of ds.
func (t *ID3) Fit(ds *dataset.Dataset) error {
	if ds == nil || ds.Len() == 0 {
		return errors.NewModelError("ID3.Fit", "empty data", errors.ErrEmptyData)
	}
	target := ds.Target()
	if t.target != "" {
		a, ok := ds.Attribute(t.target)
		if !ok {
			return errors.NewValidationError("target", "no such attribute", t.target)
		}
		target = a
	}

	start := time.Now()
	b := &builder{target: target.Index}
	var features []dataset.Attribute
	for _, a := range ds.Attributes() {
		if a.Index != target.Index {
			features = append(features, a)
		}
	}
	b.grow(labelRows(ds.Rows()), features, "")

	freq := ds.Frequency(target.Index)
	t.labels = make([]string, 0, len(freq))
	for l := range freq {
		t.labels = append(t.labels, l)
	}
	sort.Strings(t.labels)

	t.tree = &Tree{Nodes: b.nodes}
	t.targetCol = target.Index
	t.SetFitted()

	t.logger.Info("Tree built",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, len(features),
		log.ClassesKey, len(t.labels),
		log.TreeNodesKey, len(b.nodes),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Classify returns the predicted class of row, which is laid out like the
// training rows. ok is false when the tree has no branch for one of the
// row's values.
func (t *ID3) Classify(row []any) (label string, ok bool, err error) {
	if err := t.RequireFitted("ID3", "Classify"); err != nil {
		return "", false, err
	}
	label, ok = t.tree.Classify(labelRow(row))
	return label, ok, nil
}

// Tree returns the fitted tree.
func (t *ID3) Tree() (*Tree, error) {
	if err := t.RequireFitted("ID3", "Tree"); err != nil {
		return nil, err
	}
	return t.tree, nil
}

// ConfusionMatrix returns the matrix of the last evaluation, nil before one ran.
func (t *ID3) ConfusionMatrix() *metrics.ConfusionMatrix { return t.cm }

// BuildClassifier splits ds by holdout, fits on the training part and
// evaluates on the rest.
func (t *ID3) BuildClassifier(ds *dataset.Dataset) (*metrics.ConfusionMatrix, error) {
	train, test, err := model_selection.HoldoutDataset(ds, t.percentSplit, t.rng)
	if err != nil {
		return nil, err
	}
	return t.Evaluate(train, test)
}

// Evaluate fits on train and classifies every test row. The matrix labels
// are the training classes; test rows without a matching branch are
// counted as unclassified.
func (t *ID3) Evaluate(train, test *dataset.Dataset) (*metrics.ConfusionMatrix, error) {
	if err := t.Fit(train); err != nil {
		return nil, err
	}
	cm, err := model_selection.Score(t.labels, test, t.targetCol, func(row []any) (string, bool) {
		return t.tree.Classify(labelRow(row))
	})
	if err != nil {
		return nil, err
	}
	t.cm = cm

	t.logger.Info("Evaluation finished",
		log.OperationKey, log.OperationEvaluate,
		log.TestSizeKey, test.Len(),
		log.AccuracyKey, cm.Accuracy(),
		log.UnclassifiedKey, cm.Unclassified(),
	)
	return cm, nil
}

// builder grows the node arena top-down.
type builder struct {
	target int
	nodes  []Node
}

// grow appends the subtree for rows and returns its root id.
func (b *builder) grow(rows [][]string, features []dataset.Attribute, rule string) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{ID: id, Column: -1, Rule: rule})

	if len(features) == 0 || b.pure(rows) {
		b.nodes[id].Leaf = true
		b.nodes[id].Label = rows[0][b.target]
		return id
	}

	best := b.bestFeature(rows, features)
	split := features[best]
	b.nodes[id].Attribute = split.Name
	b.nodes[id].Column = split.Index

	rest := make([]dataset.Attribute, 0, len(features)-1)
	rest = append(rest, features[:best]...)
	rest = append(rest, features[best+1:]...)

	values, groups := partition(rows, split.Index)
	for _, v := range values {
		child := b.grow(groups[v], rest, v)
		b.nodes[id].Children = append(b.nodes[id].Children, child)
	}
	return id
}

func (b *builder) pure(rows [][]string) bool {
	for _, r := range rows[1:] {
		if r[b.target] != rows[0][b.target] {
			return false
		}
	}
	return true
}

// bestFeature returns the index in features of the highest-gain attribute.
// On equal gain the earlier attribute is kept.
func (b *builder) bestFeature(rows [][]string, features []dataset.Attribute) int {
	total := Entropy(rows, b.target)
	best, bestGain := 0, math.Inf(-1)
	for i, f := range features {
		gain := total - splitEntropy(rows, f.Index, b.target)
		if gain > bestGain {
			best, bestGain = i, gain
		}
	}
	return best
}

// Entropy returns the base-2 Shannon entropy of column col over rows.
func Entropy(rows [][]string, col int) float64 {
	values, groups := partition(rows, col)
	n := float64(len(rows))
	h := 0.0
	for _, v := range values {
		p := float64(len(groups[v])) / n
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}

// splitEntropy is the size-weighted entropy of target after splitting on col.
func splitEntropy(rows [][]string, col, target int) float64 {
	values, groups := partition(rows, col)
	n := float64(len(rows))
	h := 0.0
	for _, v := range values {
		h += float64(len(groups[v])) / n * Entropy(groups[v], target)
	}
	return h
}

// partition groups rows by their value in col. values lists the distinct
// values in order of first appearance.
func partition(rows [][]string, col int) (values []string, groups map[string][][]string) {
	groups = make(map[string][][]string)
	for _, r := range rows {
		v := r[col]
		if _, seen := groups[v]; !seen {
			values = append(values, v)
		}
		groups[v] = append(groups[v], r)
	}
	return values, groups
}

func labelRows(rows [][]any) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = labelRow(r)
	}
	return out
}

func labelRow(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = dataset.Label(v)
	}
	return out
}
