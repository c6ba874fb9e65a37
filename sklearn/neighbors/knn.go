// Package neighbors implements the k-nearest-neighbours classifier.
package neighbors

import (
	"math/rand"
	"sort"
	"time"

	"github.com/YuminosukeSato/mlkit/core/dataset"
	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
	"github.com/YuminosukeSato/mlkit/preprocessing"
	"github.com/YuminosukeSato/mlkit/sklearn/model_selection"
)

// Unclassified is the label ResultData gives to rows the vote left open.
const Unclassified = -1

// KNN is a lazy learner: Fit stores the training rows and Classify takes a
// majority vote among the k closest of them. The last column is the class.
//
// Nominal feature columns are ordinal-encoded so that Hamming distance can
// compare them; when every feature is nominal and no distance was chosen,
// Hamming is used instead of Euclidean.
type KNN struct {
	model.BaseEstimator

	k               int
	distanceName    string
	distance        metrics.DistanceFunc
	tieUnclassified bool
	percentSplit    float64
	randomState     int64
	rng             *rand.Rand
	logger          log.Logger

	dist      metrics.DistanceFunc
	encoder   *preprocessing.OrdinalEncoder
	trainX    [][]float64
	trainY    []string
	labels    []string
	targetCol int

	resultData [][]any
	cm         *metrics.ConfusionMatrix
}

// KNNOption configures a KNN.
type KNNOption func(*KNN)

// WithK sets the number of neighbours that vote.
func WithK(k int) KNNOption {
	return func(c *KNN) { c.k = k }
}

// WithKNNDistance selects a distance by name.
func WithKNNDistance(name string) KNNOption {
	return func(c *KNN) { c.distanceName = name }
}

// WithKNNDistanceFunc sets a custom distance; it takes precedence over a name.
func WithKNNDistanceFunc(fn metrics.DistanceFunc) KNNOption {
	return func(c *KNN) { c.distance = fn }
}

// WithTieUnclassified reports a tied vote as unclassified instead of
// giving it to the class of the nearest tied neighbour.
func WithTieUnclassified(on bool) KNNOption {
	return func(c *KNN) { c.tieUnclassified = on }
}

// WithKNNPercentSplit sets the training share used by BuildClassifier.
func WithKNNPercentSplit(pct float64) KNNOption {
	return func(c *KNN) { c.percentSplit = pct }
}

// WithKNNRandomState seeds the holdout shuffle.
func WithKNNRandomState(seed int64) KNNOption {
	return func(c *KNN) {
		c.randomState = seed
		c.rng = model_selection.NewRand(seed)
	}
}

// WithKNNLogger sets the logger.
func WithKNNLogger(l log.Logger) KNNOption {
	return func(c *KNN) { c.logger = l }
}

// NewKNN creates a classifier with k = 1.
func NewKNN(opts ...KNNOption) *KNN {
	c := &KNN{k: 1, randomState: -1}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = model_selection.NewRand(c.randomState)
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("kNN")
	}
	c.logger = c.logger.With(log.ModelNameKey, "kNN")
	return c
}

// Name implements model.Classifier.
func (c *KNN) Name() string { return "kNN" }

// K returns the configured number of neighbours.
func (c *KNN) K() int { return c.k }

// Fit stores the rows of ds.
func (c *KNN) Fit(ds *dataset.Dataset) error {
	if c.k < 1 {
		return errors.NewInvalidKError("kNN.Fit", c.k, 1, 0)
	}
	if ds == nil || ds.Len() == 0 {
		return errors.NewModelError("kNN.Fit", "empty data", errors.ErrEmptyData)
	}
	if ds.NumAttributes() < 2 {
		return errors.NewValidationError("attributes", "need at least one feature besides the class", ds.NumAttributes())
	}

	nominal := ds.NominalColumns()
	dist, err := c.resolveDistance(len(nominal) == ds.NumAttributes()-1)
	if err != nil {
		return err
	}

	c.targetCol = ds.Target().Index
	rows := ds.Rows()
	c.encoder = preprocessing.NewOrdinalEncoder(nominal...)
	X, err := c.encoder.FitTransform(c.features(rows))
	if err != nil {
		return err
	}

	c.dist = dist
	c.trainX = X
	c.trainY = ds.Labels()
	freq := ds.Frequency(c.targetCol)
	c.labels = make([]string, 0, len(freq))
	for l := range freq {
		c.labels = append(c.labels, l)
	}
	sort.Strings(c.labels)
	c.SetFitted()

	c.logger.Info("Training set stored",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(X),
		log.FeaturesKey, len(X[0]),
		log.ClassesKey, len(c.labels),
		log.KKey, c.k,
	)
	return nil
}

func (c *KNN) resolveDistance(allNominal bool) (metrics.DistanceFunc, error) {
	if c.distance != nil {
		return c.distance, nil
	}
	if c.distanceName == "" && allNominal {
		return metrics.Hamming, nil
	}
	return metrics.Distance(c.distanceName)
}

// features drops the class column of each row.
func (c *KNN) features(rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		f := make([]any, 0, len(r)-1)
		f = append(f, r[:c.targetCol]...)
		f = append(f, r[c.targetCol+1:]...)
		out[i] = f
	}
	return out
}

// Neighbor is a training row ranked by its distance to a query.
type Neighbor struct {
	Index    int
	Label    string
	Distance float64
}

// Neighbors returns the k training rows closest to row, nearest first.
// Equal distances keep training order. row is laid out like the training rows.
func (c *KNN) Neighbors(row []any) ([]Neighbor, error) {
	if err := c.RequireFitted("kNN", "Neighbors"); err != nil {
		return nil, err
	}
	x, err := c.encoder.Transform(c.features([][]any{row}))
	if err != nil {
		return nil, err
	}
	all := make([]Neighbor, len(c.trainX))
	for i, t := range c.trainX {
		d, err := c.dist(x[0], t)
		if err != nil {
			return nil, errors.Wrapf(err, "kNN distance to training row %d", i)
		}
		all[i] = Neighbor{Index: i, Label: c.trainY[i], Distance: d}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].Distance < all[b].Distance })
	if c.k < len(all) {
		all = all[:c.k]
	}
	return all, nil
}

// Classify returns the majority class among the k nearest neighbours.
// On a tied vote the class whose member ranks nearest wins, or ok is false
// when WithTieUnclassified is set.
func (c *KNN) Classify(row []any) (label string, ok bool, err error) {
	nn, err := c.Neighbors(row)
	if err != nil {
		return "", false, err
	}
	label, ok = vote(nn, c.tieUnclassified)
	return label, ok, nil
}

// vote counts labels among nn, which is sorted nearest first.
func vote(nn []Neighbor, tieUnclassified bool) (string, bool) {
	if len(nn) == 0 {
		return "", false
	}
	counts := make(map[string]int)
	most := 0
	for _, n := range nn {
		counts[n.Label]++
		if counts[n.Label] > most {
			most = counts[n.Label]
		}
	}
	var winners []string
	for _, n := range nn {
		if counts[n.Label] == most {
			winners = append(winners, n.Label)
			counts[n.Label] = -1
		}
	}
	if len(winners) > 1 && tieUnclassified {
		return "", false
	}
	return winners[0], true
}

// BuildClassifier splits ds by holdout, stores the training part and
// evaluates on the rest.
func (c *KNN) BuildClassifier(ds *dataset.Dataset) (*metrics.ConfusionMatrix, error) {
	train, test, err := model_selection.HoldoutDataset(ds, c.percentSplit, c.rng)
	if err != nil {
		return nil, err
	}
	return c.Evaluate(train, test)
}

// Evaluate fits on train and classifies every test row. ResultData holds
// each test row's features followed by its predicted class.
func (c *KNN) Evaluate(train, test *dataset.Dataset) (*metrics.ConfusionMatrix, error) {
	if err := c.Fit(train); err != nil {
		return nil, err
	}
	start := time.Now()

	var classifyErr error
	result := make([][]any, 0, test.Len())
	cm, err := model_selection.Score(c.labels, test, c.targetCol, func(row []any) (string, bool) {
		label, ok, err := c.Classify(row)
		if err != nil && classifyErr == nil {
			classifyErr = err
		}
		out := c.features([][]any{row})[0]
		if ok {
			out = append(out, label)
		} else {
			out = append(out, Unclassified)
		}
		result = append(result, out)
		return label, ok
	})
	if err != nil {
		return nil, err
	}
	if classifyErr != nil {
		return nil, classifyErr
	}
	c.cm = cm
	c.resultData = result

	c.logger.Info("Evaluation finished",
		log.OperationKey, log.OperationEvaluate,
		log.TestSizeKey, test.Len(),
		log.AccuracyKey, cm.Accuracy(),
		log.UnclassifiedKey, cm.Unclassified(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return cm, nil
}

// ResultData returns a copy of the classified test rows of the last evaluation.
func (c *KNN) ResultData() [][]any {
	if c.resultData == nil {
		return nil
	}
	out := make([][]any, len(c.resultData))
	for i, row := range c.resultData {
		out[i] = append([]any(nil), row...)
	}
	return out
}

// ConfusionMatrix returns the matrix of the last evaluation, nil before one ran.
func (c *KNN) ConfusionMatrix() *metrics.ConfusionMatrix { return c.cm }
