package model_selection

import (
	"math/rand"
	"sort"
	"strconv"

	"github.com/YuminosukeSato/mlkit/core/dataset"
	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

// DefaultFolds is the number of folds when none is configured.
const DefaultFolds = 10

// ClassifierFactory returns a fresh, unfitted classifier for each fold.
type ClassifierFactory func() model.Classifier

// CrossValidation evaluates a classifier over r folds and ranks the folds
// by accuracy.
type CrossValidation struct {
	folds       int
	randomState int64
	rng         *rand.Rand
	logger      log.Logger

	results     []*metrics.ConfusionMatrix
	classifiers map[int]model.Classifier
}

// CVOption configures a CrossValidation.
type CVOption func(*CrossValidation)

// WithFolds sets the number of folds.
func WithFolds(r int) CVOption {
	return func(cv *CrossValidation) { cv.folds = r }
}

// WithCVRandomState seeds the fold shuffle; negative seeds use the clock.
func WithCVRandomState(seed int64) CVOption {
	return func(cv *CrossValidation) {
		cv.randomState = seed
		cv.rng = NewRand(seed)
	}
}

// WithCVLogger sets the logger.
func WithCVLogger(l log.Logger) CVOption {
	return func(cv *CrossValidation) { cv.logger = l }
}

// NewCrossValidation creates a runner with DefaultFolds folds.
func NewCrossValidation(opts ...CVOption) *CrossValidation {
	cv := &CrossValidation{folds: DefaultFolds, randomState: -1}
	for _, opt := range opts {
		opt(cv)
	}
	if cv.rng == nil {
		cv.rng = NewRand(cv.randomState)
	}
	if cv.logger == nil {
		cv.logger = log.GetLoggerWithName("CrossValidation")
	}
	return cv
}

// Run partitions ds into folds, evaluates a new classifier from newClassifier on
// each fold and returns the most accurate fold's confusion matrix. Folds
// with an empty test set are skipped.
func (cv *CrossValidation) Run(newClassifier ClassifierFactory, ds *dataset.Dataset) (*metrics.ConfusionMatrix, error) {
	if newClassifier == nil {
		return nil, errors.NewValidationError("classifier", "factory must not be nil", nil)
	}
	folds, err := RFold(ds.Rows(), cv.folds, cv.rng)
	if err != nil {
		return nil, err
	}

	cv.results = cv.results[:0]
	cv.classifiers = make(map[int]model.Classifier, len(folds))
	for i, fold := range folds {
		if len(fold.Test) == 0 {
			cv.logger.Debug("Skipping fold without test rows", log.FoldKey, i)
			continue
		}
		train, err := ds.WithRows(fold.Train)
		if err != nil {
			return nil, err
		}
		test, err := ds.WithRows(fold.Test)
		if err != nil {
			return nil, err
		}

		clf := newClassifier()
		cm, err := clf.Evaluate(train, test)
		if err != nil {
			return nil, errors.Wrapf(err, "cross-validation fold %d", i)
		}
		cm.SetFold(i)
		cv.results = append(cv.results, cm)
		cv.classifiers[i] = clf

		cv.logger.Debug("Fold evaluated",
			log.FoldKey, i,
			log.ModelNameKey, clf.Name(),
			log.TrainSizeKey, train.Len(),
			log.TestSizeKey, test.Len(),
			log.AccuracyKey, cm.Accuracy(),
		)
	}
	if len(cv.results) == 0 {
		return nil, errors.NewModelError("CrossValidation.Run", "no fold had test rows", errors.ErrEmptyData)
	}

	sort.SliceStable(cv.results, func(a, b int) bool {
		return cv.results[a].Accuracy() > cv.results[b].Accuracy()
	})

	best := cv.results[0]
	cv.logger.Info("Cross-validation finished",
		log.OperationKey, log.OperationEvaluate,
		log.SamplesKey, ds.Len(),
		log.FoldKey, best.Fold(),
		log.AccuracyKey, best.Accuracy(),
	)
	return best, nil
}

// Best returns the most accurate fold's matrix, nil before Run.
func (cv *CrossValidation) Best() *metrics.ConfusionMatrix {
	if len(cv.results) == 0 {
		return nil
	}
	return cv.results[0]
}

// Results returns every evaluated fold, most accurate first.
func (cv *CrossValidation) Results() []*metrics.ConfusionMatrix {
	return append([]*metrics.ConfusionMatrix(nil), cv.results...)
}

// Result returns the classifier fitted on fold i, or on the best fold
// when i is negative.
func (cv *CrossValidation) Result(i int) (model.Classifier, error) {
	if len(cv.results) == 0 {
		return nil, errors.NewNotFittedError("CrossValidation", "Result")
	}
	if i < 0 {
		i = cv.results[0].Fold()
	}
	clf, ok := cv.classifiers[i]
	if !ok {
		return nil, errors.NewValidationError("fold", "no evaluated fold with this index", i)
	}
	return clf, nil
}

// FoldDetail summarizes one fold: accuracy and weighted precision, recall
// and F-measure.
type FoldDetail struct {
	Fold      int
	Accuracy  float64
	Precision float64
	Recall    float64
	FMeasure  float64
}

// Details returns one row per fold in ranked order and the unweighted
// mean across folds.
func (cv *CrossValidation) Details() (folds []FoldDetail, mean FoldDetail, err error) {
	if len(cv.results) == 0 {
		return nil, FoldDetail{}, errors.NewModelError("CrossValidation.Details", "no results", errors.ErrEmptyData)
	}
	mean.Fold = -1
	for _, cm := range cv.results {
		w := cm.Weighted()
		d := FoldDetail{
			Fold:      cm.Fold(),
			Accuracy:  cm.Accuracy(),
			Precision: w.Precision,
			Recall:    w.Recall,
			FMeasure:  w.FMeasure,
		}
		folds = append(folds, d)
		mean.Accuracy += d.Accuracy
		mean.Precision += d.Precision
		mean.Recall += d.Recall
		mean.FMeasure += d.FMeasure
	}
	n := float64(len(folds))
	mean.Accuracy /= n
	mean.Precision /= n
	mean.Recall /= n
	mean.FMeasure /= n
	return folds, mean, nil
}

// DetailsTable renders Details with a header row and a final "Mean" row,
// formatted with the best matrix's decimal places. Folds are numbered from 1.
func (cv *CrossValidation) DetailsTable() ([][]string, error) {
	folds, mean, err := cv.Details()
	if err != nil {
		return nil, err
	}
	f := cv.results[0].Format
	row := func(name string, d FoldDetail) []string {
		return []string{name, f(d.Accuracy), f(d.Precision), f(d.Recall), f(d.FMeasure)}
	}
	rows := [][]string{{"Fold", "Accuracy", "Precision", "Recall", "F-Measure"}}
	for _, d := range folds {
		rows = append(rows, row(strconv.Itoa(d.Fold+1), d))
	}
	return append(rows, row("Mean", mean)), nil
}
