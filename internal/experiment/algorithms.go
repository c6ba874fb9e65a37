package experiment

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/YuminosukeSato/mlkit/core/dataset"
	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/linear"
	"github.com/YuminosukeSato/mlkit/metrics"
	"github.com/YuminosukeSato/mlkit/optimize"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/sklearn/cluster"
	"github.com/YuminosukeSato/mlkit/sklearn/model_selection"
	"github.com/YuminosukeSato/mlkit/sklearn/neighbors"
	"github.com/YuminosukeSato/mlkit/sklearn/tree"
)

// fixed formats v with four decimals.
func fixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(4)
}

func fixedSlice(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fixed(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func numericFeatures(ds *dataset.Dataset) ([][]float64, error) {
	cols := ds.NumericColumns()
	if len(cols) == 0 {
		return nil, errors.NewValueError("experiment", "dataset has no numeric features")
	}
	return ds.Floats(cols...)
}

func clusterReport(info []cluster.ClusterInfo) string {
	var b strings.Builder
	for _, ci := range info {
		fmt.Fprintf(&b, "%-10s %6d %8s\n", ci.Label, ci.Size, ci.Percent)
	}
	return b.String()
}

// K-means

type kmeansRun struct{ cfg *Config }

func newKMeansRun(cfg *Config) Algorithm { return &kmeansRun{cfg: cfg} }

func (r *kmeansRun) Name() string { return "kmeans" }

func (r *kmeansRun) Run(ds *dataset.Dataset) (*Outcome, error) {
	X, err := numericFeatures(ds)
	if err != nil {
		return nil, err
	}
	p := r.cfg.Algorithms.KMeans
	opts := []cluster.KMeansOption{cluster.WithKMeansRandomState(r.cfg.Seed)}
	if p.K > 0 {
		opts = append(opts, cluster.WithKMeansK(p.K))
	}
	if p.MaxIter > 0 {
		opts = append(opts, cluster.WithKMeansMaxIter(p.MaxIter))
	}
	if p.Distance != "" {
		opts = append(opts, cluster.WithKMeansDistance(p.Distance))
	}
	if p.Normalize != nil {
		opts = append(opts, cluster.WithKMeansNormalize(*p.Normalize))
	}
	km := cluster.NewKMeans(opts...)
	res, err := km.Fit(X)
	if err != nil {
		return nil, err
	}
	sse, err := km.SSE()
	if err != nil {
		return nil, err
	}
	ssb, err := km.SSB()
	if err != nil {
		return nil, err
	}
	info, err := km.ClustersInfo()
	if err != nil {
		return nil, err
	}

	out := &Outcome{Algorithm: r.Name(), Model: res, Report: clusterReport(info)}
	out.add("iterations", strconv.Itoa(km.Iterations()))
	out.add("converged", strconv.FormatBool(km.Converged()))
	out.add("SSE", fixed(sse))
	out.add("SSB", fixed(ssb))
	out.chart = func(dir string) ([]string, error) {
		path := filepath.Join(dir, "kmeans_clusters.png")
		return []string{path}, clusterChart("K-means", X, res.Labels(), res.Centroids, path)
	}
	return out, nil
}

// DBSCAN

type dbscanRun struct{ cfg *Config }

func newDBSCANRun(cfg *Config) Algorithm { return &dbscanRun{cfg: cfg} }

func (r *dbscanRun) Name() string { return "dbscan" }

func (r *dbscanRun) Run(ds *dataset.Dataset) (*Outcome, error) {
	X, err := numericFeatures(ds)
	if err != nil {
		return nil, err
	}
	p := r.cfg.Algorithms.DBSCAN
	var opts []cluster.DBSCANOption
	if p.Eps > 0 {
		opts = append(opts, cluster.WithEps(p.Eps))
	}
	if p.MinPts > 0 {
		opts = append(opts, cluster.WithMinPts(p.MinPts))
	}
	if p.Distance != "" {
		opts = append(opts, cluster.WithDBSCANDistance(p.Distance))
	}
	db := cluster.NewDBSCAN(opts...)
	res, err := db.Fit(X)
	if err != nil {
		return nil, err
	}
	info, err := db.ClustersInfo()
	if err != nil {
		return nil, err
	}

	out := &Outcome{Algorithm: r.Name(), Model: res, Report: clusterReport(info)}
	out.add("clusters", strconv.Itoa(db.NClusters()))
	out.add("noise", strconv.Itoa(db.NoiseCount()))
	if db.NClusters() > 0 {
		ssb, err := db.SSB(true)
		if err != nil {
			return nil, err
		}
		out.add("SSB", fixed(ssb))
	}
	out.chart = func(dir string) ([]string, error) {
		path := filepath.Join(dir, "dbscan_clusters.png")
		return []string{path}, clusterChart("DBSCAN", X, res.Labels(), nil, path)
	}
	return out, nil
}

// classification shared by ID3 and k-NN

func classifierOutcome(name string, cm *metrics.ConfusionMatrix) *Outcome {
	out := &Outcome{Algorithm: name}
	out.add("accuracy", fixed(cm.Accuracy()))
	out.add("weighted F-measure", fixed(cm.Weighted().FMeasure))
	out.add("correct", strconv.Itoa(cm.Correct()))
	out.add("incorrect", strconv.Itoa(cm.Incorrect()))
	out.add("unclassified", strconv.Itoa(cm.Unclassified()))
	if n := cm.Correct() + cm.Incorrect(); n > 0 {
		lo, hi, err := metrics.ConfidenceInterval(n, cm.Accuracy()*100, metrics.Z95)
		if err == nil {
			out.add("95% interval", "["+fixed(lo)+", "+fixed(hi)+"]")
		}
	}
	return out
}

func crossValidate(cfg *Config, folds int, newClassifier model_selection.ClassifierFactory, ds *dataset.Dataset) (*model_selection.CrossValidation, *metrics.ConfusionMatrix, string, error) {
	cv := model_selection.NewCrossValidation(
		model_selection.WithFolds(folds),
		model_selection.WithCVRandomState(cfg.Seed),
	)
	best, err := cv.Run(newClassifier, ds)
	if err != nil {
		return nil, nil, "", err
	}
	table, err := cv.DetailsTable()
	if err != nil {
		return nil, nil, "", err
	}
	return cv, best, alignTable(table), nil
}

// ID3

type id3Run struct{ cfg *Config }

func newID3Run(cfg *Config) Algorithm { return &id3Run{cfg: cfg} }

func (r *id3Run) Name() string { return "id3" }

func (r *id3Run) Run(ds *dataset.Dataset) (*Outcome, error) {
	p := r.cfg.Algorithms.ID3
	if p.Discretize {
		if cols := ds.NumericColumns(); len(cols) > 0 {
			var err error
			if ds, err = ds.NumericToNominal(cols, nil); err != nil {
				return nil, err
			}
		}
	}

	if p.CrossValidation >= 2 {
		cv, best, details, err := crossValidate(r.cfg, p.CrossValidation,
			func() model.Classifier { return tree.NewID3() }, ds)
		if err != nil {
			return nil, err
		}
		clf, err := cv.Result(-1)
		if err != nil {
			return nil, err
		}
		t, err := clf.(*tree.ID3).Tree()
		if err != nil {
			return nil, err
		}
		out := classifierOutcome(r.Name(), best)
		out.add("folds", strconv.Itoa(p.CrossValidation))
		out.Model = t
		out.Report = t.String() + "\n" + best.String() + "\n" + details
		return out, nil
	}

	clf := tree.NewID3(tree.WithPercentSplit(p.PercentSplit), tree.WithID3RandomState(r.cfg.Seed))
	cm, err := clf.BuildClassifier(ds)
	if err != nil {
		return nil, err
	}
	t, err := clf.Tree()
	if err != nil {
		return nil, err
	}
	out := classifierOutcome(r.Name(), cm)
	out.add("tree depth", strconv.Itoa(t.Depth()))
	out.add("leaves", strconv.Itoa(t.Leaves()))
	out.Model = t
	out.Report = t.String() + "\n" + cm.String()
	return out, nil
}

// k-NN

type knnRun struct{ cfg *Config }

func newKNNRun(cfg *Config) Algorithm { return &knnRun{cfg: cfg} }

func (r *knnRun) Name() string { return "knn" }

func (r *knnRun) options() []neighbors.KNNOption {
	p := r.cfg.Algorithms.KNN
	opts := []neighbors.KNNOption{neighbors.WithTieUnclassified(p.TieUnclassified)}
	if p.K > 0 {
		opts = append(opts, neighbors.WithK(p.K))
	}
	if p.Distance != "" {
		opts = append(opts, neighbors.WithKNNDistance(p.Distance))
	}
	return opts
}

func (r *knnRun) Run(ds *dataset.Dataset) (*Outcome, error) {
	p := r.cfg.Algorithms.KNN
	if p.CrossValidation >= 2 {
		_, best, details, err := crossValidate(r.cfg, p.CrossValidation,
			func() model.Classifier { return neighbors.NewKNN(r.options()...) }, ds)
		if err != nil {
			return nil, err
		}
		out := classifierOutcome(r.Name(), best)
		out.add("folds", strconv.Itoa(p.CrossValidation))
		out.Report = best.String() + "\n" + details
		return out, nil
	}

	opts := append(r.options(),
		neighbors.WithKNNPercentSplit(p.PercentSplit),
		neighbors.WithKNNRandomState(r.cfg.Seed),
	)
	clf := neighbors.NewKNN(opts...)
	cm, err := clf.BuildClassifier(ds)
	if err != nil {
		return nil, err
	}
	out := classifierOutcome(r.Name(), cm)
	out.add("k", strconv.Itoa(clf.K()))
	out.Model = clf.ResultData()
	out.Report = cm.String()
	return out, nil
}

// gradient descent

type gradientDescentRun struct{ cfg *Config }

func newGradientDescentRun(cfg *Config) Algorithm { return &gradientDescentRun{cfg: cfg} }

func (r *gradientDescentRun) Name() string { return "gradientdescent" }

func (r *gradientDescentRun) Run(ds *dataset.Dataset) (*Outcome, error) {
	data, err := ds.Floats()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.NewModelError("gradientdescent", "empty data", errors.ErrEmptyData)
	}
	p := r.cfg.Algorithms.GradientDescent
	yCol := len(data[0]) - 1
	opts := []linear.Option{
		linear.WithUnivariate(p.Univariate),
		linear.WithSaveError(p.SaveError),
	}
	if p.Alpha > 0 {
		opts = append(opts, linear.WithAlpha(p.Alpha))
	}
	if p.Precision > 0 {
		opts = append(opts, linear.WithPrecision(p.Precision))
	}
	if p.MaxIter > 0 {
		opts = append(opts, linear.WithMaxIter(p.MaxIter))
	}
	if p.Gap > 0 {
		opts = append(opts, linear.WithPredictionLineGap(p.Gap))
	}
	if p.YColumn != nil {
		opts = append(opts, linear.WithYColumn(*p.YColumn))
		if *p.YColumn >= 0 {
			yCol = *p.YColumn
		}
	}
	if p.Univariate {
		yCol = 1
	}

	gd := linear.NewGradientDescent(opts...)
	if err := gd.Train(data); err != nil {
		return nil, err
	}

	X, y := splitColumn(data, yCol, p.Univariate)
	out := &Outcome{Algorithm: r.Name(), Model: gd}
	out.add("theta", fixedSlice(gd.Theta))
	out.add("MSE", fixed(gd.MSE))
	out.add("iterations", strconv.Itoa(gd.Iterations))
	out.add("converged", strconv.FormatBool(gd.Converged))

	ref := linear.NewLinearRegression()
	if err := ref.Fit(X, y); err == nil {
		out.add("normal equation", fixedSlice(ref.Theta()))
		if r2, err := ref.Score(X, y); err == nil {
			out.add("normal equation R2", fixed(r2))
		}
	} else {
		out.add("normal equation", err.Error())
	}

	history := gd.ErrorHistory()
	lines := gd.PredictionLines()
	out.chart = func(dir string) ([]string, error) {
		var paths []string
		if len(history) > 0 {
			path := filepath.Join(dir, "gradientdescent_mse.png")
			if err := mseChart(history, path); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
		pred, err := gd.PredictValues(X)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, "gradientdescent_line.png")
		if err := regressionChart(X, y, pred, lines, path); err != nil {
			return paths, err
		}
		return append(paths, path), nil
	}
	return out, nil
}

// splitColumn separates the target column from the features the same way
// GradientDescent.Train does.
func splitColumn(data [][]float64, yCol int, univariate bool) ([][]float64, []float64) {
	X := make([][]float64, len(data))
	y := make([]float64, len(data))
	for i, row := range data {
		y[i] = row[yCol]
		if univariate {
			X[i] = []float64{row[0]}
			continue
		}
		x := make([]float64, 0, len(row)-1)
		x = append(x, row[:yCol]...)
		X[i] = append(x, row[yCol+1:]...)
	}
	return X, y
}

// simulated annealing

type annealingRun struct{ cfg *Config }

func newAnnealingRun(cfg *Config) Algorithm { return &annealingRun{cfg: cfg} }

func (r *annealingRun) Name() string { return "annealing" }

func (r *annealingRun) Run(ds *dataset.Dataset) (*Outcome, error) {
	if ds.NumAttributes() < 2 {
		return nil, errors.NewDimensionError("annealing", 2, ds.NumAttributes(), 1)
	}
	data, err := ds.Floats(0, 1)
	if err != nil {
		return nil, err
	}
	p := r.cfg.Algorithms.Annealing
	opts := []optimize.Option{
		optimize.WithCooling(p.Cooling),
		optimize.WithSaveHistory(p.SaveHistory),
		optimize.WithRandomState(r.cfg.Seed),
	}
	if p.Temperature > 0 {
		opts = append(opts, optimize.WithTemperature(p.Temperature))
	}
	sa := optimize.NewSimulatedAnnealing(opts...)
	res, err := sa.FitData(data)
	if err != nil {
		return nil, err
	}

	initial := make([]optimize.Point, len(data))
	for i, row := range data {
		initial[i] = optimize.Point{X: row[0], Y: row[1]}
	}
	out := &Outcome{Algorithm: r.Name(), Model: res}
	out.add("initial energy", fixed(optimize.Energy(initial)))
	out.add("best energy", fixed(res.BestEnergy))
	out.add("final energy", fixed(res.Energy))
	out.add("steps", strconv.Itoa(res.Steps))
	out.chart = func(dir string) ([]string, error) {
		path := filepath.Join(dir, "annealing_tour.png")
		return []string{path}, tourChart(initial, res.Best, path)
	}
	return out, nil
}
