package experiment

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mlkit/core/dataset"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

func init() {
	color.NoColor = true
}

const blobsCSV = `x,y,class
0,0,a
0,1,a
1,0,a
1,1,a
0.5,0.5,a
10,10,b
10,11,b
11,10,b
11,11,b
10.5,10.5,b
`

func blobs(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := ReadCSV(strings.NewReader(blobsCSV), "")
	require.NoError(t, err)
	return ds
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
dataset:
  path: iris.csv
  target: species
  scaler: minmax
run: [kmeans, knn]
charts: true
algorithms:
  kmeans:
    k: 3
    normalize: false
  knn:
    k: 5
    distance: manhattan
  gradientdescent:
    y_column: 0
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "iris.csv", cfg.Dataset.Path)
	assert.Equal(t, "species", cfg.Dataset.Target)
	assert.Equal(t, "minmax", cfg.Dataset.Scaler)
	assert.Equal(t, []string{"kmeans", "knn"}, cfg.Run)
	assert.True(t, cfg.Charts)
	assert.Equal(t, int64(-1), cfg.Seed, "seed defaults to the clock")
	assert.Equal(t, 3, cfg.Algorithms.KMeans.K)
	require.NotNil(t, cfg.Algorithms.KMeans.Normalize)
	assert.False(t, *cfg.Algorithms.KMeans.Normalize)
	assert.Equal(t, "manhattan", cfg.Algorithms.KNN.Distance)
	require.NotNil(t, cfg.Algorithms.GradientDescent.YColumn)
	assert.Equal(t, 0, *cfg.Algorithms.GradientDescent.YColumn)
}

func TestValidate(t *testing.T) {
	var vErr *errors.ValidationError

	cfg, err := Parse([]byte("dataset: {path: a.csv}\n"))
	require.NoError(t, err)
	assert.True(t, errors.As(cfg.Validate(), &vErr))

	cfg, err = Parse([]byte("run: [kmeans, svm]\n"))
	require.NoError(t, err)
	err = cfg.Validate()
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, err.Error(), "annealing, dbscan, gradientdescent, id3, kmeans, knn")

	_, err = Parse([]byte("run: [\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run: [dbscan]\nseed: 3\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cfg.Seed)
	assert.Equal(t, []string{"dbscan"}, cfg.Run)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFactory(t *testing.T) {
	for _, name := range []string{"kmeans", "dbscan", "id3", "knn", "gradientdescent", "annealing"} {
		alg, err := New(name, &Config{})
		require.NoError(t, err, name)
		assert.Equal(t, name, alg.Name())
		assert.True(t, Known(name))
	}

	_, err := New("svm", &Config{})
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.False(t, Known("svm"))
}

func TestReadCSV(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("class,x,y\na,1,2\n,3,4\n"), "class")
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y", "class"}, ds.Names())
	assert.Equal(t, "class", ds.Target().Name)
	assert.Equal(t, dataset.Numeric, ds.Attributes()[0].Type)
	assert.Equal(t, dataset.Numeric, ds.Attributes()[1].Type)
	assert.Equal(t, []any{1.0, 2.0, "a"}, ds.Row(0))
	// an empty nominal cell is missing
	assert.Equal(t, []string{"a", ""}, ds.Labels())

	_, err = ReadCSV(strings.NewReader("x,y\n1,2\n"), "class")
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = ReadCSV(strings.NewReader("x,y\n"), "")
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = ReadCSV(strings.NewReader("x,y\n1,2,3\n"), "")
	assert.Error(t, err)
}

func TestScale(t *testing.T) {
	ds := blobs(t)

	same, err := Scale(ds, "")
	require.NoError(t, err)
	assert.Same(t, ds, same)

	scaled, err := Scale(ds, "minmax")
	require.NoError(t, err)
	X, err := scaled.Floats(0, 1)
	require.NoError(t, err)
	for _, row := range X {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
	assert.Equal(t, ds.Labels(), scaled.Labels())

	_, err = Scale(ds, "robust")
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestRunner_ClusteringAndClassification(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Seed: 1, Output: dir, Charts: true, Save: true}
	cfg.Run = []string{"kmeans", "dbscan", "id3", "knn"}
	cfg.Algorithms.KMeans.K = 2
	cfg.Algorithms.DBSCAN.Eps = 2
	cfg.Algorithms.DBSCAN.MinPts = 3
	cfg.Algorithms.ID3.Discretize = true
	cfg.Algorithms.KNN.K = 3
	cfg.Algorithms.KNN.CrossValidation = 5

	var buf bytes.Buffer
	outcomes, err := NewRunner(cfg, &buf, true).RunDataset(blobs(t))
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	byName := make(map[string]*Outcome)
	for _, o := range outcomes {
		byName[o.Algorithm] = o
	}

	km := byName["kmeans"]
	assert.Contains(t, km.Summary, Line{Key: "converged", Value: "true"})
	assert.Contains(t, km.Report, "50.00%")

	db := byName["dbscan"]
	assert.Contains(t, db.Summary, Line{Key: "clusters", Value: "2"})
	assert.Contains(t, db.Summary, Line{Key: "noise", Value: "0"})

	assert.Contains(t, byName["knn"].Summary, Line{Key: "folds", Value: "5"})
	assert.Contains(t, byName["knn"].Report, "Mean")
	assert.NotEmpty(t, byName["id3"].Report)

	for _, name := range []string{"kmeans", "dbscan"} {
		require.Len(t, byName[name].Charts, 1)
		assert.FileExists(t, byName[name].Charts[0])
	}
	for _, name := range []string{"kmeans", "dbscan", "id3"} {
		assert.FileExists(t, filepath.Join(dir, name+".gob"))
	}
	// cross-validated k-NN keeps no model
	assert.NoFileExists(t, filepath.Join(dir, "knn.gob"))

	out := buf.String()
	assert.Contains(t, out, "✓ kmeans")
	assert.Contains(t, out, "✓ knn")
	assert.Contains(t, out, "chart ")
}

func TestRunner_Optimization(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("x,y\n0,1\n1,3\n2,5\n3,7\n4,9\n"), "")
	require.NoError(t, err)

	dir := t.TempDir()
	cfg := &Config{Seed: 2, Output: dir, Charts: true}
	cfg.Run = []string{"gradientdescent", "annealing"}
	gd := &cfg.Algorithms.GradientDescent
	gd.Alpha = 0.05
	gd.Precision = 1e-12
	gd.MaxIter = 10000
	gd.SaveError = true
	gd.Gap = 50
	cfg.Algorithms.Annealing.Temperature = 1

	var buf bytes.Buffer
	outcomes, err := NewRunner(cfg, &buf, false).RunDataset(ds)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	g := outcomes[0]
	assert.Equal(t, "gradientdescent", g.Algorithm)
	assert.Contains(t, g.Summary, Line{Key: "normal equation", Value: "[1.0000, 2.0000]"})
	assert.Contains(t, g.Summary, Line{Key: "converged", Value: "true"})
	assert.Contains(t, g.Summary, Line{Key: "theta", Value: "[1.0000, 2.0000]"})
	require.Len(t, g.Charts, 2)
	for _, c := range g.Charts {
		assert.FileExists(t, c)
	}

	a := outcomes[1]
	assert.Equal(t, "annealing", a.Algorithm)
	require.Len(t, a.Charts, 1)
	assert.FileExists(t, a.Charts[0])
}

func TestRunner_Failures(t *testing.T) {
	cfg := &Config{Seed: 1}
	cfg.Run = []string{"gradientdescent"}

	var buf bytes.Buffer
	_, err := NewRunner(cfg, &buf, false).RunDataset(blobs(t))
	require.Error(t, err, "nominal class cannot be regressed")
	assert.Contains(t, buf.String(), "✗ gradientdescent")

	cfg.Run = []string{"gradientdescent", "kmeans"}
	buf.Reset()
	outcomes, err := NewRunner(cfg, &buf, false).RunDataset(blobs(t))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "kmeans", outcomes[0].Algorithm)
}

func TestSplitColumn(t *testing.T) {
	data := [][]float64{{1, 2, 3}, {4, 5, 6}}

	X, y := splitColumn(data, 1, false)
	assert.Equal(t, [][]float64{{1, 3}, {4, 6}}, X)
	assert.Equal(t, []float64{2, 5}, y)

	X, y = splitColumn(data, 1, true)
	assert.Equal(t, [][]float64{{1}, {4}}, X)
	assert.Equal(t, []float64{2, 5}, y)
}

func TestAlignTable(t *testing.T) {
	got := alignTable([][]string{{"Fold", "Accuracy"}, {"1", "0.5"}})
	assert.Equal(t, "Fold  Accuracy\n1     0.5\n", got)
}
