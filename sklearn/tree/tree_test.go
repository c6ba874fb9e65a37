package tree

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mlkit/core/dataset"
	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

func weather(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(
		[]string{"outlook", "temperature", "humidity", "wind", "play"},
		[][]any{
			{"sunny", "hot", "high", "weak", "no"},
			{"sunny", "hot", "high", "strong", "no"},
			{"overcast", "hot", "high", "weak", "yes"},
			{"rain", "mild", "high", "weak", "yes"},
			{"rain", "cool", "normal", "weak", "yes"},
			{"rain", "cool", "normal", "strong", "no"},
			{"overcast", "cool", "normal", "strong", "yes"},
			{"sunny", "mild", "high", "weak", "no"},
			{"sunny", "cool", "normal", "weak", "yes"},
			{"rain", "mild", "normal", "weak", "yes"},
			{"sunny", "mild", "normal", "strong", "yes"},
			{"overcast", "mild", "high", "strong", "yes"},
			{"overcast", "hot", "normal", "weak", "yes"},
			{"rain", "mild", "high", "strong", "no"},
		})
	require.NoError(t, err)
	return ds
}

func TestEntropy(t *testing.T) {
	tests := []struct {
		name string
		col  []string
		want float64
	}{
		{"pure", []string{"a", "a", "a"}, 0},
		{"even split", []string{"a", "b"}, 1},
		{"four classes", []string{"a", "b", "c", "d"}, 2},
		{"play tennis", []string{"y", "y", "y", "y", "y", "y", "y", "y", "y", "n", "n", "n", "n", "n"}, 0.940286},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([][]string, len(tt.col))
			for i, v := range tt.col {
				rows[i] = []string{v}
			}
			assert.InDelta(t, tt.want, Entropy(rows, 0), 1e-6)
		})
	}
}

func TestID3_Fit(t *testing.T) {
	clf := NewID3()
	require.NoError(t, clf.Fit(weather(t)))

	tree, err := clf.Tree()
	require.NoError(t, err)

	root := tree.Root()
	assert.Equal(t, "outlook", root.Attribute)
	assert.Equal(t, 0, root.Column)
	assert.Len(t, tree.Nodes, 8)
	assert.Equal(t, 5, tree.Leaves())
	assert.Equal(t, 2, tree.Depth())

	want := "" +
		"outlook = sunny\n" +
		"|  humidity = high: no\n" +
		"|  humidity = normal: yes\n" +
		"outlook = overcast: yes\n" +
		"outlook = rain\n" +
		"|  wind = weak: yes\n" +
		"|  wind = strong: no\n"
	assert.Equal(t, want, tree.String())

	for i, n := range tree.Nodes {
		assert.Equal(t, i, n.ID)
		if n.Leaf {
			assert.Empty(t, n.Children)
			assert.Equal(t, -1, n.Column)
		}
	}
}

func TestID3_ClassifiesTrainingRows(t *testing.T) {
	ds := weather(t)
	clf := NewID3()
	require.NoError(t, clf.Fit(ds))

	for i, row := range ds.Rows() {
		label, ok, err := clf.Classify(row)
		require.NoError(t, err)
		require.True(t, ok, "row %d", i)
		assert.Equal(t, row[4], label, "row %d", i)
	}
}

func TestID3_MissingBranchIsUnclassified(t *testing.T) {
	ds := weather(t)
	clf := NewID3()

	test, err := ds.WithRows([][]any{
		{"foggy", "hot", "high", "weak", "no"},
		{"sunny", "hot", "low", "weak", "no"},
		{"overcast", "hot", "high", "weak", "yes"},
	})
	require.NoError(t, err)

	cm, err := clf.Evaluate(ds, test)
	require.NoError(t, err)
	assert.Equal(t, 2, cm.Unclassified())
	assert.Equal(t, 1, cm.Correct())
	assert.Equal(t, 0, cm.Incorrect())
	assert.Equal(t, 3, cm.Total())
	assert.Equal(t, 1.0, cm.Accuracy())
	assert.Equal(t, []string{"no", "yes"}, cm.Labels())
}

func TestID3_Evaluate(t *testing.T) {
	ds := weather(t)
	cm, err := NewID3().Evaluate(ds, ds)
	require.NoError(t, err)

	assert.Equal(t, 14, cm.Correct())
	assert.Equal(t, 1.0, cm.Accuracy())
	assert.Equal(t, [][]int{{5, 0}, {0, 9}}, cm.Matrix())
	assert.InDelta(t, 1.0, cm.Weighted().FMeasure, 1e-12)
}

func TestID3_BuildClassifier(t *testing.T) {
	ds := weather(t)
	clf := NewID3(WithPercentSplit(70), WithID3RandomState(5))

	cm, err := clf.BuildClassifier(ds)
	require.NoError(t, err)
	assert.Same(t, cm, clf.ConfusionMatrix())

	// ceil(14*0.7) = 10 training rows, 4 test rows
	assert.Equal(t, 4, cm.Total())
	assert.Equal(t, cm.Correct()+cm.Incorrect()+cm.Unclassified(), cm.Total())
	for _, m := range cm.Metrics() {
		assert.GreaterOrEqual(t, m.Precision, 0.0)
		assert.LessOrEqual(t, m.Precision, 1.0)
		assert.False(t, math.IsNaN(m.FMeasure))
	}
}

func TestID3_EqualGainKeepsFirstAttribute(t *testing.T) {
	ds, err := dataset.New([]string{"a", "b", "class"}, [][]any{
		{"x", "x", "p"},
		{"y", "y", "q"},
		{"x", "x", "p"},
		{"y", "y", "q"},
	})
	require.NoError(t, err)

	clf := NewID3()
	require.NoError(t, clf.Fit(ds))
	tree, err := clf.Tree()
	require.NoError(t, err)
	assert.Equal(t, "a", tree.Root().Attribute)
}

func TestID3_OnlyTargetLeftMakesLeaf(t *testing.T) {
	// Identical features with different classes: the split exhausts the
	// features and the leaf takes the first row's class.
	ds, err := dataset.New([]string{"a", "class"}, [][]any{
		{"x", "p"},
		{"x", "q"},
	})
	require.NoError(t, err)

	clf := NewID3()
	require.NoError(t, clf.Fit(ds))
	tree, err := clf.Tree()
	require.NoError(t, err)

	require.Len(t, tree.Nodes, 2)
	assert.Equal(t, "a", tree.Nodes[0].Attribute)
	assert.True(t, tree.Nodes[1].Leaf)
	assert.Equal(t, "p", tree.Nodes[1].Label)
	assert.Equal(t, "x", tree.Nodes[1].Rule)
}

func TestID3_TargetAttribute(t *testing.T) {
	ds := weather(t)
	clf := NewID3(WithTargetAttribute("wind"))
	require.NoError(t, clf.Fit(ds))

	tree, err := clf.Tree()
	require.NoError(t, err)
	for _, n := range tree.Nodes {
		assert.NotEqual(t, "wind", n.Attribute)
	}

	err = NewID3(WithTargetAttribute("missing")).Fit(ds)
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestID3_NotFitted(t *testing.T) {
	clf := NewID3()
	_, _, err := clf.Classify([]any{"sunny"})
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	_, err = clf.Tree()
	assert.True(t, errors.As(err, &nf))
	assert.Nil(t, clf.ConfusionMatrix())
}

func TestID3_Logging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	clf := NewID3(WithID3Logger(logger))
	ds := weather(t)

	_, err := clf.Evaluate(ds, ds)
	require.NoError(t, err)
	assert.True(t, logger.ContainsMessage("Tree built"))
	assert.True(t, logger.ContainsField(log.TreeNodesKey, 8.0))
	assert.True(t, logger.ContainsField(log.AccuracyKey, 1.0))
}

func TestTree_SaveAndLoad(t *testing.T) {
	clf := NewID3()
	require.NoError(t, clf.Fit(weather(t)))
	tree, err := clf.Tree()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tree.gob")
	require.NoError(t, model.SaveModel(tree, path))

	var loaded Tree
	require.NoError(t, model.LoadModel(&loaded, path))
	assert.Equal(t, tree.String(), loaded.String())

	label, ok := loaded.Classify([]string{"rain", "mild", "high", "strong"})
	assert.True(t, ok)
	assert.Equal(t, "no", label)
}

func TestTree_Empty(t *testing.T) {
	var tree Tree
	assert.Nil(t, tree.Root())
	assert.Equal(t, 0, tree.Depth())
	assert.Equal(t, "", tree.String())
	_, ok := tree.Classify([]string{"x"})
	assert.False(t, ok)
}
