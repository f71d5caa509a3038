package model

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// binaryDump has two trees over three features:
//
//	tree 0: number_inpatient <= 1.5 ? -0.5 : 1.0          (root value 0)
//	tree 1: num_medications  <= 20.5 ? -0.2 : 0.6         (root value 0.1)
const binaryDump = `{
  "name": "tree",
  "version": "v3",
  "num_class": 1,
  "num_tree_per_iteration": 1,
  "max_feature_idx": 2,
  "objective": "binary sigmoid:1",
  "feature_names": ["number_inpatient", "num_medications", "age__40_50_"],
  "tree_info": [
    {"tree_index": 0, "tree_structure": {
      "split_index": 0, "split_feature": 0, "threshold": 1.5, "decision_type": "<=",
      "default_left": true, "missing_type": "None", "internal_value": 0,
      "left_child": {"leaf_index": 0, "leaf_value": -0.5},
      "right_child": {"leaf_index": 1, "leaf_value": 1.0}}},
    {"tree_index": 1, "tree_structure": {
      "split_index": 0, "split_feature": 1, "threshold": 20.5, "decision_type": "<=",
      "default_left": true, "missing_type": "None", "internal_value": 0.1,
      "left_child": {"leaf_index": 0, "leaf_value": -0.2},
      "right_child": {"leaf_index": 1, "leaf_value": 0.6}}}
  ]
}`

// twoClassDump is a softmax model with one tree per class.
const twoClassDump = `{
  "name": "tree",
  "num_class": 2,
  "num_tree_per_iteration": 2,
  "max_feature_idx": 1,
  "objective": "multiclass num_class:2",
  "tree_info": [
    {"tree_index": 0, "tree_structure": {"leaf_value": 0.25}},
    {"tree_index": 1, "tree_structure": {
      "split_feature": 1, "threshold": "0.5", "decision_type": "<=", "internal_value": 0.2,
      "left_child": {"leaf_value": -0.3},
      "right_child": {"leaf_value": 0.9}}}
  ]
}`

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func loadDump(t *testing.T, doc string) *TreeEnsemble {
	t.Helper()
	te, err := LoadTreeEnsemble(strings.NewReader(doc))
	require.NoError(t, err)
	return te
}

func TestLoadTreeEnsemble_Metadata(t *testing.T) {
	te := loadDump(t, binaryDump)

	assert.Equal(t, 3, te.NumFeatures())
	assert.Equal(t, 2, te.NumTrees())
	assert.Equal(t, "tree", te.Name())
	assert.Equal(t, []string{"number_inpatient", "num_medications", "age__40_50_"}, te.FeatureNames())
}

func TestTreeEnsemble_PredictProba(t *testing.T) {
	te := loadDump(t, binaryDump)

	tests := []struct {
		name   string
		row    []float64
		margin float64
	}{
		{name: "both right", row: []float64{2, 25, 0}, margin: 1.6},
		{name: "both left", row: []float64{0, 15, 1}, margin: -0.7},
		{name: "threshold is inclusive on the left", row: []float64{1.5, 20.5, 0}, margin: -0.7},
		{name: "mixed", row: []float64{0, 30, 0}, margin: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := te.PredictProba(tt.row)
			require.NoError(t, err)
			assert.InDelta(t, sigmoid(tt.margin), p, 1e-12)
		})
	}
}

func TestTreeEnsemble_ExplainIsAdditive(t *testing.T) {
	te := loadDump(t, binaryDump)
	row := []float64{2, 25, 0}

	attr, err := te.Explain(row)
	require.NoError(t, err)

	require.Len(t, attr.Values, 1)
	assert.False(t, attr.PerClass())
	assert.InDelta(t, 0.1, attr.Baseline[0], 1e-12)
	assert.InDeltaSlice(t, []float64{1.0, 0.5, 0}, attr.Values[0], 1e-12)

	scores, err := te.RawScores(row)
	require.NoError(t, err)

	sum := attr.Baseline[0]
	for _, v := range attr.Values[0] {
		sum += v
	}
	assert.InDelta(t, scores[0], sum, 1e-12)
}

func TestTreeEnsemble_ExplainDeterministic(t *testing.T) {
	te := loadDump(t, binaryDump)
	row := []float64{0, 30, 1}

	a, err := te.Explain(row)
	require.NoError(t, err)
	b, err := te.Explain(row)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestTreeEnsemble_TwoClassSoftmax(t *testing.T) {
	te := loadDump(t, twoClassDump)

	p, err := te.PredictProba([]float64{0, 1})
	require.NoError(t, err)
	want := math.Exp(0.9) / (math.Exp(0.25) + math.Exp(0.9))
	assert.InDelta(t, want, p, 1e-12)

	attr, err := te.Explain([]float64{0, 1})
	require.NoError(t, err)
	assert.True(t, attr.PerClass())
	require.Len(t, attr.Values, 2)
	assert.InDeltaSlice(t, []float64{0, 0}, attr.Values[0], 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.7}, attr.Values[1], 1e-12)
	assert.InDeltaSlice(t, []float64{0.25, 0.2}, attr.Baseline, 1e-12)
}

func TestTreeEnsemble_AverageOutput(t *testing.T) {
	doc := strings.Replace(binaryDump, `"objective"`, `"average_output": true, "objective"`, 1)
	te := loadDump(t, doc)

	p, err := te.PredictProba([]float64{2, 25, 0})
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(0.8), p, 1e-12)

	attr, err := te.Explain([]float64{2, 25, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.05, attr.Baseline[0], 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, 0.25, 0}, attr.Values[0], 1e-12)
}

func TestTreeEnsemble_SigmoidCoefficient(t *testing.T) {
	doc := strings.Replace(binaryDump, "binary sigmoid:1", "binary sigmoid:2", 1)
	te := loadDump(t, doc)

	p, err := te.PredictProba([]float64{2, 25, 0})
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(3.2), p, 1e-12)
}

func TestTreeEnsemble_MissingAndCategoricalDecisions(t *testing.T) {
	n := &treeNode{MissingType: "Zero", DefaultLeft: false, threshold: 5}
	assert.False(t, n.goLeft(0), "zero routes to the default side")
	assert.True(t, n.goLeft(3))

	n = &treeNode{MissingType: "NaN", DefaultLeft: true, threshold: -1}
	assert.True(t, n.goLeft(math.NaN()))

	n = &treeNode{MissingType: "None", threshold: 1}
	assert.True(t, n.goLeft(math.NaN()), "NaN is treated as zero")

	n = &treeNode{categories: map[int]struct{}{1: {}, 3: {}}}
	assert.True(t, n.goLeft(3))
	assert.False(t, n.goLeft(2))
	assert.False(t, n.goLeft(-1))
}

func TestTreeEnsemble_RowWidthMismatch(t *testing.T) {
	te := loadDump(t, binaryDump)

	_, err := te.PredictProba([]float64{1, 2})
	assert.Error(t, err)

	_, err = te.Explain([]float64{1, 2, 3, 4})
	assert.Error(t, err)
}

func TestLoadTreeEnsemble_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: "model v1"},
		{name: "no trees", doc: `{"objective": "binary sigmoid:1", "max_feature_idx": 0, "tree_info": []}`},
		{name: "regression objective", doc: strings.Replace(binaryDump, "binary sigmoid:1", "regression", 1)},
		{name: "split outside width", doc: strings.Replace(binaryDump, `"split_feature": 1`, `"split_feature": 7`, 1)},
		{name: "three classes", doc: `{"objective": "multiclass num_class:3", "num_class": 3, "num_tree_per_iteration": 3, "max_feature_idx": 0, "tree_info": [{"tree_index": 0, "tree_structure": {"leaf_value": 0}}]}`},
		{name: "feature name count mismatch", doc: strings.Replace(binaryDump, `"max_feature_idx": 2`, `"max_feature_idx": 4`, 1)},
		{name: "unsupported decision", doc: strings.Replace(binaryDump, `"decision_type": "<="`, `"decision_type": ">"`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTreeEnsemble(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadTreeEnsembleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(binaryDump), 0o644))

	te, err := LoadTreeEnsembleFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, te.NumFeatures())

	_, err = LoadTreeEnsembleFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, os.IsNotExist(err))
}
