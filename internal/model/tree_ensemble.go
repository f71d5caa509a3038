package model

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// zeroThreshold mirrors LightGBM's kZeroThreshold for missing_type "Zero".
const zeroThreshold = 1e-35

type objectiveKind int

const (
	objectiveSigmoid objectiveKind = iota
	objectiveSoftmax
)

// TreeEnsemble is a gradient-boosted tree model read from LightGBM's
// dump_model() JSON. It supports positive-class probability and
// decision-path attribution.
type TreeEnsemble struct {
	name          string
	numFeatures   int
	numClass      int
	featureNames  []string
	objective     objectiveKind
	sigmoid       float64
	averageOutput bool
	// trees[k] holds the trees contributing to class k
	trees [][]*treeNode
}

type ensembleDocument struct {
	Name                string   `json:"name"`
	Version             string   `json:"version"`
	NumClass            int      `json:"num_class"`
	NumTreePerIteration int      `json:"num_tree_per_iteration"`
	MaxFeatureIdx       int      `json:"max_feature_idx"`
	Objective           string   `json:"objective"`
	AverageOutput       bool     `json:"average_output"`
	FeatureNames        []string `json:"feature_names"`
	TreeInfo            []struct {
		TreeIndex     int       `json:"tree_index"`
		TreeStructure *treeNode `json:"tree_structure"`
	} `json:"tree_info"`
}

type treeNode struct {
	SplitFeature  *int            `json:"split_feature"`
	Threshold     json.RawMessage `json:"threshold"`
	DecisionType  string          `json:"decision_type"`
	DefaultLeft   bool            `json:"default_left"`
	MissingType   string          `json:"missing_type"`
	InternalValue float64         `json:"internal_value"`
	LeafValue     *float64        `json:"leaf_value"`
	LeftChild     *treeNode       `json:"left_child"`
	RightChild    *treeNode       `json:"right_child"`

	threshold  float64
	categories map[int]struct{}
}

func (n *treeNode) isLeaf() bool {
	return n.SplitFeature == nil
}

func (n *treeNode) value() float64 {
	if n.isLeaf() {
		return *n.LeafValue
	}
	return n.InternalValue
}

// LoadTreeEnsembleFile reads a dump_model() JSON file.
func LoadTreeEnsembleFile(path string) (*TreeEnsemble, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadTreeEnsemble(f)
}

// LoadTreeEnsemble decodes and validates a dump_model() JSON document.
func LoadTreeEnsemble(r io.Reader) (*TreeEnsemble, error) {
	var doc ensembleDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode tree ensemble: %w", err)
	}

	if len(doc.TreeInfo) == 0 {
		return nil, fmt.Errorf("tree ensemble has no trees")
	}

	te := &TreeEnsemble{
		name:          doc.Name,
		numFeatures:   doc.MaxFeatureIdx + 1,
		featureNames:  doc.FeatureNames,
		averageOutput: doc.AverageOutput,
	}
	if te.name == "" {
		te.name = "tree"
	}
	if len(doc.FeatureNames) > 0 && len(doc.FeatureNames) != te.numFeatures {
		return nil, fmt.Errorf("feature_names has %d entries but max_feature_idx implies %d", len(doc.FeatureNames), te.numFeatures)
	}

	if err := te.parseObjective(doc.Objective, doc.NumClass); err != nil {
		return nil, err
	}

	perIteration := doc.NumTreePerIteration
	if perIteration <= 0 {
		perIteration = 1
	}
	if perIteration != te.numClass {
		return nil, fmt.Errorf("num_tree_per_iteration %d does not match %d output classes", perIteration, te.numClass)
	}

	te.trees = make([][]*treeNode, te.numClass)
	for i, info := range doc.TreeInfo {
		if info.TreeStructure == nil {
			return nil, fmt.Errorf("tree %d has no structure", i)
		}
		if err := te.prepare(info.TreeStructure); err != nil {
			return nil, fmt.Errorf("tree %d: %w", info.TreeIndex, err)
		}
		class := info.TreeIndex % te.numClass
		te.trees[class] = append(te.trees[class], info.TreeStructure)
	}

	return te, nil
}

// parseObjective accepts the binary objectives LightGBM writes, e.g.
// "binary sigmoid:1", "cross_entropy", or a two-class "multiclass num_class:2".
func (te *TreeEnsemble) parseObjective(objective string, numClass int) error {
	fields := strings.Fields(objective)
	if len(fields) == 0 {
		return fmt.Errorf("tree ensemble has no objective")
	}

	switch fields[0] {
	case "binary", "cross_entropy", "xentropy":
		te.objective = objectiveSigmoid
		te.numClass = 1
		te.sigmoid = 1
		for _, f := range fields[1:] {
			if v, ok := strings.CutPrefix(f, "sigmoid:"); ok {
				s, err := strconv.ParseFloat(v, 64)
				if err != nil || s <= 0 {
					return fmt.Errorf("invalid sigmoid coefficient %q", v)
				}
				te.sigmoid = s
			}
		}
	case "multiclass", "softmax":
		if numClass != 2 {
			return fmt.Errorf("multiclass objective with %d classes is not a binary classifier", numClass)
		}
		te.objective = objectiveSoftmax
		te.numClass = 2
	default:
		return fmt.Errorf("unsupported objective %q", fields[0])
	}

	return nil
}

func (te *TreeEnsemble) prepare(n *treeNode) error {
	if n.isLeaf() {
		if n.LeafValue == nil {
			return fmt.Errorf("leaf without leaf_value")
		}
		return nil
	}

	if f := *n.SplitFeature; f < 0 || f >= te.numFeatures {
		return fmt.Errorf("split feature %d outside [0,%d)", f, te.numFeatures)
	}
	if n.LeftChild == nil || n.RightChild == nil {
		return fmt.Errorf("split node missing a child")
	}

	switch n.DecisionType {
	case "", "<=":
		var t float64
		if err := json.Unmarshal(n.Threshold, &t); err != nil {
			var s string
			if err := json.Unmarshal(n.Threshold, &s); err != nil {
				return fmt.Errorf("invalid numeric threshold %s", string(n.Threshold))
			}
			if t, err = strconv.ParseFloat(s, 64); err != nil {
				return fmt.Errorf("invalid numeric threshold %q", s)
			}
		}
		n.threshold = t
	case "==":
		var s string
		if err := json.Unmarshal(n.Threshold, &s); err != nil {
			var single float64
			if err := json.Unmarshal(n.Threshold, &single); err != nil {
				return fmt.Errorf("invalid categorical threshold %s", string(n.Threshold))
			}
			s = strconv.Itoa(int(single))
		}
		n.categories = make(map[int]struct{})
		for _, part := range strings.Split(s, "||") {
			c, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return fmt.Errorf("invalid category %q", part)
			}
			n.categories[c] = struct{}{}
		}
	default:
		return fmt.Errorf("unsupported decision type %q", n.DecisionType)
	}

	if err := te.prepare(n.LeftChild); err != nil {
		return err
	}
	return te.prepare(n.RightChild)
}

// goLeft follows LightGBM's numerical and categorical decision rules.
func (n *treeNode) goLeft(fval float64) bool {
	if n.categories != nil {
		if math.IsNaN(fval) || fval < 0 {
			return false
		}
		_, ok := n.categories[int(fval)]
		return ok
	}

	if math.IsNaN(fval) && n.MissingType != "NaN" {
		fval = 0
	}
	if (n.MissingType == "Zero" && fval > -zeroThreshold && fval <= zeroThreshold) ||
		(n.MissingType == "NaN" && math.IsNaN(fval)) {
		return n.DefaultLeft
	}
	return fval <= n.threshold
}

// walk descends one tree for x, calling visit for every edge taken.
func walk(root *treeNode, x []float64, visit func(feature int, parent, child float64)) float64 {
	n := root
	for !n.isLeaf() {
		f := *n.SplitFeature
		next := n.RightChild
		if n.goLeft(x[f]) {
			next = n.LeftChild
		}
		if visit != nil {
			visit(f, n.value(), next.value())
		}
		n = next
	}
	return n.value()
}

func (te *TreeEnsemble) checkWidth(x []float64) error {
	if len(x) != te.numFeatures {
		return fmt.Errorf("row has %d features, model expects %d", len(x), te.numFeatures)
	}
	return nil
}

// RawScores returns the per-class margin for x.
func (te *TreeEnsemble) RawScores(x []float64) ([]float64, error) {
	if err := te.checkWidth(x); err != nil {
		return nil, err
	}

	scores := make([]float64, te.numClass)
	for k, trees := range te.trees {
		for _, t := range trees {
			scores[k] += walk(t, x, nil)
		}
		if te.averageOutput && len(trees) > 0 {
			scores[k] /= float64(len(trees))
		}
	}
	return scores, nil
}

// PredictProba implements Predictor.
func (te *TreeEnsemble) PredictProba(x []float64) (float64, error) {
	scores, err := te.RawScores(x)
	if err != nil {
		return 0, err
	}

	if te.objective == objectiveSoftmax {
		m := math.Max(scores[0], scores[1])
		e0 := math.Exp(scores[0] - m)
		e1 := math.Exp(scores[1] - m)
		return e1 / (e0 + e1), nil
	}

	return 1 / (1 + math.Exp(-te.sigmoid*scores[0])), nil
}

// Explain implements Explainer using decision-path contributions: each split
// credits its feature with the change in node value along the taken edge and
// the root values form the baseline. Baseline plus contributions equals the
// raw margin for every class.
func (te *TreeEnsemble) Explain(x []float64) (Attribution, error) {
	if err := te.checkWidth(x); err != nil {
		return Attribution{}, err
	}

	attr := Attribution{
		Values:   make([][]float64, te.numClass),
		Baseline: make([]float64, te.numClass),
	}

	for k, trees := range te.trees {
		row := make([]float64, te.numFeatures)
		baseline := 0.0
		for _, t := range trees {
			baseline += t.value()
			walk(t, x, func(feature int, parent, child float64) {
				row[feature] += child - parent
			})
		}
		if te.averageOutput && len(trees) > 0 {
			scale := 1 / float64(len(trees))
			baseline *= scale
			for i := range row {
				row[i] *= scale
			}
		}
		attr.Values[k] = row
		attr.Baseline[k] = baseline
	}

	return attr, nil
}

// NumFeatures implements Model.
func (te *TreeEnsemble) NumFeatures() int { return te.numFeatures }

// Name implements Model.
func (te *TreeEnsemble) Name() string { return te.name }

// FeatureNames returns the column names recorded in the artifact, if any.
func (te *TreeEnsemble) FeatureNames() []string { return te.featureNames }

// NumTrees returns the total number of trees across classes.
func (te *TreeEnsemble) NumTrees() int {
	n := 0
	for _, trees := range te.trees {
		n += len(trees)
	}
	return n
}
