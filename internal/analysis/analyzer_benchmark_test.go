package analysis

import (
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/readmission-guard/internal/model"
)

const benchDump = `{
  "name": "tree",
  "num_class": 1,
  "max_feature_idx": 3,
  "objective": "binary sigmoid:1",
  "feature_names": ["number_inpatient", "num_medications", "age__40_50_", "insulin_No"],
  "tree_info": [
    {"tree_index": 0, "tree_structure": {
      "split_feature": 0, "threshold": 1.5, "decision_type": "<=", "internal_value": 0,
      "left_child": {
        "split_feature": 3, "threshold": 0.5, "decision_type": "<=", "internal_value": -0.3,
        "left_child": {"leaf_value": -0.1}, "right_child": {"leaf_value": -0.6}},
      "right_child": {"leaf_value": 1.0}}},
    {"tree_index": 1, "tree_structure": {
      "split_feature": 1, "threshold": 20.5, "decision_type": "<=", "internal_value": 0.1,
      "left_child": {"leaf_value": -0.2}, "right_child": {"leaf_value": 0.6}}}
  ]
}`

func benchAnalyzer(b *testing.B) *Analyzer {
	te, err := model.LoadTreeEnsemble(strings.NewReader(benchDump))
	if err != nil {
		b.Fatalf("load model: %v", err)
	}
	return NewAnalyzer(te, te.FeatureNames(), Lenient)
}

// BenchmarkAnalyze benchmarks the full validate, encode, predict, explain pipeline
func BenchmarkAnalyze(b *testing.B) {
	analyzer := benchAnalyzer(b)
	in := scenarioInputs()
	in.NumberInpatient = 2
	in.NumMedications = 25

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		result, err := analyzer.Analyze(in)
		if err != nil {
			b.Fatalf("Analysis failed: %v", err)
		}
		if result.Tier != TierUrgent {
			b.Errorf("Unexpected tier: %s", result.Tier)
		}
	}
}

// BenchmarkAnalyzeParallel benchmarks concurrent analyses sharing one analyzer
func BenchmarkAnalyzeParallel(b *testing.B) {
	analyzer := benchAnalyzer(b)
	in := DefaultInputs()

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := analyzer.Analyze(in); err != nil {
				b.Errorf("Analysis failed: %v", err)
			}
		}
	})
}

// BenchmarkEncode benchmarks feature encoding alone
func BenchmarkEncode(b *testing.B) {
	enc := NewEncoder(testFeatureNames, Lenient)
	in := scenarioInputs()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, _, err := enc.Encode(in); err != nil {
			b.Fatalf("Encode failed: %v", err)
		}
	}
}
