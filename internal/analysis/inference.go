package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ZanzyTHEbar/readmission-guard/internal/model"
)

// positiveClass is the index selected from per-class attributions.
const positiveClass = 1

// Predict scores v. Any error or a value outside [0,1] is an InferenceError.
func Predict(p model.Predictor, v FeatureVector) (float64, error) {
	prob, err := p.PredictProba(v.Values)
	if err != nil {
		return 0, &InferenceError{Stage: "predict", Err: err}
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return 0, &InferenceError{Stage: "predict", Err: fmt.Errorf("probability %v outside [0,1]", prob)}
	}
	return prob, nil
}

// Explain attributes the prediction for v. Per-class output is reduced to
// the positive class. A backend without explanations yields (nil, nil).
func Explain(e model.Explainer, v FeatureVector) (*Explanation, error) {
	attr, err := e.Explain(v.Values)
	if errors.Is(err, model.ErrExplanationUnsupported) {
		return nil, nil
	}
	if err != nil {
		return nil, &InferenceError{Stage: "explain", Err: err}
	}

	row, baseline, err := selectPositiveClass(attr)
	if err != nil {
		return nil, &InferenceError{Stage: "explain", Err: err}
	}
	if len(row) != v.Width() {
		return nil, &InferenceError{
			Stage: "explain",
			Err:   fmt.Errorf("attribution has %d values for %d features", len(row), v.Width()),
		}
	}

	contribs := make([]Contributor, len(row))
	for i, c := range row {
		contribs[i] = Contributor{Name: v.Names[i], Value: v.Values[i], Contribution: c}
	}
	sort.SliceStable(contribs, func(i, j int) bool {
		return math.Abs(contribs[i].Contribution) > math.Abs(contribs[j].Contribution)
	})

	return &Explanation{Baseline: baseline, Contributors: contribs}, nil
}

func selectPositiveClass(attr model.Attribution) ([]float64, float64, error) {
	if len(attr.Values) == 0 {
		return nil, 0, errors.New("empty attribution")
	}

	idx := 0
	if attr.PerClass() {
		if len(attr.Values) <= positiveClass {
			return nil, 0, fmt.Errorf("attribution has %d classes", len(attr.Values))
		}
		idx = positiveClass
	}

	var baseline float64
	switch {
	case len(attr.Baseline) > idx:
		baseline = attr.Baseline[idx]
	case len(attr.Baseline) == 1:
		baseline = attr.Baseline[0]
	}

	return attr.Values[idx], baseline, nil
}
