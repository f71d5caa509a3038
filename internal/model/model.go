// Package model defines the prediction and attribution capabilities the
// dashboard consumes, along with the tree-ensemble backends that provide them.
package model

import "errors"

// ErrExplanationUnsupported is returned by backends that can score but cannot
// attribute a prediction.
var ErrExplanationUnsupported = errors.New("model backend does not support explanations")

// Predictor scores a single encoded row.
type Predictor interface {
	// PredictProba returns the probability of the positive class.
	PredictProba(x []float64) (float64, error)
}

// Explainer attributes a single prediction to its input features.
type Explainer interface {
	Explain(x []float64) (Attribution, error)
}

// Model is a loaded classifier artifact.
type Model interface {
	Predictor
	Explainer
	// NumFeatures is the row width the model expects, or 0 if unknown.
	NumFeatures() int
	Name() string
}

// Attribution is the raw output of an explainer. Values holds either a single
// row of per-feature contributions, or one row per class. Baseline has one
// entry per row.
type Attribution struct {
	Values   [][]float64
	Baseline []float64
}

// PerClass reports whether the attribution has one row per class.
func (a Attribution) PerClass() bool {
	return len(a.Values) > 1
}
