package model

import (
	"fmt"
	"math"

	"github.com/dmitryikh/leaves"
)

// LeavesModel scores LightGBM text-format models through the leaves runtime.
// It has no access to tree internals, so it cannot explain predictions.
type LeavesModel struct {
	ensemble *leaves.Ensemble
}

// LoadLeavesFile reads a LightGBM model.txt with the sigmoid transformation
// applied, so predictions come back as probabilities.
func LoadLeavesFile(path string) (*LeavesModel, error) {
	ensemble, err := leaves.LGEnsembleFromFile(path, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load LightGBM model: %w", err)
	}

	if ensemble.NOutputGroups() != 1 {
		return nil, fmt.Errorf("expected a binary model with one output group, got %d", ensemble.NOutputGroups())
	}

	return &LeavesModel{ensemble: ensemble}, nil
}

// PredictProba implements Predictor.
func (m *LeavesModel) PredictProba(x []float64) (float64, error) {
	if len(x) != m.ensemble.NFeatures() {
		return 0, fmt.Errorf("row has %d features, model expects %d", len(x), m.ensemble.NFeatures())
	}

	p := m.ensemble.PredictSingle(x, 0)
	if math.IsNaN(p) {
		return 0, fmt.Errorf("model returned NaN")
	}
	return p, nil
}

// Explain implements Explainer.
func (m *LeavesModel) Explain([]float64) (Attribution, error) {
	return Attribution{}, ErrExplanationUnsupported
}

// NumFeatures implements Model.
func (m *LeavesModel) NumFeatures() int { return m.ensemble.NFeatures() }

// Name implements Model.
func (m *LeavesModel) Name() string { return m.ensemble.Name() }
