package analysis

import (
	"fmt"
	"time"
)

// Contributor is one feature's signed push on the prediction.
type Contributor struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

// Explanation attributes a prediction relative to a baseline, in the model's
// margin (log-odds) space. Contributors are ordered by absolute size.
type Explanation struct {
	Baseline     float64       `json:"baseline"`
	Contributors []Contributor `json:"contributors"`
}

// Result is the outcome of one analysis. It is recomputed on every analyze
// action and never stored beyond the owning session.
type Result struct {
	Probability     float64        `json:"probability"`
	Percent         string         `json:"percent"`
	Tier            RiskTier       `json:"tier"`
	Color           string         `json:"color"`
	Explanation     *Explanation   `json:"explanation,omitempty"`
	Recommendations []string       `json:"recommendations"`
	Dropped         []DroppedField `json:"dropped_fields,omitempty"`
	Duration        time.Duration  `json:"-"`
}

// FormatPercent renders a probability the way the dashboard shows it.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

// InferenceError wraps a failure of the model during predict or explain. It
// aborts the current analysis only.
type InferenceError struct {
	Stage string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("model %s failed: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
