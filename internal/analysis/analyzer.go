package analysis

import (
	"time"

	"github.com/ZanzyTHEbar/readmission-guard/internal/model"
)

// Observer receives analysis outcomes, typically for metrics and logs.
type Observer interface {
	ObserveAnalysis(tier RiskTier, duration time.Duration)
	ObserveFailure(stage string)
	ObserveDropped(d DroppedField, mode EncodingMode)
}

type noopObserver struct{}

func (noopObserver) ObserveAnalysis(RiskTier, time.Duration)   {}
func (noopObserver) ObserveFailure(string)                     {}
func (noopObserver) ObserveDropped(DroppedField, EncodingMode) {}

// Analyzer orchestrates the full analysis pipeline
type Analyzer struct {
	encoder  *Encoder
	model    model.Model
	observer Observer
}

// NewAnalyzer creates an analyzer over a loaded model and its feature names
func NewAnalyzer(m model.Model, featureNames []string, mode EncodingMode) *Analyzer {
	return &Analyzer{
		encoder:  NewEncoder(featureNames, mode),
		model:    m,
		observer: noopObserver{},
	}
}

// SetObserver attaches an observer for outcomes and dropped inputs
func (a *Analyzer) SetObserver(o Observer) {
	if o != nil {
		a.observer = o
	}
}

// Encoder exposes the analyzer's encoder
func (a *Analyzer) Encoder() *Encoder { return a.encoder }

// Analyze validates, encodes, scores, explains and recommends.
func (a *Analyzer) Analyze(in Inputs) (*Result, error) {
	start := time.Now()

	if err := in.Validate(); err != nil {
		a.observer.ObserveFailure("validate")
		return nil, err
	}

	v, report, err := a.encoder.Encode(in)
	for _, d := range report.Dropped {
		a.observer.ObserveDropped(d, a.encoder.Mode())
	}
	if err != nil {
		a.observer.ObserveFailure("encode")
		return nil, err
	}

	prob, err := Predict(a.model, v)
	if err != nil {
		a.observer.ObserveFailure("predict")
		return nil, err
	}

	explanation, err := Explain(a.model, v)
	if err != nil {
		a.observer.ObserveFailure("explain")
		return nil, err
	}

	tier := TierFor(prob)
	res := &Result{
		Probability:     prob,
		Percent:         FormatPercent(prob),
		Tier:            tier,
		Color:           tier.Color(),
		Explanation:     explanation,
		Recommendations: Recommend(prob, in.Scalars()),
		Dropped:         report.Dropped,
		Duration:        time.Since(start),
	}

	a.observer.ObserveAnalysis(tier, res.Duration)
	return res, nil
}
