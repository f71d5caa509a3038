package frontend

import (
	"errors"

	"github.com/ZanzyTHEbar/readmission-guard/internal/analysis"
	"github.com/ZanzyTHEbar/readmission-guard/internal/assets"
	"github.com/ZanzyTHEbar/readmission-guard/internal/session"
)

// NumericInput is a slider in the intake form.
type NumericInput struct {
	Name  string
	Label string
	Min   int
	Max   int
	Value int
}

// Option is one choice of a select.
type Option struct {
	Value    string
	Selected bool
}

// SelectInput is a select in the intake form.
type SelectInput struct {
	Name    string
	Label   string
	Options []Option
}

// ResultView is the analyzed half of the dashboard.
type ResultView struct {
	Percent         string
	Tier            string
	Color           string
	Recommendations []string
	Chart           *Chart
	Explained       bool
	Dropped         []analysis.DroppedField
}

// DashboardView is everything index.html renders.
type DashboardView struct {
	Nonce     string
	SessionID string
	Numeric   []NumericInput
	Selects   []SelectInput
	Result    *ResultView
	// Error is the last failed analysis; FormError is a rejected submission.
	Error     string
	FormError string
	Model     string
}

// NewDashboardView builds the page for a session snapshot. The result is
// shown only while the session is analyzed.
func NewDashboardView(snap session.Snapshot, nonce, modelName string) DashboardView {
	schema := analysis.Schema()
	v := DashboardView{
		Nonce:     nonce,
		SessionID: snap.ID,
		Error:     snap.LastError,
		Model:     modelName,
	}

	for _, f := range schema.Numeric {
		v.Numeric = append(v.Numeric, NumericInput{
			Name:  f.Name,
			Label: f.Label,
			Min:   f.Min,
			Max:   f.Max,
			Value: snap.Inputs.Numeric(f.Name),
		})
	}

	for _, f := range schema.Categorical {
		sel := SelectInput{Name: f.Name, Label: f.Label}
		current := snap.Inputs.Categorical(f.Name)
		for _, o := range f.Options {
			sel.Options = append(sel.Options, Option{Value: o, Selected: o == current})
		}
		v.Selects = append(v.Selects, sel)
	}

	if snap.State == session.Analyzed && snap.Result != nil {
		res := snap.Result
		v.Result = &ResultView{
			Percent:         res.Percent,
			Tier:            string(res.Tier),
			Color:           res.Color,
			Recommendations: res.Recommendations,
			Chart:           BuildChart(res.Explanation, DefaultChartBars),
			Explained:       res.Explanation != nil,
			Dropped:         res.Dropped,
		}
	}

	return v
}

// BlockedView is the page shown while the model artifacts are unusable.
type BlockedView struct {
	Nonce   string
	Asset   string
	Path    string
	Message string
}

// NewBlockedView names the artifact behind err.
func NewBlockedView(err error, nonce string) BlockedView {
	v := BlockedView{Nonce: nonce}
	if err != nil {
		v.Message = err.Error()
	}

	var missing *assets.MissingAssetError
	var invalid *assets.InvalidAssetError
	switch {
	case errors.As(err, &missing):
		v.Asset, v.Path = string(missing.Asset), missing.Path
	case errors.As(err, &invalid):
		v.Asset, v.Path = string(invalid.Asset), invalid.Path
	}
	return v
}
