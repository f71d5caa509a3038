package frontend

import (
	"testing"

	"github.com/ZanzyTHEbar/readmission-guard/internal/analysis"
	"github.com/ZanzyTHEbar/readmission-guard/internal/assets"
	"github.com/ZanzyTHEbar/readmission-guard/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzedSnapshot() session.Snapshot {
	in := analysis.DefaultInputs()
	in.Age = "[40-50)"
	return session.Snapshot{
		ID:     "s1",
		State:  session.Analyzed,
		Inputs: in,
		Result: &analysis.Result{
			Probability:     0.72,
			Percent:         "72.0%",
			Tier:            analysis.TierUrgent,
			Color:           "red",
			Recommendations: []string{analysis.RecUrgentSocialWorker, analysis.RecUrgentFollowUp},
			Explanation: &analysis.Explanation{
				Baseline:     -0.5,
				Contributors: []analysis.Contributor{{Name: "number_inpatient", Contribution: 1.4}},
			},
		},
	}
}

func TestNewDashboardView_FormReflectsInputs(t *testing.T) {
	v := NewDashboardView(analyzedSnapshot(), "n0nce", "tree")

	schema := analysis.Schema()
	require.Len(t, v.Numeric, len(schema.Numeric))
	require.Len(t, v.Selects, len(schema.Categorical))

	for _, sel := range v.Selects {
		selected := 0
		for _, o := range sel.Options {
			if o.Selected {
				selected++
			}
		}
		assert.Equal(t, 1, selected, sel.Name)
	}

	age := v.Selects[0]
	assert.Equal(t, analysis.FieldAge, age.Name)
	for _, o := range age.Options {
		assert.Equal(t, o.Value == "[40-50)", o.Selected)
	}

	assert.Equal(t, "n0nce", v.Nonce)
	assert.Equal(t, "tree", v.Model)
}

func TestNewDashboardView_ResultOnlyWhenAnalyzed(t *testing.T) {
	snap := analyzedSnapshot()
	v := NewDashboardView(snap, "", "")
	require.NotNil(t, v.Result)
	assert.Equal(t, "72.0%", v.Result.Percent)
	assert.True(t, v.Result.Explained)
	require.NotNil(t, v.Result.Chart)
	assert.Len(t, v.Result.Chart.Bars, 1)

	snap.State = session.Idle
	v = NewDashboardView(snap, "", "")
	assert.Nil(t, v.Result)
}

func TestNewBlockedView_NamesArtifact(t *testing.T) {
	v := NewBlockedView(&assets.MissingAssetError{Asset: assets.AssetModel, Path: "models/m.json"}, "n")
	assert.Equal(t, "model", v.Asset)
	assert.Equal(t, "models/m.json", v.Path)
	assert.Contains(t, v.Message, "models/m.json")

	v = NewBlockedView(&assets.InvalidAssetError{Asset: assets.AssetFeatureNames, Path: "f.json"}, "n")
	assert.Equal(t, "feature names", v.Asset)
	assert.Equal(t, "f.json", v.Path)
}
