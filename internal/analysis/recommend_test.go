package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		name     string
		p        float64
		expected RiskTier
		color    string
	}{
		{"zero", 0, TierStandard, "green"},
		{"just below watch", 0.2999, TierStandard, "green"},
		{"exactly watch threshold", 0.3, TierStandard, "green"},
		{"just above watch", 0.30001, TierWatch, "orange"},
		{"exactly urgent threshold", 0.6, TierWatch, "orange"},
		{"just above urgent", 0.60001, TierUrgent, "red"},
		{"certain", 1, TierUrgent, "red"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier := TierFor(tt.p)
			assert.Equal(t, tt.expected, tier)
			assert.Equal(t, tt.color, tier.Color())
		})
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name     string
		p        float64
		raw      map[string]float64
		expected []string
	}{
		{
			name: "urgent frequent flyer with polypharmacy",
			p:    0.75,
			raw:  map[string]float64{FieldNumberInpatient: 2, FieldNumMedications: 25},
			expected: []string{
				RecUrgentSocialWorker,
				RecUrgentFollowUp,
				RecFrequentFlyer,
				RecPolypharmacy,
			},
		},
		{
			name:     "standard at the watch boundary",
			p:        0.3,
			raw:      map[string]float64{FieldNumberInpatient: 1, FieldNumMedications: 20},
			expected: []string{RecStandardDischarge},
		},
		{
			name:     "watch just over the boundary",
			p:        0.30001,
			raw:      map[string]float64{FieldNumberInpatient: 0, FieldNumMedications: 10},
			expected: []string{RecWatchAdherence, RecWatchPhoneFollowUp},
		},
		{
			name:     "watch at the urgent boundary with polypharmacy",
			p:        0.6,
			raw:      map[string]float64{FieldNumMedications: 21},
			expected: []string{RecWatchAdherence, RecWatchPhoneFollowUp, RecPolypharmacy},
		},
		{
			name:     "urgent just over the boundary",
			p:        0.60001,
			raw:      map[string]float64{},
			expected: []string{RecUrgentSocialWorker, RecUrgentFollowUp},
		},
		{
			name:     "missing scalars count as zero",
			p:        0.1,
			raw:      nil,
			expected: []string{RecStandardDischarge},
		},
		{
			name:     "frequent flyer alone",
			p:        0.05,
			raw:      map[string]float64{FieldNumberInpatient: 2},
			expected: []string{RecStandardDischarge, RecFrequentFlyer},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Recommend(tt.p, tt.raw))
		})
	}
}

func TestRecommend_AlwaysStartsWithTierAction(t *testing.T) {
	prefixes := map[RiskTier]string{
		TierStandard: "STANDARD:",
		TierWatch:    "WATCH:",
		TierUrgent:   "URGENT:",
	}

	for p := 0.0; p <= 1.0; p += 0.05 {
		recs := Recommend(p, map[string]float64{FieldNumberInpatient: 3, FieldNumMedications: 30})
		assert.NotEmpty(t, recs)
		assert.Contains(t, recs[0], prefixes[TierFor(p)])
		assert.Equal(t, RecPolypharmacy, recs[len(recs)-1])
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "0.0%", FormatPercent(0))
	assert.Equal(t, "12.3%", FormatPercent(0.123))
	assert.Equal(t, "75.0%", FormatPercent(0.75))
	assert.Equal(t, "100.0%", FormatPercent(1))
}
