package analysis

// Probability thresholds. Both comparisons are strict, so a probability of
// exactly 0.3 is standard and exactly 0.6 is watch.
const (
	WatchThreshold  = 0.3
	UrgentThreshold = 0.6

	frequentFlyerVisits = 1
	polypharmacyCount   = 20
)

// RiskTier is the band a probability falls into.
type RiskTier string

const (
	TierStandard RiskTier = "standard"
	TierWatch    RiskTier = "watch"
	TierUrgent   RiskTier = "urgent"
)

// Recommendation texts, in the order they can appear.
const (
	RecUrgentSocialWorker = "URGENT: Flag for Social Worker consult before discharge."
	RecUrgentFollowUp     = "URGENT: Schedule follow-up appointment within 7 days."
	RecWatchAdherence     = "WATCH: Review medication adherence education."
	RecWatchPhoneFollowUp = "WATCH: Schedule phone follow-up within 14 days."
	RecStandardDischarge  = "STANDARD: Standard discharge instructions."
	RecFrequentFlyer      = "History: Patient is a 'Frequent Flyer'. Enroll in Chronic Care Management."
	RecPolypharmacy       = "Polypharmacy: High med count. Alert Clinical Pharmacist for reconciliation."
)

// TierFor bands a probability.
func TierFor(p float64) RiskTier {
	switch {
	case p > UrgentThreshold:
		return TierUrgent
	case p > WatchThreshold:
		return TierWatch
	default:
		return TierStandard
	}
}

// Color is the display colour for the tier.
func (t RiskTier) Color() string {
	switch t {
	case TierUrgent:
		return "red"
	case TierWatch:
		return "orange"
	default:
		return "green"
	}
}

// Recommend maps a probability and the raw scalar inputs to ordered actions:
// the tier actions first, then frequent-flyer, then polypharmacy. Missing
// scalars count as zero.
func Recommend(probability float64, raw map[string]float64) []string {
	recs := make([]string, 0, 4)

	switch TierFor(probability) {
	case TierUrgent:
		recs = append(recs, RecUrgentSocialWorker, RecUrgentFollowUp)
	case TierWatch:
		recs = append(recs, RecWatchAdherence, RecWatchPhoneFollowUp)
	default:
		recs = append(recs, RecStandardDischarge)
	}

	if raw[FieldNumberInpatient] > frequentFlyerVisits {
		recs = append(recs, RecFrequentFlyer)
	}

	if raw[FieldNumMedications] > polypharmacyCount {
		recs = append(recs, RecPolypharmacy)
	}

	return recs
}
