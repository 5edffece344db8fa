package main

// Starting values for a fresh shot form: a 1:2 ratio at 18 g and a
// mid-scale rating on every flavor axis.
const (
	defaultDraftDose    = 18.0
	defaultDraftYield   = 36.0
	defaultDraftTimeSec = 25
)

// DraftShot is pre-filled form state handed to the UI. It is only a
// suggestion: submission still goes through ShotInput validation, and
// drafts are never persisted.
type DraftShot struct {
	Bean       string         `json:"bean"`
	DoseGrams  float64        `json:"dose_g"`
	YieldGrams float64        `json:"yield_g"`
	TimeSec    int            `json:"time_s"`
	Machine    MachineSetting `json:"machine_setting"`
	Grind      string         `json:"grind"`
	Notes      string         `json:"notes"`
	Flavor     FlavorProfile  `json:"flavor"`
}

// NewDraft returns the defaults used when nothing better is known.
func NewDraft() DraftShot {
	return DraftShot{
		DoseGrams:  defaultDraftDose,
		YieldGrams: defaultDraftYield,
		TimeSec:    defaultDraftTimeSec,
		Machine:    MachineLow,
		Flavor:     FlavorProfile{Sourness: 3, Bitterness: 3, Body: 3, Sweetness: 3, Overall: 3},
	}
}

// ApplyRecommendation pre-fills the draft from a found recipe. Only
// fields the recommendation actually provides are taken; everything
// else keeps its current value. Recommendations without a match leave
// the draft untouched.
func (d DraftShot) ApplyRecommendation(rec SearchRecommendation) DraftShot {
	if !rec.Found {
		return d
	}
	if rec.DoseGrams != nil {
		d.DoseGrams = *rec.DoseGrams
	}
	if rec.YieldGrams != nil {
		d.YieldGrams = *rec.YieldGrams
	}
	if rec.TimeSec != nil {
		d.TimeSec = *rec.TimeSec
	}
	if rec.Machine != nil {
		d.Machine = *rec.Machine
	}
	return d
}

// ApplyExtractionSeconds merges a finished timer run into the draft.
func (d DraftShot) ApplyExtractionSeconds(seconds int) DraftShot {
	if seconds >= 0 {
		d.TimeSec = seconds
	}
	return d
}
