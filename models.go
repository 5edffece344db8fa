package main

import (
	"fmt"
	"time"
)

// MachineSetting is the machine temperature/lever profile a shot was
// pulled on.
type MachineSetting string

const (
	MachineLow  MachineSetting = "low"
	MachineMid  MachineSetting = "mid"
	MachineHigh MachineSetting = "high"
)

// ValidMachineSetting reports whether s is one of the three profiles.
func ValidMachineSetting(s MachineSetting) bool {
	switch s {
	case MachineLow, MachineMid, MachineHigh:
		return true
	}
	return false
}

// FlavorProfile holds the five tasting ratings, each 1..5.
type FlavorProfile struct {
	Sourness   int `json:"sourness" validate:"min=1,max=5"`
	Bitterness int `json:"bitterness" validate:"min=1,max=5"`
	Body       int `json:"body" validate:"min=1,max=5"`
	Sweetness  int `json:"sweetness" validate:"min=1,max=5"`
	Overall    int `json:"overall" validate:"min=1,max=5"`
}

// ShotRecord is one pulled shot. Records are immutable once written;
// the only mutation the journal supports is deletion.
type ShotRecord struct {
	ID         string         `json:"id"`
	CreatedAt  int64          `json:"created_at"` // epoch milliseconds
	Bean       string         `json:"bean"`
	DoseGrams  float64        `json:"dose_g"`
	YieldGrams float64        `json:"yield_g"`
	TimeSec    int            `json:"time_s"`
	Machine    MachineSetting `json:"machine_setting"`
	Grind      string         `json:"grind"`
	Notes      string         `json:"notes"`
	Flavor     FlavorProfile  `json:"flavor"`
}

// Ratio returns the brew ratio (yield over dose) for display. It is
// derived on demand and never persisted.
func (s ShotRecord) Ratio() float64 {
	if s.DoseGrams <= 0 {
		return 0
	}
	return s.YieldGrams / s.DoseGrams
}

// CreatedTime converts the stored epoch-millisecond timestamp.
func (s ShotRecord) CreatedTime() time.Time {
	return time.UnixMilli(s.CreatedAt)
}

// Summary is a one-line rendering used in logs and the digest.
func (s ShotRecord) Summary() string {
	return fmt.Sprintf("%s %.1fg in / %.1fg out in %ds (1:%.1f)",
		s.Bean, s.DoseGrams, s.YieldGrams, s.TimeSec, s.Ratio())
}

// ShotInput is a shot submission before the journal assigns identity.
type ShotInput struct {
	Bean       string         `json:"bean" validate:"required"`
	DoseGrams  float64        `json:"dose_g" validate:"required,gt=0"`
	YieldGrams float64        `json:"yield_g" validate:"required,gt=0"`
	TimeSec    int            `json:"time_s" validate:"gte=0"`
	Machine    MachineSetting `json:"machine_setting" validate:"required,oneof=low mid high"`
	Grind      string         `json:"grind"`
	Notes      string         `json:"notes"`
	Flavor     FlavorProfile  `json:"flavor"`
}

// AdviceResult is the four-part critique returned by the shot advisory.
// It is shown once and never persisted.
type AdviceResult struct {
	Diagnosis      string `json:"diagnosis"`
	Recommendation string `json:"recommendation"`
	Adjustment     string `json:"adjustment"`
	Explanation    string `json:"explanation"`
}

// RecipeSource is one citation backing a search recommendation.
type RecipeSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// SearchRecommendation is the outcome of a recipe search. Numeric and
// enum fields are pointers: absent means the model did not supply them.
// It is shown once and never persisted.
type SearchRecommendation struct {
	Found       bool            `json:"found"`
	DoseGrams   *float64        `json:"dose_g,omitempty"`
	YieldGrams  *float64        `json:"yield_g,omitempty"`
	TimeSec     *int            `json:"time_s,omitempty"`
	Temperature *string         `json:"temperature,omitempty"`
	Machine     *MachineSetting `json:"machine_setting,omitempty"`
	Description string          `json:"description,omitempty"`
	Sources     []RecipeSource  `json:"sources,omitempty"`
}

// weekRangeAt returns the Monday 00:00 of the week containing now and
// the Monday 00:00 after it, in now's location.
func weekRangeAt(now time.Time) (time.Time, time.Time) {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started last Monday
	}
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -(weekday - 1))
	return monday, monday.AddDate(0, 0, 7)
}
