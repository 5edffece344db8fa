package main

import "testing"

func TestNewDraftDefaults(t *testing.T) {
	d := NewDraft()

	if d.DoseGrams != 18 || d.YieldGrams != 36 || d.TimeSec != 25 {
		t.Fatalf("unexpected numeric defaults: %+v", d)
	}
	if d.Machine != MachineLow {
		t.Fatalf("expected low machine setting, got %q", d.Machine)
	}
	want := FlavorProfile{Sourness: 3, Bitterness: 3, Body: 3, Sweetness: 3, Overall: 3}
	if d.Flavor != want {
		t.Fatalf("expected all-3 flavor defaults, got %+v", d.Flavor)
	}
}

func TestApplyRecommendationPartialFill(t *testing.T) {
	dose := 17.0
	sec := 29
	rec := SearchRecommendation{Found: true, DoseGrams: &dose, TimeSec: &sec}

	d := NewDraft().ApplyRecommendation(rec)

	if d.DoseGrams != 17 {
		t.Fatalf("expected dose from recommendation, got %v", d.DoseGrams)
	}
	if d.TimeSec != 29 {
		t.Fatalf("expected time from recommendation, got %v", d.TimeSec)
	}
	if d.YieldGrams != 36 {
		t.Fatalf("expected yield to keep its default, got %v", d.YieldGrams)
	}
	if d.Machine != MachineLow {
		t.Fatalf("expected machine to keep its default, got %q", d.Machine)
	}
}

func TestApplyRecommendationNotFound(t *testing.T) {
	dose := 12.0
	rec := SearchRecommendation{Found: false, DoseGrams: &dose}

	d := NewDraft().ApplyRecommendation(rec)
	if d != NewDraft() {
		t.Fatalf("a found=false recommendation must leave the draft alone, got %+v", d)
	}
}

func TestApplyRecommendationMachineSetting(t *testing.T) {
	m := MachineHigh
	d := NewDraft().ApplyRecommendation(SearchRecommendation{Found: true, Machine: &m})
	if d.Machine != MachineHigh {
		t.Fatalf("expected high, got %q", d.Machine)
	}
}

func TestApplyExtractionSeconds(t *testing.T) {
	d := NewDraft().ApplyExtractionSeconds(31)
	if d.TimeSec != 31 {
		t.Fatalf("expected 31, got %d", d.TimeSec)
	}

	d = NewDraft().ApplyExtractionSeconds(-1)
	if d.TimeSec != 25 {
		t.Fatalf("a negative value must keep the default, got %d", d.TimeSec)
	}
}
