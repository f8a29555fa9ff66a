package fusion

import (
	"strings"
	"testing"
)

func TestWeightForPurposeMatchesSpecTable(t *testing.T) {
	cases := []struct {
		purpose  Purpose
		category Category
		want     float64
	}{
		{PurposeAltText, CategorySubjects, 1.0},
		{PurposeAltText, CategoryColors, 0.1},
		{PurposeAltText, CategoryQuality, 0.0},
		{PurposeTechnical, CategoryQuality, 1.0},
		{PurposeTechnical, CategorySubjects, 0.5},
		{PurposeDefault, CategoryCaption, 0.85},
	}
	for _, c := range cases {
		if got := WeightForPurpose(c.purpose, c.category); got != c.want {
			t.Errorf("WeightForPurpose(%s, %s) = %v, want %v", c.purpose, c.category, got, c.want)
		}
	}
}

func TestWeightForPurposeFallsBackToDefault(t *testing.T) {
	if got := WeightForPurpose(Purpose("unknown"), CategorySubjects); got != 0.9 {
		t.Errorf("expected default row's subjects weight 0.9, got %v", got)
	}
}

func TestFuseRanksByWeightedScoreAndCapsAtMaxSignals(t *testing.T) {
	candidates := []Candidate{
		{Category: CategorySubjects, RawConfidence: 0.9, Value: "a person"},
		{Category: CategoryQuality, RawConfidence: 0.99, Value: "sharp"},
		{Category: CategoryEntities, RawConfidence: 0.8, Value: "dog, cat, bird"},
		{Category: CategoryColors, RawConfidence: 0.8, Value: "red, blue, green, yellow"},
		{Category: CategoryScene, RawConfidence: 0.7, Value: "park"},
		{Category: CategoryMotion, RawConfidence: 0.6, Value: "running"},
		{Category: CategoryText, RawConfidence: 0.5, Value: "a sign"},
		{Category: CategoryIdentity, RawConfidence: 0.9, Value: "photo"},
	}
	out := Fuse(PurposeAltText, candidates, 6)
	parts := strings.Split(out, " | ")
	if len(parts) != 6 {
		t.Fatalf("expected 6 joined segments, got %d: %q", len(parts), out)
	}
	if !strings.HasPrefix(parts[0], "[Subjects]") {
		t.Errorf("expected subjects to rank first for alttext purpose, got %q", parts[0])
	}
	// quality has weight 0.0 for alttext and must not appear.
	for _, p := range parts {
		if strings.HasPrefix(p, "[Quality]") {
			t.Errorf("quality should be excluded by its zero alttext weight, got %q", out)
		}
	}
}

func TestFuseDropsEmptyCandidates(t *testing.T) {
	candidates := []Candidate{
		{Category: CategorySubjects, RawConfidence: 0.9, Value: ""},
		{Category: CategoryCaption, RawConfidence: 0.9, Value: "a dog in a field"},
	}
	out := Fuse(PurposeDefault, candidates, 6)
	if strings.Contains(out, "[Subjects]") {
		t.Errorf("expected empty-valued subjects candidate to be dropped, got %q", out)
	}
}

func TestFormatCandidateTruncatesTextTo60Chars(t *testing.T) {
	long := strings.Repeat("x", 100)
	c := Candidate{Category: CategoryText, RawConfidence: 1, Value: long}
	out := formatCandidate(c)
	if !strings.HasSuffix(out, "...") {
		t.Fatalf("expected ellipsis truncation, got %q", out)
	}
	if len([]rune(out)) > len("[Text] ")+60 {
		t.Errorf("expected text segment capped at 60 chars, got %q (%d runes)", out, len([]rune(out)))
	}
}

func TestFormatCandidateKeepsTopThreeColors(t *testing.T) {
	c := Candidate{Category: CategoryColors, RawConfidence: 1, Value: "Red, Blue, Green, Yellow, Black"}
	out := formatCandidate(c)
	if out != "[Colors] Red, Blue, Green" {
		t.Errorf("expected top-3 colors, got %q", out)
	}
}

func TestFormatCandidateKeepsTopFiveEntities(t *testing.T) {
	c := Candidate{Category: CategoryEntities, RawConfidence: 1, Value: "a, b, c, d, e, f, g"}
	out := formatCandidate(c)
	if out != "[Entities] a, b, c, d, e" {
		t.Errorf("expected top-5 entities, got %q", out)
	}
}
