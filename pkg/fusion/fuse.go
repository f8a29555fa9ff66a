package fusion

import (
	"fmt"
	"sort"
	"strings"
)

// Candidate is one category's evidence going into salience fusion.
type Candidate struct {
	Category      Category
	RawConfidence float64
	// Value is the already-rendered short text for this category —
	// e.g. a subject phrase, a comma list of entity labels, the OCR
	// string. Category-specific truncation is applied in Format.
	Value string
}

// scored is a Candidate with its purpose-weighted score attached.
type scored struct {
	Candidate
	score float64
}

// Fuse scores each candidate by weight_for_purpose(P) × raw_confidence,
// keeps the top maxSignals (spec default 6), and joins their rendered
// form with " | ".
func Fuse(purpose Purpose, candidates []Candidate, maxSignals int) string {
	if maxSignals <= 0 {
		maxSignals = 6
	}

	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Value) == "" {
			continue
		}
		weight := WeightForPurpose(purpose, c.Category)
		ranked = append(ranked, scored{Candidate: c, score: weight * c.RawConfidence})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > maxSignals {
		ranked = ranked[:maxSignals]
	}

	parts := make([]string, 0, len(ranked))
	for _, r := range ranked {
		parts = append(parts, formatCandidate(r.Candidate))
	}
	return strings.Join(parts, " | ")
}

// formatCandidate renders "[Category] short_value" with the
// category-specific truncation spec §4.7 requires.
func formatCandidate(c Candidate) string {
	value := c.Value
	switch c.Category {
	case CategoryText:
		value = truncateEllipsis(value, 60)
	case CategoryColors:
		value = topNCommaList(value, 3)
	case CategoryEntities:
		value = topNCommaList(value, 5)
	}
	return fmt.Sprintf("[%s] %s", titleCase(string(c.Category)), value)
}

func truncateEllipsis(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// topNCommaList keeps the first n comma-separated items, assuming the
// caller already ordered them by descending confidence.
func topNCommaList(s string, n int) string {
	items := strings.Split(s, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}
