package signal

import "strings"

// collectionCatalog is the fixed `@name` expansion table from spec §4.1.
// Order matters only for determinism of ExpandPatterns' output.
var collectionCatalog = map[string][]string{
	"@identity": {"identity.*"},
	"@motion":   {"motion.*", "complexity.*"},
	"@color":    {"color.*"},
	"@quality":  {"quality.*"},
	"@text":     {"content.text*", "ocr.*", "vision.llm.text"},
	"@vision":   {"vision.*"},
	"@alttext":  {"vision.llm.caption", "content.text*", "motion.summary"},
	"@tool":     {"identity.*", "color.dominant*", "motion.*", "vision.llm.*", "ocr.voting.*"},
	"@all":      {"*"},
}

// waveTagRule is one row of the authoritative wave-tag map (spec §4.1).
type waveTagRule struct {
	prefixes []string
	tags     []string
}

var waveTagTable = []waveTagRule{
	{[]string{"motion.", "complexity."}, []string{"motion"}},
	{[]string{"color."}, []string{"color"}},
	{[]string{"ocr.", "content.text"}, []string{"ocr", "content"}},
	{[]string{"vision."}, []string{"vision", "llm"}},
	{[]string{"identity."}, []string{"identity"}},
	{[]string{"quality."}, []string{"quality"}},
	{[]string{"face."}, []string{"face"}},
	{[]string{"clip."}, []string{"clip", "embedding"}},
}

// MatchGlob reports whether key matches pattern. Supported forms: `*`
// (match everything), a trailing-`*` prefix (`name*`), and a literal
// segment (exact match). `@name` patterns must be expanded via
// ExpandPatterns before being passed here.
func MatchGlob(pattern, key string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(key, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == key
}

// ExpandPatterns expands any `@collection` entries in patterns into their
// literal/glob forms, leaving ordinary patterns untouched. The result may
// contain duplicates; callers that need a set should dedupe.
func ExpandPatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if expansion, ok := collectionCatalog[p]; ok {
			out = append(out, expansion...)
			continue
		}
		out = append(out, p)
	}
	return out
}

// RequiredWaveTags maps each matched key-prefix in patterns to the
// minimum set of wave tags that can produce it, per the authoritative
// wave-tag table. Patterns containing `@collections` are expanded first.
// An all-matching pattern (`*`, `@all`) returns a nil set and an empty
// pattern set returns an empty one; the orchestrator treats both as "no
// restriction" (run every wave).
func RequiredWaveTags(patterns []string) map[string]bool {
	expanded := ExpandPatterns(patterns)
	tags := map[string]bool{}
	for _, p := range expanded {
		if p == "*" {
			return nil
		}
		for _, rule := range waveTagTable {
			for _, prefix := range rule.prefixes {
				if patternTouchesPrefix(p, prefix) {
					for _, t := range rule.tags {
						tags[t] = true
					}
				}
			}
		}
	}
	return tags
}

// patternTouchesPrefix reports whether a request pattern (literal, `name*`,
// or `*`) could ever match a key under prefix.
func patternTouchesPrefix(pattern, prefix string) bool {
	trimmed := strings.TrimSuffix(pattern, "*")
	if strings.HasPrefix(trimmed, prefix) || strings.HasPrefix(prefix, trimmed) {
		return true
	}
	return false
}

// TagSetIntersects reports whether waveTags shares at least one member
// with required. A nil or empty required set means "unrestricted" and
// always intersects.
func TagSetIntersects(waveTags []string, required map[string]bool) bool {
	if len(required) == 0 {
		return true
	}
	for _, t := range waveTags {
		if required[t] {
			return true
		}
	}
	return false
}
