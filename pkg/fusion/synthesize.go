package fusion

import "strings"

// Synthesize builds the final caption/description for purpose P: fuse the
// candidates, apply the temporal-verb gate when the input has no motion
// evidence, and hand the result to the caller for any further
// purpose-specific trimming (alt text uses ToAltTextContext instead).
func Synthesize(purpose Purpose, candidates []Candidate, maxSignals int, isAnimated bool, filmstripFrameCount int) string {
	fused := Fuse(purpose, candidates, maxSignals)
	if !isAnimated && filmstripFrameCount <= 1 {
		fused = ApplyTemporalVerbGate(fused)
	}
	return strings.TrimSpace(fused)
}
