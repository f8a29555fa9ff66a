package ocr

import "image"

// maxShift bounds the translational search window stabilize() uses in
// place of full feature-point homography estimation (spec §4.5 phase 2
// calls for "up to 500 feature points" and per-pair homography; no
// feature-detector or linear-algebra library is available in this stack,
// so alignment is approximated as a bounded integer-pixel translation
// search against the first frame, scored the same way a reprojection
// error would be: mean luma difference after the shift).
const maxShift = 12

// StabilizeResult is the outcome of aligning a frame stack to its first
// member.
type StabilizeResult struct {
	Frames     []image.Image
	Confidence float64 // mean across non-reference frames
	Success    bool
}

// Stabilize aligns frames[1:] against frames[0] with a bounded
// translation search, replacing any frame whose best-match confidence
// falls below threshold with the reference frame unchanged.
func Stabilize(frames []image.Image, threshold float64) StabilizeResult {
	if len(frames) == 0 {
		return StabilizeResult{}
	}
	reference := frames[0]
	out := make([]image.Image, len(frames))
	out[0] = reference

	if len(frames) == 1 {
		return StabilizeResult{Frames: out, Confidence: 1, Success: true}
	}

	var total float64
	for i := 1; i < len(frames); i++ {
		dx, dy, confidence := bestTranslation(reference, frames[i])
		total += confidence
		if confidence < threshold {
			out[i] = reference
			continue
		}
		out[i] = translate(frames[i], -dx, -dy)
	}

	mean := total / float64(len(frames)-1)
	return StabilizeResult{Frames: out, Confidence: mean, Success: mean >= threshold}
}

// bestTranslation returns the (dx, dy) in [-maxShift, maxShift] that
// minimizes mean luma difference between reference(x, y) and
// candidate(x+dx, y+dy), and a confidence score derived from that minimum
// difference (1 - diff, clamped to [0,1]).
func bestTranslation(reference, candidate image.Image) (int, int, float64) {
	bestDiff := 1.0
	bestDx, bestDy := 0, 0
	const stride = 4 // sample every 4th pixel to keep the search cheap

	for dy := -maxShift; dy <= maxShift; dy += 4 {
		for dx := -maxShift; dx <= maxShift; dx += 4 {
			diff := shiftedDiff(reference, candidate, dx, dy, stride)
			if diff < bestDiff {
				bestDiff = diff
				bestDx, bestDy = dx, dy
			}
		}
	}

	confidence := 1 - bestDiff
	if confidence < 0 {
		confidence = 0
	}
	return bestDx, bestDy, confidence
}

func shiftedDiff(reference, candidate image.Image, dx, dy, stride int) float64 {
	b := reference.Bounds()
	var total float64
	var n int
	for y := b.Min.Y; y < b.Max.Y; y += stride {
		for x := b.Min.X; x < b.Max.X; x += stride {
			cx, cy := x+dx, y+dy
			if !image.Pt(cx, cy).In(candidate.Bounds()) {
				continue
			}
			total += abs64(lumaAt(reference, x, y) - lumaAt(candidate, cx, cy))
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return total / float64(n)
}

// translate draws src shifted by (dx, dy) into a new RGBA canvas the
// same size as src, clamping out-of-range samples to the nearest edge
// pixel of src.
func translate(src image.Image, dx, dy int) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sx := clampInt(x-dx, b.Min.X, b.Max.X-1)
			sy := clampInt(y-dy, b.Min.Y, b.Max.Y-1)
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
