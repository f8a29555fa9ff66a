package ocr

import (
	"image"

	"github.com/jordigilh/imagewave/pkg/imgio"
)

// SelectFrames implements frame selection (spec §4.5 phase 1). If
// textChangedIndices is non-empty (an upstream wave cached
// ocr.ml.text_changed_indices), those exact frames are used. Otherwise
// every frame is kept unless a subtitle-aware dedup pass flags it as a
// near-duplicate of its predecessor.
func SelectFrames(frames []imgio.Frame, textChangedIndices []int, dedupThreshold float64) []imgio.Frame {
	if len(textChangedIndices) > 0 {
		out := make([]imgio.Frame, 0, len(textChangedIndices))
		for _, idx := range textChangedIndices {
			if idx >= 0 && idx < len(frames) {
				out = append(out, frames[idx])
			}
		}
		return out
	}
	return dedupFrames(frames, dedupThreshold)
}

func dedupFrames(frames []imgio.Frame, threshold float64) []imgio.Frame {
	if len(frames) == 0 {
		return nil
	}
	kept := []imgio.Frame{frames[0]}
	for i := 1; i < len(frames); i++ {
		sim := weightedSimilarity(kept[len(kept)-1].Image, frames[i].Image)
		if sim >= threshold {
			continue
		}
		kept = append(kept, frames[i])
	}
	return kept
}

// weightedSimilarity combines three cheap luma-based comparisons into
// the (main 30%, bottom-band 40%, bright-pixel-delta 30%) metric spec
// §4.5 names. It is a weighted-similarity stand-in for true SSIM, not a
// structural-similarity computation — SSIM's local-window statistics
// would cost more than the dedup pass's purpose (catch static or
// near-static frames) needs.
func weightedSimilarity(a, b image.Image) float64 {
	boundsA := a.Bounds()
	boundsB := b.Bounds()
	w := minInt(boundsA.Dx(), boundsB.Dx())
	h := minInt(boundsA.Dy(), boundsB.Dy())
	if w == 0 || h == 0 {
		return 0
	}

	bottomStart := h * 3 / 4

	mainSim := regionSimilarity(a, b, 0, 0, w, bottomStart)
	bottomSim := regionSimilarity(a, b, 0, bottomStart, w, h)
	brightSim := brightPixelSimilarity(a, b, w, h)

	return 0.30*mainSim + 0.40*bottomSim + 0.30*brightSim
}

func regionSimilarity(a, b image.Image, x0, y0, x1, y1 int) float64 {
	if y1 <= y0 || x1 <= x0 {
		return 1
	}
	var totalDiff float64
	var n int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			la := lumaAt(a, x, y)
			lb := lumaAt(b, x, y)
			totalDiff += abs64(la - lb)
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return 1 - (totalDiff / float64(n))
}

// brightPixelSimilarity compares the fraction of above-threshold-luma
// pixels between a and b — a cheap proxy for "did a bright overlay
// (subtitle, flash) appear or disappear between frames".
func brightPixelSimilarity(a, b image.Image, w, h int) float64 {
	const brightThreshold = 0.75
	var brightA, brightB int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if lumaAt(a, x, y) > brightThreshold {
				brightA++
			}
			if lumaAt(b, x, y) > brightThreshold {
				brightB++
			}
		}
	}
	total := w * h
	if total == 0 {
		return 1
	}
	return 1 - abs64(float64(brightA-brightB)/float64(total))
}

func lumaAt(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	rf := float64(r) / 65535.0
	gf := float64(g) / 65535.0
	bf := float64(b) / 65535.0
	return 0.2126*rf + 0.7152*gf + 0.0722*bf
}

func abs64(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
