/*
Copyright 2026 Jordi Gil.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package wavecatalog is the concrete wave.Wave implementations beyond
// the OCR pipeline, auto-router and contradiction validator (each of
// which own dedicated packages): identity, color, EXIF forensics,
// perceptual fingerprinting, structural/motion/quality heuristics, and
// the waves that lean on external collaborators (face detection, CLIP
// embedding, vision-LLM captioning, pre-Tesseract ML OCR triage).
//
// The heuristics here are deliberately cheap stand-ins for real computer
// vision, in the same spirit as pkg/autorouter's inline MSER-like text
// detector: spec §1 puts "color/quality measurement primitives" and
// "OpenCV text detectors" out of scope as full implementations, but the
// waves that would consume them still need *some* signal to produce.
package wavecatalog

import (
	"image"
	"image/color"
)

// luma converts a pixel to BT.709 luma in [0,1].
func luma(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return 0.2126*float64(r)/65535.0 + 0.7152*float64(g)/65535.0 + 0.0722*float64(b)/65535.0
}

// sampleGrid walks img on a coarse stride (at most maxSamples per axis)
// and calls visit(x, y, c) for each sampled pixel. Every heuristic in
// this package samples rather than scans every pixel, since these are
// meant to be fast triage passes, not ground-truth measurements.
func sampleGrid(img image.Image, maxSamples int, visit func(x, y int, c color.Color)) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}
	strideX := w / maxSamples
	if strideX < 1 {
		strideX = 1
	}
	strideY := h / maxSamples
	if strideY < 1 {
		strideY = 1
	}
	for y := b.Min.Y; y < b.Max.Y; y += strideY {
		for x := b.Min.X; x < b.Max.X; x += strideX {
			visit(x, y, img.At(x, y))
		}
	}
}

// isGrayscalePixel reports whether r,g,b (0-65535) are close enough to
// call the pixel achromatic.
func isGrayscalePixel(r, g, b uint32) bool {
	maxC, minC := r, r
	for _, v := range [2]uint32{g, b} {
		if v > maxC {
			maxC = v
		}
		if v < minC {
			minC = v
		}
	}
	const tolerance = 1500 // out of 65535, ~2.3%
	return maxC-minC <= tolerance
}

// colorBucket quantizes a pixel to one of 8 coarse hue/lightness
// buckets, used for dominant-color extraction. This is not a real color
// histogram/k-means pass — just enough resolution to name 1-3 dominant
// colors for the color.dominant_colors signal.
func colorBucket(c color.Color) string {
	r, g, b, _ := c.RGBA()
	rf, gf, bf := float64(r)/65535, float64(g)/65535, float64(b)/65535
	maxC := rf
	if gf > maxC {
		maxC = gf
	}
	if bf > maxC {
		maxC = bf
	}
	minC := rf
	if gf < minC {
		minC = gf
	}
	if bf < minC {
		minC = bf
	}
	lightness := (maxC + minC) / 2
	switch {
	case lightness < 0.12:
		return "black"
	case lightness > 0.92:
		return "white"
	case maxC-minC < 0.08:
		return "gray"
	}
	switch {
	case rf >= gf && rf >= bf && rf-bf > 0.15:
		if gf > bf {
			return "orange"
		}
		return "red"
	case gf >= rf && gf >= bf:
		return "green"
	case bf >= rf && bf >= gf:
		return "blue"
	default:
		return "gray"
	}
}

// edgeDensity approximates spec's quality.edge_density: the fraction of
// sampled pixels whose luma differs from their right/below neighbor by
// more than a contrast threshold, the same gradient cue
// pkg/autorouter's detector uses for text-likeness.
func edgeDensity(img image.Image) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return 0
	}
	const step = 2
	var edges, samples int
	for y := b.Min.Y; y < b.Max.Y-step; y += step {
		for x := b.Min.X; x < b.Max.X-step; x += step {
			l := luma(img.At(x, y))
			lr := luma(img.At(x+step, y))
			lb := luma(img.At(x, y+step))
			if abs64(l-lr) > 0.12 || abs64(l-lb) > 0.12 {
				edges++
			}
			samples++
		}
	}
	if samples == 0 {
		return 0
	}
	return float64(edges) / float64(samples)
}

// sharpness is a cheap Laplacian-variance proxy: a high-contrast image
// with fine detail has high local variance; a blurred one doesn't. The
// value is rescaled into roughly [0,1] so it reads like a confidence.
func sharpness(img image.Image) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 1
	}
	var sum, sumSq float64
	var n int
	const step = 3
	for y := b.Min.Y + step; y < b.Max.Y-step; y += step {
		for x := b.Min.X + step; x < b.Max.X-step; x += step {
			center := luma(img.At(x, y)) * 4
			lap := center - luma(img.At(x-step, y)) - luma(img.At(x+step, y)) - luma(img.At(x, y-step)) - luma(img.At(x, y+step))
			sum += lap
			sumSq += lap * lap
			n++
		}
	}
	if n == 0 {
		return 1
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	// Empirically, a variance above ~0.02 on this luma scale reads as
	// "sharp"; clamp the ratio to [0,1].
	score := variance / 0.02
	if score > 1 {
		score = 1
	}
	return score
}

// noiseLevel estimates sensor/compression noise as the mean absolute
// luma difference between adjacent pixels in flat-looking (low overall
// gradient) regions — real noise shows up as high-frequency jitter even
// where the underlying signal is smooth.
func noiseLevel(img image.Image) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}
	var sum float64
	var n int
	for y := b.Min.Y; y < b.Max.Y-1; y++ {
		for x := b.Min.X; x < b.Max.X-1; x++ {
			l := luma(img.At(x, y))
			neighborhoodMean := (luma(img.At(x+1, y)) + luma(img.At(x, y+1))) / 2
			diff := abs64(l - neighborhoodMean)
			if diff < 0.25 { // skip real edges, keep only small jitter
				sum += diff
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	avg := sum / float64(n)
	score := avg / 0.05
	if score > 1 {
		score = 1
	}
	return score
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
