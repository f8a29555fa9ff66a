package autorouter

import (
	"image"
	"time"
)

// textDetectionBudget is the time budget spec §4.4 allows the inline
// detector: "fast MSER-like text detector ... (time budget <= 20 ms)".
const textDetectionBudget = 20 * time.Millisecond

// DetectionResult is what the inline detector contributes to the router
// and, via ocr.opencv.text_regions, to downstream OCR waves.
type DetectionResult struct {
	TextCoverage    float64
	TextRegionCount int
	HasSubtitles    bool
	Regions         []image.Rectangle
}

// DetectText runs a lightweight, budget-bounded approximation of MSER
// region extraction: it buckets the image into a coarse grid, flags
// high-local-contrast cells as "text-like", and treats clusters in the
// bottom band as subtitle candidates. This is a deliberately cheap
// stand-in for a real MSER detector (out of scope per spec §1's "OpenCV
// text detectors" exclusion) that still produces the three signals the
// router needs.
func DetectText(img image.Image) DetectionResult {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return DetectionResult{}
	}

	const gridCols, gridRows = 16, 12
	cellW := w / gridCols
	cellH := h / gridRows
	if cellW == 0 || cellH == 0 {
		return DetectionResult{}
	}

	var textCells int
	var regions []image.Rectangle
	var bottomBandTextCells int
	bottomBandStart := gridRows * 3 / 4

	for row := 0; row < gridRows; row++ {
		for col := 0; col < gridCols; col++ {
			cellBounds := image.Rect(
				bounds.Min.X+col*cellW, bounds.Min.Y+row*cellH,
				bounds.Min.X+(col+1)*cellW, bounds.Min.Y+(row+1)*cellH,
			)
			if isTextLikeCell(img, cellBounds) {
				textCells++
				regions = append(regions, cellBounds)
				if row >= bottomBandStart {
					bottomBandTextCells++
				}
			}
		}
	}

	totalCells := gridCols * gridRows
	coverage := float64(textCells) / float64(totalCells)

	bottomBandCells := gridCols * (gridRows - bottomBandStart)
	hasSubtitles := bottomBandCells > 0 && float64(bottomBandTextCells)/float64(bottomBandCells) > 0.3

	return DetectionResult{
		TextCoverage:    coverage,
		TextRegionCount: len(regions),
		HasSubtitles:    hasSubtitles,
		Regions:         regions,
	}
}

// isTextLikeCell approximates MSER's "stable extremal region" cue with a
// cheap local-contrast test on BT.709 luma: text renders as tight runs of
// alternating high/low luma along scanlines, which shows up as a high
// count of luma sign changes relative to cell width.
func isTextLikeCell(img image.Image, rect image.Rectangle) bool {
	const sampleRows = 4
	step := rect.Dy() / sampleRows
	if step == 0 {
		step = 1
	}

	signChanges := 0
	samples := 0
	for y := rect.Min.Y; y < rect.Max.Y; y += step {
		prevLuma := -1.0
		for x := rect.Min.X; x < rect.Max.X; x++ {
			luma := bt709Luma(img.At(x, y))
			if prevLuma >= 0 {
				if (luma > prevLuma+0.08) != (luma < prevLuma-0.08) && abs(luma-prevLuma) > 0.08 {
					signChanges++
				}
			}
			prevLuma = luma
			samples++
		}
	}
	if samples == 0 {
		return false
	}
	return float64(signChanges)/float64(samples) > 0.18
}

func bt709Luma(c interface{ RGBA() (r, g, b, a uint32) }) float64 {
	r, g, b, _ := c.RGBA()
	rf := float64(r) / 65535.0
	gf := float64(g) / 65535.0
	bf := float64(b) / 65535.0
	return 0.2126*rf + 0.7152*gf + 0.0722*bf
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
