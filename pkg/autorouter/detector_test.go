package autorouter

import (
	"image"
	"image/color"
	"testing"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDetectTextBlankImageHasNoCoverage(t *testing.T) {
	img := solidImage(320, 240, color.Gray{Y: 128})
	result := DetectText(img)
	if result.TextCoverage != 0 {
		t.Errorf("TextCoverage = %v, want 0 on a flat image", result.TextCoverage)
	}
	if result.HasSubtitles {
		t.Errorf("HasSubtitles = true on a flat image")
	}
}

func TestDetectTextZeroSizeImageIsSafe(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))
	result := DetectText(img)
	if result.TextCoverage != 0 || result.TextRegionCount != 0 {
		t.Errorf("expected zero-value result for an empty image, got %+v", result)
	}
}

func TestDetectTextBottomBandStripesTripSubtitles(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	white := color.Gray{Y: 255}
	black := color.Gray{Y: 0}
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			if y > 180 && (x/2)%2 == 0 {
				img.Set(x, y, white)
			} else if y > 180 {
				img.Set(x, y, black)
			} else {
				img.Set(x, y, color.Gray{Y: 128})
			}
		}
	}

	result := DetectText(img)
	if !result.HasSubtitles {
		t.Errorf("expected HasSubtitles = true for a high-frequency bottom band, got %+v", result)
	}
	if result.TextCoverage <= 0 {
		t.Errorf("expected nonzero TextCoverage, got %v", result.TextCoverage)
	}
}

func TestDetectTextReturnsRegionPerTextLikeCell(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	white := color.Gray{Y: 255}
	black := color.Gray{Y: 0}
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			if (x/2)%2 == 0 {
				img.Set(x, y, white)
			} else {
				img.Set(x, y, black)
			}
		}
	}

	result := DetectText(img)
	if len(result.Regions) != result.TextRegionCount {
		t.Errorf("Regions len = %d, TextRegionCount = %d, want equal", len(result.Regions), result.TextRegionCount)
	}
	if result.TextRegionCount == 0 {
		t.Errorf("expected at least one text-like cell for a full-frame high-contrast stripe pattern")
	}
}
