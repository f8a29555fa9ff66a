package ocr

import (
	"image"
	"image/color"
	"testing"

	"github.com/jordigilh/imagewave/pkg/imgio"
)

func solidFrame(w, h int, y uint8) imgio.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			img.Set(px, py, color.Gray{Y: y})
		}
	}
	return imgio.Frame{Image: img}
}

func TestSelectFramesUsesTextChangedIndicesWhenPresent(t *testing.T) {
	frames := []imgio.Frame{solidFrame(8, 8, 0), solidFrame(8, 8, 50), solidFrame(8, 8, 100)}
	out := SelectFrames(frames, []int{0, 2}, 0.9)
	if len(out) != 2 {
		t.Fatalf("got %d frames, want 2", len(out))
	}
}

func TestSelectFramesDedupsIdenticalFrames(t *testing.T) {
	frames := []imgio.Frame{solidFrame(8, 8, 100), solidFrame(8, 8, 100), solidFrame(8, 8, 100)}
	out := SelectFrames(frames, nil, 0.5)
	if len(out) != 1 {
		t.Errorf("expected identical frames to dedup to 1, got %d", len(out))
	}
}

func TestSelectFramesKeepsDistinctFrames(t *testing.T) {
	frames := []imgio.Frame{solidFrame(8, 8, 0), solidFrame(8, 8, 255)}
	out := SelectFrames(frames, nil, 0.5)
	if len(out) != 2 {
		t.Errorf("expected visually distinct frames to both survive, got %d", len(out))
	}
}

func TestWeightedSimilarityIdenticalIsOne(t *testing.T) {
	a := solidFrame(8, 8, 128).Image
	if sim := weightedSimilarity(a, a); sim < 0.999 {
		t.Errorf("weightedSimilarity(a, a) = %v, want ~1", sim)
	}
}
