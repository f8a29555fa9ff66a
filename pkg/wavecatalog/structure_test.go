package wavecatalog

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/jordigilh/imagewave/pkg/imgio"
)

func TestClassifyHeuristicTypePrefersIcon(t *testing.T) {
	if got := classifyHeuristicType(0, 0, 0, false, true); got != "icon" {
		t.Errorf("classifyHeuristicType with isIcon=true = %q, want icon", got)
	}
}

func TestClassifyHeuristicTypeDocument(t *testing.T) {
	if got := classifyHeuristicType(0.05, 0.8, 0.5, false, false); got != "document" {
		t.Errorf("classifyHeuristicType(document case) = %q, want document", got)
	}
}

func TestRouteContentTypeForMapsKnownCategories(t *testing.T) {
	cases := map[string]string{
		"diagram":    "Diagram",
		"chart":      "Chart",
		"document":   "ScannedDocument",
		"screenshot": "Screenshot",
		"photo":      "",
		"icon":       "",
	}
	for in, want := range cases {
		if got := routeContentTypeFor(in); got != want {
			t.Errorf("routeContentTypeFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStructureWaveEmitsContentTypeSignal(t *testing.T) {
	actx := newTestContext("unused.png")
	setBoolSignal(actx, "identity.is_screenshot", true)
	setFloatSignal(actx, "route.text_coverage", 0.2)

	w := NewStructureWave()
	sigs, err := w.Analyze(context.Background(), "unused.png", actx)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	heuristic, ok := signalValue(t, sigs, "heuristic.content_type")
	if !ok || heuristic.Value.Str != "screenshot" {
		t.Errorf("heuristic.content_type = %+v, want screenshot", heuristic)
	}
	routeType, ok := signalValue(t, sigs, "content.type")
	if !ok || routeType.Value.Str != "Screenshot" {
		t.Errorf("content.type = %+v, want Screenshot", routeType)
	}
}

func TestHorizontalSymmetryPerfectMirror(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			if x < 20 {
				img.Set(x, y, color.Gray{Y: 200})
			} else {
				img.Set(x, y, color.Gray{Y: 200})
			}
		}
	}
	if score := horizontalSymmetry(img); score < 0.9 {
		t.Errorf("horizontalSymmetry(uniform image) = %v, want close to 1", score)
	}
}

func TestSymmetryScoreFromWithoutCachedFrames(t *testing.T) {
	actx := newTestContext("unused.png")
	if score := symmetryScoreFrom(actx); score != 0 {
		t.Errorf("symmetryScoreFrom without cache = %v, want 0", score)
	}
}

func TestSymmetryScoreFromWithCachedFrames(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	actx := newTestContext("unused.png")
	actx.SetCached("identity.frames", []imgio.Frame{{Image: img}})
	if score := symmetryScoreFrom(actx); score < 0.9 {
		t.Errorf("symmetryScoreFrom(blank image) = %v, want close to 1", score)
	}
}
