package wavecatalog

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"

	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wavectx"
)

func writeTestPNG(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}

func newTestContext(imagePath string) *wavectx.Context {
	return wavectx.New("deadbeef", imagePath, nil, logr.Discard())
}

func signalValue(t *testing.T, sigs []signal.Signal, key string) (signal.Signal, bool) {
	t.Helper()
	for _, s := range sigs {
		if s.Key == key {
			return s, true
		}
	}
	return signal.Signal{}, false
}

func TestIdentityWaveDecodesAndCaches(t *testing.T) {
	path := writeTestPNG(t, 100, 200, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	actx := newTestContext(path)
	w := NewIdentityWave()

	sigs, err := w.Analyze(context.Background(), path, actx)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	format, ok := signalValue(t, sigs, "identity.format")
	if !ok || format.Value.Str != "png" {
		t.Errorf("identity.format = %+v, want png", format)
	}
	width, ok := signalValue(t, sigs, "identity.width")
	if !ok || width.Value.Int != 100 {
		t.Errorf("identity.width = %+v, want 100", width)
	}
	height, ok := signalValue(t, sigs, "identity.height")
	if !ok || height.Value.Int != 200 {
		t.Errorf("identity.height = %+v, want 200", height)
	}

	if _, ok := wavectx.GetCached[[]struct{}](actx, "identity.frames"); ok {
		t.Errorf("expected identity.frames cache to reject wrong type assertion")
	}
}

func TestIdentityWaveFlagsIconShape(t *testing.T) {
	if !isIconShaped(64, 64, 64*64) {
		t.Errorf("64x64 should be icon-shaped")
	}
	if isIconShaped(1920, 1080, 1920*1080) {
		t.Errorf("1920x1080 should not be icon-shaped")
	}
}

func TestIdentityWaveFlagsScreenshotAspectRatio(t *testing.T) {
	if !looksLikeScreenshot(1920, 1080) {
		t.Errorf("1920x1080 should look like a screenshot")
	}
	if looksLikeScreenshot(1000, 333) {
		t.Errorf("1000x333 should not look like a screenshot")
	}
}

func TestIdentityWaveErrorsOnUnreadableFile(t *testing.T) {
	actx := newTestContext("/nonexistent/path.png")
	w := NewIdentityWave()
	if _, err := w.Analyze(context.Background(), "/nonexistent/path.png", actx); err == nil {
		t.Errorf("expected an error reading a nonexistent file")
	}
}
