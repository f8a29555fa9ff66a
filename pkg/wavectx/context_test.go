package wavectx

import (
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/jordigilh/imagewave/pkg/signal"
)

func mustSignal(t *testing.T, key string, v signal.Value, conf float64, source string) signal.Signal {
	t.Helper()
	s, err := signal.New(key, v, conf, source, nil, time.Now().UTC())
	if err != nil {
		t.Fatalf("signal.New: %v", err)
	}
	return s
}

func TestSetValueAndGetTypedValues(t *testing.T) {
	ctx := New("hash1", "/tmp/img.png", nil, logr.Discard())
	ctx.SetValue(mustSignal(t, "quality.sharpness", signal.FloatValue(0.8), 0.9, "quality"))
	ctx.SetValue(mustSignal(t, "identity.width", signal.IntValue(1024), 0.9, "identity"))
	ctx.SetValue(mustSignal(t, "identity.is_animated", signal.BoolValue(true), 0.9, "identity"))

	if got := ctx.GetFloat64("quality.sharpness", 0); got != 0.8 {
		t.Errorf("GetFloat64 = %v, want 0.8", got)
	}
	if got := ctx.GetInt64("identity.width", 0); got != 1024 {
		t.Errorf("GetInt64 = %v, want 1024", got)
	}
	if got := ctx.GetBool("identity.is_animated", false); !got {
		t.Errorf("GetBool = %v, want true", got)
	}
	if got := ctx.GetString("missing.key", "fallback"); got != "fallback" {
		t.Errorf("GetString for missing key should return default, got %v", got)
	}
}

func TestGetValueCoercionFallback(t *testing.T) {
	ctx := New("hash1", "/tmp/img.png", nil, logr.Discard())
	ctx.SetValue(mustSignal(t, "content.text", signal.VectorValue([]float32{1, 2}), 0.9, "clip"))

	if got := ctx.GetInt64("content.text", 42); got != 42 {
		t.Errorf("coercion failure should fall back to default, got %v", got)
	}
}

func TestSetValueAggregatesHighestConfidenceByDefault(t *testing.T) {
	ctx := New("hash1", "/tmp/img.png", nil, logr.Discard())
	ctx.SetValue(mustSignal(t, "quality.sharpness", signal.FloatValue(0.1), 0.2, "quality"))
	ctx.SetValue(mustSignal(t, "quality.sharpness", signal.FloatValue(0.9), 0.95, "quality"))

	if got := ctx.GetFloat64("quality.sharpness", 0); got != 0.9 {
		t.Errorf("default aggregation should keep the higher-confidence emission, got %v", got)
	}
}

func TestCachedRoundTrip(t *testing.T) {
	ctx := New("hash1", "/tmp/img.png", nil, logr.Discard())
	type frames struct{ count int }
	ctx.SetCached("ocr.frames", frames{count: 5})

	got, ok := GetCached[frames](ctx, "ocr.frames")
	if !ok || got.count != 5 {
		t.Errorf("GetCached = %+v, ok=%v, want count=5", got, ok)
	}

	if _, ok := GetCached[frames](ctx, "missing"); ok {
		t.Errorf("GetCached for missing key should report ok=false")
	}

	if _, ok := GetCached[string](ctx, "ocr.frames"); ok {
		t.Errorf("GetCached with mismatched type assertion should report ok=false")
	}
}

func TestFinalizeDropsCache(t *testing.T) {
	ctx := New("hash1", "/tmp/img.png", nil, logr.Discard())
	ctx.SetCached("k", 1)
	ctx.Finalize()
	if _, ok := GetCached[int](ctx, "k"); ok {
		t.Errorf("cache should be empty after Finalize")
	}
}

func TestIsWaveSkippedByRouting(t *testing.T) {
	ctx := New("hash1", "/tmp/img.png", nil, logr.Discard())
	if ctx.IsWaveSkippedByRouting("face_detection") {
		t.Errorf("should not be skipped before any route.skip.* signal is set")
	}
	ctx.SetValue(mustSignal(t, "route.skip.face_detection", signal.BoolValue(true), 1.0, "auto_routing"))
	if !ctx.IsWaveSkippedByRouting("face_detection") {
		t.Errorf("should be skipped once route.skip.face_detection is truthy")
	}
}
