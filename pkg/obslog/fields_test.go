package obslog

import (
	"errors"
	"testing"
	"time"
)

func TestNewFields(t *testing.T) {
	f := NewFields()
	if len(f) != 0 {
		t.Errorf("NewFields() should start empty, got %d", len(f))
	}
}

func TestFields_ChainedCalls(t *testing.T) {
	f := NewFields().
		Wave("identity").
		ImageHash("abc123").
		Duration(150 * time.Millisecond).
		Confidence(0.9).
		Count(3)

	expected := map[string]interface{}{
		"wave":        "identity",
		"image_hash":  "abc123",
		"duration_ms": int64(150),
		"confidence":  0.9,
		"count":       3,
	}
	for k, want := range expected {
		if f[k] != want {
			t.Errorf("field %s = %v, want %v", k, f[k], want)
		}
	}
}

func TestFields_ErrorNil(t *testing.T) {
	f := NewFields().Error(nil)
	if _, ok := f["error"]; ok {
		t.Errorf("Error(nil) should not set the error field")
	}
	f2 := NewFields().Error(errors.New("boom"))
	if f2["error"] != "boom" {
		t.Errorf("Error() = %v, want boom", f2["error"])
	}
}

func TestWaveFields(t *testing.T) {
	f := WaveFields("color", "hash1")
	if f["wave"] != "color" || f["image_hash"] != "hash1" {
		t.Errorf("WaveFields() = %v", f)
	}
}

func TestRouteFields(t *testing.T) {
	f := RouteFields("hash1", "fast", "caption")
	if f["route"] != "fast" || f["text_tier"] != "caption" {
		t.Errorf("RouteFields() = %v", f)
	}
}

func TestToZap(t *testing.T) {
	f := NewFields().Wave("identity")
	fields := f.ToZap()
	if len(fields) != 1 {
		t.Errorf("ToZap() len = %d, want 1", len(fields))
	}
}
