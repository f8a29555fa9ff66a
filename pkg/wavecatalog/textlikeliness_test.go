package wavecatalog

import (
	"context"
	"testing"
)

func TestTextLikelinessHighCoverageIsHeavy(t *testing.T) {
	actx := newTestContext("unused.png")
	setFloatSignal(actx, "route.text_coverage", 0.8)
	setIntSignal(actx, "route.text_region_count", 20)
	setFloatSignal(actx, "quality.edge_density", 0.3)

	w := NewTextLikelinessWave()
	sigs, err := w.Analyze(context.Background(), "unused.png", actx)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	heavy, ok := signalValue(t, sigs, "text_likeliness.is_text_heavy")
	if !ok || !heavy.Value.Bool {
		t.Errorf("text_likeliness.is_text_heavy = %+v, want true for high coverage", heavy)
	}
}

func TestTextLikelinessLowCoverageIsNotHeavy(t *testing.T) {
	actx := newTestContext("unused.png")
	w := NewTextLikelinessWave()
	sigs, err := w.Analyze(context.Background(), "unused.png", actx)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	heavy, ok := signalValue(t, sigs, "text_likeliness.is_text_heavy")
	if !ok || heavy.Value.Bool {
		t.Errorf("text_likeliness.is_text_heavy = %+v, want false with no evidence", heavy)
	}
}

func TestTextLikelinessScoreIsClampedToOne(t *testing.T) {
	score := textLikeliness(1.0, 50, 1.0)
	if score > 1 {
		t.Errorf("textLikeliness(...) = %v, want <= 1", score)
	}
}
