package wavecatalog

import (
	"context"
	"testing"
)

func TestMlOcrWaveAgreesWhenOcrFoundText(t *testing.T) {
	actx := newTestContext("unused.png")
	setStringSignal(actx, "ocr.final.corrected_text", "hello world")
	setIntSignal(actx, "ocr.region_count", 4)
	setFloatSignal(actx, "content.text_likeliness", 0.6)

	w := NewMlOcrWave()
	sigs, err := w.Analyze(context.Background(), "unused.png", actx)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	likely, ok := signalValue(t, sigs, "ocr.ml.likely_has_text")
	if !ok || !likely.Value.Bool {
		t.Errorf("ocr.ml.likely_has_text = %+v, want true", likely)
	}
}

func TestMlOcrWaveDisagreesWithNoEvidence(t *testing.T) {
	actx := newTestContext("unused.png")
	w := NewMlOcrWave()
	sigs, err := w.Analyze(context.Background(), "unused.png", actx)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	likely, ok := signalValue(t, sigs, "ocr.ml.likely_has_text")
	if !ok || likely.Value.Bool {
		t.Errorf("ocr.ml.likely_has_text = %+v, want false with no evidence", likely)
	}
}

func TestMlOcrConfidenceClampedToOne(t *testing.T) {
	if c := mlOcrConfidence("a long corrected string of text", 20, 1.0); c > 1 {
		t.Errorf("mlOcrConfidence(...) = %v, want <= 1", c)
	}
}
