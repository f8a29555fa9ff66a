package wavecatalog

import (
	"context"
	"image/color"
	"testing"
)

func TestVisionLlmWaveParsesStrictJSON(t *testing.T) {
	path := writeTestPNG(t, 32, 32, color.RGBA{R: 9, G: 9, B: 9, A: 255})
	actx := newTestContext(path)
	resp := `{"caption": "a red circle on white", "content_type": "Illustration", "text_present": false, "text": ""}`
	w := NewVisionLlmWave(&fakeVisionLLM{response: resp}, "some-model")

	sigs, err := w.Analyze(context.Background(), path, actx)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	caption, ok := signalValue(t, sigs, "vision.llm.caption")
	if !ok || caption.Value.Str != "a red circle on white" {
		t.Errorf("vision.llm.caption = %+v", caption)
	}
	contentType, ok := signalValue(t, sigs, "vision.llm.content_type")
	if !ok || contentType.Value.Str != "illustration" {
		t.Errorf("vision.llm.content_type = %+v, want lowercased illustration", contentType)
	}
}

func TestVisionLlmWaveParsesJSONWrappedInProse(t *testing.T) {
	resp := "Sure, here you go:\n```json\n{\"caption\": \"a cat\", \"content_type\": \"photo\", \"text_present\": true, \"text\": \"MEOW\"}\n```\nHope that helps!"
	answer, ok := parseVisionLLMAnswer(resp)
	if !ok {
		t.Fatalf("expected parseVisionLLMAnswer to find the embedded JSON object")
	}
	if answer.Caption != "a cat" || answer.Text != "MEOW" || !answer.TextPresent {
		t.Errorf("parsed answer = %+v", answer)
	}
}

func TestVisionLlmWaveDegradesToCaptionOnMalformedResponse(t *testing.T) {
	path := writeTestPNG(t, 32, 32, color.RGBA{R: 9, G: 9, B: 9, A: 255})
	actx := newTestContext(path)
	w := NewVisionLlmWave(&fakeVisionLLM{response: "just a plain sentence, no JSON here"}, "some-model")

	sigs, err := w.Analyze(context.Background(), path, actx)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(sigs) != 1 {
		t.Fatalf("expected exactly one fallback signal, got %+v", sigs)
	}
	if sigs[0].Key != "vision.llm.caption" {
		t.Errorf("fallback signal key = %q, want vision.llm.caption", sigs[0].Key)
	}
}
