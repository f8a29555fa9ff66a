package ocr

import (
	"context"
	"testing"

	"github.com/jordigilh/imagewave/pkg/collab"
)

// fakeVisionLLM records the last GenerateRequest it received, so tests can
// assert what a caller actually sent the model.
type fakeVisionLLM struct {
	lastReq collab.GenerateRequest
	resp    string
}

func (f *fakeVisionLLM) Generate(_ context.Context, req collab.GenerateRequest) (string, error) {
	f.lastReq = req
	return f.resp, nil
}

func (f *fakeVisionLLM) MaxImageDimension(context.Context, string) int { return 1024 }

func TestApplyTier1FixesKnownSubstitution(t *testing.T) {
	corrected, score := applyTier1("0ne")
	if corrected != "One" {
		t.Errorf("applyTier1(%q) = %q, want %q", "0ne", corrected, "One")
	}
	if score != 1 {
		t.Errorf("spell_check_score = %v, want 1 after a successful substitution", score)
	}
}

func TestApplyTier1ScoresMostlyDictionaryWordsHigh(t *testing.T) {
	_, score := applyTier1("the cat and the hat")
	if score < 0.5 {
		t.Errorf("expected a high spell_check_score for mostly-dictionary words, got %v", score)
	}
}

func TestCorrectSkipsCascadeWhenNotGarbled(t *testing.T) {
	result := Correct(context.Background(), "the cat and the hat", 0.5, "", nil, nil)
	if result.Tier2Applied || result.Tier3Applied {
		t.Errorf("expected no escalation for clean text, got %+v", result)
	}
	if result.OriginalText != "the cat and the hat" {
		t.Errorf("OriginalText = %q", result.OriginalText)
	}
}

func TestCorrectRunsWithoutVisionLLM(t *testing.T) {
	result := Correct(context.Background(), "xzq zzq qxz", 0.9, "", nil, nil)
	if result.Tier3Applied {
		t.Errorf("Tier3Applied should be false with a nil vision LLM")
	}
}

func TestCorrectTier3SendsImageBytesToVisionLLM(t *testing.T) {
	imageBytes := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	client := &fakeVisionLLM{resp: "xzq zzq qxz"}

	result := Correct(context.Background(), "xzq zzq qxz", 0.9, "llava", client, imageBytes)

	if !result.Tier3Applied {
		t.Fatalf("expected tier3 to run for garbled text, got %+v", result)
	}
	if len(client.lastReq.Images) == 0 || len(client.lastReq.Images[0]) == 0 {
		t.Errorf("expected GenerateRequest.Images to carry the composite frame bytes, got %v", client.lastReq.Images)
	}
}

func TestIsNeutralPerplexity(t *testing.T) {
	if !isNeutralPerplexity(50) {
		t.Errorf("expected 50 to be treated as neutral perplexity")
	}
	if isNeutralPerplexity(90) {
		t.Errorf("expected 90 to not be treated as neutral")
	}
}

func TestLevenshteinIdenticalIsZero(t *testing.T) {
	if d := levenshtein("hello", "hello"); d != 0 {
		t.Errorf("levenshtein(same, same) = %d, want 0", d)
	}
}

func TestLevenshteinSingleEdit(t *testing.T) {
	if d := levenshtein("cat", "cats"); d != 1 {
		t.Errorf("levenshtein(cat, cats) = %d, want 1", d)
	}
}
