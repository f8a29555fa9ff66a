package ocr

import (
	"strings"
	"unicode"
)

// VerificationResult is the optional OCR-verification phase output
// (spec §4.5 phase 8).
type VerificationResult struct {
	Concordance   float64
	TrustedSource string // "ocr" or "llm"
	VerifiedText  string
}

// Verify computes Jaccard concordance between ocrText and llmText over
// lowercased whitespace+punctuation tokens, and decides which source to
// trust: the LLM when concordance is low and OCR's own confidence is
// also low, otherwise OCR.
func Verify(ocrText, llmText string, avgOCRConfidence float64) VerificationResult {
	concordance := jaccard(tokenize(ocrText), tokenize(llmText))

	if concordance < 0.5 && avgOCRConfidence < 0.6 {
		return VerificationResult{Concordance: concordance, TrustedSource: "llm", VerifiedText: llmText}
	}
	return VerificationResult{Concordance: concordance, TrustedSource: "ocr", VerifiedText: ocrText}
}

func tokenize(s string) map[string]bool {
	lower := strings.ToLower(s)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f != "" {
			set[f] = true
		}
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 1
	}
	return float64(intersection) / float64(union)
}
