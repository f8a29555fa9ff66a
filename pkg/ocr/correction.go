package ocr

import (
	"context"
	"strings"
	"unicode"

	"github.com/jordigilh/imagewave/pkg/collab"
)

// substitutions is the fixed, language-agnostic OCR confusion table (spec
// §4.5 T1): each pattern is tried only when it yields a dictionary word
// the unmodified token was not.
var substitutions = []struct{ from, to string }{
	{"0", "O"}, {"1", "l"}, {"5", "S"}, {"8", "B"},
	{"rn", "m"}, {"vv", "w"}, {"cl", "d"}, {"li", "h"},
}

// smallDictionary is a bundled common-word list used for T1 membership
// checks and T2's neutral/bad perplexity judgment. It is intentionally
// small: the cascade only needs to tell "looks like English" from
// "looks garbled", not perform real spell-checking.
var smallDictionary = buildDictionarySet([]string{
	"the", "a", "an", "and", "or", "but", "is", "are", "was", "were",
	"this", "that", "these", "those", "i", "you", "he", "she", "it",
	"we", "they", "do", "not", "think", "means", "what", "mean",
	"to", "of", "in", "on", "for", "with", "as", "at", "by", "from",
	"text", "image", "photo", "caption", "title", "name", "love",
	"hello", "world", "yes", "no", "good", "bad", "new", "old",
	"one", "two", "three", "four", "five", "now", "then", "here",
	"there", "can", "will", "would", "should", "could", "has", "have",
})

func buildDictionarySet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// CorrectionResult is the 3-tier cascade's output, carrying the
// provenance metadata spec §4.5 requires alongside the corrected text.
type CorrectionResult struct {
	Text           string
	Tier2Applied   bool
	Tier3Applied   bool
	OriginalText   string
	SpellCheckScore float64
}

// Correct runs the T1/T2/T3 cascade over text. visionLLM may be nil, in
// which case T3 is skipped even when it would otherwise be indicated.
// imageBytes is the encoded composite frame T3 re-queries the vision LLM
// against; it is ignored when T3 never triggers.
func Correct(ctx context.Context, text string, threshold float64, model string, visionLLM collab.VisionLLMClient, imageBytes []byte) CorrectionResult {
	original := text
	t1Text, score := applyTier1(text)
	garbled := score < threshold

	result := CorrectionResult{Text: t1Text, OriginalText: original, SpellCheckScore: score}
	if !garbled {
		return result
	}

	perplexity, t2Text, changed := applyTier2(t1Text)
	if changed {
		result.Text = t2Text
		result.Tier2Applied = true
	}
	t2Validated := perplexity < 60 && !isNeutralPerplexity(perplexity)

	needsTier3 := (garbled || result.Tier2Applied) && !t2Validated
	if needsTier3 && visionLLM != nil {
		if corrected, ok := applyTier3(ctx, result.Text, visionLLM, model, imageBytes); ok {
			result.Text = corrected
			result.Tier3Applied = true
		}
	}

	return result
}

// applyTier1 tries each substitution pattern, keeping it only when it
// turns an out-of-dictionary word into one found in smallDictionary, and
// returns the resulting spell_check_score.
func applyTier1(text string) (string, float64) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text, 1
	}
	corrected := make([]string, len(words))
	correctCount := 0
	for i, word := range words {
		fixed := word
		if !inDictionary(word) {
			for _, sub := range substitutions {
				candidate := strings.ReplaceAll(word, sub.from, sub.to)
				if candidate != word && inDictionary(candidate) {
					fixed = candidate
					break
				}
			}
		}
		corrected[i] = fixed
		if inDictionary(fixed) {
			correctCount++
		}
	}
	return strings.Join(corrected, " "), float64(correctCount) / float64(len(words))
}

func inDictionary(word string) bool {
	return smallDictionary[normalizeWord(word)]
}

func normalizeWord(word string) string {
	return strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}))
}

// applyTier2 scores text with bigramPerplexity (dictionary membership of
// adjacent word pairs). When perplexity indicates a likely error, it retries each remaining
// out-of-dictionary word with every substitution pattern applied
// together (T1 only tries one pattern per word) and accepts the result
// only when it measurably lowers perplexity.
func applyTier2(text string) (perplexity float64, corrected string, changed bool) {
	words := strings.Fields(text)
	perplexity = bigramPerplexity(toLowerWords(words))
	if perplexity < 60 {
		return perplexity, text, false
	}

	retried := make([]string, len(words))
	anyChanged := false
	for i, word := range words {
		if inDictionary(word) {
			retried[i] = word
			continue
		}
		candidate := word
		for _, sub := range substitutions {
			candidate = strings.ReplaceAll(candidate, sub.from, sub.to)
		}
		if candidate != word && inDictionary(candidate) {
			retried[i] = candidate
			anyChanged = true
		} else {
			retried[i] = word
		}
	}
	if !anyChanged {
		return perplexity, text, false
	}

	retriedText := strings.Join(retried, " ")
	retriedPerplexity := bigramPerplexity(toLowerWords(retried))
	if retriedPerplexity >= perplexity {
		return perplexity, text, false
	}
	return perplexity, retriedText, true
}

func toLowerWords(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}

func isNeutralPerplexity(p float64) bool {
	return p >= 45 && p <= 55
}

// bigramPerplexity approximates perplexity from smallDictionary alone,
// with no frequency table: 100 × (1 − the fraction of adjacent word pairs
// that both appear in the dictionary), so an all-known sentence scores 0
// and one with no known pair scores 100. A single word scores 20 when
// known and 80 otherwise.
func bigramPerplexity(words []string) float64 {
	if len(words) < 2 {
		if len(words) == 1 && inDictionary(words[0]) {
			return 20
		}
		return 80
	}
	known := 0
	for i := 0; i < len(words)-1; i++ {
		if inDictionary(words[i]) && inDictionary(words[i+1]) {
			known++
		}
	}
	ratio := float64(known) / float64(len(words)-1)
	return 100 * (1 - ratio)
}

// applyTier3 re-queries the vision LLM for the text it reads from the
// same image and accepts the result when its edit distance to current
// is within a third of current's length — the "policy" threshold spec
// §4.5 leaves unspecified in numeric terms.
func applyTier3(ctx context.Context, current string, client collab.VisionLLMClient, model string, imageBytes []byte) (string, bool) {
	resp, err := client.Generate(ctx, collab.GenerateRequest{
		Model:  model,
		Prompt: "Read only the text visible in this image, verbatim, with no commentary.",
		Images: [][]byte{imageBytes},
	})
	if err != nil || resp == "" {
		return current, false
	}
	dist := levenshtein(current, resp)
	limit := len(current)/3 + 1
	if dist > limit {
		return current, false
	}
	return resp, true
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr := make([]int, len(rb)+1)
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(minInt(curr[j-1]+1, prev[j]+1), prev[j-1]+cost)
		}
		prev = curr
	}
	return prev[len(rb)]
}
