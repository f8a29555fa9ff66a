package fusion

import "strings"

// AltTextInput is the assembled evidence to_alt_text_context draws from,
// already reduced to short rendered phrases by the caller.
type AltTextInput struct {
	Subject    string
	Action     string
	IsAnimated bool
	OCRText    string
}

// ToAltTextContext builds an accessibility string within maxLength,
// prioritizing subject, then action for animated inputs, then OCR text
// (spec §4.7). OCR text is never silently dropped: once the assembled
// string overflows maxLength, the layout falls back to a short context
// phrase followed by an explicit `Text: "…"` segment, shrinking the
// context first and the OCR text only as a last resort.
func ToAltTextContext(in AltTextInput, maxLength int) string {
	context := strings.TrimSpace(in.Subject)
	if in.IsAnimated && in.Action != "" {
		context = strings.TrimSpace(context + " " + in.Action)
	}
	ocrText := strings.TrimSpace(in.OCRText)

	assembled := context
	if ocrText != "" {
		assembled = strings.TrimSpace(context + ` Text: "` + ocrText + `"`)
	}
	if runeLen(assembled) <= maxLength {
		return assembled
	}

	if ocrText == "" {
		return hardTruncate(assembled, maxLength)
	}

	contextBudget := maxLength - runeLen(ocrText) - 15
	if contextBudget < 30 {
		contextBudget = 30
	}
	shortContext := hardTruncate(context, contextBudget)
	result := strings.TrimSpace(shortContext + ` Text: "` + ocrText + `"`)
	if runeLen(result) <= maxLength {
		return result
	}

	// Even the minimal 30-char context plus the full OCR text overflows
	// maxLength (a very tight budget or very long OCR text). Keep the
	// Text: "…" wrapper and shrink the OCR text itself rather than drop
	// it — accessibility requires the text always survive in some form.
	wrapperLen := runeLen(`Text: ""`)
	ocrBudget := maxLength - wrapperLen
	if ocrBudget < 1 {
		ocrBudget = 1
	}
	return `Text: "` + hardTruncate(ocrText, ocrBudget) + `"`
}

func runeLen(s string) int { return len([]rune(s)) }

func hardTruncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
