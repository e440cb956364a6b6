// Package scanning is the boundary to external OCR engines. An Engine takes
// a preprocessed image and returns the raw recognized text; parsing that
// text into fields is the extract package's job, not the engine's.
package scanning

import (
	"strings"
	"unicode"
)

// Result is the raw output of one OCR run. Confidence blends the engine's
// own estimate with a text-shape heuristic.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Engine     string  `json:"engine"`
}

// Engine defines one OCR backend.
type Engine interface {
	// RecognizeText runs OCR on an image and returns the raw text.
	RecognizeText(imageData []byte) (*Result, error)
	// Name identifies the engine in logs and results.
	Name() string
	// Close releases engine resources.
	Close() error
}

// BestResult picks the result with the highest confidence × text-length
// score. Used when several engines ran on the same image. Returns nil for an
// empty slice.
func BestResult(results []*Result) *Result {
	var best *Result
	var bestScore float64
	for _, r := range results {
		if r == nil {
			continue
		}
		score := r.Confidence * float64(len([]rune(r.Text)))
		if best == nil || score > bestScore {
			best = r
			bestScore = score
		}
	}
	return best
}

// heuristicConfidence estimates recognition quality from the shape of the
// text: the share of letters, digits and kana/kanji among all non-space
// runes. Garbage-heavy output scores low.
func heuristicConfidence(text string) float64 {
	total, readable := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// blendConfidence weights the engine's base estimate against the text-shape
// heuristic, engine side heavier.
func blendConfidence(base float64, text string) float64 {
	conf := 0.7*base + 0.3*heuristicConfidence(text)
	if conf > 1 {
		conf = 1
	}
	return conf
}

// cleanResponse strips markdown fences an LLM-backed engine may wrap the
// transcription in.
func cleanResponse(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ocrPrompt instructs a vision model to transcribe, not interpret.
const ocrPrompt = `You are an OCR engine. Transcribe ALL text visible in this receipt image exactly as it appears, line by line, top to bottom. Preserve the original language (Japanese receipts stay Japanese), numbers, currency symbols and spacing between columns. Output ONLY the transcribed text with one receipt line per output line. Do not summarize, translate, interpret or add any commentary, and do not use markdown code blocks.`
