package extraction

import (
	"strings"
	"unicode"
)

// Quality captures metrics about one extraction candidate. The triage
// processor keeps every candidate's metrics in the item history so a poor
// selection can be diagnosed later.
type Quality struct {
	Chars           int     `json:"chars"`
	PageCount       int     `json:"page_count"`
	CharsPerPage    float64 `json:"chars_per_page"`
	PrintableRatio  float64 `json:"printable_ratio"`
	WordlikeRatio   float64 `json:"wordlike_ratio"`
	HasImageStreams bool    `json:"has_image_streams"`
}

// NeedsOCR reports whether the candidate likely missed scanned content and an
// OCR pass should be attempted as well.
func (q Quality) NeedsOCR() bool {
	return (q.CharsPerPage < 50 && q.HasImageStreams) || q.PrintableRatio < 0.85
}

// Score ranks candidates: character volume damped by how much of it is
// printable, word-like text. Deterministic for identical inputs.
func (q Quality) Score() float64 {
	ratio := q.PrintableRatio
	if ratio <= 0 {
		ratio = 0.01
	}
	wordlike := q.WordlikeRatio
	if wordlike <= 0 {
		wordlike = 0.01
	}
	return float64(q.Chars) * ratio * (0.5 + 0.5*wordlike)
}

// MeasureQuality computes candidate metrics for extracted text.
func MeasureQuality(text string, pageCount int, hasImageStreams bool) Quality {
	chars := len([]rune(text))
	q := Quality{
		Chars:           chars,
		PageCount:       pageCount,
		PrintableRatio:  computePrintableRatio(text),
		WordlikeRatio:   computeWordlikeRatio(text),
		HasImageStreams: hasImageStreams,
	}
	if pageCount > 0 {
		q.CharsPerPage = float64(chars) / float64(pageCount)
	} else {
		q.CharsPerPage = float64(chars)
	}
	return q
}

// computePrintableRatio returns the ratio of printable characters in text.
// Excludes PUA U+E000-U+F8FF, control chars below U+0020 (except whitespace)
// and U+FFFD.
func computePrintableRatio(text string) float64 {
	if len(text) == 0 {
		return 1.0
	}
	total := 0
	printable := 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}

// computeWordlikeRatio returns the ratio of word-like tokens (length 2-15) to
// total tokens.
func computeWordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		n := len([]rune(f))
		if n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}
