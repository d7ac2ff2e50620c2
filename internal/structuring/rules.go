package structuring

import (
	"regexp"
	"strings"
)

// Keyword rules per category, applied when no model is configured or the
// model output cannot be used. Match counts drive confidence.
var categoryKeywords = map[string][]string{
	CategoryInvoice:   {"invoice", "payment", "due", "total", "amount", "paid", "balance"},
	CategoryMedical:   {"patient", "diagnosis", "treatment", "doctor", "hospital", "medical", "health"},
	CategoryLetter:    {"dear", "sincerely", "regards", "letter", "notification", "inform"},
	CategoryReceipt:   {"receipt", "purchased", "transaction", "store", "bought", "customer"},
	CategoryInsurance: {"insurance", "coverage", "policy", "claim", "premium", "deductible"},
	CategoryLegal:     {"legal", "law", "contract", "agreement", "terms", "conditions", "lawsuit"},
	CategoryReport:    {"report", "analysis", "findings", "conclusion", "investigation", "results"},
}

var compiledKeywords = func() map[string][]*regexp.Regexp {
	compiled := make(map[string][]*regexp.Regexp, len(categoryKeywords))
	for category, keywords := range categoryKeywords {
		patterns := make([]*regexp.Regexp, 0, len(keywords))
		for _, keyword := range keywords {
			patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(keyword)+`\b`))
		}
		compiled[category] = patterns
	}
	return compiled
}()

var documentDatePatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), "2006-01-02"},
	{regexp.MustCompile(`\b(\d{2}\.\d{2}\.\d{4})\b`), "02.01.2006"},
	{regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4})\b`), "01/02/2006"},
	{regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December) (\d{1,2}), (\d{4})\b`), "January 2, 2006"},
}

// classifyByRules scores the text against each category's keyword set. The
// category with the most distinct keyword hits wins; ties resolve in the
// fixed category order so re-runs classify identically.
func classifyByRules(text string) (string, float64) {
	bestCategory := CategoryUnclassified
	bestHits := 0
	for _, category := range allCategories {
		patterns, ok := compiledKeywords[category]
		if !ok {
			continue
		}
		hits := 0
		for _, pattern := range patterns {
			if pattern.MatchString(text) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestCategory = category
		}
	}
	if bestHits == 0 {
		return CategoryUnclassified, 0
	}
	confidence := 0.4 + 0.1*float64(bestHits)
	if confidence > 0.9 {
		confidence = 0.9
	}
	return bestCategory, confidence
}

// findDocumentDate scans the text for the first recognizable date and returns
// it in ISO form, or "" when none is found.
func findDocumentDate(text string) string {
	for _, pattern := range documentDatePatterns {
		if match := pattern.re.FindString(text); match != "" {
			if iso := normalizeDate(match, pattern.layout); iso != "" {
				return iso
			}
		}
	}
	return ""
}

// firstLineSummary falls back to the opening line when no model summary is
// available.
func firstLineSummary(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > 200 {
			return string(runes[:200])
		}
		return line
	}
	return ""
}
