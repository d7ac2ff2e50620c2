package structuring

import (
	"strings"
	"time"
)

// Known document categories. CategoryUnclassified is a valid terminal
// category, not an error: documents the structurer cannot place still get
// filed, flagged for review.
const (
	CategoryInvoice      = "Invoice"
	CategoryMedical      = "Medical Record"
	CategoryLetter       = "Letter"
	CategoryReport       = "Report"
	CategoryInsurance    = "Insurance Document"
	CategoryLegal        = "Legal Document"
	CategoryReceipt      = "Receipt"
	CategoryUnclassified = "Unclassified"
)

var allCategories = []string{
	CategoryInvoice,
	CategoryMedical,
	CategoryLetter,
	CategoryReport,
	CategoryInsurance,
	CategoryLegal,
	CategoryReceipt,
	CategoryUnclassified,
}

var categorySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(allCategories))
	for _, category := range allCategories {
		set[category] = struct{}{}
	}
	return set
}()

var categoryAbbreviations = map[string]string{
	CategoryInvoice:      "INV",
	CategoryMedical:      "MEDREC",
	CategoryLetter:       "LTR",
	CategoryReport:       "RPT",
	CategoryInsurance:    "INS",
	CategoryLegal:        "LEGAL",
	CategoryReceipt:      "RCPT",
	CategoryUnclassified: "UNC",
}

// Categories returns the ordered list of known categories.
func Categories() []string {
	cp := make([]string, len(allCategories))
	copy(cp, allCategories)
	return cp
}

// Abbreviation returns the filing abbreviation for a category.
func Abbreviation(category string) string {
	if abbrev, ok := categoryAbbreviations[NormalizeCategory(category)]; ok {
		return abbrev
	}
	return categoryAbbreviations[CategoryUnclassified]
}

// NormalizeCategory maps free-form category strings onto the known set.
// Unknown values become Unclassified.
func NormalizeCategory(category string) string {
	trimmed := strings.TrimSpace(category)
	if _, ok := categorySet[trimmed]; ok {
		return trimmed
	}
	lower := strings.ToLower(trimmed)
	for _, known := range allCategories {
		if strings.ToLower(known) == lower {
			return known
		}
	}
	return CategoryUnclassified
}

// Record is the structured outcome for one document.
type Record struct {
	Category      string   `json:"category"`
	DocumentDate  string   `json:"document_date,omitempty"`
	Correspondent string   `json:"correspondent,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Confidence    float64  `json:"confidence"`
	Source        string   `json:"source"`
}

// Structuring sources.
const (
	SourceLLM   = "llm"
	SourceRules = "rules"
)

// Normalize clamps and canonicalizes record fields in place.
func (r *Record) Normalize() {
	r.Category = NormalizeCategory(r.Category)
	r.Summary = strings.TrimSpace(r.Summary)
	r.Correspondent = strings.TrimSpace(r.Correspondent)
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
	if r.DocumentDate != "" {
		if _, err := time.Parse("2006-01-02", r.DocumentDate); err != nil {
			r.DocumentDate = ""
		}
	}
	var tags []string
	seen := map[string]struct{}{}
	for _, tag := range r.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	r.Tags = tags
}
