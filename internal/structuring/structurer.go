package structuring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docket/internal/logging"
	"docket/internal/services"
	"docket/internal/services/llm"
)

const systemPrompt = `You are a document filing assistant. Given the text of a scanned or digital document, respond with JSON only, no prose, using this schema:
{"category": string, "document_date": "YYYY-MM-DD" or "", "correspondent": string, "summary": string, "tags": [string], "confidence": number between 0 and 1}
The category MUST be one of: %s.
Use "Unclassified" when none fits. The summary is one sentence. Tags are short lowercase topics. Confidence reflects how certain you are of the category.`

// maxPromptChars bounds how much document text goes to the model.
const maxPromptChars = 12000

// Result pairs the structured record with the review decision.
type Result struct {
	Record       Record
	NeedsReview  bool
	ReviewReason string
}

// Completer is the model surface the structurer needs; satisfied by
// *llm.Client.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Structurer turns extracted text into a filing record, via the configured
// model or the keyword rules fallback.
type Structurer struct {
	completer       Completer
	reviewThreshold float64
	logger          *slog.Logger
}

// NewStructurer builds a structurer. completer may be nil, which routes every
// document through the keyword rules.
func NewStructurer(completer Completer, reviewThreshold float64, logger *slog.Logger) *Structurer {
	if reviewThreshold <= 0 || reviewThreshold > 1 {
		reviewThreshold = 0.7
	}
	return &Structurer{
		completer:       completer,
		reviewThreshold: reviewThreshold,
		logger:          logging.NewComponentLogger(logger, "structuring"),
	}
}

// Structure produces the filing record for a document. An ambiguous document
// is a valid outcome: it comes back Unclassified or low-confidence with the
// review flag set, never as an error.
func (s *Structurer) Structure(ctx context.Context, text, filename string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, services.Wrap(services.ErrValidation, "structuring", "", "no text to structure", nil)
	}

	var record Record
	if s.completer != nil {
		modelRecord, err := s.structureWithModel(ctx, text, filename)
		if err != nil {
			return Result{}, err
		}
		record = modelRecord
	} else {
		record = s.structureWithRules(text)
	}

	record.Normalize()
	if record.DocumentDate == "" {
		record.DocumentDate = findDocumentDate(text)
	}
	if record.Summary == "" {
		record.Summary = firstLineSummary(text)
	}

	result := Result{Record: record}
	switch {
	case record.Category == CategoryUnclassified:
		result.NeedsReview = true
		result.ReviewReason = "document could not be classified"
	case record.Confidence < s.reviewThreshold:
		result.NeedsReview = true
		result.ReviewReason = fmt.Sprintf("classification confidence %.2f below threshold %.2f", record.Confidence, s.reviewThreshold)
	}

	s.logger.Info("document structured",
		logging.String("category", record.Category),
		logging.Float64("confidence", record.Confidence),
		logging.String("source", record.Source),
		logging.Bool("needs_review", result.NeedsReview),
	)
	return result, nil
}

func (s *Structurer) structureWithModel(ctx context.Context, text, filename string) (Record, error) {
	prompt := fmt.Sprintf(systemPrompt, strings.Join(Categories(), ", "))
	userPrompt := buildUserPrompt(text, filename)

	content, err := s.completer.CompleteJSON(ctx, prompt, userPrompt)
	if err != nil {
		if ctx.Err() != nil {
			return Record{}, services.Wrap(services.ErrTimeout, "structuring", "llm", "model call aborted", err)
		}
		return Record{}, services.Wrap(services.ErrExternalTool, "structuring", "llm", "model call failed", err)
	}

	var record Record
	if err := llm.DecodeLLMJSON(content, &record); err != nil {
		return Record{}, services.Wrap(services.ErrExternalTool, "structuring", "llm", "unusable model payload", err)
	}
	record.Source = SourceLLM
	return record, nil
}

func (s *Structurer) structureWithRules(text string) Record {
	category, confidence := classifyByRules(text)
	return Record{
		Category:   category,
		Confidence: confidence,
		Source:     SourceRules,
	}
}

func buildUserPrompt(text, filename string) string {
	runes := []rune(text)
	if len(runes) > maxPromptChars {
		text = string(runes[:maxPromptChars])
	}
	var sb strings.Builder
	if filename != "" {
		sb.WriteString("Original filename: ")
		sb.WriteString(filename)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Document text:\n")
	sb.WriteString(text)
	return sb.String()
}

// EncodeRecord serializes a record for storage on the queue item.
func EncodeRecord(record Record) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return string(data), nil
}

// DecodeRecord restores a record stored on a queue item.
func DecodeRecord(encoded string) (Record, error) {
	var record Record
	if err := json.Unmarshal([]byte(encoded), &record); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return record, nil
}

func normalizeDate(value, layout string) string {
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return ""
	}
	return parsed.Format("2006-01-02")
}
