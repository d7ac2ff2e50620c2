package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docket/internal/logging"
	"docket/internal/services"
	"docket/internal/services/ocr"
)

// Extraction methods, in precedence order. When two candidates score equally
// the earlier method wins, so repeated runs pick the same candidate.
const (
	MethodPDFText   = "pdf_text"
	MethodDOCX      = "docx_xml"
	MethodPlainText = "plain_text"
	MethodOCR       = "ocr"
)

var methodPrecedence = map[string]int{
	MethodPDFText:   0,
	MethodDOCX:      1,
	MethodPlainText: 2,
	MethodOCR:       3,
}

// Candidate is one strategy's output.
type Candidate struct {
	Method  string  `json:"method"`
	Quality Quality `json:"quality"`
	Err     string  `json:"error,omitempty"`

	text string
}

// Result is the selected extraction outcome plus the full candidate set.
type Result struct {
	Text       string
	Method     string
	Quality    Quality
	Candidates []Candidate
}

// Extractor runs every applicable strategy for a file and keeps the most
// complete candidate.
type Extractor struct {
	ocr    *ocr.Service
	logger *slog.Logger
}

// NewExtractor builds an extractor. The OCR service may be nil when the
// binary is unavailable.
func NewExtractor(ocrService *ocr.Service, logger *slog.Logger) *Extractor {
	return &Extractor{
		ocr:    ocrService,
		logger: logging.NewComponentLogger(logger, "extraction"),
	}
}

// Extract determines the file's format, runs the applicable strategies, and
// returns the best candidate by quality score.
func (e *Extractor) Extract(ctx context.Context, path, workDir string) (Result, error) {
	format := DetectFormat(path)
	var candidates []Candidate

	switch format {
	case FormatPDF:
		candidate := e.runStrategy(MethodPDFText, func() (string, Quality, error) {
			return extractPDF(path)
		})
		candidates = append(candidates, candidate)
		if candidate.Quality.NeedsOCR() && e.ocrAvailable() {
			candidates = append(candidates, e.runOCR(ctx, path, workDir))
		}
	case FormatDOCX:
		candidates = append(candidates, e.runStrategy(MethodDOCX, func() (string, Quality, error) {
			return extractDOCX(path)
		}))
	case FormatText:
		candidates = append(candidates, e.runStrategy(MethodPlainText, func() (string, Quality, error) {
			return extractPlainText(path)
		}))
	case FormatImage:
		if !e.ocrAvailable() {
			return Result{}, services.Wrap(services.ErrConfiguration, "extraction", "ocr", "image document requires tesseract, which is not available", nil)
		}
		candidates = append(candidates, e.runOCR(ctx, path, workDir))
	default:
		// Last resort for extensionless drops that sniffed as nothing.
		candidates = append(candidates, e.runStrategy(MethodPlainText, func() (string, Quality, error) {
			return extractPlainText(path)
		}))
	}

	best, ok := selectBest(candidates)
	if !ok {
		return Result{Candidates: candidates}, services.Wrap(
			services.ErrValidation, "extraction", string(format),
			fmt.Sprintf("no strategy produced text: %s", summarizeFailures(candidates)), nil,
		)
	}

	e.logger.Info("text extracted",
		logging.String(logging.FieldSourceFile, path),
		logging.String("method", best.Method),
		logging.Int("chars", best.Quality.Chars),
		logging.Float64("printable_ratio", best.Quality.PrintableRatio),
	)

	return Result{
		Text:       best.text,
		Method:     best.Method,
		Quality:    best.Quality,
		Candidates: candidates,
	}, nil
}

func (e *Extractor) ocrAvailable() bool {
	return e.ocr != nil && e.ocr.Available()
}

func (e *Extractor) runStrategy(method string, fn func() (string, Quality, error)) Candidate {
	text, quality, err := fn()
	candidate := Candidate{Method: method, Quality: quality, text: text}
	if err != nil {
		candidate.Err = err.Error()
		candidate.text = ""
	}
	return candidate
}

func (e *Extractor) runOCR(ctx context.Context, path, workDir string) Candidate {
	text, err := e.ocr.Recognize(ctx, path, workDir)
	candidate := Candidate{Method: MethodOCR}
	if err != nil {
		candidate.Err = err.Error()
		return candidate
	}
	candidate.text = text
	candidate.Quality = MeasureQuality(text, 0, false)
	return candidate
}

func selectBest(candidates []Candidate) (Candidate, bool) {
	var best Candidate
	found := false
	for _, candidate := range candidates {
		if candidate.Err != "" || strings.TrimSpace(candidate.text) == "" {
			continue
		}
		if !found || better(candidate, best) {
			best = candidate
			found = true
		}
	}
	return best, found
}

func better(a, b Candidate) bool {
	as, bs := a.Quality.Score(), b.Quality.Score()
	if as != bs {
		return as > bs
	}
	return methodPrecedence[a.Method] < methodPrecedence[b.Method]
}

func summarizeFailures(candidates []Candidate) string {
	var parts []string
	for _, candidate := range candidates {
		if candidate.Err != "" {
			parts = append(parts, candidate.Method+": "+candidate.Err)
		}
	}
	if len(parts) == 0 {
		return "no applicable strategies"
	}
	return strings.Join(parts, "; ")
}
