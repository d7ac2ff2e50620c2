package daemon

import (
	"log/slog"
	"strings"

	"docket/internal/audit"
	"docket/internal/catalog"
	"docket/internal/config"
	"docket/internal/extraction"
	"docket/internal/notifications"
	"docket/internal/queue"
	"docket/internal/services/llm"
	"docket/internal/services/ocr"
	"docket/internal/structuring"
	"docket/internal/triage"
	"docket/internal/watcher"
)

// Services bundles the pipeline collaborators behind the daemon.
type Services struct {
	Recorder  *audit.Recorder
	Catalog   *catalog.Store
	Watcher   *watcher.Watcher
	Processor *triage.Processor
}

// BuildServices constructs the watcher and the triage processor with their
// collaborators from configuration. The OCR path is wired only when the
// binary is actually on PATH; the structuring model only when enabled.
func BuildServices(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Services, error) {
	recorder, err := audit.NewRecorder(store)
	if err != nil {
		return nil, err
	}

	catalogStore, err := catalog.Open(cfg)
	if err != nil {
		return nil, err
	}

	var ocrService *ocr.Service
	if candidate := ocr.NewService(ocr.Config{
		Binary:         cfg.OCR.Binary,
		Languages:      strings.Join(cfg.OCR.Languages, "+"),
		TimeoutSeconds: cfg.OCR.TimeoutSeconds,
	}); candidate.Available() {
		ocrService = candidate
	}

	var completer structuring.Completer
	if cfg.Structuring.Enabled {
		completer = llm.NewClient(llm.Config{
			APIKey:         cfg.Structuring.APIKey,
			BaseURL:        cfg.Structuring.BaseURL,
			Model:          cfg.Structuring.Model,
			TimeoutSeconds: cfg.Structuring.TimeoutSeconds,
		})
	}

	extractor := extraction.NewExtractor(ocrService, logger)
	structurer := structuring.NewStructurer(completer, cfg.Structuring.ReviewThreshold, logger)
	processor := triage.NewProcessor(cfg, store, recorder, extractor, structurer, catalogStore, logger)
	processor.SetNotifier(notifications.NewService(cfg))

	return &Services{
		Recorder:  recorder,
		Catalog:   catalogStore,
		Watcher:   watcher.New(cfg, store, recorder, logger),
		Processor: processor,
	}, nil
}

// Close releases the catalog connection.
func (s *Services) Close() error {
	if s.Catalog != nil {
		return s.Catalog.Close()
	}
	return nil
}
