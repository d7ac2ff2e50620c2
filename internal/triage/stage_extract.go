package triage

import (
	"context"
	"os"

	"docket/internal/extraction"
	"docket/internal/fileutil"
	"docket/internal/queue"
	"docket/internal/services"
	"docket/internal/stage"
)

// extractStage turns the staged file into text and pins the item to its
// content key.
type extractStage struct {
	extractor *extraction.Extractor
	workDir   string
}

func (s *extractStage) Name() string { return "extraction" }

func (s *extractStage) Prepare(ctx context.Context, item *queue.Item) error {
	if item.StagingPath == "" {
		return services.Wrap(services.ErrValidation, s.Name(), "prepare", "item has no staging file", nil)
	}
	if _, err := os.Stat(item.StagingPath); err != nil {
		return services.Wrap(services.ErrNotFound, s.Name(), "prepare", "staging file missing", err)
	}
	// Hash on every attempt: an operator may have repaired the file in
	// holding before retrying.
	key, err := fileutil.ContentKey(item.StagingPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, s.Name(), "prepare", "cannot hash staging file", err)
	}
	item.ContentKey = key
	return nil
}

func (s *extractStage) Execute(ctx context.Context, item *queue.Item) error {
	result, err := s.extractor.Extract(ctx, item.StagingPath, s.workDir)
	if err != nil {
		return err
	}
	item.ExtractedText = result.Text
	item.ExtractionMethod = result.Method
	return nil
}

func (s *extractStage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(s.Name())
}
