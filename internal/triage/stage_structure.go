package triage

import (
	"context"
	"fmt"
	"path/filepath"

	"docket/internal/queue"
	"docket/internal/services"
	"docket/internal/stage"
	"docket/internal/structuring"
	"docket/internal/textutil"
)

// nearDuplicateThreshold is the cosine similarity above which a document is
// considered a probable re-scan of an already archived one.
const nearDuplicateThreshold = 0.92

// structureStage derives the filing record from extracted text. Ambiguity is
// not failure here: an Unclassified or low-confidence record flags the item
// for review and the pipeline continues. The stage also compares the text
// against already archived documents to catch re-scans that slipped past the
// content key.
type structureStage struct {
	structurer *structuring.Structurer
	store      *queue.Store
}

func (s *structureStage) Name() string { return "structuring" }

func (s *structureStage) Prepare(ctx context.Context, item *queue.Item) error {
	if item.ExtractedText == "" {
		return services.Wrap(services.ErrValidation, s.Name(), "prepare", "no extracted text on item", nil)
	}
	return nil
}

func (s *structureStage) Execute(ctx context.Context, item *queue.Item) error {
	result, err := s.structurer.Structure(ctx, item.ExtractedText, originalName(item))
	if err != nil {
		return err
	}

	encoded, err := structuring.EncodeRecord(result.Record)
	if err != nil {
		return services.Wrap(services.ErrValidation, s.Name(), "encode", "cannot persist record", err)
	}
	item.RecordJSON = encoded
	if result.NeedsReview {
		item.NeedsReview = true
		item.ReviewReason = result.ReviewReason
	}

	if !item.NeedsReview {
		if dupID, ok, err := s.findNearDuplicate(ctx, item); err == nil && ok {
			item.NeedsReview = true
			item.ReviewReason = fmt.Sprintf("text closely matches archived item %d", dupID)
		}
	}
	return nil
}

// findNearDuplicate compares the item's extracted text against succeeded
// items. Exact duplicates share a content key and are handled by filing;
// this catches re-scans, where the bytes differ but the text barely does.
func (s *structureStage) findNearDuplicate(ctx context.Context, item *queue.Item) (int64, bool, error) {
	if s.store == nil {
		return 0, false, nil
	}
	fingerprint := textutil.NewFingerprint(item.ExtractedText)
	if fingerprint == nil {
		return 0, false, nil
	}

	archived, err := s.store.ItemsByStatus(ctx, queue.StatusSucceeded)
	if err != nil {
		return 0, false, err
	}
	for _, other := range archived {
		if other.ID == item.ID || other.ContentKey == item.ContentKey {
			continue
		}
		score := textutil.CosineSimilarity(fingerprint, textutil.NewFingerprint(other.ExtractedText))
		if score >= nearDuplicateThreshold {
			return other.ID, true, nil
		}
	}
	return 0, false, nil
}

func (s *structureStage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(s.Name())
}

func originalName(item *queue.Item) string {
	if item.SourcePath != "" {
		return filepath.Base(item.SourcePath)
	}
	return filepath.Base(item.StagingPath)
}
