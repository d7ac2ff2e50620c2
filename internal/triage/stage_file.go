package triage

import (
	"context"
	"os"

	"docket/internal/catalog"
	"docket/internal/fileutil"
	"docket/internal/filing"
	"docket/internal/queue"
	"docket/internal/services"
	"docket/internal/stage"
	"docket/internal/structuring"
)

// fileStage writes the verified archive copy and registers the document in
// the catalog. The staging copy is untouched here; the processor removes it
// only after this stage has confirmed the archive copy exists.
type fileStage struct {
	archiveRoot string
	catalog     *catalog.Store
}

func (s *fileStage) Name() string { return "filing" }

func (s *fileStage) Prepare(ctx context.Context, item *queue.Item) error {
	if item.RecordJSON == "" {
		return services.Wrap(services.ErrValidation, s.Name(), "prepare", "no structuring record on item", nil)
	}
	if item.ContentKey == "" {
		return services.Wrap(services.ErrValidation, s.Name(), "prepare", "no content key on item", nil)
	}
	return nil
}

func (s *fileStage) Execute(ctx context.Context, item *queue.Item) error {
	record, err := structuring.DecodeRecord(item.RecordJSON)
	if err != nil {
		return services.Wrap(services.ErrValidation, s.Name(), "decode", "unreadable structuring record", err)
	}

	target := filing.Plan(s.archiveRoot, record, originalName(item), item.CreatedAt)
	if err := os.MkdirAll(target.Dir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, s.Name(), "mkdir", "cannot create archive folder", err)
	}

	dest, err := s.resolveDestination(target, item.ContentKey)
	if err != nil {
		return err
	}

	if dest.fresh {
		if err := fileutil.CopyFileVerified(item.StagingPath, dest.path); err != nil {
			return services.Wrap(services.ErrTransient, s.Name(), "copy", "archive copy failed verification", err)
		}
	}

	doc := catalog.FromRecord(item.ContentKey, originalName(item), record, item.NeedsReview, item.ReviewReason)
	doc.FiledPath = dest.path
	if _, err := s.catalog.Upsert(ctx, doc); err != nil {
		return services.Wrap(services.ErrPersistence, s.Name(), "catalog", "cannot register document", err)
	}

	item.FiledPath = dest.path
	return nil
}

type destination struct {
	path  string
	fresh bool
}

// resolveDestination handles re-runs and collisions. An archive file that
// already holds these exact bytes is reused; a different file under the
// planned name forces a unique name instead.
func (s *fileStage) resolveDestination(target filing.Target, contentKey string) (destination, error) {
	if _, err := os.Stat(target.Path); os.IsNotExist(err) {
		return destination{path: target.Path, fresh: true}, nil
	} else if err != nil {
		return destination{}, services.Wrap(services.ErrTransient, s.Name(), "stat", "cannot inspect archive target", err)
	}

	existingKey, err := fileutil.ContentKey(target.Path)
	if err != nil {
		return destination{}, services.Wrap(services.ErrTransient, s.Name(), "hash", "cannot hash archive target", err)
	}
	if existingKey == contentKey {
		return destination{path: target.Path, fresh: false}, nil
	}
	return destination{path: fileutil.UniquePath(target.Dir, target.Filename), fresh: true}, nil
}

func (s *fileStage) HealthCheck(ctx context.Context) stage.Health {
	if err := os.MkdirAll(s.archiveRoot, 0o755); err != nil {
		return stage.Unhealthy(s.Name(), "archive root unavailable: "+err.Error())
	}
	return stage.Healthy(s.Name())
}
