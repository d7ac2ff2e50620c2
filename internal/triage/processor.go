package triage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docket/internal/audit"
	"docket/internal/catalog"
	"docket/internal/config"
	"docket/internal/extraction"
	"docket/internal/fileutil"
	"docket/internal/filing"
	"docket/internal/logging"
	"docket/internal/notifications"
	"docket/internal/queue"
	"docket/internal/services"
	"docket/internal/stage"
	"docket/internal/structuring"
)

// Processor owns the staging queue. On a fixed cadence it reconciles the
// staging directory against the queue, then runs each staged item through
// the pipeline stages. Sweeps never overlap: the loop does the work inline,
// so a long sweep simply delays the next tick.
type Processor struct {
	cfg      *config.Config
	store    *queue.Store
	recorder *audit.Recorder
	stages   []stage.Handler
	notifier notifications.Service
	logger   *slog.Logger
}

// SetNotifier attaches an operator notification service. Without one,
// terminal routing is silent.
func (p *Processor) SetNotifier(notifier notifications.Service) {
	p.notifier = notifier
}

// NewProcessor wires the pipeline stages in their fixed order.
func NewProcessor(
	cfg *config.Config,
	store *queue.Store,
	recorder *audit.Recorder,
	extractor *extraction.Extractor,
	structurer *structuring.Structurer,
	catalogStore *catalog.Store,
	logger *slog.Logger,
) *Processor {
	workDir := filepath.Join(cfg.Paths.DataDir, "work")
	return &Processor{
		cfg:      cfg,
		store:    store,
		recorder: recorder,
		stages: []stage.Handler{
			&extractStage{extractor: extractor, workDir: workDir},
			&structureStage{structurer: structurer, store: store},
			&fileStage{archiveRoot: cfg.Paths.ArchiveDir, catalog: catalogStore},
		},
		logger: logging.NewComponentLogger(logger, "triage"),
	}
}

// Run blocks until ctx is canceled, sweeping on the configured interval.
func (p *Processor) Run(ctx context.Context) error {
	if recovered, err := p.store.RecoverStuckProcessing(ctx); err != nil {
		return fmt.Errorf("recover interrupted items: %w", err)
	} else if recovered > 0 {
		p.logger.Info("recovered interrupted items", logging.Int64("count", recovered))
	}

	interval := p.sweepInterval()
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if err := p.Sweep(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("sweep failed", logging.Error(err))
			timer.Reset(p.errorRetryInterval())
			continue
		}
		timer.Reset(interval)
	}
}

// Sweep performs one reconcile-and-process pass.
func (p *Processor) Sweep(ctx context.Context) error {
	if err := p.reconcile(ctx); err != nil {
		return err
	}

	items, err := p.store.ItemsByStatus(ctx, queue.StatusStaged)
	if err != nil {
		return fmt.Errorf("list staged items: %w", err)
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// One bad document never stops the sweep; its failure is recorded on
		// the item itself.
		p.processItem(ctx, item.ID)
	}
	return nil
}

// reconcile adopts staging files the queue does not know about (a crash
// between relocation and enqueue) and fails queue rows whose staging file
// disappeared underneath them.
func (p *Processor) reconcile(ctx context.Context) error {
	entries, err := os.ReadDir(p.cfg.Paths.StagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(p.cfg.Paths.StagingDir, 0o755)
		}
		return fmt.Errorf("read staging dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || p.transientName(entry.Name()) {
			continue
		}
		path := filepath.Join(p.cfg.Paths.StagingDir, entry.Name())
		existing, err := p.store.FindByStagingPath(ctx, path)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		item, err := p.store.NewItem(ctx, "", path)
		if err != nil {
			return fmt.Errorf("adopt orphan staging file: %w", err)
		}
		p.logger.Info("adopted orphan staging file",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String(logging.FieldStagingFile, path),
		)
		p.record(ctx, audit.Entry{EventType: audit.EventStaged, ItemID: item.ID, Detail: path + " (adopted)"})
	}

	staged, err := p.store.ItemsByStatus(ctx, queue.StatusStaged)
	if err != nil {
		return err
	}
	for _, item := range staged {
		if item.StagingPath == "" {
			continue
		}
		if _, err := os.Stat(item.StagingPath); os.IsNotExist(err) {
			item.SetFailed("staging file disappeared")
			if err := p.store.Update(ctx, item); err != nil {
				return err
			}
			p.record(ctx, audit.Entry{
				EventType: audit.EventStageFailed,
				ItemID:    item.ID,
				Outcome:   audit.OutcomeFailure,
				Detail:    "staging file disappeared",
			})
		}
	}
	return nil
}

// transientName reports whether a staging entry is still being written and
// must not be adopted: hidden files, half-moved cross-device copies, and
// anything carrying a configured transient suffix.
func (p *Processor) transientName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return true
	}
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, fileutil.MovingSuffix) {
		return true
	}
	for _, suffix := range p.cfg.Watcher.IgnoreSuffixes {
		if suffix != "" && strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

func (p *Processor) processItem(ctx context.Context, id int64) {
	item, err := p.store.MarkProcessing(ctx, id)
	if err != nil {
		p.logger.Error("claim failed", logging.Int64(logging.FieldItemID, id), logging.Error(err))
		return
	}
	if item == nil {
		// Someone else moved the item on; nothing to do.
		return
	}

	logger := p.logger.With(logging.Int64(logging.FieldItemID, item.ID))

	if max := p.cfg.Triage.MaxAttempts; max > 0 && item.Attempts > max {
		logger.Warn("attempt limit exceeded", logging.Int("attempts", item.Attempts))
		p.failAndHold(ctx, item, fmt.Sprintf("attempt limit exceeded (%d)", item.Attempts))
		return
	}

	for _, handler := range p.stages {
		if err := p.runStage(ctx, handler, item); err != nil {
			logger.Error("stage failed",
				logging.String(logging.FieldStage, handler.Name()),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
				logging.Error(err),
			)
			p.failAndHold(ctx, item, err.Error())
			return
		}
	}

	if err := p.finalize(ctx, item); err != nil {
		logger.Error("finalize failed", logging.Error(err))
		p.failAndHold(ctx, item, err.Error())
		return
	}

	logger.Info("document archived",
		logging.String(logging.FieldContentKey, item.ContentKey),
		logging.String("filed_path", item.FiledPath),
		logging.Bool("needs_review", item.NeedsReview),
	)
	p.notifyArchived(ctx, item)
}

func (p *Processor) notifyArchived(ctx context.Context, item *queue.Item) {
	if p.notifier == nil {
		return
	}
	name := filepath.Base(item.FiledPath)
	var err error
	if item.NeedsReview {
		err = p.notifier.NotifyReviewNeeded(ctx, name, item.ReviewReason)
	} else {
		category := ""
		if record, decodeErr := structuring.DecodeRecord(item.RecordJSON); decodeErr == nil {
			category = record.Category
		}
		err = p.notifier.NotifyDocumentArchived(ctx, name, category, item.FiledPath)
	}
	if err != nil {
		p.logger.Warn("notification failed", logging.Error(err))
	}
}

func (p *Processor) runStage(ctx context.Context, handler stage.Handler, item *queue.Item) error {
	name := handler.Name()
	stageCtx := services.WithStage(services.WithItemID(ctx, item.ID), name)

	_ = p.store.AppendHistory(ctx, item.ID, name, queue.HistoryStarted, "")
	p.record(ctx, audit.Entry{EventType: audit.EventStageStarted, ItemID: item.ID, ContentKey: item.ContentKey, Detail: name})

	if err := handler.Prepare(stageCtx, item); err != nil {
		p.recordStageFailure(ctx, item, name, err)
		return err
	}
	if err := handler.Execute(stageCtx, item); err != nil {
		p.recordStageFailure(ctx, item, name, err)
		return err
	}
	if err := p.store.Update(ctx, item); err != nil {
		p.recordStageFailure(ctx, item, name, err)
		return fmt.Errorf("persist stage result: %w", err)
	}

	_ = p.store.AppendHistory(ctx, item.ID, name, queue.HistorySucceeded, "")
	p.record(ctx, audit.Entry{EventType: audit.EventStageSucceeded, ItemID: item.ID, ContentKey: item.ContentKey, Detail: name})
	return nil
}

func (p *Processor) recordStageFailure(ctx context.Context, item *queue.Item, name string, err error) {
	_ = p.store.AppendHistory(ctx, item.ID, name, queue.HistoryFailed, err.Error())
	p.record(ctx, audit.Entry{
		EventType:  audit.EventStageFailed,
		ItemID:     item.ID,
		ContentKey: item.ContentKey,
		Outcome:    audit.OutcomeFailure,
		Detail:     name + ": " + err.Error(),
	})
}

// finalize removes the staging copy, but only after confirming the archive
// copy actually exists. A document is never deleted before its archive copy
// is in place.
func (p *Processor) finalize(ctx context.Context, item *queue.Item) error {
	if item.FiledPath == "" {
		return fmt.Errorf("no archive path recorded")
	}
	if _, err := os.Stat(item.FiledPath); err != nil {
		return fmt.Errorf("archive copy not confirmed: %w", err)
	}

	if err := os.Remove(item.StagingPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove staging copy: %w", err)
	}

	item.Status = queue.StatusSucceeded
	item.ErrorMessage = ""
	if err := p.store.Update(ctx, item); err != nil {
		return fmt.Errorf("persist success: %w", err)
	}

	p.record(ctx, audit.Entry{
		EventType:  audit.EventArchived,
		ItemID:     item.ID,
		ContentKey: item.ContentKey,
		Detail:     item.FiledPath,
	})
	return nil
}

// failAndHold marks the item failed and moves its staging copy into the
// holding folder. Failed documents never re-enter the pipeline on their own
// and never get deleted.
func (p *Processor) failAndHold(ctx context.Context, item *queue.Item, reason string) {
	item.SetFailed(reason)

	if item.StagingPath != "" {
		if _, err := os.Stat(item.StagingPath); err == nil {
			if err := os.MkdirAll(p.cfg.Paths.HoldingDir, 0o755); err != nil {
				p.logger.Error("cannot create holding folder", logging.Error(err))
			} else {
				target := filing.HoldingPath(p.cfg.Paths.HoldingDir, item.StagingPath)
				dest := fileutil.UniquePath(filepath.Dir(target), filepath.Base(target))
				if err := fileutil.MoveFile(item.StagingPath, dest); err != nil {
					p.logger.Error("cannot move file to holding",
						logging.Int64(logging.FieldItemID, item.ID), logging.Error(err))
				} else {
					item.StagingPath = dest
				}
			}
		}
	}

	if err := p.store.Update(ctx, item); err != nil {
		p.logger.Error("persist failure state", logging.Int64(logging.FieldItemID, item.ID), logging.Error(err))
	}
	p.record(ctx, audit.Entry{
		EventType:  audit.EventHeld,
		ItemID:     item.ID,
		ContentKey: item.ContentKey,
		Outcome:    audit.OutcomeFailure,
		Detail:     reason,
	})
	if p.notifier != nil {
		if err := p.notifier.NotifyDocumentHeld(ctx, filepath.Base(item.StagingPath), reason); err != nil {
			p.logger.Warn("notification failed", logging.Error(err))
		}
	}
}

// Health reports the readiness of every pipeline stage.
func (p *Processor) Health(ctx context.Context) []stage.Health {
	health := make([]stage.Health, 0, len(p.stages))
	for _, handler := range p.stages {
		health = append(health, handler.HealthCheck(ctx))
	}
	return health
}

func (p *Processor) record(ctx context.Context, entry audit.Entry) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, entry); err != nil {
		p.logger.Warn("audit write failed", logging.Error(err))
	}
}

func (p *Processor) sweepInterval() time.Duration {
	if p.cfg.Triage.SweepInterval > 0 {
		return time.Duration(p.cfg.Triage.SweepInterval) * time.Second
	}
	return 15 * time.Second
}

func (p *Processor) errorRetryInterval() time.Duration {
	if p.cfg.Triage.ErrorRetryInterval > 0 {
		return time.Duration(p.cfg.Triage.ErrorRetryInterval) * time.Second
	}
	return 30 * time.Second
}
