package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"docket/internal/audit"
	"docket/internal/config"
	"docket/internal/fileutil"
	"docket/internal/logging"
	"docket/internal/queue"
)

// Watcher observes the inbox directory and relocates fully-written files into
// staging, enqueueing one item per file. Detection uses filesystem events
// when the platform delivers them plus a periodic rescan that catches files
// dropped while events were lost.
type Watcher struct {
	cfg      *config.Config
	store    *queue.Store
	recorder *audit.Recorder
	logger   *slog.Logger

	// seen tracks inbox paths already announced as detected, so a file that
	// needs several stability passes is not re-announced every rescan. Only
	// the Run loop touches it.
	seen map[string]struct{}
}

// New constructs a watcher.
func New(cfg *config.Config, store *queue.Store, recorder *audit.Recorder, logger *slog.Logger) *Watcher {
	return &Watcher{
		cfg:      cfg,
		store:    store,
		recorder: recorder,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		seen:     make(map[string]struct{}),
	}
}

// Run blocks until ctx is canceled. Events and rescans funnel through a
// single loop, so a file is only ever staged once.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.Paths.InboxDir, 0o755); err != nil {
		return fmt.Errorf("ensure inbox: %w", err)
	}
	if err := os.MkdirAll(w.cfg.Paths.StagingDir, 0o755); err != nil {
		return fmt.Errorf("ensure staging: %w", err)
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("filesystem events unavailable, relying on rescan", logging.Error(err))
	} else {
		defer notifier.Close()
		if err := notifier.Add(w.cfg.Paths.InboxDir); err != nil {
			w.logger.Warn("cannot watch inbox, relying on rescan", logging.Error(err))
		}
	}

	rescan := time.NewTicker(w.rescanInterval())
	defer rescan.Stop()

	// Pick up anything already sitting in the inbox.
	w.scanInbox(ctx)

	var events chan fsnotify.Event
	var errs chan error
	if notifier != nil {
		events = notifier.Events
		errs = notifier.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.considerFile(ctx, event.Name)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Warn("watch error", logging.Error(err))
		case <-rescan.C:
			w.scanInbox(ctx)
		}
	}
}

// ScanOnce performs a single inbox sweep. Used by tests and the CLI.
func (w *Watcher) ScanOnce(ctx context.Context) {
	w.scanInbox(ctx)
}

func (w *Watcher) scanInbox(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.Paths.InboxDir)
	if err != nil {
		w.logger.Warn("inbox scan failed", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() {
			continue
		}
		w.considerFile(ctx, filepath.Join(w.cfg.Paths.InboxDir, entry.Name()))
	}
}

func (w *Watcher) considerFile(ctx context.Context, path string) {
	name := filepath.Base(path)
	if w.shouldIgnore(name) {
		return
	}
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		delete(w.seen, path)
		return
	}

	if _, announced := w.seen[path]; !announced {
		w.seen[path] = struct{}{}
		w.logger.Info("file detected", logging.String(logging.FieldSourceFile, path))
		w.record(ctx, audit.Entry{EventType: audit.EventDetected, Detail: path})
	}

	if err := w.waitForStability(ctx, path); err != nil {
		w.logger.Debug("file not stable yet, leaving for next pass",
			logging.String(logging.FieldSourceFile, path), logging.Error(err))
		return
	}

	item, stagingPath, err := w.stageFile(ctx, path)
	if err != nil {
		w.logger.Error("staging failed",
			logging.String(logging.FieldSourceFile, path), logging.Error(err))
		w.record(ctx, audit.Entry{
			EventType: audit.EventStaged,
			Outcome:   audit.OutcomeFailure,
			Detail:    fmt.Sprintf("%s: %v", path, err),
		})
		return
	}

	delete(w.seen, path)
	w.logger.Info("file staged",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldSourceFile, path),
		logging.String(logging.FieldStagingFile, stagingPath),
	)
	w.record(ctx, audit.Entry{EventType: audit.EventStaged, ItemID: item.ID, Detail: stagingPath})
}

func (w *Watcher) shouldIgnore(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return true
	}
	lower := strings.ToLower(name)
	for _, suffix := range w.cfg.Watcher.IgnoreSuffixes {
		if suffix != "" && strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

// maxStabilityResets caps how often a file may change under probing before the
// watcher gives up on it for this pass.
const maxStabilityResets = 3

// waitForStability requires the file's size and mtime to hold still for the
// configured number of consecutive probes before staging. A file that keeps
// changing is abandoned after a few resets and left for a later rescan, so one
// slow producer cannot block the watch loop.
func (w *Watcher) waitForStability(ctx context.Context, path string) error {
	checks := w.cfg.Watcher.StabilityChecks
	if checks < 1 {
		checks = 1
	}
	probe := time.Duration(w.cfg.Watcher.StabilityProbeInterval) * time.Millisecond
	if probe <= 0 {
		probe = 250 * time.Millisecond
	}

	var lastSize int64 = -1
	var lastMod time.Time
	stable := 0
	resets := 0

	for stable < checks {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("probe file: %w", err)
		}
		if info.Size() == lastSize && info.ModTime().Equal(lastMod) {
			stable++
		} else {
			if lastSize >= 0 {
				resets++
				if resets > maxStabilityResets {
					return fmt.Errorf("still being written after %d probes", resets)
				}
			}
			stable = 0
			lastSize = info.Size()
			lastMod = info.ModTime()
		}
		if stable >= checks {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(probe):
		}
	}
	return nil
}

// stageFile relocates the file into staging under a collision-free name and
// creates the queue item. The file leaves the inbox only through this rename,
// so no copy ever exists in both directories.
func (w *Watcher) stageFile(ctx context.Context, path string) (*queue.Item, string, error) {
	stagingPath := fileutil.UniquePath(w.cfg.Paths.StagingDir, filepath.Base(path))
	if err := fileutil.MoveFile(path, stagingPath); err != nil {
		return nil, "", fmt.Errorf("move to staging: %w", err)
	}

	item, err := w.store.NewItem(ctx, path, stagingPath)
	if err != nil {
		// The file is safe in staging; the triage reconciler will adopt it.
		return nil, "", fmt.Errorf("enqueue staged file: %w", err)
	}
	return item, stagingPath, nil
}

func (w *Watcher) record(ctx context.Context, entry audit.Entry) {
	if w.recorder == nil {
		return
	}
	if err := w.recorder.Record(ctx, entry); err != nil {
		w.logger.Warn("audit write failed", logging.Error(err))
	}
}

func (w *Watcher) rescanInterval() time.Duration {
	if w.cfg.Watcher.RescanInterval > 0 {
		return time.Duration(w.cfg.Watcher.RescanInterval) * time.Second
	}
	return 30 * time.Second
}
