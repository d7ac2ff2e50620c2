package triage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docket/internal/audit"
	"docket/internal/catalog"
	"docket/internal/config"
	"docket/internal/extraction"
	"docket/internal/fileutil"
	"docket/internal/queue"
	"docket/internal/structuring"
)

type harness struct {
	processor *Processor
	cfg       *config.Config
	store     *queue.Store
	recorder  *audit.Recorder
	catalog   *catalog.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	cfgVal := config.Default()
	cfg := &cfgVal
	cfg.Paths.InboxDir = filepath.Join(root, "inbox")
	cfg.Paths.StagingDir = filepath.Join(root, "staging")
	cfg.Paths.HoldingDir = filepath.Join(root, "holding")
	cfg.Paths.ArchiveDir = filepath.Join(root, "archive")
	cfg.Paths.DataDir = filepath.Join(root, "data")
	cfg.Triage.MaxAttempts = 3
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	store, err := queue.OpenPath(filepath.Join(cfg.Paths.DataDir, "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	recorder, err := audit.NewRecorder(store)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	catalogStore, err := catalog.OpenPath(filepath.Join(cfg.Paths.DataDir, "catalog.db"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { _ = catalogStore.Close() })

	extractor := extraction.NewExtractor(nil, nil)
	structurer := structuring.NewStructurer(nil, 0.7, nil)
	processor := NewProcessor(cfg, store, recorder, extractor, structurer, catalogStore, nil)

	return &harness{
		processor: processor,
		cfg:       cfg,
		store:     store,
		recorder:  recorder,
		catalog:   catalogStore,
	}
}

func (h *harness) stage(t *testing.T, name, content string) *queue.Item {
	t.Helper()
	path := filepath.Join(h.cfg.Paths.StagingDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write staging file: %v", err)
	}
	item, err := h.store.NewItem(context.Background(), filepath.Join(h.cfg.Paths.InboxDir, name), path)
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	return item
}

const invoiceText = "Invoice #2041\nInvoice date: 2024-03-15\nAmount due: 120.00 EUR\nPayment due within 30 days.\n"

func TestSweepArchivesDocument(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	item := h.stage(t, "invoice.txt", invoiceText)

	if err := h.processor.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	got, err := h.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s (%s)", got.Status, got.ErrorMessage)
	}
	if got.FiledPath == "" {
		t.Fatal("no archive path recorded")
	}
	if _, err := os.Stat(got.FiledPath); err != nil {
		t.Fatalf("archive copy missing: %v", err)
	}
	if !strings.HasPrefix(got.FiledPath, h.cfg.Paths.ArchiveDir) {
		t.Fatalf("filed outside archive: %s", got.FiledPath)
	}
	if _, err := os.Stat(item.StagingPath); !os.IsNotExist(err) {
		t.Fatal("staging copy should be removed after archival")
	}

	doc, err := h.catalog.GetByContentKey(ctx, got.ContentKey)
	if err != nil {
		t.Fatalf("catalog lookup: %v", err)
	}
	if doc.Category != structuring.CategoryInvoice {
		t.Fatalf("expected invoice category, got %s", doc.Category)
	}
	if doc.FiledPath != got.FiledPath {
		t.Fatalf("catalog path mismatch: %s vs %s", doc.FiledPath, got.FiledPath)
	}

	entries, err := h.recorder.List(ctx, audit.Query{ItemID: item.ID})
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	events := make(map[string]bool)
	for _, entry := range entries {
		events[entry.EventType] = true
	}
	for _, want := range []string{audit.EventStageStarted, audit.EventStageSucceeded, audit.EventArchived} {
		if !events[want] {
			t.Fatalf("missing audit event %s in %+v", want, entries)
		}
	}
}

func TestSweepRoutesFailureToHolding(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	// Invalid UTF-8 makes plain text extraction fail outright.
	item := h.stage(t, "garbled.txt", string([]byte{0xff, 0xfe, 0xfd, 0x00, 0x01}))

	if err := h.processor.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	got, err := h.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Fatal("failure reason should be recorded")
	}
	if filepath.Dir(got.StagingPath) != h.cfg.Paths.HoldingDir {
		t.Fatalf("file should land in holding, got %s", got.StagingPath)
	}
	if _, err := os.Stat(got.StagingPath); err != nil {
		t.Fatalf("held file missing: %v", err)
	}

	entries, err := h.recorder.List(ctx, audit.Query{ItemID: item.ID, EventType: audit.EventHeld})
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one held event, got %d", len(entries))
	}

	// A later sweep must not resurrect the failed item.
	if err := h.processor.Sweep(ctx); err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	again, err := h.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if again.Status != queue.StatusFailed || again.Attempts != got.Attempts {
		t.Fatal("failed item must stay put without operator retry")
	}
}

func TestSweepIsIdempotentForSameContent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.stage(t, "invoice.txt", invoiceText)
	if err := h.processor.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	firstDone, err := h.store.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	second := h.stage(t, "invoice-copy.txt", invoiceText)
	if err := h.processor.Sweep(ctx); err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	secondDone, err := h.store.GetByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if secondDone.Status != queue.StatusSucceeded {
		t.Fatalf("re-drop should succeed, got %s (%s)", secondDone.Status, secondDone.ErrorMessage)
	}
	if secondDone.ContentKey != firstDone.ContentKey {
		t.Fatal("identical bytes must share a content key")
	}

	if count, err := h.catalog.Count(ctx); err != nil {
		t.Fatalf("catalog count: %v", err)
	} else if count != 1 {
		t.Fatalf("identical content should collapse to one catalog row, got %d", count)
	}
}

func TestSweepFlagsNearDuplicateForReview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.stage(t, "invoice.txt", invoiceText)
	if err := h.processor.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	firstDone, err := h.store.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if firstDone.NeedsReview {
		t.Fatalf("first document should not need review: %s", firstDone.ReviewReason)
	}

	// A re-scan: different bytes, nearly identical text.
	rescan := h.stage(t, "invoice-rescan.txt", invoiceText+"Scanned copy.\n")
	if err := h.processor.Sweep(ctx); err != nil {
		t.Fatalf("second Sweep: %v", err)
	}

	got, err := h.store.GetByID(ctx, rescan.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusSucceeded {
		t.Fatalf("re-scan should still archive, got %s (%s)", got.Status, got.ErrorMessage)
	}
	if !got.NeedsReview {
		t.Fatal("re-scan should be flagged for review")
	}
	if !strings.Contains(got.ReviewReason, "closely matches") {
		t.Fatalf("unexpected review reason: %s", got.ReviewReason)
	}
}

func TestReconcileAdoptsOrphanStagingFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// A crash between relocation and enqueue leaves a file the queue has
	// never seen.
	orphan := filepath.Join(h.cfg.Paths.StagingDir, "orphan.txt")
	if err := os.WriteFile(orphan, []byte(invoiceText), 0o644); err != nil {
		t.Fatalf("write orphan: %v", err)
	}

	if err := h.processor.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	items, err := h.store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected adopted item, got %d", len(items))
	}
	if items[0].Status != queue.StatusSucceeded {
		t.Fatalf("adopted item should process to completion, got %s (%s)", items[0].Status, items[0].ErrorMessage)
	}
}

func TestReconcileSkipsTransientStagingFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	names := []string{"draft.pdf.tmp", "invoice.txt" + fileutil.MovingSuffix, ".partial-upload"}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(h.cfg.Paths.StagingDir, name), []byte("half-written"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	if err := h.processor.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	items, err := h.store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("transient files must not be adopted: %+v", items)
	}
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(h.cfg.Paths.StagingDir, name)); err != nil {
			t.Fatalf("transient file must be left in place: %v", err)
		}
	}
}

func TestReconcileFailsItemWithMissingStagingFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	item := h.stage(t, "vanishing.txt", invoiceText)
	if err := os.Remove(item.StagingPath); err != nil {
		t.Fatalf("remove staging file: %v", err)
	}

	if err := h.processor.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	got, err := h.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if !strings.Contains(got.ErrorMessage, "disappeared") {
		t.Fatalf("unexpected reason: %s", got.ErrorMessage)
	}
}

func TestAttemptLimitRoutesToHolding(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cfg.Triage.MaxAttempts = 2

	item := h.stage(t, "looping.txt", invoiceText)

	// Simulate a crash loop: the item keeps getting claimed but never
	// reaches a terminal status.
	for i := 0; i < 2; i++ {
		claimed, err := h.store.MarkProcessing(ctx, item.ID)
		if err != nil || claimed == nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
		if _, err := h.store.RecoverStuckProcessing(ctx); err != nil {
			t.Fatalf("recover: %v", err)
		}
	}

	if err := h.processor.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	got, err := h.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusFailed {
		t.Fatalf("expected failed after attempt cap, got %s", got.Status)
	}
	if !strings.Contains(got.ErrorMessage, "attempt limit") {
		t.Fatalf("unexpected reason: %s", got.ErrorMessage)
	}
	if filepath.Dir(got.StagingPath) != h.cfg.Paths.HoldingDir {
		t.Fatalf("file should land in holding, got %s", got.StagingPath)
	}
}

func TestOperatorRetryReentersPipeline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	item := h.stage(t, "garbled.txt", string([]byte{0xff, 0xfe, 0x00}))
	if err := h.processor.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	held, err := h.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if held.Status != queue.StatusFailed {
		t.Fatalf("expected failed, got %s", held.Status)
	}

	// Operator fixes the document in place, then retries.
	if err := os.WriteFile(held.StagingPath, []byte(invoiceText), 0o644); err != nil {
		t.Fatalf("repair held file: %v", err)
	}
	if _, err := h.store.RetryFailed(ctx, item.ID); err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}

	if err := h.processor.Sweep(ctx); err != nil {
		t.Fatalf("retry Sweep: %v", err)
	}

	got, err := h.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusSucceeded {
		t.Fatalf("retried item should succeed, got %s (%s)", got.Status, got.ErrorMessage)
	}
	// Content key changed with the repaired bytes.
	if got.ContentKey == held.ContentKey && held.ContentKey != "" {
		t.Fatal("content key should reflect the repaired file")
	}
}

func TestHealthCoversEveryStage(t *testing.T) {
	h := newHarness(t)
	health := h.processor.Health(context.Background())
	if len(health) != 3 {
		t.Fatalf("expected 3 stage reports, got %d", len(health))
	}
	names := make(map[string]bool)
	for _, entry := range health {
		names[entry.Name] = true
		if !entry.Ready {
			t.Fatalf("stage %s unexpectedly unhealthy: %s", entry.Name, entry.Detail)
		}
	}
	for _, want := range []string{"extraction", "structuring", "filing"} {
		if !names[want] {
			t.Fatalf("missing stage %s", want)
		}
	}
}
