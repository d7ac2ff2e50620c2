package queue

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewItemStartsStaged(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "/inbox/invoice.pdf", "/staging/invoice.pdf")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	if item.Status != StatusStaged {
		t.Fatalf("expected staged, got %s", item.Status)
	}
	if item.Attempts != 0 {
		t.Fatalf("expected zero attempts, got %d", item.Attempts)
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Fatal("timestamps should be populated")
	}
}

func TestMarkProcessingClaimsOnce(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "", "/staging/doc.pdf")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}

	claimed, err := store.MarkProcessing(ctx, item.ID)
	if err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if claimed == nil {
		t.Fatal("first claim should succeed")
	}
	if claimed.Status != StatusProcessing {
		t.Fatalf("expected processing, got %s", claimed.Status)
	}
	if claimed.Attempts != 1 {
		t.Fatalf("claim should increment attempts, got %d", claimed.Attempts)
	}

	again, err := store.MarkProcessing(ctx, item.ID)
	if err != nil {
		t.Fatalf("second MarkProcessing: %v", err)
	}
	if again != nil {
		t.Fatal("second claim should return nil, item no longer staged")
	}
}

func TestUpdateRoundTripsFields(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "/inbox/a.txt", "/staging/a.txt")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}

	item.ContentKey = "abc123"
	item.Status = StatusSucceeded
	item.ExtractedText = "hello world"
	item.ExtractionMethod = "plain_text"
	item.RecordJSON = `{"category":"Invoice"}`
	item.FiledPath = "/archive/Invoice/2026/2026-08/doc.txt"
	item.NeedsReview = true
	item.ReviewReason = "low confidence"
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ContentKey != "abc123" || got.Status != StatusSucceeded {
		t.Fatalf("unexpected item: %+v", got)
	}
	if got.ExtractedText != "hello world" || got.ExtractionMethod != "plain_text" {
		t.Fatalf("extraction fields lost: %+v", got)
	}
	if got.FiledPath == "" || !got.NeedsReview || got.ReviewReason != "low confidence" {
		t.Fatalf("review fields lost: %+v", got)
	}
}

func TestFindByStagingPathAndContentKey(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "", "/staging/report.docx")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	item.ContentKey = "deadbeef"
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	byPath, err := store.FindByStagingPath(ctx, "/staging/report.docx")
	if err != nil {
		t.Fatalf("FindByStagingPath: %v", err)
	}
	if byPath == nil || byPath.ID != item.ID {
		t.Fatal("expected to find item by staging path")
	}

	byKey, err := store.FindByContentKey(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("FindByContentKey: %v", err)
	}
	if byKey == nil || byKey.ID != item.ID {
		t.Fatal("expected to find item by content key")
	}

	missing, err := store.FindByStagingPath(ctx, "/staging/other")
	if err != nil {
		t.Fatalf("FindByStagingPath miss: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown staging path")
	}
}

func TestRetryFailedResetsAttempts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "", "/staging/x.pdf")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	if _, err := store.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	item, err = store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	item.SetFailed("extraction produced no text")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 retried item, got %d", count)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusStaged || got.Attempts != 0 || got.ErrorMessage != "" {
		t.Fatalf("retry should reset item: %+v", got)
	}
}

func TestRecoverStuckProcessing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "", "/staging/y.pdf")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	if _, err := store.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	recovered, err := store.RecoverStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("RecoverStuckProcessing: %v", err)
	}
	if recovered != 1 {
		t.Fatalf("expected 1 recovered item, got %d", recovered)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusStaged {
		t.Fatalf("expected staged after recovery, got %s", got.Status)
	}
	if got.Attempts != 1 {
		t.Fatalf("recovery keeps the attempt count, got %d", got.Attempts)
	}
}

func TestHistoryIsAppendOnlyOrdered(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "", "/staging/z.txt")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}

	steps := []struct{ stage, event string }{
		{"extraction", HistoryStarted},
		{"extraction", HistorySucceeded},
		{"structuring", HistoryStarted},
		{"structuring", HistoryFailed},
	}
	for _, step := range steps {
		if err := store.AppendHistory(ctx, item.ID, step.stage, step.event, ""); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	entries, err := store.History(ctx, item.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != len(steps) {
		t.Fatalf("expected %d entries, got %d", len(steps), len(entries))
	}
	for i, step := range steps {
		if entries[i].Stage != step.stage || entries[i].Event != step.event {
			t.Fatalf("entry %d out of order: %+v", i, entries[i])
		}
	}
}

func TestHealthCountsByStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	staged, err := store.NewItem(ctx, "", "/staging/1")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	_ = staged

	failed, err := store.NewItem(ctx, "", "/staging/2")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	failed.SetFailed("boom")
	failed.NeedsReview = true
	failed.ReviewReason = "needs a human"
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 2 || health.Staged != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health: %+v", health)
	}
	if health.Review != 1 {
		t.Fatalf("expected one review item, got %d", health.Review)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus(" Staged "); !ok || status != StatusStaged {
		t.Fatalf("ParseStatus failed: %s %v", status, ok)
	}
	if _, ok := ParseStatus("nonsense"); ok {
		t.Fatal("unknown status should not parse")
	}
}
