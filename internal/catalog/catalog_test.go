package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"docket/internal/structuring"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUpsertAssignsDocumentID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	doc, err := store.Upsert(ctx, Document{
		ContentKey:   "key-1",
		OriginalName: "invoice.pdf",
		Category:     structuring.CategoryInvoice,
		Tags:         []string{"office"},
		Confidence:   0.9,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if doc.DocumentID == "" {
		t.Fatal("document id should be assigned")
	}
	if doc.CreatedAt.IsZero() {
		t.Fatal("created_at should be set")
	}
}

func TestUpsertIsIdempotentPerContentKey(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.Upsert(ctx, Document{ContentKey: "same-bytes", Category: structuring.CategoryLetter})
	if err != nil {
		t.Fatalf("first Upsert: %v", err)
	}

	second, err := store.Upsert(ctx, Document{
		ContentKey: "same-bytes",
		Category:   structuring.CategoryLetter,
		FiledPath:  "/archive/Letter/2026/2026-08/letter.pdf",
	})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	if second.DocumentID != first.DocumentID {
		t.Fatalf("re-upsert must keep the document id: %s vs %s", second.DocumentID, first.DocumentID)
	}
	if second.FiledPath == "" {
		t.Fatal("re-upsert should refresh fields")
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single entry, got %d", count)
	}
}

func TestGetByContentKeyMissing(t *testing.T) {
	store := openTestStore(t)
	doc, err := store.GetByContentKey(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByContentKey: %v", err)
	}
	if doc != nil {
		t.Fatal("expected nil for unknown key")
	}
}

func TestListFiltersByCategory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Upsert(ctx, Document{ContentKey: "a", Category: structuring.CategoryInvoice}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := store.Upsert(ctx, Document{ContentKey: "b", Category: structuring.CategoryReceipt}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	docs, err := store.List(ctx, structuring.CategoryReceipt, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 || docs[0].ContentKey != "b" {
		t.Fatalf("unexpected list result: %+v", docs)
	}
}

func TestFromRecord(t *testing.T) {
	record := structuring.Record{
		Category:      structuring.CategoryMedical,
		DocumentDate:  "2026-01-02",
		Correspondent: "Dr. Example",
		Summary:       "Checkup results.",
		Tags:          []string{"health"},
		Confidence:    0.8,
	}
	doc := FromRecord("key", "scan.pdf", record, true, "low confidence")
	if doc.Category != structuring.CategoryMedical || doc.OriginalName != "scan.pdf" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if !doc.NeedsReview || doc.ReviewReason == "" {
		t.Fatal("review flags should carry over")
	}
}
