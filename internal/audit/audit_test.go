package audit

import (
	"context"
	"path/filepath"
	"testing"

	"docket/internal/queue"
)

func newRecorder(t *testing.T) (*Recorder, *queue.Store) {
	t.Helper()
	store, err := queue.OpenPath(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	recorder, err := NewRecorder(store)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	return recorder, store
}

func TestRecordAndList(t *testing.T) {
	recorder, _ := newRecorder(t)
	ctx := context.Background()

	events := []Entry{
		{EventType: EventDetected, ItemID: 1, Detail: "invoice.pdf"},
		{EventType: EventStaged, ItemID: 1},
		{EventType: EventStageFailed, ItemID: 1, Outcome: OutcomeFailure, Detail: "no text content"},
	}
	for _, event := range events {
		if err := recorder.Record(ctx, event); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := recorder.List(ctx, Query{ItemID: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].EventType != EventStageFailed {
		t.Fatalf("expected newest first, got %s", entries[0].EventType)
	}
	if entries[0].Outcome != OutcomeFailure {
		t.Fatalf("outcome lost: %+v", entries[0])
	}
	for _, entry := range entries {
		if entry.Timestamp.IsZero() {
			t.Fatal("timestamp should be recorded")
		}
		if entry.Actor != ActorSystem {
			t.Fatalf("default actor should be system, got %q", entry.Actor)
		}
	}
}

func TestListFiltersByEventType(t *testing.T) {
	recorder, _ := newRecorder(t)
	ctx := context.Background()

	_ = recorder.Record(ctx, Entry{EventType: EventArchived, ItemID: 2})
	_ = recorder.Record(ctx, Entry{EventType: EventHeld, ItemID: 3, Outcome: OutcomeFailure})

	entries, err := recorder.List(ctx, Query{EventType: EventHeld})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].ItemID != 3 {
		t.Fatalf("unexpected filter result: %+v", entries)
	}
}

func TestListHonorsLimit(t *testing.T) {
	recorder, _ := newRecorder(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = recorder.Record(ctx, Entry{EventType: EventStaged, ItemID: int64(i + 1)})
	}

	entries, err := recorder.List(ctx, Query{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}
