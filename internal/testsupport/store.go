package testsupport

import (
	"context"
	"testing"

	"docket/internal/config"
	"docket/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// StageItem records a staged item for tests using the provided store.
func StageItem(t testing.TB, store *queue.Store, sourcePath, stagingPath string) *queue.Item {
	t.Helper()

	item, err := store.NewItem(context.Background(), sourcePath, stagingPath)
	if err != nil {
		t.Fatalf("store.NewItem: %v", err)
	}
	return item
}
