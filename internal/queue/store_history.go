package queue

import (
	"context"
	"fmt"
	"time"
)

// AppendHistory records a stage transition for an item. History rows are never
// updated or deleted while the item exists.
func (s *Store) AppendHistory(ctx context.Context, itemID int64, stage, event, detail string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO item_history (item_id, stage, event, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		itemID,
		stage,
		event,
		nullableString(detail),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// History returns the stage transitions recorded for an item in insertion
// order.
func (s *Store) History(ctx context.Context, itemID int64) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, item_id, stage, event, COALESCE(detail, ''), created_at
         FROM item_history WHERE item_id = ? ORDER BY id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry      HistoryEntry
			createdRaw string
		)
		if err := rows.Scan(&entry.ID, &entry.ItemID, &entry.Stage, &entry.Event, &entry.Detail, &createdRaw); err != nil {
			return nil, err
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			entry.CreatedAt = created
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
