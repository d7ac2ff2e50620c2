package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"docket/internal/queue"
)

// Event types recorded in the trail. One row is written per lifecycle
// transition; rows are never updated or deleted.
const (
	EventDetected       = "detected"
	EventStaged         = "staged"
	EventStageStarted   = "stage_started"
	EventStageSucceeded = "stage_succeeded"
	EventStageFailed    = "stage_failed"
	EventArchived       = "archived"
	EventHeld           = "held"
	EventRetried        = "retried"
)

// Outcomes attached to events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ActorSystem is the actor recorded for daemon-initiated events. Operator
// commands record "operator" instead.
const (
	ActorSystem   = "system"
	ActorOperator = "operator"
)

// Entry is one audit trail row.
type Entry struct {
	ID         int64
	Timestamp  time.Time
	Actor      string
	EventType  string
	ItemID     int64
	ContentKey string
	Outcome    string
	Detail     string
}

// Recorder appends audit entries to the queue database.
type Recorder struct {
	db *sql.DB
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS audit_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT NOT NULL,
    actor TEXT NOT NULL,
    event_type TEXT NOT NULL,
    item_id INTEGER,
    content_key TEXT,
    outcome TEXT NOT NULL,
    detail TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_log_item ON audit_log(item_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_event ON audit_log(event_type);
`

// NewRecorder prepares the audit trail table on the store's database.
func NewRecorder(store *queue.Store) (*Recorder, error) {
	if store == nil || store.DB() == nil {
		return nil, fmt.Errorf("audit: queue store unavailable")
	}
	db := store.DB()
	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("create audit_log table: %w", err)
	}
	return &Recorder{db: db}, nil
}

// Record appends one entry. The timestamp is assigned here so callers cannot
// backdate trail rows.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return nil
	}
	actor := entry.Actor
	if actor == "" {
		actor = ActorSystem
	}
	outcome := entry.Outcome
	if outcome == "" {
		outcome = OutcomeSuccess
	}
	var itemID any
	if entry.ItemID != 0 {
		itemID = entry.ItemID
	}
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO audit_log (timestamp, actor, event_type, item_id, content_key, outcome, detail)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
		actor,
		entry.EventType,
		itemID,
		nullable(entry.ContentKey),
		outcome,
		nullable(entry.Detail),
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Query filters List output. Zero values mean no filter.
type Query struct {
	ItemID    int64
	EventType string
	Limit     int
}

// List returns trail entries newest first.
func (r *Recorder) List(ctx context.Context, q Query) ([]Entry, error) {
	query := `SELECT id, timestamp, actor, event_type, COALESCE(item_id, 0), COALESCE(content_key, ''), outcome, COALESCE(detail, '')
              FROM audit_log`
	var (
		conds []string
		args  []any
	)
	if q.ItemID != 0 {
		conds = append(conds, "item_id = ?")
		args = append(args, q.ItemID)
	}
	if q.EventType != "" {
		conds = append(conds, "event_type = ?")
		args = append(args, q.EventType)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry Entry
			tsRaw string
		)
		if err := rows.Scan(&entry.ID, &tsRaw, &entry.Actor, &entry.EventType, &entry.ItemID, &entry.ContentKey, &entry.Outcome, &entry.Detail); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, tsRaw); err == nil {
			entry.Timestamp = ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
