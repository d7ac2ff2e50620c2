package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"docket/internal/config"
	"docket/internal/structuring"
)

// Document is one cataloged archive entry, keyed by content.
type Document struct {
	DocumentID    string
	ContentKey    string
	OriginalName  string
	Category      string
	DocumentDate  string
	Correspondent string
	Summary       string
	Tags          []string
	Confidence    float64
	FiledPath     string
	NeedsReview   bool
	ReviewReason  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Store manages the document catalog database.
type Store struct {
	db   *sql.DB
	path string
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
    document_id TEXT PRIMARY KEY,
    content_key TEXT NOT NULL UNIQUE,
    original_name TEXT,
    category TEXT NOT NULL,
    document_date TEXT,
    correspondent TEXT,
    summary TEXT,
    tags_json TEXT,
    confidence REAL NOT NULL DEFAULT 0,
    filed_path TEXT,
    needs_review INTEGER NOT NULL DEFAULT 0,
    review_reason TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
`

// Open initializes or connects to the catalog database in the data directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "catalog.db"))
}

// OpenPath initializes or connects to a catalog database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout = 5000"} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert inserts or refreshes the catalog entry for a content key. Re-running
// the pipeline over the same bytes updates the existing entry instead of
// creating a duplicate, which is what makes crash recovery safe.
func (s *Store) Upsert(ctx context.Context, doc Document) (Document, error) {
	if doc.ContentKey == "" {
		return Document{}, errors.New("catalog: content key required")
	}
	if doc.DocumentID == "" {
		doc.DocumentID = uuid.NewString()
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	tagsJSON, err := json.Marshal(doc.Tags)
	if err != nil {
		return Document{}, fmt.Errorf("catalog: encode tags: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO documents (
            document_id, content_key, original_name, category, document_date,
            correspondent, summary, tags_json, confidence, filed_path,
            needs_review, review_reason, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(content_key) DO UPDATE SET
            original_name = excluded.original_name,
            category = excluded.category,
            document_date = excluded.document_date,
            correspondent = excluded.correspondent,
            summary = excluded.summary,
            tags_json = excluded.tags_json,
            confidence = excluded.confidence,
            filed_path = excluded.filed_path,
            needs_review = excluded.needs_review,
            review_reason = excluded.review_reason,
            updated_at = excluded.updated_at`,
		doc.DocumentID,
		doc.ContentKey,
		doc.OriginalName,
		doc.Category,
		doc.DocumentDate,
		doc.Correspondent,
		doc.Summary,
		string(tagsJSON),
		doc.Confidence,
		doc.FiledPath,
		boolToInt(doc.NeedsReview),
		doc.ReviewReason,
		timestamp,
		timestamp,
	)
	if err != nil {
		return Document{}, fmt.Errorf("catalog: upsert document: %w", err)
	}

	stored, err := s.GetByContentKey(ctx, doc.ContentKey)
	if err != nil {
		return Document{}, err
	}
	if stored == nil {
		return Document{}, errors.New("catalog: document missing after upsert")
	}
	return *stored, nil
}

// GetByContentKey fetches a document by its content key.
func (s *Store) GetByContentKey(ctx context.Context, contentKey string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE content_key = ?`, contentKey)
	return scanDocument(row)
}

// GetByID fetches a document by its identifier.
func (s *Store) GetByID(ctx context.Context, documentID string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE document_id = ?`, documentID)
	return scanDocument(row)
}

// List returns cataloged documents, newest first, optionally filtered by
// category.
func (s *Store) List(ctx context.Context, category string, limit int) ([]Document, error) {
	query := selectColumns
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC, document_id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			docs = append(docs, *doc)
		}
	}
	return docs, rows.Err()
}

// Count returns the number of cataloged documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("catalog: count documents: %w", err)
	}
	return count, nil
}

const selectColumns = `SELECT document_id, content_key, COALESCE(original_name, ''), category,
    COALESCE(document_date, ''), COALESCE(correspondent, ''), COALESCE(summary, ''),
    COALESCE(tags_json, '[]'), confidence, COALESCE(filed_path, ''), needs_review,
    COALESCE(review_reason, ''), created_at, updated_at FROM documents`

func scanDocument(scanner interface{ Scan(dest ...any) error }) (*Document, error) {
	var (
		doc         Document
		tagsJSON    string
		needsReview int
		createdRaw  string
		updatedRaw  string
	)
	err := scanner.Scan(
		&doc.DocumentID,
		&doc.ContentKey,
		&doc.OriginalName,
		&doc.Category,
		&doc.DocumentDate,
		&doc.Correspondent,
		&doc.Summary,
		&tagsJSON,
		&doc.Confidence,
		&doc.FiledPath,
		&needsReview,
		&doc.ReviewReason,
		&createdRaw,
		&updatedRaw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: scan document: %w", err)
	}
	doc.NeedsReview = needsReview != 0
	_ = json.Unmarshal([]byte(tagsJSON), &doc.Tags)
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		doc.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		doc.UpdatedAt = updated
	}
	return &doc, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// FromRecord builds a catalog document from a structuring record.
func FromRecord(contentKey, originalName string, record structuring.Record, needsReview bool, reviewReason string) Document {
	return Document{
		ContentKey:    contentKey,
		OriginalName:  originalName,
		Category:      record.Category,
		DocumentDate:  record.DocumentDate,
		Correspondent: record.Correspondent,
		Summary:       record.Summary,
		Tags:          record.Tags,
		Confidence:    record.Confidence,
		NeedsReview:   needsReview,
		ReviewReason:  reviewReason,
	}
}
