package queue

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, source_path, staging_path, content_key, status, attempts, error_message, extracted_text, extraction_method, record_json, filed_path, needs_review, review_reason, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id               int64
		sourcePath       sql.NullString
		stagingPath      sql.NullString
		contentKey       sql.NullString
		statusStr        string
		attempts         sql.NullInt64
		errorMessage     sql.NullString
		extractedText    sql.NullString
		extractionMethod sql.NullString
		recordJSON       sql.NullString
		filedPath        sql.NullString
		needsReview      sql.NullInt64
		reviewReason     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&stagingPath,
		&contentKey,
		&statusStr,
		&attempts,
		&errorMessage,
		&extractedText,
		&extractionMethod,
		&recordJSON,
		&filedPath,
		&needsReview,
		&reviewReason,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:               id,
		SourcePath:       sourcePath.String,
		StagingPath:      stagingPath.String,
		ContentKey:       contentKey.String,
		Status:           Status(statusStr),
		Attempts:         int(attempts.Int64),
		ErrorMessage:     errorMessage.String,
		ExtractedText:    extractedText.String,
		ExtractionMethod: extractionMethod.String,
		RecordJSON:       recordJSON.String,
		FiledPath:        filedPath.String,
		ReviewReason:     reviewReason.String,
	}
	if needsReview.Valid {
		item.NeedsReview = needsReview.Int64 != 0
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
