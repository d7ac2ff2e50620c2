package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item. Transitions only move
// forward: detected -> staged -> processing -> succeeded | failed.
type Status string

const (
	StatusDetected   Status = "detected"
	StatusStaged     Status = "staged"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusDetected,
	StatusStaged,
	StatusProcessing,
	StatusSucceeded,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Item represents a staged document persisted in SQLite.
type Item struct {
	ID               int64
	SourcePath       string
	StagingPath      string
	ContentKey       string
	Status           Status
	Attempts         int
	ErrorMessage     string
	ExtractedText    string
	ExtractionMethod string
	RecordJSON       string
	FiledPath        string
	NeedsReview      bool
	ReviewReason     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HistoryEntry records one stage transition for an item. Entries are append
// only and never rewritten.
type HistoryEntry struct {
	ID        int64
	ItemID    int64
	Stage     string
	Event     string
	Detail    string
	CreatedAt time.Time
}

// History events.
const (
	HistoryStarted   = "started"
	HistorySucceeded = "succeeded"
	HistoryFailed    = "failed"
)

// HealthSummary describes aggregated queue counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Staged     int
	Processing int
	Succeeded  int
	Failed     int
	Review     int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends the item's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
}
