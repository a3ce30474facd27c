package models

import "time"

// Change types written to the history. Per-field legacy summaries use
// "<field>_changed" (see crawler.recordChange).
const (
	ChangeTypeCreated = "created"
	ChangeTypeUpdated = "updated"
)

// BookCollection is the logical collection name stored on every change
// event as a weak back-reference to the record it describes.
const BookCollection = "books"

// FieldChange holds the old and new value of a single changed field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ChangeEvent is an immutable audit record of a detected creation or
// modification. The structured Changes map is authoritative; the flat
// FieldChanged/OldValue/NewValue triple is a legacy single-field summary
// populated only on per-field events.
type ChangeEvent struct {
	ID             int64
	BookID         int64
	Collection     string
	ChangeType     string
	FieldChanged   string
	OldValue       string
	NewValue       string
	Changes        map[string]FieldChange
	Description    string
	CrawlSessionID string
	CreatedAt      time.Time
}

// CrawlSummary is the result of one orchestrator run, reported to the
// caller and broadcast to subscribers.
type CrawlSummary struct {
	SessionID    string
	Status       SessionStatus
	TotalPages   int
	TotalBooks   int
	NewBooks     int
	UpdatedBooks int
	FailedBooks  int
	StartedAt    time.Time
	CompletedAt  time.Time
}
