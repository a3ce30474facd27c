package models

import "time"

// SessionStatus is the lifecycle state of a crawl session.
type SessionStatus string

// Running is the only entry state; Completed and Failed are terminal.
const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// CrawlSession tracks the progress of one orchestrator run for
// monitoring and resumability. ProcessedPages always reflects a
// contiguous prefix of pages 1..k.
type CrawlSession struct {
	ID               int64
	SessionID        string
	Status           SessionStatus
	TotalPages       int
	ProcessedPages   int
	NewBooks         int
	UpdatedBooks     int
	FailedBooks      int
	LastProcessedURL string
	ErrorMessage     string
	StartedAt        time.Time
	CompletedAt      *time.Time
}

// PageResult carries the per-page counter deltas reported to the
// session tracker after each page.
type PageResult struct {
	NewBooks         int
	UpdatedBooks     int
	FailedBooks      int
	LastProcessedURL string
}
