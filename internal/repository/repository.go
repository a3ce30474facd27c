// Package repository defines the persistence contracts consumed by the
// crawl services and the sentinel errors their implementations return.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Houeta/book-watch/internal/models"
)

var (
	// ErrBookNotFound is returned when no book matches the natural key.
	ErrBookNotFound = errors.New("book not found")
	// ErrSessionNotFound is returned when no crawl session matches the session id.
	ErrSessionNotFound = errors.New("crawl session not found")
	// ErrSessionFinalized is returned on an attempt to update a session
	// that has already reached a terminal status.
	ErrSessionFinalized = errors.New("crawl session already finalized")
	// ErrSessionNotResumable is returned on an attempt to reopen a
	// session that is not in the failed state.
	ErrSessionNotResumable = errors.New("crawl session is not in a failed state")
)

// ChangeEventFilter narrows a change history query. Zero time bounds
// are ignored; Limit of zero means no limit.
type ChangeEventFilter struct {
	Since  time.Time
	Until  time.Time
	Limit  int
	Offset int
}

// SessionFilter narrows a crawl session query. An empty Status matches
// all sessions.
type SessionFilter struct {
	Status models.SessionStatus
	Limit  int
	Offset int
}

// BookRepository provides upsert-by-natural-key access to stored books.
type BookRepository interface {
	// FindByNaturalKey looks a book up by remote id, falling back to the
	// source URL. Returns ErrBookNotFound when neither matches.
	FindByNaturalKey(ctx context.Context, remoteBookID, sourceURL string) (*models.Book, error)
	// Upsert inserts the book or updates the existing row with the same
	// natural key, atomically per record.
	Upsert(ctx context.Context, book *models.Book) (*models.Book, error)
	// Touch bumps the last crawl timestamp of an unchanged book.
	Touch(ctx context.Context, bookID int64, crawledAt time.Time) error
}

// HistoryRepository is the append-only change history.
type HistoryRepository interface {
	AppendHistory(ctx context.Context, event *models.ChangeEvent) error
	ListChangeEvents(ctx context.Context, filter ChangeEventFilter) ([]models.ChangeEvent, error)
}

// SessionRepository persists crawl session progress.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.CrawlSession) error
	GetSession(ctx context.Context, sessionID string) (*models.CrawlSession, error)
	// RecordPageResult adds the page deltas to the session counters and
	// advances processed_pages. Returns ErrSessionFinalized when the
	// session is no longer running.
	RecordPageResult(ctx context.Context, sessionID string, processedPages int, result models.PageResult) error
	// FinalizeSession moves a running session to a terminal status.
	FinalizeSession(ctx context.Context, sessionID string, status models.SessionStatus, errorMessage string) error
	// ReopenSession moves a failed session back to running so a resume
	// can continue from the last processed page.
	ReopenSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context, filter SessionFilter) ([]models.CrawlSession, error)
}

// Store bundles the repositories backed by one database.
type Store interface {
	BookRepository
	HistoryRepository
	SessionRepository
}
