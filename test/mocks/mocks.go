// Package mocks provides hand-written testify mocks for the interfaces
// shared between the crawl services.
package mocks

import (
	"context"
	"time"

	"github.com/Houeta/book-watch/internal/models"
	"github.com/Houeta/book-watch/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Fetcher mocks parser.Fetcher.
type Fetcher struct {
	mock.Mock
}

func (m *Fetcher) TotalPages(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *Fetcher) BookURLs(ctx context.Context, page int) ([]string, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *Fetcher) FetchBook(ctx context.Context, bookURL string) (*models.BookData, error) {
	args := m.Called(ctx, bookURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookData), args.Error(1)
}

// BookRepository mocks repository.BookRepository.
type BookRepository struct {
	mock.Mock
}

func (m *BookRepository) FindByNaturalKey(ctx context.Context, remoteBookID, sourceURL string) (*models.Book, error) {
	args := m.Called(ctx, remoteBookID, sourceURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *BookRepository) Upsert(ctx context.Context, book *models.Book) (*models.Book, error) {
	args := m.Called(ctx, book)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *BookRepository) Touch(ctx context.Context, bookID int64, crawledAt time.Time) error {
	args := m.Called(ctx, bookID, crawledAt)
	return args.Error(0)
}

// HistoryRepository mocks repository.HistoryRepository.
type HistoryRepository struct {
	mock.Mock
}

func (m *HistoryRepository) AppendHistory(ctx context.Context, event *models.ChangeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *HistoryRepository) ListChangeEvents(
	ctx context.Context,
	filter repository.ChangeEventFilter,
) ([]models.ChangeEvent, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChangeEvent), args.Error(1)
}

// SessionRepository mocks repository.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) CreateSession(ctx context.Context, session *models.CrawlSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *SessionRepository) GetSession(ctx context.Context, sessionID string) (*models.CrawlSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CrawlSession), args.Error(1)
}

func (m *SessionRepository) RecordPageResult(
	ctx context.Context,
	sessionID string,
	processedPages int,
	result models.PageResult,
) error {
	args := m.Called(ctx, sessionID, processedPages, result)
	return args.Error(0)
}

func (m *SessionRepository) FinalizeSession(
	ctx context.Context,
	sessionID string,
	status models.SessionStatus,
	errorMessage string,
) error {
	args := m.Called(ctx, sessionID, status, errorMessage)
	return args.Error(0)
}

func (m *SessionRepository) ReopenSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *SessionRepository) ListSessions(
	ctx context.Context,
	filter repository.SessionFilter,
) ([]models.CrawlSession, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CrawlSession), args.Error(1)
}

// SessionTracker mocks crawler.SessionTracker.
type SessionTracker struct {
	mock.Mock
}

func (m *SessionTracker) Start(ctx context.Context, totalPages int) (string, error) {
	args := m.Called(ctx, totalPages)
	return args.String(0), args.Error(1)
}

func (m *SessionTracker) RecordPageResult(
	ctx context.Context,
	sessionID string,
	processedPages int,
	result models.PageResult,
) error {
	args := m.Called(ctx, sessionID, processedPages, result)
	return args.Error(0)
}

func (m *SessionTracker) Finalize(
	ctx context.Context,
	sessionID string,
	status models.SessionStatus,
	errorMessage string,
) error {
	args := m.Called(ctx, sessionID, status, errorMessage)
	return args.Error(0)
}

func (m *SessionTracker) Reopen(ctx context.Context, sessionID string) (*models.CrawlSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CrawlSession), args.Error(1)
}
