// Package tracker owns the crawl session lifecycle: one session per
// orchestrator run, moving from running to exactly one terminal status.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/book-watch/internal/models"
	"github.com/Houeta/book-watch/internal/repository"
	"github.com/google/uuid"
)

// Tracker records crawl progress through the session repository.
type Tracker struct {
	log  *slog.Logger
	repo repository.SessionRepository
}

// New creates a new Tracker instance.
func New(log *slog.Logger, repo repository.SessionRepository) *Tracker {
	return &Tracker{log: log, repo: repo}
}

// Start creates a new running session covering totalPages pages and
// returns its opaque session id.
func (t *Tracker) Start(ctx context.Context, totalPages int) (string, error) {
	const opn = "tracker.Start"

	session := &models.CrawlSession{
		SessionID:  uuid.NewString(),
		Status:     models.SessionRunning,
		TotalPages: totalPages,
		StartedAt:  time.Now().UTC(),
	}
	if err := t.repo.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("%s: failed to create session: %w", opn, err)
	}

	t.log.InfoContext(ctx, "Crawl session started", "session_id", session.SessionID, "total_pages", totalPages)

	return session.SessionID, nil
}

// RecordPageResult adds one page's counters to the session. The
// orchestrator guarantees at most one call per page, so counters stay
// monotonic and processedPages always names a contiguous prefix. An
// update against an already finalized session is a no-op, logged as an
// anomaly.
func (t *Tracker) RecordPageResult(
	ctx context.Context,
	sessionID string,
	processedPages int,
	result models.PageResult,
) error {
	const opn = "tracker.RecordPageResult"

	err := t.repo.RecordPageResult(ctx, sessionID, processedPages, result)
	if err != nil {
		if errors.Is(err, repository.ErrSessionFinalized) {
			t.log.WarnContext(ctx, "Anomaly: page result reported for a finalized session",
				"op", opn, "session_id", sessionID, "page", processedPages)
			return nil
		}
		return fmt.Errorf("%s: failed to record page result: %w", opn, err)
	}

	return nil
}

// Finalize moves the session to a terminal status. Finalizing an
// already finalized session is a no-op, logged as an anomaly.
func (t *Tracker) Finalize(
	ctx context.Context,
	sessionID string,
	status models.SessionStatus,
	errorMessage string,
) error {
	const opn = "tracker.Finalize"

	err := t.repo.FinalizeSession(ctx, sessionID, status, errorMessage)
	if err != nil {
		if errors.Is(err, repository.ErrSessionFinalized) {
			t.log.WarnContext(ctx, "Anomaly: finalize attempted on a finalized session",
				"op", opn, "session_id", sessionID, "status", status)
			return nil
		}
		return fmt.Errorf("%s: failed to finalize session: %w", opn, err)
	}

	t.log.InfoContext(ctx, "Crawl session finalized", "session_id", sessionID, "status", status)

	return nil
}

// Reopen moves a failed session back to running and returns its current
// state so a resume can continue from the last processed page.
func (t *Tracker) Reopen(ctx context.Context, sessionID string) (*models.CrawlSession, error) {
	const opn = "tracker.Reopen"

	if err := t.repo.ReopenSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("%s: failed to reopen session: %w", opn, err)
	}

	session, err := t.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load reopened session: %w", opn, err)
	}

	t.log.InfoContext(ctx, "Crawl session reopened for resume",
		"session_id", sessionID, "processed_pages", session.ProcessedPages, "total_pages", session.TotalPages)

	return session, nil
}
