package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Houeta/book-watch/internal/models"
	"github.com/Houeta/book-watch/internal/repository"
)

const sessionColumns = `id, session_id, status, total_pages, processed_pages,
	new_books, updated_books, failed_books, last_processed_url, error_message,
	started_at, completed_at`

// CreateSession inserts a new crawl session row in the running state.
func (r *Repository) CreateSession(ctx context.Context, session *models.CrawlSession) error {
	const opn = "repository.sqlite.CreateSession"

	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}
	if session.Status == "" {
		session.Status = models.SessionRunning
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO crawl_sessions (session_id, status, total_pages, processed_pages,
			new_books, updated_books, failed_books, last_processed_url, error_message, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.SessionID, session.Status, session.TotalPages, session.ProcessedPages,
		session.NewBooks, session.UpdatedBooks, session.FailedBooks,
		session.LastProcessedURL, session.ErrorMessage, session.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to insert session %s: %w", opn, session.SessionID, err)
	}

	if id, idErr := res.LastInsertId(); idErr == nil {
		session.ID = id
	}

	return nil
}

// GetSession returns one crawl session by its opaque session id.
func (r *Repository) GetSession(ctx context.Context, sessionID string) (*models.CrawlSession, error) {
	const opn = "repository.sqlite.GetSession"

	query := fmt.Sprintf("SELECT %s FROM crawl_sessions WHERE session_id = ?", sessionColumns)
	session, err := scanSession(r.db.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("%s: failed to get session %s: %w", opn, sessionID, err)
	}

	return session, nil
}

// RecordPageResult adds the page deltas to the session counters and
// advances processed_pages. The update only applies while the session
// is still running; a finalized session rejects it with
// ErrSessionFinalized.
func (r *Repository) RecordPageResult(
	ctx context.Context,
	sessionID string,
	processedPages int,
	result models.PageResult,
) error {
	const opn = "repository.sqlite.RecordPageResult"

	res, err := r.db.ExecContext(ctx, `
		UPDATE crawl_sessions SET
			processed_pages = ?,
			new_books = new_books + ?,
			updated_books = updated_books + ?,
			failed_books = failed_books + ?,
			last_processed_url = ?
		WHERE session_id = ? AND status = ?`,
		processedPages, result.NewBooks, result.UpdatedBooks, result.FailedBooks,
		result.LastProcessedURL, sessionID, models.SessionRunning,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to update session %s: %w", opn, sessionID, err)
	}

	return r.checkSessionUpdated(ctx, opn, sessionID, res)
}

// FinalizeSession moves a running session to a terminal status. Once a
// session is finalized the transition is exclusive: a second finalize
// attempt returns ErrSessionFinalized.
func (r *Repository) FinalizeSession(
	ctx context.Context,
	sessionID string,
	status models.SessionStatus,
	errorMessage string,
) error {
	const opn = "repository.sqlite.FinalizeSession"

	res, err := r.db.ExecContext(ctx, `
		UPDATE crawl_sessions SET status = ?, error_message = ?, completed_at = ?
		WHERE session_id = ? AND status = ?`,
		status, errorMessage, time.Now().UTC(), sessionID, models.SessionRunning,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to finalize session %s: %w", opn, sessionID, err)
	}

	return r.checkSessionUpdated(ctx, opn, sessionID, res)
}

// ReopenSession moves a failed session back to running so a resume can
// continue from the last processed page.
func (r *Repository) ReopenSession(ctx context.Context, sessionID string) error {
	const opn = "repository.sqlite.ReopenSession"

	res, err := r.db.ExecContext(ctx, `
		UPDATE crawl_sessions SET status = ?, error_message = '', completed_at = NULL
		WHERE session_id = ? AND status = ?`,
		models.SessionRunning, sessionID, models.SessionFailed,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to reopen session %s: %w", opn, sessionID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to read affected rows: %w", opn, err)
	}
	if affected == 0 {
		if _, getErr := r.GetSession(ctx, sessionID); getErr != nil {
			return getErr
		}
		return repository.ErrSessionNotResumable
	}

	return nil
}

// ListSessions returns crawl sessions, newest first, optionally
// filtered by status.
func (r *Repository) ListSessions(
	ctx context.Context,
	filter repository.SessionFilter,
) ([]models.CrawlSession, error) {
	const opn = "repository.sqlite.ListSessions"

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("SELECT ")
	sb.WriteString(sessionColumns)
	sb.WriteString(" FROM crawl_sessions WHERE 1=1")
	if filter.Status != "" {
		sb.WriteString(" AND status = ?")
		args = append(args, filter.Status)
	}
	sb.WriteString(" ORDER BY started_at DESC, id DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query sessions: %w", opn, err)
	}
	defer rows.Close()

	var sessions []models.CrawlSession
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%s: failed to scan session: %w", opn, scanErr)
		}
		sessions = append(sessions, *session)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return sessions, nil
}

// checkSessionUpdated distinguishes a missing session from one that was
// already finalized after an UPDATE matched no rows.
func (r *Repository) checkSessionUpdated(ctx context.Context, opn, sessionID string, res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to read affected rows: %w", opn, err)
	}
	if affected == 0 {
		if _, getErr := r.GetSession(ctx, sessionID); getErr != nil {
			return getErr
		}
		return repository.ErrSessionFinalized
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.CrawlSession, error) {
	var (
		session     models.CrawlSession
		completedAt sql.NullTime
	)
	err := row.Scan(
		&session.ID, &session.SessionID, &session.Status, &session.TotalPages,
		&session.ProcessedPages, &session.NewBooks, &session.UpdatedBooks,
		&session.FailedBooks, &session.LastProcessedURL, &session.ErrorMessage,
		&session.StartedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}

	return &session, nil
}
