package sqlite_test

import (
	"testing"

	"github.com/Houeta/book-watch/internal/models"
	"github.com/Houeta/book-watch/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRepository_Integration_Sessions walks one session through its
// whole lifecycle against a real SQLite database.
func TestRepository_Integration_Sessions(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()

	session := &models.CrawlSession{
		SessionID:  "session-1",
		TotalPages: 5,
	}

	t.Run("get_missing_session", func(t *testing.T) {
		_, err := repo.GetSession(ctx, "session-1")
		require.ErrorIs(t, err, repository.ErrSessionNotFound)
	})

	t.Run("create_session", func(t *testing.T) {
		require.NoError(t, repo.CreateSession(ctx, session))
		require.NotZero(t, session.ID)
		assert.Equal(t, models.SessionRunning, session.Status)
	})

	t.Run("record_page_results", func(t *testing.T) {
		require.NoError(t, repo.RecordPageResult(ctx, "session-1", 1, models.PageResult{
			NewBooks: 18, UpdatedBooks: 1, FailedBooks: 1, LastProcessedURL: "page-1/book-20",
		}))
		require.NoError(t, repo.RecordPageResult(ctx, "session-1", 2, models.PageResult{
			NewBooks: 20, LastProcessedURL: "page-2/book-20",
		}))

		stored, err := repo.GetSession(ctx, "session-1")
		require.NoError(t, err)
		assert.Equal(t, 2, stored.ProcessedPages)
		assert.Equal(t, 38, stored.NewBooks)
		assert.Equal(t, 1, stored.UpdatedBooks)
		assert.Equal(t, 1, stored.FailedBooks)
		assert.Equal(t, "page-2/book-20", stored.LastProcessedURL)
		assert.Nil(t, stored.CompletedAt)
	})

	t.Run("finalize_session", func(t *testing.T) {
		require.NoError(t, repo.FinalizeSession(ctx, "session-1", models.SessionFailed, "fetch failed on page 3"))

		stored, err := repo.GetSession(ctx, "session-1")
		require.NoError(t, err)
		assert.Equal(t, models.SessionFailed, stored.Status)
		assert.Equal(t, "fetch failed on page 3", stored.ErrorMessage)
		require.NotNil(t, stored.CompletedAt)
	})

	t.Run("updates_after_finalize_are_rejected", func(t *testing.T) {
		err := repo.RecordPageResult(ctx, "session-1", 3, models.PageResult{NewBooks: 5})
		require.ErrorIs(t, err, repository.ErrSessionFinalized)

		err = repo.FinalizeSession(ctx, "session-1", models.SessionCompleted, "")
		require.ErrorIs(t, err, repository.ErrSessionFinalized)

		// Counters did not move.
		stored, getErr := repo.GetSession(ctx, "session-1")
		require.NoError(t, getErr)
		assert.Equal(t, 2, stored.ProcessedPages)
		assert.Equal(t, 38, stored.NewBooks)
		assert.Equal(t, models.SessionFailed, stored.Status)
	})

	t.Run("reopen_failed_session", func(t *testing.T) {
		require.NoError(t, repo.ReopenSession(ctx, "session-1"))

		stored, err := repo.GetSession(ctx, "session-1")
		require.NoError(t, err)
		assert.Equal(t, models.SessionRunning, stored.Status)
		assert.Empty(t, stored.ErrorMessage)
		assert.Nil(t, stored.CompletedAt)
		// Progress survives the reopen: resumes continue from page 3.
		assert.Equal(t, 2, stored.ProcessedPages)
	})

	t.Run("reopen_running_session_is_rejected", func(t *testing.T) {
		err := repo.ReopenSession(ctx, "session-1")
		require.ErrorIs(t, err, repository.ErrSessionNotResumable)
	})

	t.Run("reopen_missing_session", func(t *testing.T) {
		err := repo.ReopenSession(ctx, "no-such-session")
		require.ErrorIs(t, err, repository.ErrSessionNotFound)
	})

	t.Run("record_for_missing_session", func(t *testing.T) {
		err := repo.RecordPageResult(ctx, "no-such-session", 1, models.PageResult{})
		require.ErrorIs(t, err, repository.ErrSessionNotFound)
	})
}

func TestRepository_Integration_ListSessions(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()

	require.NoError(t, repo.CreateSession(ctx, &models.CrawlSession{SessionID: "s-1", TotalPages: 3}))
	require.NoError(t, repo.CreateSession(ctx, &models.CrawlSession{SessionID: "s-2", TotalPages: 3}))
	require.NoError(t, repo.CreateSession(ctx, &models.CrawlSession{SessionID: "s-3", TotalPages: 3}))
	require.NoError(t, repo.FinalizeSession(ctx, "s-2", models.SessionCompleted, ""))

	t.Run("all sessions", func(t *testing.T) {
		sessions, err := repo.ListSessions(ctx, repository.SessionFilter{})
		require.NoError(t, err)
		assert.Len(t, sessions, 3)
	})

	t.Run("filter by status", func(t *testing.T) {
		sessions, err := repo.ListSessions(ctx, repository.SessionFilter{Status: models.SessionCompleted})
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "s-2", sessions[0].SessionID)
	})

	t.Run("pagination", func(t *testing.T) {
		page1, err := repo.ListSessions(ctx, repository.SessionFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, page1, 2)

		page2, err := repo.ListSessions(ctx, repository.SessionFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Len(t, page2, 1)
	})
}

func TestRepository_Sessions_Failures(t *testing.T) {
	ctx := t.Context()

	t.Run("create error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("INSERT INTO crawl_sessions").WillReturnError(assert.AnError)

		err := repo.CreateSession(ctx, &models.CrawlSession{SessionID: "s-err"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert session")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("record error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("UPDATE crawl_sessions").WillReturnError(assert.AnError)

		err := repo.RecordPageResult(ctx, "s-err", 1, models.PageResult{})

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
