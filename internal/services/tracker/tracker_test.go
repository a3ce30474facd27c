package tracker_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/Houeta/book-watch/internal/models"
	"github.com/Houeta/book-watch/internal/repository"
	"github.com/Houeta/book-watch/internal/services/tracker"
	"github.com/Houeta/book-watch/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (*tracker.Tracker, *mocks.SessionRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := mocks.NewSessionRepository(t)
	return tracker.New(logger, repo), repo
}

func TestTracker_Start(t *testing.T) {
	ctx := t.Context()

	t.Run("creates a running session with a fresh id", func(t *testing.T) {
		trk, repo := newTestTracker(t)
		var created *models.CrawlSession
		repo.On("CreateSession", ctx, mock.AnythingOfType("*models.CrawlSession")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*models.CrawlSession)
			}).
			Return(nil).Once()

		sessionID, err := trk.Start(ctx, 50)

		require.NoError(t, err)
		assert.NotEmpty(t, sessionID)
		require.NotNil(t, created)
		assert.Equal(t, sessionID, created.SessionID)
		assert.Equal(t, models.SessionRunning, created.Status)
		assert.Equal(t, 50, created.TotalPages)
		assert.False(t, created.StartedAt.IsZero())
	})

	t.Run("distinct ids across runs", func(t *testing.T) {
		trk, repo := newTestTracker(t)
		repo.On("CreateSession", ctx, mock.Anything).Return(nil).Twice()

		first, err := trk.Start(ctx, 1)
		require.NoError(t, err)
		second, err := trk.Start(ctx, 1)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("repository error propagates", func(t *testing.T) {
		trk, repo := newTestTracker(t)
		repo.On("CreateSession", ctx, mock.Anything).Return(assert.AnError).Once()

		_, err := trk.Start(ctx, 1)

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
	})
}

func TestTracker_RecordPageResult(t *testing.T) {
	ctx := t.Context()
	result := models.PageResult{NewBooks: 20, LastProcessedURL: "page-1/book-20"}

	t.Run("success", func(t *testing.T) {
		trk, repo := newTestTracker(t)
		repo.On("RecordPageResult", ctx, "s-1", 1, result).Return(nil).Once()

		require.NoError(t, trk.RecordPageResult(ctx, "s-1", 1, result))
	})

	t.Run("finalized session is swallowed", func(t *testing.T) {
		trk, repo := newTestTracker(t)
		repo.On("RecordPageResult", ctx, "s-1", 2, result).
			Return(repository.ErrSessionFinalized).Once()

		require.NoError(t, trk.RecordPageResult(ctx, "s-1", 2, result))
	})

	t.Run("other errors propagate", func(t *testing.T) {
		trk, repo := newTestTracker(t)
		repo.On("RecordPageResult", ctx, "s-1", 3, result).Return(assert.AnError).Once()

		err := trk.RecordPageResult(ctx, "s-1", 3, result)

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
	})
}

func TestTracker_Finalize(t *testing.T) {
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		trk, repo := newTestTracker(t)
		repo.On("FinalizeSession", ctx, "s-1", models.SessionCompleted, "").Return(nil).Once()

		require.NoError(t, trk.Finalize(ctx, "s-1", models.SessionCompleted, ""))
	})

	t.Run("double finalize is swallowed", func(t *testing.T) {
		trk, repo := newTestTracker(t)
		repo.On("FinalizeSession", ctx, "s-1", models.SessionFailed, "boom").
			Return(repository.ErrSessionFinalized).Once()

		require.NoError(t, trk.Finalize(ctx, "s-1", models.SessionFailed, "boom"))
	})

	t.Run("other errors propagate", func(t *testing.T) {
		trk, repo := newTestTracker(t)
		repo.On("FinalizeSession", ctx, "s-1", models.SessionCompleted, "").
			Return(assert.AnError).Once()

		err := trk.Finalize(ctx, "s-1", models.SessionCompleted, "")

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
	})
}

func TestTracker_Reopen(t *testing.T) {
	ctx := t.Context()

	t.Run("returns the reopened session state", func(t *testing.T) {
		trk, repo := newTestTracker(t)
		stored := &models.CrawlSession{
			SessionID:      "s-1",
			Status:         models.SessionRunning,
			TotalPages:     50,
			ProcessedPages: 12,
		}
		repo.On("ReopenSession", ctx, "s-1").Return(nil).Once()
		repo.On("GetSession", ctx, "s-1").Return(stored, nil).Once()

		session, err := trk.Reopen(ctx, "s-1")

		require.NoError(t, err)
		assert.Equal(t, stored, session)
	})

	t.Run("not resumable", func(t *testing.T) {
		trk, repo := newTestTracker(t)
		repo.On("ReopenSession", ctx, "s-1").Return(repository.ErrSessionNotResumable).Once()

		_, err := trk.Reopen(ctx, "s-1")

		require.Error(t, err)
		require.ErrorIs(t, err, repository.ErrSessionNotResumable)
	})

	t.Run("reload failure", func(t *testing.T) {
		trk, repo := newTestTracker(t)
		repo.On("ReopenSession", ctx, "s-1").Return(nil).Once()
		repo.On("GetSession", ctx, "s-1").Return(nil, assert.AnError).Once()

		_, err := trk.Reopen(ctx, "s-1")

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
	})
}
