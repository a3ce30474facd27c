package sqlite_test

import (
	"testing"
	"time"

	"github.com/Houeta/book-watch/internal/models"
	"github.com/Houeta/book-watch/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Integration_History(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()

	base := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)
	events := []models.ChangeEvent{
		{
			BookID:         1,
			Collection:     models.BookCollection,
			ChangeType:     models.ChangeTypeCreated,
			Description:    `Discovered "Sharp Objects" during crawl`,
			CrawlSessionID: "s-1",
			CreatedAt:      base,
		},
		{
			BookID:     1,
			Collection: models.BookCollection,
			ChangeType: models.ChangeTypeUpdated,
			Changes: map[string]models.FieldChange{
				"price": {Old: "47.82", New: "51.30"},
			},
			Description:    "price updated from 47.82 to 51.30",
			CrawlSessionID: "s-2",
			CreatedAt:      base.Add(time.Hour),
		},
		{
			BookID:         1,
			Collection:     models.BookCollection,
			ChangeType:     "price_changed",
			FieldChanged:   "price",
			OldValue:       "47.82",
			NewValue:       "51.30",
			Description:    "Price changed from 47.82 to 51.30",
			CrawlSessionID: "s-2",
			CreatedAt:      base.Add(2 * time.Hour),
		},
	}

	for i := range events {
		require.NoError(t, repo.AppendHistory(ctx, &events[i]))
		assert.NotZero(t, events[i].ID)
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := repo.ListChangeEvents(ctx, repository.ChangeEventFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "price_changed", got[0].ChangeType)
		assert.Equal(t, models.ChangeTypeCreated, got[2].ChangeType)
	})

	t.Run("changes survive the round trip", func(t *testing.T) {
		got, err := repo.ListChangeEvents(ctx, repository.ChangeEventFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)

		updated := got[1]
		require.NotNil(t, updated.Changes)
		assert.Equal(t, models.FieldChange{Old: "47.82", New: "51.30"}, updated.Changes["price"])

		legacy := got[0]
		assert.Equal(t, "price", legacy.FieldChanged)
		assert.Equal(t, "47.82", legacy.OldValue)
		assert.Equal(t, "51.30", legacy.NewValue)
		assert.Nil(t, legacy.Changes)
	})

	t.Run("time window", func(t *testing.T) {
		got, err := repo.ListChangeEvents(ctx, repository.ChangeEventFilter{
			Since: base.Add(30 * time.Minute),
			Until: base.Add(90 * time.Minute),
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, models.ChangeTypeUpdated, got[0].ChangeType)
	})

	t.Run("limit and offset", func(t *testing.T) {
		got, err := repo.ListChangeEvents(ctx, repository.ChangeEventFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, models.ChangeTypeCreated, got[0].ChangeType)
	})

	t.Run("default created_at", func(t *testing.T) {
		event := models.ChangeEvent{
			BookID:     2,
			Collection: models.BookCollection,
			ChangeType: models.ChangeTypeCreated,
		}
		require.NoError(t, repo.AppendHistory(ctx, &event))
		assert.WithinDuration(t, time.Now().UTC(), event.CreatedAt, time.Minute)
	})
}

func TestRepository_AppendHistory_Failure(t *testing.T) {
	repo, mock := newMockedRepo(t)
	mock.ExpectExec("INSERT INTO book_history").WillReturnError(assert.AnError)

	err := repo.AppendHistory(t.Context(), &models.ChangeEvent{
		BookID:     1,
		Collection: models.BookCollection,
		ChangeType: models.ChangeTypeCreated,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert change event")
	assert.NoError(t, mock.ExpectationsWereMet())
}
