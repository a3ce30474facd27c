package sqlite_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Houeta/book-watch/internal/repository/sqlite"
	"github.com/stretchr/testify/require"
)

// newTestDB is a helper function that creates a temporary database for a test.
func newTestDB(t *testing.T) *sqlite.Repository {
	// t.Helper() marks this function as a test helper.
	t.Helper()

	// t.TempDir() creates a temporary directory that is automatically cleaned up after the test.
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Initialize the repository with the real, but temporary, database file.
	repo, err := sqlite.NewRepository(t.Context(), logger, dbPath)
	require.NoError(t, err, "failed to create test database")

	// t.Cleanup() registers a function to be called when the test finishes.
	t.Cleanup(func() {
		err = repo.Close()
		if err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	return repo
}

// newMockedRepo creates a repository with a mocked database connection for testing failures.
func newMockedRepo(t *testing.T) (*sqlite.Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := sqlite.NewForTest(mockDB)

	t.Cleanup(func() { mockDB.Close() })

	return repo, mock
}

func TestNewRepository_InvalidPath(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := sqlite.NewRepository(t.Context(), logger, "/nonexistent-dir/book-watch.db")
	require.Error(t, err)
}

func TestRepository_DB(t *testing.T) {
	repo := newTestDB(t)
	require.NotNil(t, repo.DB())
	require.NoError(t, repo.DB().PingContext(t.Context()))
}
