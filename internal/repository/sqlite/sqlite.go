package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

// Repository represents a data repository that interacts with the database
// and provides logging capabilities. It holds a reference to the database
// and a logger instance for logging operations.
type Repository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(ctx context.Context, log *slog.Logger, storagePath string) (*Repository, error) {
	// Open (or create if it doesn't exist) the database file.
	dtb, err := sql.Open("sqlite3", fmt.Sprintf("%s?_pragma=foreign_keys(1)", storagePath))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Check if the connection is actually established.
	if err = dtb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("unable to establish connection to database: %w", err)
	}

	// Perform the initial schema migration.
	if err = initSchema(ctx, dtb); err != nil {
		return nil, fmt.Errorf("DB schema initialization error: %w", err)
	}

	return &Repository{db: dtb, log: log}, nil
}

// NewForTest creates a Repository over an already opened database
// handle, bypassing schema initialization. Intended for tests that use
// a mocked connection.
func NewForTest(dtb *sql.DB) *Repository {
	return &Repository{db: dtb, log: slog.New(slog.DiscardHandler)}
}

// initSchema creates the necessary tables if they don't already exist.
func initSchema(ctx context.Context, dtb *sql.DB) error {
	const migrationQuery = `
	CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		remote_book_id TEXT NOT NULL UNIQUE,
		source_url TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		price_including_tax REAL NOT NULL DEFAULT 0,
		price_excluding_tax REAL NOT NULL DEFAULT 0,
		in_stock INTEGER NOT NULL DEFAULT 0,
		reviews_count INTEGER NOT NULL DEFAULT 0,
		rating REAL NOT NULL DEFAULT 0,
		cover_image TEXT NOT NULL DEFAULT '',
		extra TEXT NOT NULL DEFAULT '{}',
		content_hash TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		last_crawl_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_books_source_url ON books (source_url);
	CREATE INDEX IF NOT EXISTS idx_books_content_hash ON books (content_hash);

	CREATE TABLE IF NOT EXISTS book_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id INTEGER NOT NULL REFERENCES books (id),
		collection TEXT NOT NULL,
		change_type TEXT NOT NULL,
		field_changed TEXT NOT NULL DEFAULT '',
		old_value TEXT NOT NULL DEFAULT '',
		new_value TEXT NOT NULL DEFAULT '',
		changes TEXT,
		description TEXT NOT NULL DEFAULT '',
		crawl_session_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_book_history_created_at ON book_history (created_at);
	CREATE INDEX IF NOT EXISTS idx_book_history_session ON book_history (crawl_session_id);

	CREATE TABLE IF NOT EXISTS crawl_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		total_pages INTEGER NOT NULL DEFAULT 0,
		processed_pages INTEGER NOT NULL DEFAULT 0,
		new_books INTEGER NOT NULL DEFAULT 0,
		updated_books INTEGER NOT NULL DEFAULT 0,
		failed_books INTEGER NOT NULL DEFAULT 0,
		last_processed_url TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_crawl_sessions_status ON crawl_sessions (status);

	CREATE TABLE IF NOT EXISTS subscriptions (
		chat_id INTEGER PRIMARY KEY
	);
	`
	_, err := dtb.ExecContext(ctx, migrationQuery)
	if err != nil {
		return fmt.Errorf("failed to execute migration query: %w", err)
	}

	return nil
}

// Close closes the connection to the database.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.Error("failed to close the database", "op", "repository.sqlite.Close", "error", err)
		return fmt.Errorf("failed to close the database: %w", err)
	}

	return nil
}

// DB is a getter for database handler.
func (r *Repository) DB() *sql.DB {
	return r.db
}
