package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/book-watch/internal/models"
	"github.com/Houeta/book-watch/internal/repository"
)

const bookColumns = `id, remote_book_id, source_url, title, description, category,
	price, price_including_tax, price_excluding_tax, in_stock, reviews_count, rating,
	cover_image, extra, content_hash, created_at, updated_at, last_crawl_at`

// FindByNaturalKey looks a book up by its remote id, falling back to the
// source URL when no row matches.
func (r *Repository) FindByNaturalKey(ctx context.Context, remoteBookID, sourceURL string) (*models.Book, error) {
	const opn = "repository.sqlite.FindByNaturalKey"

	if remoteBookID != "" {
		book, err := r.selectBook(ctx, "remote_book_id", remoteBookID)
		if err == nil {
			return book, nil
		}
		if !errors.Is(err, repository.ErrBookNotFound) {
			return nil, fmt.Errorf("%s: failed to find book by remote id: %w", opn, err)
		}
	}

	if sourceURL != "" {
		book, err := r.selectBook(ctx, "source_url", sourceURL)
		if err == nil {
			return book, nil
		}
		if !errors.Is(err, repository.ErrBookNotFound) {
			return nil, fmt.Errorf("%s: failed to find book by source url: %w", opn, err)
		}
	}

	return nil, repository.ErrBookNotFound
}

// Upsert inserts the book or, when a row with the same remote id already
// exists, replaces its fields while preserving created_at. The statement
// is atomic per record, so an accidental overlap of two runs cannot
// produce duplicate rows for one natural key.
func (r *Repository) Upsert(ctx context.Context, book *models.Book) (*models.Book, error) {
	const opn = "repository.sqlite.Upsert"

	extra, err := json.Marshal(book.Extra)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal extra fields: %w", opn, err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO books (remote_book_id, source_url, title, description, category,
			price, price_including_tax, price_excluding_tax, in_stock, reviews_count, rating,
			cover_image, extra, content_hash, created_at, updated_at, last_crawl_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_book_id) DO UPDATE SET
			source_url = excluded.source_url,
			title = excluded.title,
			description = excluded.description,
			category = excluded.category,
			price = excluded.price,
			price_including_tax = excluded.price_including_tax,
			price_excluding_tax = excluded.price_excluding_tax,
			in_stock = excluded.in_stock,
			reviews_count = excluded.reviews_count,
			rating = excluded.rating,
			cover_image = excluded.cover_image,
			extra = excluded.extra,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at,
			last_crawl_at = excluded.last_crawl_at`,
		book.RemoteBookID, book.SourceURL, book.Title, book.Description, book.Category,
		book.Price, book.PriceIncludingTax, book.PriceExcludingTax, book.InStock,
		book.ReviewsCount, book.Rating, book.CoverImage, string(extra), book.ContentHash,
		now, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to upsert book %s: %w", opn, book.RemoteBookID, err)
	}

	stored, err := r.selectBook(ctx, "remote_book_id", book.RemoteBookID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to reload upserted book %s: %w", opn, book.RemoteBookID, err)
	}

	return stored, nil
}

// Touch bumps the last crawl timestamp of a book whose content has not changed.
func (r *Repository) Touch(ctx context.Context, bookID int64, crawledAt time.Time) error {
	const opn = "repository.sqlite.Touch"

	_, err := r.db.ExecContext(ctx, "UPDATE books SET last_crawl_at = ? WHERE id = ?", crawledAt, bookID)
	if err != nil {
		return fmt.Errorf("%s: failed to touch book %d: %w", opn, bookID, err)
	}

	return nil
}

// selectBook fetches one book by an exact match on the given column.
func (r *Repository) selectBook(ctx context.Context, column, value string) (*models.Book, error) {
	query := fmt.Sprintf("SELECT %s FROM books WHERE %s = ?", bookColumns, column)
	row := r.db.QueryRowContext(ctx, query, value)

	var (
		book  models.Book
		extra string
	)
	err := row.Scan(
		&book.ID, &book.RemoteBookID, &book.SourceURL, &book.Title, &book.Description,
		&book.Category, &book.Price, &book.PriceIncludingTax, &book.PriceExcludingTax,
		&book.InStock, &book.ReviewsCount, &book.Rating, &book.CoverImage, &extra,
		&book.ContentHash, &book.CreatedAt, &book.UpdatedAt, &book.LastCrawlAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}

	if extra != "" && extra != "{}" {
		if err = json.Unmarshal([]byte(extra), &book.Extra); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extra fields: %w", err)
		}
	}

	return &book, nil
}
