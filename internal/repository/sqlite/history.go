package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Houeta/book-watch/internal/models"
	"github.com/Houeta/book-watch/internal/repository"
)

// AppendHistory durably appends one change event. History rows are
// never updated or deleted afterwards.
func (r *Repository) AppendHistory(ctx context.Context, event *models.ChangeEvent) error {
	const opn = "repository.sqlite.AppendHistory"

	var changes sql.NullString
	if event.Changes != nil {
		encoded, err := json.Marshal(event.Changes)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal changes: %w", opn, err)
		}
		changes = sql.NullString{String: string(encoded), Valid: true}
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO book_history (book_id, collection, change_type, field_changed,
			old_value, new_value, changes, description, crawl_session_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.BookID, event.Collection, event.ChangeType, event.FieldChanged,
		event.OldValue, event.NewValue, changes, event.Description,
		event.CrawlSessionID, createdAt,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to insert change event: %w", opn, err)
	}

	if id, idErr := res.LastInsertId(); idErr == nil {
		event.ID = id
	}
	event.CreatedAt = createdAt

	return nil
}

// ListChangeEvents returns change events filtered by time range, newest
// first.
func (r *Repository) ListChangeEvents(
	ctx context.Context,
	filter repository.ChangeEventFilter,
) ([]models.ChangeEvent, error) {
	const opn = "repository.sqlite.ListChangeEvents"

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT id, book_id, collection, change_type, field_changed,
		old_value, new_value, changes, description, crawl_session_id, created_at
		FROM book_history WHERE 1=1`)
	if !filter.Since.IsZero() {
		sb.WriteString(" AND created_at >= ?")
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		sb.WriteString(" AND created_at <= ?")
		args = append(args, filter.Until)
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query change events: %w", opn, err)
	}
	defer rows.Close()

	var events []models.ChangeEvent
	for rows.Next() {
		var (
			event   models.ChangeEvent
			changes sql.NullString
		)
		err = rows.Scan(
			&event.ID, &event.BookID, &event.Collection, &event.ChangeType,
			&event.FieldChanged, &event.OldValue, &event.NewValue, &changes,
			&event.Description, &event.CrawlSessionID, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan change event: %w", opn, err)
		}
		if changes.Valid {
			if err = json.Unmarshal([]byte(changes.String), &event.Changes); err != nil {
				return nil, fmt.Errorf("%s: failed to unmarshal changes: %w", opn, err)
			}
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return events, nil
}
