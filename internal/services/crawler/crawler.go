// Package crawler drives one end-to-end crawl run: page iteration,
// per-record change detection, change history and session progress.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Houeta/book-watch/internal/diff"
	"github.com/Houeta/book-watch/internal/fingerprint"
	"github.com/Houeta/book-watch/internal/models"
	"github.com/Houeta/book-watch/internal/parser"
	"github.com/Houeta/book-watch/internal/repository"
)

// SessionTracker is the session lifecycle surface consumed by the crawler.
type SessionTracker interface {
	Start(ctx context.Context, totalPages int) (string, error)
	RecordPageResult(ctx context.Context, sessionID string, processedPages int, result models.PageResult) error
	Finalize(ctx context.Context, sessionID string, status models.SessionStatus, errorMessage string) error
	Reopen(ctx context.Context, sessionID string) (*models.CrawlSession, error)
}

// Interface is the orchestrator surface consumed by the scheduler and the bot.
type Interface interface {
	// Run executes one full crawl over all catalog pages.
	Run(ctx context.Context) (*models.CrawlSummary, error)
	// Resume continues a failed session from the page after the last
	// processed one.
	Resume(ctx context.Context, sessionID string) (*models.CrawlSummary, error)
}

// importantFields additionally get a legacy single-field history entry
// when they change.
var importantFields = []string{"price", "price_including_tax", "in_stock"}

// Crawler is the orchestrator for one crawl run.
type Crawler struct {
	log       *slog.Logger
	fetcher   parser.Fetcher
	books     repository.BookRepository
	history   repository.HistoryRepository
	sessions  SessionTracker
	pageDelay time.Duration
}

// NewCrawler creates a new Crawler instance.
func NewCrawler(
	log *slog.Logger,
	fetcher parser.Fetcher,
	books repository.BookRepository,
	history repository.HistoryRepository,
	sessions SessionTracker,
	pageDelay time.Duration,
) *Crawler {
	return &Crawler{
		log:       log,
		fetcher:   fetcher,
		books:     books,
		history:   history,
		sessions:  sessions,
		pageDelay: pageDelay,
	}
}

// Run executes one full crawl: discovers the page count, starts a
// session, processes every page in order and finalizes the session.
// A page fetch whose retries are exhausted aborts the remaining run;
// everything committed before the abort stays in place.
func (c *Crawler) Run(ctx context.Context) (*models.CrawlSummary, error) {
	const opn = "crawler.Run"
	log := c.log.With("op", opn)

	startedAt := time.Now().UTC()

	totalPages, err := c.fetcher.TotalPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to discover total pages: %w", opn, err)
	}
	log.InfoContext(ctx, "Discovered catalog pages", "total_pages", totalPages)

	sessionID, err := c.sessions.Start(ctx, totalPages)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to start session: %w", opn, err)
	}

	summary := &models.CrawlSummary{
		SessionID:  sessionID,
		TotalPages: totalPages,
		StartedAt:  startedAt,
	}

	return c.finishRun(ctx, summary, c.crawlPages(ctx, sessionID, 1, totalPages, summary))
}

// Resume reopens a failed session and continues from the page after the
// last processed one, accumulating counters onto the existing ones.
func (c *Crawler) Resume(ctx context.Context, sessionID string) (*models.CrawlSummary, error) {
	const opn = "crawler.Resume"
	log := c.log.With("op", opn)

	session, err := c.sessions.Reopen(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: cannot resume session %s: %w", opn, sessionID, err)
	}

	summary := &models.CrawlSummary{
		SessionID:    sessionID,
		TotalPages:   session.TotalPages,
		NewBooks:     session.NewBooks,
		UpdatedBooks: session.UpdatedBooks,
		FailedBooks:  session.FailedBooks,
		StartedAt:    session.StartedAt,
	}
	log.InfoContext(ctx, "Resuming crawl", "session_id", sessionID,
		"from_page", session.ProcessedPages+1, "total_pages", session.TotalPages)

	return c.finishRun(ctx, summary, c.crawlPages(ctx, sessionID, session.ProcessedPages+1, session.TotalPages, summary))
}

// finishRun finalizes the session according to how the page loop ended
// and stamps the summary.
func (c *Crawler) finishRun(ctx context.Context, summary *models.CrawlSummary, runErr error) (*models.CrawlSummary, error) {
	summary.CompletedAt = time.Now().UTC()

	if runErr != nil {
		summary.Status = models.SessionFailed
		if err := c.sessions.Finalize(ctx, summary.SessionID, models.SessionFailed, runErr.Error()); err != nil {
			c.log.ErrorContext(ctx, "Failed to finalize failed session",
				"session_id", summary.SessionID, "error", err)
		}
		return summary, runErr
	}

	summary.Status = models.SessionCompleted
	if err := c.sessions.Finalize(ctx, summary.SessionID, models.SessionCompleted, ""); err != nil {
		return summary, fmt.Errorf("failed to finalize completed session %s: %w", summary.SessionID, err)
	}

	c.log.InfoContext(ctx, "Crawl completed",
		"session_id", summary.SessionID,
		"new", summary.NewBooks, "updated", summary.UpdatedBooks, "failed", summary.FailedBooks)

	return summary, nil
}

// crawlPages processes pages firstPage..totalPages strictly in order,
// reporting each page's counters to the session tracker exactly once.
func (c *Crawler) crawlPages(
	ctx context.Context,
	sessionID string,
	firstPage, totalPages int,
	summary *models.CrawlSummary,
) error {
	for page := firstPage; page <= totalPages; page++ {
		// External stop requests take effect on the page boundary: the
		// in-flight page always finishes before the run refuses to proceed.
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("crawl stopped before page %d: %w", page, err)
		}

		bookURLs, err := c.fetcher.BookURLs(ctx, page)
		if err != nil {
			// Retries are already exhausted inside the fetcher; a page
			// that cannot be listed is a fatal, inspectable stopping point.
			return fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		if len(bookURLs) == 0 {
			c.log.WarnContext(ctx, "No book URLs found on page", "page", page)
		}

		var result models.PageResult
		for _, bookURL := range bookURLs {
			switch c.processBook(ctx, sessionID, bookURL) {
			case outcomeNew:
				result.NewBooks++
			case outcomeUpdated:
				result.UpdatedBooks++
			case outcomeFailed:
				result.FailedBooks++
			case outcomeUnchanged:
			}
			result.LastProcessedURL = bookURL
		}

		summary.TotalBooks += len(bookURLs)
		summary.NewBooks += result.NewBooks
		summary.UpdatedBooks += result.UpdatedBooks
		summary.FailedBooks += result.FailedBooks

		if err = c.sessions.RecordPageResult(ctx, sessionID, page, result); err != nil {
			c.log.ErrorContext(ctx, "Failed to record page result",
				"session_id", sessionID, "page", page, "error", err)
		}

		if page < totalPages && c.pageDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(c.pageDelay):
			}
		}
	}

	return nil
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeNew
	outcomeUpdated
	outcomeFailed
)

// processBook ingests a single book URL. Every failure here is local to
// the record: it is counted and the page loop moves on.
func (c *Crawler) processBook(ctx context.Context, sessionID, bookURL string) outcome {
	data, err := c.fetcher.FetchBook(ctx, bookURL)
	if err != nil {
		c.log.WarnContext(ctx, "Failed to fetch book", "url", bookURL, "error", err)
		return outcomeFailed
	}

	newFields := data.ComparableFields()
	newHash := fingerprint.Sum(newFields)

	existing, err := c.books.FindByNaturalKey(ctx, data.RemoteBookID, data.SourceURL)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return c.createBook(ctx, sessionID, data, newHash)
		}
		c.log.WarnContext(ctx, "Failed to look up book", "url", bookURL, "error", err)
		return outcomeFailed
	}

	result := diff.Compare(existing.ContentHash, existing.ComparableFields, newFields, newHash)
	if result.Kind == diff.Unchanged {
		if err = c.books.Touch(ctx, existing.ID, time.Now().UTC()); err != nil {
			c.log.WarnContext(ctx, "Failed to touch unchanged book", "url", bookURL, "error", err)
		}
		return outcomeUnchanged
	}

	return c.updateBook(ctx, sessionID, data, newHash, result)
}

// createBook upserts a previously unseen record and appends its
// "created" change event.
func (c *Crawler) createBook(ctx context.Context, sessionID string, data *models.BookData, hash string) outcome {
	stored, err := c.books.Upsert(ctx, &models.Book{BookData: *data, ContentHash: hash})
	if err != nil {
		c.log.WarnContext(ctx, "Failed to insert new book", "remote_book_id", data.RemoteBookID, "error", err)
		return outcomeFailed
	}

	event := &models.ChangeEvent{
		BookID:         stored.ID,
		Collection:     models.BookCollection,
		ChangeType:     models.ChangeTypeCreated,
		Description:    fmt.Sprintf("Discovered %q during crawl", data.Title),
		CrawlSessionID: sessionID,
	}
	if err = c.history.AppendHistory(ctx, event); err != nil {
		c.log.WarnContext(ctx, "Failed to append created event", "remote_book_id", data.RemoteBookID, "error", err)
		return outcomeFailed
	}

	c.log.DebugContext(ctx, "Created new book", "remote_book_id", stored.RemoteBookID, "title", stored.Title)

	return outcomeNew
}

// updateBook upserts the changed record and records the change history.
func (c *Crawler) updateBook(
	ctx context.Context,
	sessionID string,
	data *models.BookData,
	hash string,
	result diff.Result,
) outcome {
	stored, err := c.books.Upsert(ctx, &models.Book{BookData: *data, ContentHash: hash})
	if err != nil {
		c.log.WarnContext(ctx, "Failed to update book", "remote_book_id", data.RemoteBookID, "error", err)
		return outcomeFailed
	}

	if err = c.recordChange(ctx, sessionID, stored, result); err != nil {
		c.log.WarnContext(ctx, "Failed to append updated event", "remote_book_id", data.RemoteBookID, "error", err)
		return outcomeFailed
	}

	c.log.InfoContext(ctx, "Updated book",
		"remote_book_id", stored.RemoteBookID, "changed_fields", len(result.Diffs))

	return outcomeUpdated
}

// recordChange appends the "updated" change event plus legacy
// single-field summaries for important fields. The structured Changes
// map on the main event is authoritative.
func (c *Crawler) recordChange(
	ctx context.Context,
	sessionID string,
	book *models.Book,
	result diff.Result,
) error {
	event := &models.ChangeEvent{
		BookID:         book.ID,
		Collection:     models.BookCollection,
		ChangeType:     models.ChangeTypeUpdated,
		Changes:        result.Diffs,
		Description:    changeDescription(result),
		CrawlSessionID: sessionID,
	}
	if err := c.history.AppendHistory(ctx, event); err != nil {
		return err
	}

	for _, field := range importantFields {
		change, found := result.Diffs[field]
		if !found {
			continue
		}
		specific := &models.ChangeEvent{
			BookID:         book.ID,
			Collection:     models.BookCollection,
			ChangeType:     field + "_changed",
			FieldChanged:   field,
			OldValue:       fingerprint.Canonical(change.Old),
			NewValue:       fingerprint.Canonical(change.New),
			Description:    fmt.Sprintf("%s changed from %v to %v", fieldTitle(field), change.Old, change.New),
			CrawlSessionID: sessionID,
		}
		if err := c.history.AppendHistory(ctx, specific); err != nil {
			// The authoritative event is already durable; a lost legacy
			// summary is only logged.
			c.log.WarnContext(ctx, "Failed to append field event",
				"remote_book_id", book.RemoteBookID, "field", field, "error", err)
		}
	}

	return nil
}

// changeDescription builds the human-readable summary for an updated event.
func changeDescription(result diff.Result) string {
	if result.HashOnly {
		return "Content hash changed without a detectable field difference"
	}
	if len(result.Diffs) == 1 {
		for field, change := range result.Diffs {
			return fmt.Sprintf("%s updated from %v to %v", field, change.Old, change.New)
		}
	}

	return fmt.Sprintf("Updated %d field(s) during crawl", len(result.Diffs))
}

// fieldTitle renders "price_including_tax" as "Price Including Tax".
func fieldTitle(field string) string {
	words := strings.Split(field, "_")
	for idx, word := range words {
		if word != "" {
			words[idx] = strings.ToUpper(word[:1]) + word[1:]
		}
	}

	return strings.Join(words, " ")
}
