// Package scheduler owns the periodic trigger that starts crawl runs.
// It holds a single cron runner created at process start and stopped at
// shutdown; no other scheduling state exists in the process.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/book-watch/internal/models"
	"github.com/Houeta/book-watch/internal/services/crawler"
	"github.com/robfig/cron/v3"
)

// Notifier receives the summary of every finished crawl run.
type Notifier interface {
	NotifySummary(ctx context.Context, summary *models.CrawlSummary)
}

// Scheduler triggers the crawl orchestrator on a fixed interval.
type Scheduler struct {
	log      *slog.Logger
	cron     *cron.Cron
	crawler  crawler.Interface
	notifier Notifier
	interval time.Duration
}

// New creates a Scheduler that runs the crawler every interval. The
// notifier may be nil. Overlapping runs are skipped: if a crawl is
// still in flight when the next tick fires, that tick does nothing.
func New(log *slog.Logger, crawlerInstance crawler.Interface, notifier Notifier, interval time.Duration) *Scheduler {
	return &Scheduler{
		log:      log,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		crawler:  crawlerInstance,
		notifier: notifier,
		interval: interval,
	}
}

// Start registers the crawl job and starts the cron runner. The given
// context is used for every triggered run.
func (s *Scheduler) Start(ctx context.Context) error {
	const opn = "scheduler.Start"

	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() { s.runCrawl(ctx) }); err != nil {
		return fmt.Errorf("%s: failed to register crawl job: %w", opn, err)
	}

	s.cron.Start()
	s.log.InfoContext(ctx, "Scheduler started", "interval", s.interval)

	return nil
}

// RunNow triggers one crawl immediately, outside the periodic schedule.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.runCrawl(ctx)
}

// Stop stops the cron runner and waits for an in-flight run to finish,
// bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.log.InfoContext(ctx, "Scheduler stopped")
	case <-ctx.Done():
		s.log.WarnContext(ctx, "Scheduler stop timed out with a crawl still in flight")
	}
}

func (s *Scheduler) runCrawl(ctx context.Context) {
	const opn = "scheduler.runCrawl"
	log := s.log.With("op", opn)

	log.InfoContext(ctx, "Starting scheduled crawl")

	summary, err := s.crawler.Run(ctx)
	if err != nil {
		if summary != nil {
			log.ErrorContext(ctx, "Scheduled crawl failed",
				"session_id", summary.SessionID, "error", err)
		} else {
			log.ErrorContext(ctx, "Scheduled crawl failed before a session was started", "error", err)
		}
	} else {
		log.InfoContext(ctx, "Scheduled crawl finished",
			"session_id", summary.SessionID,
			"new", summary.NewBooks, "updated", summary.UpdatedBooks, "failed", summary.FailedBooks)
	}

	if s.notifier != nil && summary != nil {
		s.notifier.NotifySummary(ctx, summary)
	}
}
