package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/book-watch/internal/models"
	"gopkg.in/telebot.v4"
)

// Bot contains the bot API instance and other information.
type Bot struct {
	bot      API
	log      *slog.Logger
	subs     Subscriptions
	sessions Sessions
}

func NewBot(log *slog.Logger, token string, poller time.Duration, subs Subscriptions, sessions Sessions) (*Bot, error) {
	api, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on acount", "account", api.Me.Username)

	botInstance := &Bot{bot: api, log: log, subs: subs, sessions: sessions}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// NotifySummary broadcasts the result of a crawl run to all subscribed chats.
func (b *Bot) NotifySummary(ctx context.Context, summary *models.CrawlSummary) {
	chatIDs, err := b.subs.GetSubscribedChats(ctx)
	if err != nil {
		b.log.ErrorContext(ctx, "Failed to load subscribed chats", "error", err)
		return
	}

	message := formatSummary(summary)
	for _, chatID := range chatIDs {
		if _, err = b.bot.Send(telebot.ChatID(chatID), message); err != nil {
			b.log.WarnContext(ctx, "Failed to send crawl summary", "chat_id", chatID, "error", err)
		}
	}
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	// Public routes.
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/subscribe", b.subscribeHandler)
	b.bot.Handle("/unsubscribe", b.unsubscribeHandler)
	b.bot.Handle("/status", b.statusHandler)
}

// formatSummary renders a crawl summary as a human-readable message.
func formatSummary(summary *models.CrawlSummary) string {
	return fmt.Sprintf(
		"Crawl %s finished with status %s.\nPages: %d, books: %d\nNew: %d, updated: %d, failed: %d",
		summary.SessionID, summary.Status,
		summary.TotalPages, summary.TotalBooks,
		summary.NewBooks, summary.UpdatedBooks, summary.FailedBooks,
	)
}
