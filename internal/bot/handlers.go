package bot

import (
	"context"
	"fmt"

	"github.com/Houeta/book-watch/internal/repository"
	"gopkg.in/telebot.v4"
)

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	b.log.Info("User started the bot", "username", ctx.Sender().Username)

	if err := ctx.Send("Hello! Use /subscribe to receive crawl summaries and /status to see the latest crawl session."); err != nil {
		return fmt.Errorf("failed to send greeting message: %w", err)
	}

	return nil
}

// subscribeHandler process command /subscribe.
func (b *Bot) subscribeHandler(ctx telebot.Context) error {
	chatID := ctx.Chat().ID
	if err := b.subs.SubscribeChat(context.Background(), chatID); err != nil {
		b.log.Error("Failed to subscribe chat", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to subscribe chat: %w", err)
	}

	if err := ctx.Send("Subscribed. You will receive a summary after every crawl run."); err != nil {
		return fmt.Errorf("failed to send subscribe confirmation: %w", err)
	}

	return nil
}

// unsubscribeHandler process command /unsubscribe.
func (b *Bot) unsubscribeHandler(ctx telebot.Context) error {
	chatID := ctx.Chat().ID
	if err := b.subs.UnsubscribeChat(context.Background(), chatID); err != nil {
		b.log.Error("Failed to unsubscribe chat", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to unsubscribe chat: %w", err)
	}

	if err := ctx.Send("Unsubscribed."); err != nil {
		return fmt.Errorf("failed to send unsubscribe confirmation: %w", err)
	}

	return nil
}

// statusHandler process command /status: reports the latest crawl session.
func (b *Bot) statusHandler(ctx telebot.Context) error {
	sessions, err := b.sessions.ListSessions(context.Background(), repository.SessionFilter{Limit: 1})
	if err != nil {
		b.log.Error("Failed to list sessions", "error", err)
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		if err = ctx.Send("No crawl sessions yet."); err != nil {
			return fmt.Errorf("failed to send status message: %w", err)
		}
		return nil
	}

	latest := sessions[0]
	message := fmt.Sprintf(
		"Session %s: %s\nPages: %d/%d\nNew: %d, updated: %d, failed: %d",
		latest.SessionID, latest.Status,
		latest.ProcessedPages, latest.TotalPages,
		latest.NewBooks, latest.UpdatedBooks, latest.FailedBooks,
	)
	if latest.ErrorMessage != "" {
		message += "\nError: " + latest.ErrorMessage
	}

	if err = ctx.Send(message); err != nil {
		return fmt.Errorf("failed to send status message: %w", err)
	}

	return nil
}
