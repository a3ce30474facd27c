package bot

import (
	"context"

	"github.com/Houeta/book-watch/internal/models"
	"github.com/Houeta/book-watch/internal/repository"
	"gopkg.in/telebot.v4"
)

// API is the subset of the telebot surface the bot relies on.
type API interface {
	// Handle lets you set the handler for some command name or one of the supported endpoints. It also applies middleware if such passed to the function.
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
	// Start brings bot into motion by consuming incoming updates (see Bot.Updates channel).
	Start()
	// Stop gracefully shuts the poller down.
	Stop()

	NewContext(u telebot.Update) telebot.Context

	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Subscriptions is the chat subscription storage used for broadcasts.
type Subscriptions interface {
	SubscribeChat(ctx context.Context, chatID int64) error
	UnsubscribeChat(ctx context.Context, chatID int64) error
	GetSubscribedChats(ctx context.Context) ([]int64, error)
}

// Sessions exposes crawl session state to the status command.
type Sessions interface {
	ListSessions(ctx context.Context, filter repository.SessionFilter) ([]models.CrawlSession, error)
}
