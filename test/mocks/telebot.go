package mocks

import (
	"context"

	"github.com/Houeta/book-watch/internal/models"
	"github.com/stretchr/testify/mock"
	"gopkg.in/telebot.v4"
)

// API mocks bot.API.
type API struct {
	mock.Mock
}

func (m *API) Handle(endpoint interface{}, h telebot.HandlerFunc, _ ...telebot.MiddlewareFunc) {
	m.Called(endpoint, h)
}

func (m *API) Start() {
	m.Called()
}

func (m *API) Stop() {
	m.Called()
}

func (m *API) NewContext(u telebot.Update) telebot.Context {
	args := m.Called(u)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(telebot.Context)
}

func (m *API) Send(to telebot.Recipient, what interface{}, _ ...interface{}) (*telebot.Message, error) {
	args := m.Called(to, what)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*telebot.Message), args.Error(1)
}

// Subscriptions mocks bot.Subscriptions.
type Subscriptions struct {
	mock.Mock
}

func (m *Subscriptions) SubscribeChat(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *Subscriptions) UnsubscribeChat(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *Subscriptions) GetSubscribedChats(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// Crawler mocks crawler.Interface.
type Crawler struct {
	mock.Mock
}

func (m *Crawler) Run(ctx context.Context) (*models.CrawlSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CrawlSummary), args.Error(1)
}

func (m *Crawler) Resume(ctx context.Context, sessionID string) (*models.CrawlSummary, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CrawlSummary), args.Error(1)
}

// Notifier mocks scheduler.Notifier.
type Notifier struct {
	mock.Mock
}

func (m *Notifier) NotifySummary(ctx context.Context, summary *models.CrawlSummary) {
	m.Called(ctx, summary)
}
