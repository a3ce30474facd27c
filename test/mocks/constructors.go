package mocks

import "github.com/stretchr/testify/mock"

// testingT is the subset of *testing.T the mock constructors need.
type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// NewFetcher creates a new instance of Fetcher. It also registers a
// testing interface on the mock and a cleanup function to assert the
// mocks expectations.
func NewFetcher(t testingT) *Fetcher {
	m := &Fetcher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// NewBookRepository creates a new instance of BookRepository.
func NewBookRepository(t testingT) *BookRepository {
	m := &BookRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// NewHistoryRepository creates a new instance of HistoryRepository.
func NewHistoryRepository(t testingT) *HistoryRepository {
	m := &HistoryRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(t testingT) *SessionRepository {
	m := &SessionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// NewSessionTracker creates a new instance of SessionTracker.
func NewSessionTracker(t testingT) *SessionTracker {
	m := &SessionTracker{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// NewCrawler creates a new instance of Crawler.
func NewCrawler(t testingT) *Crawler {
	m := &Crawler{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// NewNotifier creates a new instance of Notifier.
func NewNotifier(t testingT) *Notifier {
	m := &Notifier{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// NewSubscriptions creates a new instance of Subscriptions.
func NewSubscriptions(t testingT) *Subscriptions {
	m := &Subscriptions{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// NewAPI creates a new instance of API.
func NewAPI(t testingT) *API {
	m := &API{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
