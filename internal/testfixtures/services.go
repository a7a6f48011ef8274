package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/orientation-hub/internal/application"
	"github.com/example/orientation-hub/internal/persistence"
	"github.com/example/orientation-hub/internal/persistence/memory"
)

// SessionSecret is the secret used by factory-built session issuers.
const SessionSecret = "test-session-secret"

// ServiceFactory assists tests with constructing application services over a
// shared store using deterministic identifiers and clocks.
type ServiceFactory struct {
	Store       persistence.Store
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// WithStore replaces the default in-memory store.
func WithStore(store persistence.Store) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Store = store }
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Clock = clock }
}

// NewServiceFactory constructs a ServiceFactory. By default services share a
// memory store that issues ids from the factory's IDGenerator.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("rec"),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Store == nil {
		factory.Store = memory.New(memory.WithIDGenerator(factory.IDGenerator.NextFunc()))
	}
	return factory
}

// Directory loads a UserDirectory from the factory store.
func (f *ServiceFactory) Directory(tb testing.TB) *application.UserDirectory {
	tb.Helper()
	directory, err := application.NewUserDirectory(context.Background(), f.Store, f.Logger)
	if err != nil {
		tb.Fatalf("failed to load directory: %v", err)
	}
	return directory
}

// Tasks builds a TaskService bound to directory.
func (f *ServiceFactory) Tasks(directory *application.UserDirectory) *application.TaskService {
	return application.NewTaskService(directory, f.Store, f.Logger)
}

// Leaderboard builds a LeaderboardAggregator.
func (f *ServiceFactory) Leaderboard() *application.LeaderboardAggregator {
	return application.NewLeaderboardAggregator(f.Store, f.Logger)
}

// Forum builds a Forum stamped by the factory clock.
func (f *ServiceFactory) Forum() *application.Forum {
	return application.NewForum(f.Store, f.Clock.NowFunc(), f.Logger)
}

// Catalog builds a ClassCatalog.
func (f *ServiceFactory) Catalog() *application.ClassCatalog {
	return application.NewClassCatalog(f.Store, f.Logger)
}

// Sessions builds a SessionIssuer driven by the factory clock.
func (f *ServiceFactory) Sessions(tb testing.TB, ttl time.Duration) *application.SessionIssuer {
	tb.Helper()
	issuer, err := application.NewSessionIssuer(SessionSecret, ttl, f.Clock.NowFunc(), f.Logger)
	if err != nil {
		tb.Fatalf("failed to build session issuer: %v", err)
	}
	return issuer
}
