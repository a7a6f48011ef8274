package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/orientation-hub/internal/application"
	"github.com/example/orientation-hub/internal/config"
	httptransport "github.com/example/orientation-hub/internal/http"
	"github.com/example/orientation-hub/internal/logging"
	"github.com/example/orientation-hub/internal/persistence"
	"github.com/example/orientation-hub/internal/persistence/memory"
	"github.com/example/orientation-hub/internal/persistence/mongo"
	"github.com/example/orientation-hub/internal/persistence/sqlite"
)

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		logger.Error("failed to load .env file", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger = logging.New(os.Stdout, cfg.LogLevel)

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	handler, err := newHandler(ctx, cfg, store, time.Now, logger)
	if err != nil {
		logger.Error("failed to initialise services", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("orientation API listening", "addr", server.Addr, "driver", cfg.StoreDriver, "legacy_username_tokens", cfg.LegacyUsernameTokens)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// openStore opens and prepares the record store selected by cfg.StoreDriver.
func openStore(ctx context.Context, cfg config.Config) (persistence.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		return memory.New(), nil
	case config.StoreDriverSQLite:
		store, err := sqlite.Open(sqlite.DefaultConfig(cfg.SQLiteDSN))
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return store, nil
	case config.StoreDriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		store, err := mongo.Connect(connectCtx, cfg.MongoURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// newHandler wires the services over store and returns the HTTP entry point.
func newHandler(ctx context.Context, cfg config.Config, store persistence.Store, now func() time.Time, logger *slog.Logger) (http.Handler, error) {
	directory, err := application.NewUserDirectory(ctx, store, logger)
	if err != nil {
		return nil, err
	}
	sessions, err := application.NewSessionIssuer(cfg.SessionSecret, cfg.SessionTTL, now, logger)
	if err != nil {
		return nil, err
	}

	tasks := application.NewTaskService(directory, store, logger)
	leaderboard := application.NewLeaderboardAggregator(store, logger)
	forum := application.NewForum(store, now, logger)
	catalog := application.NewClassCatalog(store, logger)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:    httptransport.NewAuthHandler(directory, sessions, logger, httptransport.WithSecureCookie(cfg.SecureCookies)),
		Users:   httptransport.NewUserHandler(directory, logger),
		Tasks:   httptransport.NewTaskHandler(tasks, leaderboard, logger),
		Forum:   httptransport.NewForumHandler(forum, directory, logger),
		Classes: httptransport.NewClassHandler(catalog, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.AllowAllOrigins,
			httptransport.ResolvePrincipal(sessions, cfg.LegacyUsernameTokens, logger),
		},
	}), nil
}
