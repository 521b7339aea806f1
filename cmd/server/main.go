// Package main is the entry point for the expense service HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/mattn/go-sqlite3"

	"expensehub/internal/app"
	"expensehub/internal/config"
	internaldb "expensehub/internal/db"
	"expensehub/internal/kvstore"
	"expensehub/internal/middleware"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}
	cfg := config.LoadFromEnv()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	store, cleanup, err := openStore(cfg)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	a, err := app.New(app.Deps{Cfg: cfg, Store: store, Logger: logger})
	if err != nil {
		logger.Error("wire application", "error", err)
		os.Exit(1)
	}

	if cfg.ConsistencyCheckCron != "" {
		if err := a.Checker.Start(cfg.ConsistencyCheckCron); err != nil {
			logger.Error("start consistency checker", "error", err, "schedule", cfg.ConsistencyCheckCron)
			os.Exit(1)
		}
		defer a.Checker.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(cfg, a.Handler.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("expense service listening",
			"addr", cfg.ListenAddr,
			"env", cfg.Env,
			"ephemeral", cfg.Ephemeral(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

// openStore selects the storage backend from config: SQLite when DB_PATH
// is set, in-memory otherwise. The returned cleanup closes any pools.
func openStore(cfg *config.Config) (kvstore.Store, func(), error) {
	if cfg.Ephemeral() {
		return kvstore.NewMemoryStore(), func() {}, nil
	}

	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.DBPath, 4)
	if err != nil {
		return nil, nil, err
	}
	if err := internaldb.RunMigrations(writeDB); err != nil {
		_ = readDB.Close()
		_ = writeDB.Close()
		return nil, nil, err
	}
	cleanup := func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	}
	return kvstore.NewSQLiteStore(writeDB, readDB), cleanup, nil
}

// newRouter assembles the middleware chain around the API routes.
func newRouter(cfg *config.Config, apiRoutes http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))
	r.Mount("/", apiRoutes)
	return r
}
