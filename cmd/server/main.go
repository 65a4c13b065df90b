package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prepdesk/progress-engine/internal/attempt"
	"github.com/prepdesk/progress-engine/internal/curriculum"
	"github.com/prepdesk/progress-engine/internal/platform/cache"
	"github.com/prepdesk/progress-engine/internal/platform/config"
	"github.com/prepdesk/progress-engine/internal/platform/database"
	"github.com/prepdesk/progress-engine/internal/progress"
	"github.com/prepdesk/progress-engine/internal/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer app.close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.mux(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// app holds the wired services. Backing stores are optional: a missing
// backend degrades the dependent endpoints to 503 instead of preventing
// startup, so statistics stay available whenever at least one source is.
type app struct {
	curricula *curriculum.Loader
	stats     *stats.Service
	progress  *progress.Service
	hub       *statsHub

	db    *database.DB
	cache *cache.Cache
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	curricula, err := curriculum.NewLoader(cfg.CurriculumPath)
	if err != nil {
		return nil, fmt.Errorf("load curricula: %w", err)
	}
	a.curricula = curricula

	if db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns); err != nil {
		slog.Warn("database unavailable, attempt statistics disabled", "error", err)
	} else {
		a.db = db
	}

	if c, err := cache.New(ctx, cfg.Cache.URL); err != nil {
		slog.Warn("cache unavailable, progress falls back to in-memory store", "error", err)
	} else {
		a.cache = c
	}

	if a.db != nil {
		current, err := attempt.NewCurrentSource(a.db.Pool)
		if err != nil {
			return nil, fmt.Errorf("current attempt source: %w", err)
		}
		legacy, err := attempt.NewLegacySource(a.db.Pool)
		if err != nil {
			return nil, fmt.Errorf("legacy attempt source: %w", err)
		}
		a.stats = stats.NewService(attempt.NewFetcher(current, legacy))
	}

	a.progress = newProgressService(cfg, a.db, a.cache)
	a.hub = newStatsHub(a.stats, a.curricula)
	a.progress.OnChange(a.hub.progressChanged)

	return a, nil
}

func newProgressService(cfg *config.Config, db *database.DB, c *cache.Cache) *progress.Service {
	var remote progress.RemoteStore
	if db != nil {
		if store, err := progress.NewPostgresStore(db.Pool); err == nil {
			remote = store
		}
	}
	if remote == nil {
		// Unreachable remote: every Load takes the local-fallback path.
		remote = &progress.MemoryStore{Err: progress.ErrNotFound}
	}

	var local progress.LocalCache
	if c != nil {
		if rc, err := progress.NewRedisCache(c.Client); err == nil {
			local = rc
		}
	}
	if local == nil {
		local = progress.NewMemoryStore()
	}

	var events progress.EventLogger = progress.NopEventLogger{}
	if cfg.Progress.LogEvents && db != nil {
		events = progress.NewPostgresEventLogger(db.Pool)
	}

	svc := progress.NewService(remote, local, events)
	svc.SetDefaultGoal(cfg.Progress.DefaultGoal)
	return svc
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.cache != nil {
		a.cache.Close()
	}
}
