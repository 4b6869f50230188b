package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/ammotrack/internal/ai"
	"github.com/crucial707/ammotrack/internal/cache"
	"github.com/crucial707/ammotrack/internal/config"
	"github.com/crucial707/ammotrack/internal/db"
	"github.com/crucial707/ammotrack/internal/repo"
	"github.com/crucial707/ammotrack/internal/scheduler"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database FIRST
	database, err := db.Connect(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to database", "host", cfg.DBHost, "db", cfg.DBName, "err", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.Info("connected to database", "host", cfg.DBHost, "db", cfg.DBName)

	version, err := db.Migrate(cfg.DatabaseURL())
	if err != nil {
		slog.Error("failed to apply migrations", "err", err)
		os.Exit(1)
	}
	slog.Info("schema up to date", "version", version)

	// Optional AI response cache
	var aiCache cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		client, err := cache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Warn("redis unavailable, ai responses will not be cached", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer client.Close()
			aiCache = cache.NewRedisCache(client)
			slog.Info("ai response cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.AICacheTTL())
		}
	}

	var gen ai.Generator
	if cfg.AIEnabled() {
		g, err := ai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			slog.Error("failed to create ai client", "err", err)
			os.Exit(1)
		}
		gen = g
		slog.Info("ai flows enabled", "model", g.Model())
	} else {
		slog.Info("GEMINI_API_KEY not set, ai routes will answer 503")
	}

	checker := &scheduler.AlertChecker{
		Alerts:    repo.NewAlertRepo(database),
		Inventory: repo.NewInventoryRepo(database),
		Audit:     repo.NewAuditRepo(database),
	}
	go func() {
		if err := scheduler.Run(ctx, cfg.AlertCheckCron, checker, 30*time.Second); err != nil {
			slog.Error("alert scheduler stopped", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(database, cfg, gen, aiCache),
		ReadHeaderTimeout: 10 * time.Second,
		// AI calls can take most of a minute.
		WriteTimeout: cfg.AITimeout() + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.Port, "tls", cfg.TLSEnabled(), "env", cfg.Env)
		if cfg.TLSEnabled() {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "err", err)
		}
	}
}

func setupLogger(format string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if format == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
