// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/enrich"
	"github.com/starford/raido/internal/export"
	"github.com/starford/raido/internal/fetch"
	"github.com/starford/raido/internal/pipeline"
	"github.com/starford/raido/internal/scanner"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/store"
)

// newLogger builds the structured JSON logger and installs it as default.
func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// feedOptions maps feed config onto export options.
func feedOptions(cfg *Config) export.FeedOptions {
	return export.FeedOptions{
		Title:       cfg.Feed.Title,
		Description: cfg.Feed.Description,
		SiteURL:     cfg.Feed.SiteURL,
		Limit:       cfg.Feed.Limit,
	}
}

// buildPipeline wires the scanner, fetchers, and enrichers into a pipeline.
// broker may be nil for CLI runs that have no event stream.
func buildPipeline(cfg *Config, db *store.DB, broker *sse.Broker, logger *slog.Logger) *pipeline.Pipeline {
	timeout := time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second

	fetcher := fetch.NewFetcher(fetch.Options{
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		Timeout:           timeout,
		MaxContentLength:  cfg.Fetch.MaxContentLength,
		UserAgent:         cfg.Fetch.UserAgent,
	})
	pdf := fetch.NewPDFFetcher(fetch.PDFOptions{
		Timeout:   timeout,
		UserAgent: cfg.Fetch.UserAgent,
	})

	var summarizer enrich.Summarizer
	var tagger enrich.Tagger
	if cfg.LLM.Enabled() {
		client := enrich.NewClient(enrich.ClientConfig{
			Endpoint:  cfg.LLM.Endpoint,
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
		})
		summarizer = enrich.NewSummarizer(client)
		tagger = enrich.NewTagger(client, logger)
	}

	return pipeline.New(db, scanner.New(cfg.Notes.Path), fetcher, pdf, summarizer, tagger, pipeline.Options{
		BatchSize:        cfg.Pipeline.BatchSize,
		ExtractMaxLength: cfg.Pipeline.ExtractMaxLength,
		Events:           broker,
		Logger:           logger,
	})
}

// Run starts the HTTP server and the notes watcher with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("notes_path", cfg.Notes.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure notes directory exists.
	if err := os.MkdirAll(cfg.Notes.Path, 0o755); err != nil {
		return fmt.Errorf("create notes dir: %w", err)
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	pipe := buildPipeline(cfg, db, broker, logger)

	// Catch up on notes written while the server was down.
	if _, created, err := pipe.Extract(ctx, "", ""); err != nil {
		logger.Warn("initial extract failed", slog.String("error", err.Error()))
	} else if created > 0 {
		logger.Info("initial extract", slog.Int("new_links", created))
	}

	apiRouter := api.NewRouter(db, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, feedOptions(cfg))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)

	// Watch the notes directory and extract links as files change.
	g.Go(func() error {
		return pipe.Watch(gCtx, cfg.Notes.Path, logger)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Unblocks the watcher goroutine.
		stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
