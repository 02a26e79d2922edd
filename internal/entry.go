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

	"github.com/starford/shelf/internal/api"
	"github.com/starford/shelf/internal/backup"
	"github.com/starford/shelf/internal/index"
	"github.com/starford/shelf/internal/library"
	"github.com/starford/shelf/internal/mcpserver"
	"github.com/starford/shelf/internal/sse"
)

// Run starts the HTTP server, the directory watcher and, when configured,
// the backup scheduler. It returns after a shutdown signal or when ctx is
// cancelled.
func Run(ctx context.Context, opts ...Option) error {
	app, st, err := setup(opts, true)
	if err != nil {
		return err
	}
	defer st.close()

	cfg := app.config
	logger := st.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("works_dir", st.works.Files().Dir()),
		slog.String("notes_dir", st.notes.Files().Dir()),
		slog.String("covers_dir", st.covers.Dir()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := st.service(library.WithPublisher(broker))
	apiRouter := api.NewRouter(svc, api.RouterConfig{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      broker,
		Covers:      st.covers,
		ExportDir:   cfg.Library.ExportDir,
	})

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
		if _, err := st.db.Count(index.Works); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"index unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Cover images are referenced from pages, so they are served without auth.
	r.Get("/covers/{filename}", api.NewCoverFiles(st.covers).ServeFile)

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// File watcher feeding the SSE broker.
	g.Go(func() error {
		err := index.Watch(gCtx, st.db, logger, func(collection, kind, id string) {
			switch collection {
			case index.Works:
				broker.PublishWorkEvent(kind, id)
			case index.Notes:
				broker.PublishNoteEvent(kind, id)
			}
		}, st.sources...)
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	if cfg.Backup.Enabled() {
		sched, err := backup.New(svc, cfg.Backup.Schedule, cfg.Backup.Destination, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return sched.Run(gCtx) })
	}

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	_, st, err := setup(opts, true)
	if err != nil {
		return err
	}
	defer st.close()

	st.logger.Info("MCP server starting on stdio")
	return mcpserver.New(st.service(), st.covers).ServeStdio()
}
