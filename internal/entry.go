// Package internal wires configuration, storage, git and history into the
// publish, watch, history and pages entry points.
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

	"github.com/starford/zettpub/internal/api"
	"github.com/starford/zettpub/internal/apperr"
	"github.com/starford/zettpub/internal/git"
	"github.com/starford/zettpub/internal/history"
	"github.com/starford/zettpub/internal/models"
	"github.com/starford/zettpub/internal/page"
	"github.com/starford/zettpub/internal/parser"
	"github.com/starford/zettpub/internal/publisher"
	"github.com/starford/zettpub/internal/reconcile"
	"github.com/starford/zettpub/internal/storage"
	"github.com/starford/zettpub/internal/watch"
)

// PageInfo describes a page currently in the destination directory.
type PageInfo struct {
	File    string
	Title   string
	Layout  string
	Exclude bool
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("%w: config is required", apperr.ErrConfig)
	}
	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
		slog.SetDefault(app.logger)
	}
	return app, nil
}

// pipeline holds the components of a publish run.
type pipeline struct {
	publisher *publisher.Publisher
	history   *history.DB
}

func (p *pipeline) Close() error {
	if p.history == nil {
		return nil
	}
	return p.history.Close()
}

func (a *application) buildPipeline(ctx context.Context) (*pipeline, error) {
	cfg := a.config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrConfig, err)
	}

	a.logger.Info("Configuration loaded",
		slog.String("source_path", cfg.Source.Path),
		slog.String("repo_path", cfg.Repo.Path),
		slog.String("subpath", cfg.Pages.Subpath),
		slog.String("tag", cfg.Pages.Tag),
		slog.Bool("push", cfg.Repo.Push),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Self-test the marker before any note is read.
	marker, err := parser.NewMarker(cfg.Pages.Tag)
	if err != nil {
		return nil, err
	}

	repo, err := git.Open(ctx, cfg.Repo.Path)
	if err != nil {
		return nil, err
	}

	src, err := storage.NewFS(cfg.Source.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: source: %w", apperr.ErrConfig, err)
	}

	pagesDir := cfg.Pages.Dir(repo.Root())
	if err := os.MkdirAll(pagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create pages dir: %w", apperr.ErrIO, err)
	}
	dst, err := storage.NewFS(pagesDir)
	if err != nil {
		return nil, fmt.Errorf("%w: destination: %w", apperr.ErrIO, err)
	}

	renderer := page.Renderer{
		Marker:  marker,
		Layout:  cfg.Pages.Layout,
		Exclude: cfg.Pages.Exclude,
		Ext:     page.DefaultExt,
	}
	rec := reconcile.New(src, dst, renderer, reconcile.Options{
		NoteExt:    cfg.Source.Extension,
		IgnoreFile: cfg.Pages.IgnoreFile,
	}, a.logger)

	p := &pipeline{}
	opts := publisher.Options{
		Subpath: cfg.Pages.Subpath,
		Remote:  cfg.Repo.Remote,
		Branch:  cfg.Repo.Branch,
		Push:    cfg.Repo.Push,
	}
	if cfg.History.Enabled() {
		db, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperr.ErrIO, err)
		}
		p.history = db
		opts.History = db
	}
	p.publisher = publisher.New(rec, repo, opts, a.logger)
	return p, nil
}

// Publish runs the publish pipeline once.
func Publish(ctx context.Context, opts ...Option) (*models.Run, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	p, err := app.buildPipeline(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return p.publisher.Publish(ctx)
}

// Watch publishes once, then republishes on every note change until ctx is
// cancelled or the process receives SIGINT or SIGTERM. When the HTTP port is
// set the status API is served alongside.
func Watch(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	p, err := app.buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	republish := func(ctx context.Context) error {
		_, err := p.publisher.Publish(ctx)
		return err
	}
	if err := republish(ctx); err != nil {
		logger.Warn("initial publish failed", slog.String("error", err.Error()))
	}

	g, gCtx := errgroup.WithContext(ctx)
	gCtx, cancel := context.WithCancel(gCtx)
	defer cancel()

	g.Go(func() error {
		return watch.Watch(gCtx, cfg.Source.Path, cfg.Source.Extension, cfg.App.Debounce, logger, republish)
	})

	var httpServer *http.Server
	if cfg.App.HTTP.Enabled() {
		httpServer = &http.Server{
			Addr:              cfg.App.HTTP.Address(),
			Handler:           statusRouter(cfg, p.history, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

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
		cancel()

		if httpServer != nil {
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Watch error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watcher stopped successfully")
	return nil
}

func statusRouter(cfg *Config, db *history.DB, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
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

	if db != nil {
		r.Mount("/api", api.NewRouter(db, logger, cfg.Auth.AuthEnabled(), cfg.Auth.Token))
	}
	return r
}

// History returns the most recent recorded runs.
func History(_ context.Context, limit int, opts ...Option) ([]models.Run, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	if !app.config.History.Enabled() {
		return nil, fmt.Errorf("%w: history is disabled", apperr.ErrConfig)
	}
	db, err := history.Open(app.config.History.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrIO, err)
	}
	defer db.Close()
	return db.ListRuns(limit)
}

// Pages lists the pages currently in the destination directory.
func Pages(_ context.Context, opts ...Option) ([]PageInfo, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	cfg := app.config
	if err := cfg.Repo.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrConfig, err)
	}
	if err := cfg.Pages.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrConfig, err)
	}

	dst, err := storage.NewFS(cfg.Pages.Dir(cfg.Repo.Path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrIO, err)
	}
	metas, err := dst.List(page.DefaultExt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrIO, err)
	}
	out := make([]PageInfo, 0, len(metas))
	for _, m := range metas {
		data, err := dst.Read(m.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperr.ErrIO, err)
		}
		fm, _, err := page.Parse(data)
		if err != nil {
			app.logger.Warn("pages: unreadable front matter", slog.String("file", m.Name), slog.String("error", err.Error()))
		}
		out = append(out, PageInfo{File: m.Name, Title: fm.Title, Layout: fm.Layout, Exclude: fm.Exclude})
	}
	return out, nil
}
