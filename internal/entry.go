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

	"github.com/starford/tether/internal/api"
	"github.com/starford/tether/internal/catalog"
	"github.com/starford/tether/internal/index"
	"github.com/starford/tether/internal/mcpserver"
	"github.com/starford/tether/internal/render"
	"github.com/starford/tether/internal/scanner"
	"github.com/starford/tether/internal/sse"
	"github.com/starford/tether/internal/storage"
	"github.com/starford/tether/internal/workspace"
)

// core is what both the HTTP server and the MCP server run on.
type core struct {
	cfg     *Config
	logger  *slog.Logger
	store   storage.Provider
	db      *index.DB
	catalog *catalog.Store
	ws      *workspace.Service
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// setup opens the vault and its index, syncs them and builds the workspace.
// Events go to broker when it is non-nil.
func setup(ctx context.Context, app *application, broker *sse.Broker) (*core, error) {
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("overlap", cfg.Highlight.Overlap),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	rep, err := index.Sync(db, store, logger)
	if err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logger.Info("initial sync done", slog.Int("indexed", rep.Indexed), slog.Int("removed", rep.Removed))
	}

	var catOpts []catalog.StoreOption
	wsOpts := []workspace.Option{
		workspace.WithRenderOptions(
			render.WithClass(cfg.Highlight.ClassName),
			render.WithOverlap(scanner.ParseOverlapPolicy(cfg.Highlight.Overlap)),
		),
	}
	if broker != nil {
		catOpts = append(catOpts, catalog.WithOnRefresh(func(c *catalog.Catalog) {
			broker.PublishCatalogRefreshed(c.Len())
		}))
		wsOpts = append(wsOpts,
			workspace.WithPublisher(broker),
			workspace.WithNudgeDelay(cfg.Highlight.NudgeDelay))
	}
	cat := catalog.NewStore(db, logger, catOpts...)
	if _, err := cat.Refresh(ctx); err != nil {
		logger.Warn("initial catalog build failed", slog.String("error", err.Error()))
	}

	return &core{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		db:      db,
		catalog: cat,
		ws:      workspace.NewService(store, db, cat, logger, wsOpts...),
	}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	broker := sse.NewBroker(cfg.Highlight.CatalogThrottle)
	defer broker.Close()

	c, err := setup(ctx, app, broker)
	if err != nil {
		return err
	}
	defer c.db.Close()
	logger := c.logger

	apiRouter := api.NewRouter(c.ws, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		_, _ = fmt.Fprintf(w, `{"status":"ok","pages":%d,"views":%d}`, c.catalog.Snapshot().Len(), len(c.ws.Views()))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	watcher := index.NewWatcher(c.db, c.store, cfg.Vault.Path, logger,
		index.WithDebounce(cfg.Highlight.WatchDebounce),
		index.WithOnChange(func(kind index.ChangeKind, path string) {
			broker.PublishVaultChange(string(kind), path)
			c.ws.FileChanged(gCtx, path)
		}))
	g.Go(func() error {
		if err := watcher.Run(gCtx); err != nil {
			logger.Error("watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once the server has been asked to stop.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to the configured
// log output, which must not be stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.logOutput == os.Stdout {
		app.logOutput = os.Stderr
	}

	c, err := setup(ctx, app, nil)
	if err != nil {
		return err
	}
	defer c.db.Close()

	c.logger.Info("MCP server starting on stdio")
	if err := mcpserver.New(c.ws, app.version).ServeStdio(); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
