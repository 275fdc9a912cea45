package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"palmopsim/internal/config"
	"palmopsim/internal/handlers/archive"
	"palmopsim/internal/handlers/compare"
	"palmopsim/internal/handlers/dashboard"
	apphttp "palmopsim/internal/http"
	"palmopsim/internal/logging"
	"palmopsim/internal/services/comparison"
	"palmopsim/internal/services/results"
	"palmopsim/internal/services/simulation"
	"palmopsim/internal/services/storage"
	"palmopsim/internal/templates"
	"palmopsim/internal/version"
)

var (
	cfg      *config.Config
	logger   = zap.NewNop()
	renderer *templates.Renderer
	store    *storage.Storage
)

func main() {
	cfg = config.Load()

	l, err := logging.New(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	if err := SetupDependencies(cfg, l); err != nil {
		l.Fatal("setup failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Warn("shutdown", zap.Error(err))
		}
	}()

	l.Info("starting PalmOpsSim",
		zap.String("addr", cfg.ListenAddr),
		zap.String("version", version.Get().Short()),
		zap.String("exports", cfg.ExportDirectory))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Fatal("server stopped", zap.Error(err))
	}
	l.Info("server stopped")
}

// SetupDependencies builds the services and hands them to the handler packages
func SetupDependencies(c *config.Config, l *zap.Logger) error {
	cfg = c
	if l != nil {
		logger = l
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	presets, err := config.LoadPresets(cfg.PresetFile)
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}

	store, err = storage.New(cfg.ExportDirectory)
	if err != nil {
		return fmt.Errorf("open export directory: %w", err)
	}
	if cfg.ExportPassphrase != "" {
		if err := store.SetPassphrase(cfg.ExportPassphrase); err != nil {
			return fmt.Errorf("export passphrase: %w", err)
		}
		logger.Info("archived exports will be encrypted")
	}

	renderer, err = templates.New(cfg.TemplatesDirectory, cfg.Debug, logger)
	if err != nil {
		// pages fall back to a plain error until the templates are fixed
		logger.Warn("could not load templates", zap.Error(err))
	}

	engine := simulation.NewEngine(simulation.WithLogger(logger))
	cache := results.NewCache(engine, cfg.CacheSize, logger)
	runner := comparison.NewRunner(engine, logger)

	dashboard.Initialize(renderer, cache, presets, store, logger)
	compare.Initialize(renderer, runner, presets, logger)
	archive.Initialize(renderer, store, logger)
	return nil
}

// SetupRouter creates the chi router with all routes
func SetupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	fileServer := http.FileServer(http.Dir(cfg.StaticDirectory))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
	})

	dashboard.RegisterRoutes(r)
	compare.RegisterRoutes(r)
	archive.RegisterRoutes(r)

	r.Get("/api/health", handleHealth)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	apphttp.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Get().Version,
	})
}
