package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/burnvault/internal/api"
	"github.com/eugenenazirov/burnvault/internal/catalog"
	"github.com/eugenenazirov/burnvault/internal/config"
	"github.com/eugenenazirov/burnvault/internal/optimizer"
	"github.com/eugenenazirov/burnvault/internal/planner"
	"github.com/eugenenazirov/burnvault/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	catalog catalog.Catalog
	storage storage.Storage
	planner *planner.Service
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	cat, err := openCatalog(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.SeedSample {
		added, err := catalog.SeedSample(context.Background(), cat)
		if err != nil {
			_ = cat.Close()
			return nil, fmt.Errorf("failed to seed sample catalog: %w", err)
		}
		if added > 0 {
			logger.Info("seeded sample catalog", zap.Int("items", added))
		}
	}

	store := storage.NewMemoryStorage()
	if err := store.SetCapacities(cfg.CategoryCapacities()); err != nil {
		_ = cat.Close()
		return nil, fmt.Errorf("failed to apply initial capacities: %w", err)
	}

	solver := optimizer.New(cfg.SolverOptions()...)
	svc := planner.New(cat, store, solver, logger)
	handler := api.NewHandler(svc, cat, store)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		catalog: cat,
		storage: store,
		planner: svc,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

func openCatalog(cfg config.Config) (catalog.Catalog, error) {
	switch cfg.CatalogDriver {
	case config.DriverSQLite:
		cat, err := catalog.OpenSQLite(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		return cat, nil
	case config.DriverMemory, "":
		return catalog.NewMemoryCatalog(), nil
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", cfg.CatalogDriver)
	}
}

// BuildRootHandler mounts the API under /api/ and answers 404 for everything else.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Close releases the catalog. Call it after the server has shut down.
func (a *App) Close() error {
	if err := a.catalog.Close(); err != nil {
		return fmt.Errorf("close catalog: %w", err)
	}
	return nil
}
