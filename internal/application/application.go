package application

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ggranum/fetherbrik/internal/api"
	"github.com/ggranum/fetherbrik/internal/bootstrap"
	"github.com/ggranum/fetherbrik/internal/config"
	"github.com/ggranum/fetherbrik/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	config  *config.Config
	storage storage.Store
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application from the bootstrapped configuration. The
// redacted effective configuration is saved to store before the server is built.
func New(cfg *config.Config, logger *zap.Logger, store storage.Store) (*App, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = storage.NewMemoryStore()
	}

	info := api.ServiceInfo{
		AppName: config.AppName,
		Env:     cfg.Env.String(),
		Version: versionString(cfg),
		RunID:   cfg.RunID,
	}
	if err := SaveSnapshot(cfg, store, info); err != nil {
		return nil, err
	}

	handler := api.NewHandler(info, store)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithAllowedOrigins(cfg.CORSOrigins),
	)

	return &App{
		config:  cfg,
		storage: store,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, apiRouter),
	}, nil
}

// SaveSnapshot stores the redacted effective configuration.
func SaveSnapshot(cfg *config.Config, store storage.Store, info api.ServiceInfo) error {
	body, err := cfg.ToJSON5(true)
	if err != nil {
		return fmt.Errorf("failed to encode effective configuration: %w", err)
	}
	err = store.Save(storage.Snapshot{
		RunID:   info.RunID,
		Env:     info.Env,
		Version: info.Version,
		SavedAt: time.Now().UTC(),
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to save effective configuration: %w", err)
	}
	return nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.String("env", a.config.Env.String()),
		)
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

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

func versionString(cfg *config.Config) string {
	if cfg.Version == nil {
		return bootstrap.MissingVersion.String()
	}
	return cfg.Version.String()
}
