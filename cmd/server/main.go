package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ggranum/fetherbrik/internal/application"
	"github.com/ggranum/fetherbrik/internal/bootstrap"
	"github.com/ggranum/fetherbrik/internal/config"
	"github.com/ggranum/fetherbrik/internal/configerr"
	"github.com/ggranum/fetherbrik/internal/logging"
	"github.com/ggranum/fetherbrik/internal/schema"
	"github.com/ggranum/fetherbrik/internal/storage"
)

const runtimeDir = "runtime"

var signalNotify = signal.Notify

func main() {
	bootLogger, err := logging.New()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	cfg, err := config.Load(bootstrap.New(config.Options(os.Args[1:]), bootLogger))
	_ = bootLogger.Sync()
	if err != nil {
		os.Exit(reportFailure(os.Stderr, err))
	}

	logger, err := logging.New(logging.ForEnvironment(cfg.Env)...)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()
	logger = logger.With(zap.String("bootstrap_id", cfg.RunID))

	store := storage.NewFileStore(filepath.Join(cfg.BasePath, runtimeDir))
	app, err := application.New(cfg, logger, store)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	logger.Info("effective configuration saved", zap.String("path", store.Path()))

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// reportFailure prints a bootstrap failure and returns the process exit code:
// 2 for a second bootstrap attempt, 1 for anything else.
func reportFailure(w io.Writer, err error) int {
	if configerr.KindOf(err) == configerr.KindReentrant {
		fmt.Fprintf(w, "fatal: %v\n", err)
		return 2
	}
	if set, ok := schema.Violations(err); ok {
		fmt.Fprintf(w, "invalid configuration (%d problem(s)):\n", len(set.Violations))
		for _, v := range set.Violations {
			fmt.Fprintf(w, "  - %s\n", v)
		}
		return 1
	}
	fmt.Fprintf(w, "failed to load configuration: %v\n", err)
	return 1
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
