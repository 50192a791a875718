package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bajtlamer/docsearch-core/internal/config"
	"github.com/Bajtlamer/docsearch-core/internal/httpapi"
	"github.com/Bajtlamer/docsearch-core/internal/logging"
)

// runServe loads configuration, wires every collaborator, and blocks serving
// HTTP until interrupted.
func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  logLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Fields: cfg.Logging.Fields,
		Caller: logging.CallerConfig{Enabled: true, Skip: 1},
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info(ctx, "starting docsearchd",
		zap.Int("http_port", cfg.Server.HTTPPort),
		zap.String("embeddings_provider", cfg.Embeddings.Provider),
		zap.String("vector_store_provider", cfg.VectorStore.Provider),
	)

	deps, err := buildDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("wiring dependencies: %w", err)
	}
	defer deps.Close()

	server, err := httpapi.NewServer(httpapi.Config{
		Host:    "0.0.0.0",
		Port:    cfg.Server.HTTPPort,
		Version: "dev",
	}, httpDependencies(deps, logger), logger)
	if err != nil {
		return fmt.Errorf("building http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout.Duration())
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	logger.Info(context.Background(), "docsearchd stopped")
	return nil
}
