// Command docsearch-reindexd runs the Temporal worker backing the Reindex
// Coordinator: it picks up reindex workflows dispatched by
// docsearchd after a resource mutation and selectively regenerates chunks,
// embeddings, keywords, and suggestion entries.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/activity"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Bajtlamer/docsearch-core/internal/config"
	"github.com/Bajtlamer/docsearch-core/internal/embeddings"
	"github.com/Bajtlamer/docsearch-core/internal/extraction"
	"github.com/Bajtlamer/docsearch-core/internal/logging"
	"github.com/Bajtlamer/docsearch-core/internal/reindex"
	"github.com/Bajtlamer/docsearch-core/internal/store"
	"github.com/Bajtlamer/docsearch-core/internal/suggest"
	"github.com/Bajtlamer/docsearch-core/internal/vectorstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to YAML configuration file")
	flag.Parse()

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

	if cfg.Reindex.HostPort == "" {
		return fmt.Errorf("reindex.host_port must be set to run the reindex worker")
	}

	st, err := store.New(store.Config{
		DSN:             cfg.Store.DSN.Value(),
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxIdleConns,
		ConnMaxLifetime: cfg.Store.ConnMaxLifetime.Duration(),
	})
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() { _ = st.Close() }()

	provider, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Kind:     cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.FastEmbed.ModelName,
		BaseURL:  cfg.Embeddings.Service.BaseURL,
		APIKey:   cfg.Embeddings.Service.APIKey.Value(),
		CacheDir: cfg.Embeddings.FastEmbed.CacheDir,
	})
	if err != nil {
		return fmt.Errorf("embeddings: %w", err)
	}
	defer func() { _ = provider.Close() }()

	vectors, err := vectorstore.New(cfg.VectorStore, cfg.Embeddings.Dimension, logger.Underlying())
	if err != nil {
		return fmt.Errorf("vectorstore: %w", err)
	}
	defer func() { _ = vectors.Close() }()

	var extractor extraction.SemanticExtractor
	if cfg.Extraction.APIKey.IsSet() {
		extractor = extraction.NewAnthropicExtractor(
			cfg.Extraction.APIKey, cfg.Extraction.Model, cfg.Extraction.BaseURL, cfg.Extraction.Timeout.Duration(),
		)
	}

	suggestIdx := suggest.New(cfg.Suggest.Addr, cfg.Suggest.Password.Value(), cfg.Suggest.DB)
	defer func() { _ = suggestIdx.Close() }()

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Reindex.HostPort,
		Namespace: cfg.Reindex.Namespace,
	})
	if err != nil {
		return fmt.Errorf("unable to create temporal client: %w", err)
	}
	defer c.Close()

	logger.Info(ctx, "temporal client connected", zap.String("host_port", cfg.Reindex.HostPort))

	activities := &reindex.Activities{
		Store:     st,
		Suggest:   suggestIdx,
		Extractor: extractor,
		Embedder:  provider,
		Vectors:   vectors,
	}

	taskQueue := cfg.Reindex.TaskQueue
	if taskQueue == "" {
		taskQueue = reindex.TaskQueue
	}

	w := worker.New(c, taskQueue, worker.Options{})
	w.RegisterWorkflow(reindex.ReindexWorkflow)
	w.RegisterActivityWithOptions(activities.FetchResource, activity.RegisterOptions{Name: reindex.ActivityFetchResource})
	w.RegisterActivityWithOptions(activities.ReExtractKeywords, activity.RegisterOptions{Name: reindex.ActivityReExtractKeywords})
	w.RegisterActivityWithOptions(activities.RegenerateChunks, activity.RegisterOptions{Name: reindex.ActivityRegenerateChunks})
	w.RegisterActivityWithOptions(activities.RefreshSuggestionIndex, activity.RegisterOptions{Name: reindex.ActivityRefreshSuggestionIndex})

	logger.Info(ctx, "worker configured", zap.String("task_queue", taskQueue))

	workerErrors := make(chan error, 1)
	go func() {
		workerErrors <- w.Run(worker.InterruptCh())
	}()

	select {
	case err := <-workerErrors:
		if err != nil {
			return fmt.Errorf("worker error: %w", err)
		}
	case <-ctx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	logger.Info(ctx, "worker stopped gracefully")
	return nil
}

func logLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}
