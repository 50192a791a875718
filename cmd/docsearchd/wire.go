package main

import (
	"context"
	"fmt"
	"net/http"

	temporalclient "go.temporal.io/sdk/client"
	"go.uber.org/zap/zapcore"

	"github.com/Bajtlamer/docsearch-core/internal/blobstore"
	"github.com/Bajtlamer/docsearch-core/internal/category"
	"github.com/Bajtlamer/docsearch-core/internal/config"
	"github.com/Bajtlamer/docsearch-core/internal/embeddings"
	"github.com/Bajtlamer/docsearch-core/internal/extraction"
	"github.com/Bajtlamer/docsearch-core/internal/httpapi"
	"github.com/Bajtlamer/docsearch-core/internal/ingest"
	"github.com/Bajtlamer/docsearch-core/internal/logging"
	"github.com/Bajtlamer/docsearch-core/internal/processors"
	"github.com/Bajtlamer/docsearch-core/internal/query"
	"github.com/Bajtlamer/docsearch-core/internal/reindex"
	"github.com/Bajtlamer/docsearch-core/internal/search"
	"github.com/Bajtlamer/docsearch-core/internal/store"
	"github.com/Bajtlamer/docsearch-core/internal/suggest"
	"github.com/Bajtlamer/docsearch-core/internal/vectorstore"
)

// dependencies holds every collaborator wired together from cfg, mirroring
// the shape of the Ingestion Coordinator's Config and the httpapi Server's
// Dependencies.
type dependencies struct {
	store       *store.Store
	blobs       *blobstore.Store
	vectors     vectorstore.Store
	embedder    embeddings.Provider
	extractor   extraction.SemanticExtractor
	processors  *processors.Registry
	categories  *category.Admin
	analyzer    *query.Analyzer
	searcher    *search.Searcher
	suggestIdx  *suggest.Index
	coordinator *ingest.Coordinator
	temporal    temporalclient.Client
	dispatcher  *reindex.Dispatcher
}

func (d *dependencies) Close() {
	if d.vectors != nil {
		_ = d.vectors.Close()
	}
	if d.suggestIdx != nil {
		_ = d.suggestIdx.Close()
	}
	if d.store != nil {
		_ = d.store.Close()
	}
	if d.temporal != nil {
		d.temporal.Close()
	}
}

func buildDependencies(cfg *config.Config, logger *logging.Logger) (*dependencies, error) {
	d := &dependencies{}

	st, err := store.New(store.Config{
		DSN:             cfg.Store.DSN.Value(),
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxIdleConns,
		ConnMaxLifetime: cfg.Store.ConnMaxLifetime.Duration(),
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	d.store = st

	blobs, err := blobstore.New(cfg.BlobStore.Root)
	if err != nil {
		return nil, fmt.Errorf("blobstore: %w", err)
	}
	d.blobs = blobs

	provider, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Kind:     cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.FastEmbed.ModelName,
		BaseURL:  cfg.Embeddings.Service.BaseURL,
		APIKey:   cfg.Embeddings.Service.APIKey.Value(),
		CacheDir: cfg.Embeddings.FastEmbed.CacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	d.embedder = provider

	vectors, err := vectorstore.New(cfg.VectorStore, cfg.Embeddings.Dimension, logger.Underlying())
	if err != nil {
		return nil, fmt.Errorf("vectorstore: %w", err)
	}
	d.vectors = vectors

	if cfg.Extraction.APIKey.IsSet() {
		d.extractor = extraction.NewAnthropicExtractor(
			cfg.Extraction.APIKey, cfg.Extraction.Model, cfg.Extraction.BaseURL, cfg.Extraction.Timeout.Duration(),
		)
	}

	var ocrClient processors.OCRClient
	if cfg.OCR.BaseURL != "" {
		ocrClient = &processors.HTTPOCRClient{
			BaseURL: cfg.OCR.BaseURL,
			Client:  &http.Client{Timeout: cfg.OCR.Timeout.Duration()},
		}
	}
	d.processors = processors.NewRegistry(ocrClient)

	categories, err := category.New(st)
	if err != nil {
		return nil, fmt.Errorf("category: %w", err)
	}
	d.categories = categories

	d.analyzer = query.New(categories)
	d.searcher = search.New(st, st, vectors, provider)
	d.suggestIdx = suggest.New(cfg.Suggest.Addr, cfg.Suggest.Password.Value(), cfg.Suggest.DB)

	d.coordinator = ingest.New(ingest.Config{
		Blobs:      d.blobs,
		Processors: d.processors,
		Extractor:  d.extractor,
		Categories: categories,
		Embedder:   provider,
		Vectors:    vectors,
		Resources:  st,
		Suggest:    d.suggestIdx,
	})

	if cfg.Reindex.HostPort != "" {
		tc, err := temporalclient.Dial(temporalclient.Options{
			HostPort:  cfg.Reindex.HostPort,
			Namespace: cfg.Reindex.Namespace,
		})
		if err != nil {
			logger.Warn(context.Background(), "temporal client unavailable, reindex disabled")
		} else {
			d.temporal = tc
			d.dispatcher = reindex.NewDispatcher(tc, cfg.Reindex.TaskQueue)
		}
	}

	return d, nil
}

func httpDependencies(d *dependencies, logger *logging.Logger) httpapi.Dependencies {
	health := map[string]httpapi.HealthChecker{
		"store":   d.store,
		"blobs":   d.blobs,
		"suggest": d.suggestIdx,
	}

	var dispatcher httpapi.ReindexDispatcher
	if d.dispatcher != nil {
		dispatcher = d.dispatcher
	}

	return httpapi.Dependencies{
		Ingest:         d.coordinator,
		Resources:      d.store,
		Blobs:          d.blobs,
		Categories:     d.categories,
		Analyzer:       d.analyzer,
		Searcher:       d.searcher,
		Suggest:        d.suggestIdx,
		SuggestRemover: d.suggestIdx,
		Reindex:        dispatcher,
		Health:         health,
	}
}

// logLevel maps the koanf-loaded string level onto zapcore.Level.
func logLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}
