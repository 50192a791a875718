package config

import (
	"fmt"
	"time"
)

// Config holds the complete docsearch-core configuration.
type Config struct {
	Server       ServerConfig
	Logging      LoggingConfig
	Observability ObservabilityConfig
	Embeddings   EmbeddingsConfig
	VectorStore  VectorStoreConfig
	Store        StoreConfig
	BlobStore    BlobStoreConfig
	Suggest      SuggestConfig
	Reindex      ReindexConfig
	Extraction   ExtractionConfig
	OCR          OCRConfig
}

// ServerConfig controls the HTTP front door.
type ServerConfig struct {
	HTTPPort       int      `koanf:"http_port"`
	ReadTimeout    Duration `koanf:"read_timeout"`
	WriteTimeout   Duration `koanf:"write_timeout"`
	RequestTimeout Duration `koanf:"request_timeout"`
}

// LoggingConfig controls the zap-backed Logger.
type LoggingConfig struct {
	Level  string            `koanf:"level"`
	Format string            `koanf:"format"`
	Fields map[string]string `koanf:"fields"`
}

// ObservabilityConfig controls tracing and metrics.
type ObservabilityConfig struct {
	ServiceName    string  `koanf:"service_name"`
	TracingEnabled bool    `koanf:"tracing_enabled"`
	TraceSampleRatio float64 `koanf:"trace_sample_ratio"`
}

// EmbeddingsConfig controls the embedding client.
type EmbeddingsConfig struct {
	// Provider is "service" (remote TEI-compatible HTTP endpoint) or "fastembed" (local).
	Provider  string        `koanf:"provider"`
	Service   EmbedServiceConfig `koanf:"service"`
	FastEmbed EmbedFastConfig    `koanf:"fastembed"`
	Dimension int           `koanf:"dimension"`
	Timeout   Duration      `koanf:"timeout"`
}

// EmbedServiceConfig configures the remote embedding HTTP endpoint.
type EmbedServiceConfig struct {
	BaseURL string `koanf:"base_url"`
	APIKey  Secret `koanf:"api_key"`
}

// EmbedFastConfig configures the local FastEmbed model.
type EmbedFastConfig struct {
	ModelName string `koanf:"model_name"`
	CacheDir  string `koanf:"cache_dir"`
}

// VectorStoreConfig controls the vector store backend behind semantic
// search.
type VectorStoreConfig struct {
	// Provider is "chromem" (embedded default) or "qdrant" (external).
	Provider string        `koanf:"provider"`
	Chromem  ChromemConfig `koanf:"chromem"`
	Qdrant   QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig configures the embedded chromem-go vector store.
type ChromemConfig struct {
	Path       string `koanf:"path"`
	Compress   bool   `koanf:"compress"`
	Collection string `koanf:"collection"`
}

// QdrantConfig configures the external Qdrant vector store.
type QdrantConfig struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	APIKey Secret `koanf:"api_key"`
	UseTLS bool   `koanf:"use_tls"`
}

// StoreConfig controls the Postgres-backed Document Store.
type StoreConfig struct {
	DSN             Secret   `koanf:"dsn"`
	MaxOpenConns    int      `koanf:"max_open_conns"`
	MaxIdleConns    int      `koanf:"max_idle_conns"`
	ConnMaxLifetime Duration `koanf:"conn_max_lifetime"`
}

// BlobStoreConfig controls the content-addressed file layout.
type BlobStoreConfig struct {
	Root string `koanf:"root"`
}

// SuggestConfig controls the Redis-backed Suggestion Index.
type SuggestConfig struct {
	Addr     string `koanf:"addr"`
	Password Secret `koanf:"password"`
	DB       int    `koanf:"db"`
}

// ReindexConfig controls the Temporal-backed Reindex Coordinator.
type ReindexConfig struct {
	HostPort  string `koanf:"host_port"`
	Namespace string `koanf:"namespace"`
	TaskQueue string `koanf:"task_queue"`
}

// ExtractionConfig controls the optional LLM-backed metadata extractor
// (the semantic pass, on top of the always-on heuristic pass).
// Empty APIKey disables it; the Ingestion Coordinator falls back to
// heuristic-only extraction.
type ExtractionConfig struct {
	APIKey  Secret   `koanf:"api_key"`
	Model   string   `koanf:"model"`
	BaseURL string   `koanf:"base_url"`
	Timeout Duration `koanf:"timeout"`
}

// OCRConfig controls the optional OCR/image-description HTTP endpoint used
// by the image file processor. Empty BaseURL disables OCR;
// the image processor then degrades to filename/MIME-only metadata.
type OCRConfig struct {
	BaseURL string   `koanf:"base_url"`
	Timeout Duration `koanf:"timeout"`
}

// Validate checks the configuration for obvious misconfiguration. It does not
// check reachability of external services; that happens at startup via the
// health endpoint.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort)
	}
	if c.Embeddings.Provider != "service" && c.Embeddings.Provider != "fastembed" {
		return fmt.Errorf("embeddings.provider must be 'service' or 'fastembed', got %q", c.Embeddings.Provider)
	}
	if c.Embeddings.Dimension <= 0 {
		return fmt.Errorf("embeddings.dimension must be positive, got %d", c.Embeddings.Dimension)
	}
	if c.VectorStore.Provider != "chromem" && c.VectorStore.Provider != "qdrant" {
		return fmt.Errorf("vectorstore.provider must be 'chromem' or 'qdrant', got %q", c.VectorStore.Provider)
	}
	if c.BlobStore.Root == "" {
		return fmt.Errorf("blobstore.root must be set")
	}
	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}

// applyDefaults fills in zero-value fields with production-ready defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = Duration(defaultReadTimeout)
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = Duration(defaultWriteTimeout)
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = Duration(defaultRequestTimeout)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "docsearch-core"
	}
	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "fastembed"
	}
	if cfg.Embeddings.Dimension == 0 {
		cfg.Embeddings.Dimension = 384
	}
	if cfg.Embeddings.Timeout == 0 {
		cfg.Embeddings.Timeout = Duration(defaultEmbedTimeout)
	}
	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "chromem"
	}
	if cfg.VectorStore.Chromem.Path == "" {
		cfg.VectorStore.Chromem.Path = "./data/vectorstore"
	}
	if cfg.VectorStore.Chromem.Collection == "" {
		cfg.VectorStore.Chromem.Collection = "docsearch_default"
	}
	if cfg.BlobStore.Root == "" {
		cfg.BlobStore.Root = "./data/blobs"
	}
	if cfg.Suggest.Addr == "" {
		cfg.Suggest.Addr = "localhost:6379"
	}
	if cfg.Reindex.Namespace == "" {
		cfg.Reindex.Namespace = "default"
	}
	if cfg.Reindex.TaskQueue == "" {
		cfg.Reindex.TaskQueue = "docsearch-reindex"
	}
	if cfg.Extraction.Timeout == 0 {
		cfg.Extraction.Timeout = Duration(defaultExtractionTimeout)
	}
	if cfg.OCR.Timeout == 0 {
		cfg.OCR.Timeout = Duration(defaultOCRTimeout)
	}
}

const (
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultEmbedTimeout   = 10 * time.Second
	defaultExtractionTimeout = 20 * time.Second
	defaultOCRTimeout        = 15 * time.Second
)
