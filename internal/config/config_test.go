package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("Server.HTTPPort = %d, want 8080", cfg.Server.HTTPPort)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
	if cfg.Embeddings.Provider != "fastembed" {
		t.Errorf("Embeddings.Provider = %q, want fastembed", cfg.Embeddings.Provider)
	}
	if cfg.Embeddings.Dimension != 384 {
		t.Errorf("Embeddings.Dimension = %d, want 384", cfg.Embeddings.Dimension)
	}
	if cfg.VectorStore.Provider != "chromem" {
		t.Errorf("VectorStore.Provider = %q, want chromem", cfg.VectorStore.Provider)
	}
	if cfg.BlobStore.Root != "./data/blobs" {
		t.Errorf("BlobStore.Root = %q, want ./data/blobs", cfg.BlobStore.Root)
	}
	if cfg.Reindex.TaskQueue != "docsearch-reindex" {
		t.Errorf("Reindex.TaskQueue = %q, want docsearch-reindex", cfg.Reindex.TaskQueue)
	}
}

func TestApplyDefaultsLeavesExplicitValuesAlone(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{HTTPPort: 9090},
	}
	cfg.Logging.Level = "debug"
	cfg.Embeddings.Provider = "service"
	cfg.Embeddings.Dimension = 768

	applyDefaults(&cfg)

	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("Server.HTTPPort = %d, want explicit 9090 preserved", cfg.Server.HTTPPort)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want explicit debug preserved", cfg.Logging.Level)
	}
	if cfg.Embeddings.Provider != "service" {
		t.Errorf("Embeddings.Provider = %q, want explicit service preserved", cfg.Embeddings.Provider)
	}
	if cfg.Embeddings.Dimension != 768 {
		t.Errorf("Embeddings.Dimension = %d, want explicit 768 preserved", cfg.Embeddings.Dimension)
	}
}

func validConfig() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil for default config", err)
	}
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.HTTPPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for out-of-range port")
	}
}

func TestValidateRejectsUnknownEmbeddingsProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embeddings.Provider = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for unknown embeddings provider")
	}
}

func TestValidateRejectsNonPositiveDimension(t *testing.T) {
	cfg := validConfig()
	cfg.Embeddings.Dimension = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for zero dimension")
	}
}

func TestValidateRejectsUnknownVectorStoreProvider(t *testing.T) {
	cfg := validConfig()
	cfg.VectorStore.Provider = "pinecone"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for unknown vector store provider")
	}
}

func TestValidateRejectsEmptyBlobStoreRoot(t *testing.T) {
	cfg := validConfig()
	cfg.BlobStore.Root = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for empty blobstore.root")
	}
}

func TestValidateRejectsUnknownLoggingFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for unknown logging format")
	}
}

func TestSecretStringAndMarshalAreRedacted(t *testing.T) {
	s := Secret("hunter2")
	if s.String() != "[REDACTED]" {
		t.Errorf("String() = %q, want [REDACTED]", s.String())
	}
	if s.Value() != "hunter2" {
		t.Errorf("Value() = %q, want hunter2", s.Value())
	}
	if !s.IsSet() {
		t.Error("IsSet() = false, want true for non-empty secret")
	}

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(b) != `"[REDACTED]"` {
		t.Errorf("json.Marshal() = %s, want redacted", b)
	}
}

func TestSecretEmptyIsNotRedacted(t *testing.T) {
	var s Secret
	if s.String() != "" {
		t.Errorf("String() = %q, want empty for unset secret", s.String())
	}
	if s.IsSet() {
		t.Error("IsSet() = true, want false for zero-value secret")
	}
}

func TestDurationUnmarshalTextRejectsNegative(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("-5s")); err == nil {
		t.Error("UnmarshalText() error = nil, want error for negative duration")
	}
}

func TestDurationUnmarshalTextRoundTrips(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("30s")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if d.Duration() != 30*time.Second {
		t.Errorf("Duration() = %v, want 30s", d.Duration())
	}
}

func TestEnvKeyTransformerSplitsOnFirstUnderscoreOnly(t *testing.T) {
	tests := map[string]string{
		"SERVER_HTTP_PORT":      "server.http_port",
		"EMBEDDINGS_PROVIDER":   "embeddings.provider",
		"LOGGING_LEVEL":         "logging.level",
		"SINGLEWORD":            "singleword",
	}
	for in, want := range tests {
		if got := envKeyTransformer(in); got != want {
			t.Errorf("envKeyTransformer(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadWithFileAppliesYAMLThenDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := "server:\n  http_port: 9191\nembeddings:\n  provider: service\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v", err)
	}
	if cfg.Server.HTTPPort != 9191 {
		t.Errorf("Server.HTTPPort = %d, want 9191 from file", cfg.Server.HTTPPort)
	}
	if cfg.Embeddings.Provider != "service" {
		t.Errorf("Embeddings.Provider = %q, want service from file", cfg.Embeddings.Provider)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info default", cfg.Logging.Level)
	}
}

func TestLoadWithFileMissingPathFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil for missing file", err)
	}
	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("Server.HTTPPort = %d, want default 8080", cfg.Server.HTTPPort)
	}
}

func TestLoadWithFileSurfacesValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("embeddings:\n  provider: carrier-pigeon\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := LoadWithFile(path); err == nil {
		t.Error("LoadWithFile() error = nil, want validation error for invalid provider")
	}
}
