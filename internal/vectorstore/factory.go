package vectorstore

import (
	"fmt"

	"github.com/Bajtlamer/docsearch-core/internal/config"
	"go.uber.org/zap"
)

// New builds a Store from application configuration and the fixed
// embedding dimension the Embedding Client was configured with.
func New(cfg config.VectorStoreConfig, dimension int, logger *zap.Logger) (Store, error) {
	switch cfg.Provider {
	case "chromem", "":
		return NewChromemStore(ChromemConfig{
			Path:      cfg.Chromem.Path,
			Compress:  cfg.Chromem.Compress,
			Dimension: dimension,
		}, logger)
	case "qdrant":
		return NewQdrantStore(QdrantConfig{
			Host:      cfg.Qdrant.Host,
			Port:      cfg.Qdrant.Port,
			APIKey:    cfg.Qdrant.APIKey.Value(),
			UseTLS:    cfg.Qdrant.UseTLS,
			Dimension: uint64(dimension),
		}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown vector store provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
