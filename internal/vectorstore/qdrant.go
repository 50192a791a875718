package vectorstore

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// QdrantConfig configures the external Qdrant gRPC backend, the option for
// deployments that want vector storage on its own service rather than
// embedded in the process.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Dimension  uint64
	MaxMsgSize int
}

func (c *QdrantConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Dimension == 0 {
		c.Dimension = 384
	}
	if c.MaxMsgSize == 0 {
		c.MaxMsgSize = 50 * 1024 * 1024
	}
}

func (c QdrantConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host required", ErrInvalidConfig)
	}
	return nil
}

// QdrantStore implements Store against an external Qdrant instance, one
// collection per (tenant, kind) pair, mirroring ChromemStore's layout so
// callers can switch backends without touching tenant/kind plumbing.
type QdrantStore struct {
	client *qdrant.Client
	cfg    QdrantConfig
	logger *zap.Logger

	mu          sync.Mutex
	collections map[string]bool
}

// NewQdrantStore dials the Qdrant gRPC endpoint and verifies connectivity.
func NewQdrantStore(cfg QdrantConfig, logger *zap.Logger) (*QdrantStore, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.UseTLS {
		fmt.Fprintln(os.Stderr, "WARNING: Qdrant gRPC using plaintext (TLS disabled)")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(cfg.MaxMsgSize),
				grpc.MaxCallSendMsgSize(cfg.MaxMsgSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: connecting to qdrant: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("vectorstore: qdrant health check failed: %w", err)
	}

	return &QdrantStore{
		client:      client,
		cfg:         cfg,
		logger:      logger,
		collections: make(map[string]bool),
	}, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	exists := s.collections[name]
	s.mu.Unlock()
	if exists {
		return nil
	}

	ok, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("vectorstore: checking collection %s: %w", name, err)
	}
	if !ok {
		if err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.cfg.Dimension,
				Distance: qdrant.Distance_Cosine,
			}),
		}); err != nil {
			return fmt.Errorf("vectorstore: creating collection %s: %w", name, err)
		}
	}
	s.mu.Lock()
	s.collections[name] = true
	s.mu.Unlock()
	return nil
}

// Upsert writes vectors into their tenant/kind collections, creating each
// collection on first use.
func (s *QdrantStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return ErrEmptyVectors
	}

	byCollection := make(map[string][]Record)
	for _, r := range records {
		if r.TenantID == "" {
			return fmt.Errorf("vectorstore: record missing tenant_id")
		}
		if uint64(len(r.Vector)) != s.cfg.Dimension {
			return fmt.Errorf("%w: got %d want %d", ErrDimensionMismatch, len(r.Vector), s.cfg.Dimension)
		}
		name := collectionName(r.TenantID, r.Kind)
		byCollection[name] = append(byCollection[name], r)
	}

	for name, recs := range byCollection {
		if err := s.ensureCollection(ctx, name); err != nil {
			return err
		}

		points := make([]*qdrant.PointStruct, 0, len(recs))
		for _, r := range recs {
			id := vectorID(r)
			pointID := qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(name+"/"+id)).String())

			points = append(points, &qdrant.PointStruct{
				Id:      pointID,
				Vectors: qdrant.NewVectors(r.Vector...),
				Payload: map[string]*qdrant.Value{
					"resource_id": {Kind: &qdrant.Value_StringValue{StringValue: r.ResourceID}},
					"chunk_id":    {Kind: &qdrant.Value_StringValue{StringValue: r.ChunkID}},
					"kind":        {Kind: &qdrant.Value_StringValue{StringValue: string(r.Kind)}},
					"vector_id":   {Kind: &qdrant.Value_StringValue{StringValue: id}},
					"content":     {Kind: &qdrant.Value_StringValue{StringValue: r.Text}},
				},
			})
		}

		if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: name,
			Points:         points,
		}); err != nil {
			return fmt.Errorf("vectorstore: upsert into %s: %w", name, err)
		}
	}
	return nil
}

// Search runs a k-nearest-neighbor query against the tenant/kind collection.
func (s *QdrantStore) Search(ctx context.Context, tenantID string, kind VectorKind, queryVector []float32, k int) ([]Match, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("vectorstore: search requires tenant_id")
	}
	if k <= 0 {
		return nil, fmt.Errorf("vectorstore: k must be positive")
	}

	name := collectionName(tenantID, kind)
	ok, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: checking collection %s: %w", name, err)
	}
	if !ok {
		return nil, nil
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: query %s: %w", name, err)
	}

	matches := make([]Match, 0, len(results))
	for _, point := range results {
		m := Match{Score: point.Score}
		if point.Payload != nil {
			if v, ok := point.Payload["resource_id"]; ok {
				m.ResourceID = v.GetStringValue()
			}
			if v, ok := point.Payload["chunk_id"]; ok {
				m.ChunkID = v.GetStringValue()
			}
			if v, ok := point.Payload["kind"]; ok {
				m.Kind = VectorKind(v.GetStringValue())
			}
			if v, ok := point.Payload["content"]; ok {
				m.Text = v.GetStringValue()
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// DeleteResource removes every vector for resourceID from both of the
// tenant's collections.
func (s *QdrantStore) DeleteResource(ctx context.Context, tenantID, resourceID string) error {
	if tenantID == "" {
		return fmt.Errorf("vectorstore: delete requires tenant_id")
	}
	for _, kind := range []VectorKind{KindResource, KindChunk} {
		name := collectionName(tenantID, kind)
		ok, err := s.client.CollectionExists(ctx, name)
		if err != nil || !ok {
			continue
		}
		filter := &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("resource_id", resourceID),
			},
		}
		if _, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: name,
			Points:         qdrant.NewPointsSelectorFilter(filter),
		}); err != nil {
			return fmt.Errorf("vectorstore: delete resource %s from %s: %w", resourceID, name, err)
		}
	}
	return nil
}

// Dimension returns the configured embedding dimension.
func (s *QdrantStore) Dimension() int { return int(s.cfg.Dimension) }

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
