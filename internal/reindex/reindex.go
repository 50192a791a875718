// Package reindex implements the Reindex Coordinator: a
// Temporal-backed background worker pool that selectively regenerates a
// Resource's derived search fields after a mutation, decoupled from the
// request path that triggered it.
package reindex

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/Bajtlamer/docsearch-core/internal/chunker"
	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"github.com/Bajtlamer/docsearch-core/internal/embeddings"
	"github.com/Bajtlamer/docsearch-core/internal/extraction"
	"github.com/Bajtlamer/docsearch-core/internal/logging"
	"github.com/Bajtlamer/docsearch-core/internal/processors"
	"github.com/Bajtlamer/docsearch-core/internal/vectorstore"
)

// TaskQueue is the default Temporal task queue reindex workflows and
// activities run on; both the Dispatcher and the worker fall back to it
// when no queue is configured.
const TaskQueue = "docsearch-reindex"

// Activity names, registered explicitly since Activities' methods carry
// bound state and must be referenced by name from workflow code (workflow
// code cannot close over non-deterministic dependencies).
const (
	ActivityFetchResource          = "FetchResource"
	ActivityRegenerateChunks       = "RegenerateChunks"
	ActivityReExtractKeywords      = "ReExtractKeywords"
	ActivityRefreshSuggestionIndex = "RefreshSuggestionIndex"
)

// ChangeEvent is what triggers a reindex: a resource mutation naming the
// fields that changed.
type ChangeEvent struct {
	TenantID      string
	ResourceID    string
	ChangedFields []string
}

// Plan is the selective reindex decision for one ChangeEvent.
type Plan struct {
	RegenerateSearchableText bool
	RegenerateEmbeddings     bool
	ReExtractKeywords        bool
	RefreshSuggestionIndex   bool
}

// IsNoop reports whether no work is needed (technical_metadata-only
// changes).
func (p Plan) IsNoop() bool {
	return !p.RegenerateSearchableText && !p.RegenerateEmbeddings && !p.ReExtractKeywords && !p.RefreshSuggestionIndex
}

// DecidePlan maps a set of changed Resource fields onto the work they require.
func DecidePlan(changedFields []string) Plan {
	var plan Plan
	for _, field := range changedFields {
		switch field {
		case "content", "summary":
			plan.RegenerateSearchableText = true
			plan.RegenerateEmbeddings = true
		case "tags":
			plan.RegenerateSearchableText = true
			plan.ReExtractKeywords = true
		case "file_name", "vendor":
			plan.RegenerateSearchableText = true
			plan.RefreshSuggestionIndex = true
		}
	}
	return plan
}

// ReindexInput is the ReindexWorkflow's input.
type ReindexInput struct {
	TenantID   string
	ResourceID string
	Plan       Plan
}

// ReindexResult summarizes what the workflow actually did.
type ReindexResult struct {
	ChunksRegenerated     int
	EmbeddingsRegenerated int
	SuggestionsRefreshed  bool
	KeywordsReExtracted   bool
}

// ReindexWorkflow runs the selective reindex for one resource. It is pure
// orchestration: every side effect goes through an Activity, so retries
// (via the ActivityOptions RetryPolicy) replay cleanly.
func ReindexWorkflow(ctx workflow.Context, input ReindexInput) (*ReindexResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting reindex", "tenant_id", input.TenantID, "resource_id", input.ResourceID)

	if input.Plan.IsNoop() {
		return &ReindexResult{}, nil
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	result := &ReindexResult{}

	var resource *docmodel.Resource
	if err := workflow.ExecuteActivity(ctx, ActivityFetchResource, input.TenantID, input.ResourceID).Get(ctx, &resource); err != nil {
		return result, fmt.Errorf("reindex: fetch resource: %w", err)
	}

	if input.Plan.ReExtractKeywords {
		if err := workflow.ExecuteActivity(ctx, ActivityReExtractKeywords, input.TenantID, input.ResourceID).Get(ctx, nil); err != nil {
			logger.Warn("keyword re-extraction failed", "error", err)
		} else {
			result.KeywordsReExtracted = true
		}
	}

	if input.Plan.RegenerateSearchableText || input.Plan.RegenerateEmbeddings {
		var chunksUpdated int
		err := workflow.ExecuteActivity(ctx, ActivityRegenerateChunks, RegenerateChunksInput{
			TenantID:             input.TenantID,
			ResourceID:           input.ResourceID,
			RegenerateEmbeddings: input.Plan.RegenerateEmbeddings,
		}).Get(ctx, &chunksUpdated)
		if err != nil {
			return result, fmt.Errorf("reindex: regenerate chunks: %w", err)
		}
		result.ChunksRegenerated = chunksUpdated
		if input.Plan.RegenerateEmbeddings {
			result.EmbeddingsRegenerated = chunksUpdated
		}
	}

	if input.Plan.RefreshSuggestionIndex {
		if err := workflow.ExecuteActivity(ctx, ActivityRefreshSuggestionIndex, input.TenantID, input.ResourceID).Get(ctx, nil); err != nil {
			logger.Warn("suggestion refresh failed", "error", err)
		} else {
			result.SuggestionsRefreshed = true
		}
	}

	return result, nil
}

// ResourceStore is the subset of *store.Store the reindex activities need.
type ResourceStore interface {
	GetResource(ctx context.Context, tenantID, resourceID string) (*docmodel.Resource, error)
	UpdateResource(ctx context.Context, r *docmodel.Resource) error
	DeleteChunksForResource(ctx context.Context, tenantID, resourceID string) error
	PutChunksBulk(ctx context.Context, chunks []*docmodel.Chunk) error
}

// SuggestIndex is the subset of *suggest.Index the refresh activity needs.
type SuggestIndex interface {
	IndexResource(ctx context.Context, tenantID string, resource *docmodel.Resource) error
}

// Activities bundles the collaborators reindex activities call into,
// mirroring the Ingestion Coordinator's dependency shape.
type Activities struct {
	Store     ResourceStore
	Suggest   SuggestIndex
	Extractor extraction.SemanticExtractor
	Embedder  embeddings.Embedder
	Vectors   vectorstore.Store
}

// FetchResource loads the current resource snapshot.
func (a *Activities) FetchResource(ctx context.Context, tenantID, resourceID string) (*docmodel.Resource, error) {
	return a.Store.GetResource(ctx, tenantID, resourceID)
}

// ReExtractKeywords re-runs the LLM-backed keyword extractor over the
// resource's content and persists the refreshed set. Triggered by the
// "tags changed" branch of the reindex plan.
func (a *Activities) ReExtractKeywords(ctx context.Context, tenantID, resourceID string) error {
	resource, err := a.Store.GetResource(ctx, tenantID, resourceID)
	if err != nil {
		return err
	}
	if a.Extractor == nil || !a.Extractor.Available() {
		return nil
	}
	_, keywords, err := a.Extractor.ExtractEntitiesKeywords(ctx, resource.Content)
	if err != nil {
		logging.FromContext(ctx).Warn(ctx, "reindex: keyword re-extraction unavailable", zap.Error(err), zap.String("resource_id", resourceID))
		return nil
	}
	resource.Keywords = mergeKeywords(resource.Keywords, keywords)
	return a.Store.UpdateResource(ctx, resource)
}

func mergeKeywords(existing, fresh []string) []string {
	seen := make(map[string]bool, len(existing)+len(fresh))
	out := make([]string, 0, len(existing)+len(fresh))
	for _, k := range append(append([]string{}, existing...), fresh...) {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// RegenerateChunksInput is RegenerateChunks' activity input.
type RegenerateChunksInput struct {
	TenantID             string
	ResourceID           string
	RegenerateEmbeddings bool
}

// RegenerateChunks rebuilds every chunk's searchable_text (and, when asked,
// its embedding) for a resource, replacing the prior chunk set.
func (a *Activities) RegenerateChunks(ctx context.Context, input RegenerateChunksInput) (int, error) {
	resource, err := a.Store.GetResource(ctx, input.TenantID, input.ResourceID)
	if err != nil {
		return 0, err
	}

	chunks := chunker.Chunk(resource, []processors.Unit{{Key: "0", Text: resource.Content}}, resource.TechnicalMetadata["image_description"])

	if input.RegenerateEmbeddings && a.Embedder != nil {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.SearchableText
		}
		vectors, err := a.Embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			logging.FromContext(ctx).Warn(ctx, "reindex: chunk embedding failed", zap.Error(err), zap.String("resource_id", input.ResourceID))
		} else {
			records := make([]vectorstore.Record, 0, len(chunks))
			for i, c := range chunks {
				if i >= len(vectors) || vectors[i] == nil {
					continue
				}
				c.ChunkEmbedding = vectors[i]
				records = append(records, vectorstore.Record{
					TenantID:   resource.TenantID,
					ResourceID: resource.ResourceID,
					ChunkID:    c.ChunkID,
					Kind:       vectorstore.KindChunk,
					Vector:     vectors[i],
					Text:       c.SearchableText,
				})
			}
			if a.Vectors != nil && len(records) > 0 {
				if err := a.Vectors.Upsert(ctx, records); err != nil {
					logging.FromContext(ctx).Warn(ctx, "reindex: vector upsert failed", zap.Error(err))
				}
			}
		}
	}

	if err := a.Store.DeleteChunksForResource(ctx, input.TenantID, input.ResourceID); err != nil {
		return 0, fmt.Errorf("reindex: delete prior chunks: %w", err)
	}
	if err := a.Store.PutChunksBulk(ctx, chunks); err != nil {
		return 0, fmt.Errorf("reindex: persist chunks: %w", err)
	}
	return len(chunks), nil
}

// RefreshSuggestionIndex re-indexes a resource's current fields into the
// Suggestion Index. Triggered by the "file_name/vendor changed" branch of
// the reindex plan.
func (a *Activities) RefreshSuggestionIndex(ctx context.Context, tenantID, resourceID string) error {
	resource, err := a.Store.GetResource(ctx, tenantID, resourceID)
	if err != nil {
		return err
	}
	return a.Suggest.IndexResource(ctx, tenantID, resource)
}

// Dispatcher starts reindex workflows against a Temporal client, enforcing
// per-resource serialization with latest-wins semantics: a newer event for
// a resource already being reindexed supersedes the running workflow.
type Dispatcher struct {
	client    client.Client
	taskQueue string
}

// NewDispatcher wraps an already-connected Temporal client. taskQueue must
// match the queue the reindex worker listens on; empty selects TaskQueue.
func NewDispatcher(c client.Client, taskQueue string) *Dispatcher {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	return &Dispatcher{client: c, taskQueue: taskQueue}
}

func workflowID(tenantID, resourceID string) string {
	return fmt.Sprintf("reindex-%s-%s", tenantID, resourceID)
}

// Enqueue starts a reindex workflow for event, terminating any
// already-running workflow for the same resource first so the newest event
// always wins.
func (d *Dispatcher) Enqueue(ctx context.Context, event ChangeEvent) error {
	plan := DecidePlan(event.ChangedFields)
	if plan.IsNoop() {
		return nil
	}

	id := workflowID(event.TenantID, event.ResourceID)
	if err := d.client.TerminateWorkflow(ctx, id, "", "superseded by newer reindex event"); err != nil {
		logging.FromContext(ctx).Warn(ctx, "reindex: terminate prior workflow failed", zap.Error(err), zap.String("workflow_id", id))
	}

	_, err := d.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        id,
		TaskQueue: d.taskQueue,
	}, ReindexWorkflow, ReindexInput{
		TenantID:   event.TenantID,
		ResourceID: event.ResourceID,
		Plan:       plan,
	})
	if err != nil {
		return fmt.Errorf("reindex: start workflow: %w", err)
	}
	return nil
}
