package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Bajtlamer/docsearch-core/internal/config"
)

const (
	defaultMaxTokens  = 512
	defaultTimeout    = 20 * time.Second
	defaultMaxRetries = 3
	defaultBaseBackoff = 500 * time.Millisecond

	// 50 requests/minute.
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

const extractionPrompt = `Extract named entities (people, organizations) and topical keywords from the text below.

Respond ONLY with a JSON object of this exact shape, no other text:
{"entities": ["..."], "keywords": ["..."]}

Limit each list to 20 items. If nothing qualifies, return an empty list for that key.

Text:
`

// AnthropicExtractor implements SemanticExtractor against the Anthropic
// Messages API: rate limiting, retry, and JSON-extraction over entities
// and keywords.
type AnthropicExtractor struct {
	model      string
	apiKey     config.Secret
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewAnthropicExtractor builds an AnthropicExtractor. A zero apiKey makes
// Available() return false, which callers use to skip extraction entirely.
func NewAnthropicExtractor(apiKey config.Secret, model, baseURL string, timeout time.Duration) *AnthropicExtractor {
	if model == "" {
		model = "claude-3-5-haiku-20241022"
	}
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &AnthropicExtractor{
		model:      model,
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		maxRetries: defaultMaxRetries,
	}
}

// Available reports whether an API key is configured.
func (a *AnthropicExtractor) Available() bool {
	return a.apiKey.IsSet()
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

type entityKeywordPayload struct {
	Entities []string `json:"entities"`
	Keywords []string `json:"keywords"`
}

// retryableError marks errors worth retrying with backoff (network
// failures, 429s, 5xxs).
type retryableError struct{ err error }

func (r *retryableError) Error() string { return r.err.Error() }
func (r *retryableError) Unwrap() error { return r.err }

func isRetryableError(err error) bool {
	_, ok := err.(*retryableError)
	return ok
}

// ExtractEntitiesKeywords calls the Anthropic Messages API. On failure
// after retries, it returns an error rather than empty slices; callers
// (the ingestion coordinator) treat that error as "extraction unavailable"
// and continue ingestion with empty entities/keywords.
func (a *AnthropicExtractor) ExtractEntitiesKeywords(ctx context.Context, text string) ([]string, []string, error) {
	if !a.Available() {
		return nil, nil, fmt.Errorf("extraction: anthropic extractor not configured")
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("extraction: rate limiter: %w", err)
	}

	req := anthropicRequest{
		Model:       a.model,
		MaxTokens:   defaultMaxTokens,
		Temperature: 0,
		Messages: []anthropicMessage{
			{Role: "user", Content: extractionPrompt + truncate(text, 8000)},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}

		payload, err := a.doRequest(ctx, req)
		if err == nil {
			return payload.Entities, payload.Keywords, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return nil, nil, err
		}
	}
	return nil, nil, fmt.Errorf("extraction: max retries exceeded: %w", lastErr)
}

func (a *AnthropicExtractor) doRequest(ctx context.Context, req anthropicRequest) (entityKeywordPayload, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return entityKeywordPayload{}, fmt.Errorf("extraction: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return entityKeywordPayload{}, fmt.Errorf("extraction: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", a.apiKey.Value())
	httpReq.Header.Set("Anthropic-Version", "2023-06-01")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return entityKeywordPayload{}, &retryableError{err: fmt.Errorf("extraction: request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return entityKeywordPayload{}, fmt.Errorf("extraction: read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return entityKeywordPayload{}, &retryableError{err: fmt.Errorf("extraction: status %d: %s", resp.StatusCode, respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return entityKeywordPayload{}, fmt.Errorf("extraction: status %d: %s", resp.StatusCode, respBody)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return entityKeywordPayload{}, fmt.Errorf("extraction: parse response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return entityKeywordPayload{}, fmt.Errorf("extraction: empty response content")
	}

	var payload entityKeywordPayload
	if err := json.Unmarshal([]byte(parsed.Content[0].Text), &payload); err != nil {
		return entityKeywordPayload{}, fmt.Errorf("extraction: model did not return valid JSON: %w", err)
	}
	return payload, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
