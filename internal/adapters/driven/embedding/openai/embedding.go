// Package openai provides an embedding service adapter using the OpenAI API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/ports/driven"
	"github.com/openclinic/ragindex/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// DefaultMaxParallel bounds in-flight embedding requests. This is the
	// only place concurrency control exists for the embedding API.
	DefaultMaxParallel = 4

	// DefaultMaxRetries is the retry budget for transient failures.
	DefaultMaxRetries = 2

	// DefaultBatchSize is the number of inputs per API request.
	DefaultBatchSize = 64

	// DefaultRequestsPerSecond paces requests proactively to respect
	// upstream rate limits.
	DefaultRequestsPerSecond = 5
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// MaxParallel bounds concurrent API requests (default: 4).
	MaxParallel int

	// MaxRetries is the transient-failure retry budget (default: 2).
	MaxRetries int

	// BatchSize is the number of inputs per request (default: 64).
	BatchSize int

	// RequestsPerSecond paces requests (default: 5).
	RequestsPerSecond float64
}

// EmbeddingService generates embeddings using the OpenAI API.
type EmbeddingService struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	dimensions  int
	maxParallel int
	maxRetries  int
	batchSize   int
	limiter     *rate.Limiter

	mu    sync.Mutex
	usage driven.EmbeddingUsage
}

// embeddingRequest is the OpenAI API request format.
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingResponse is the OpenAI API response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultMaxParallel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	dimensions, ok := modelDimensions[cfg.Model]
	if !ok {
		dimensions = 1536
	}

	return &EmbeddingService{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		dimensions:  dimensions,
		maxParallel: cfg.MaxParallel,
		maxRetries:  cfg.MaxRetries,
		batchSize:   cfg.BatchSize,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, _, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 || embeddings[0] == nil {
		return nil, fmt.Errorf("openai: no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts, preserving input
// order. Inputs are partitioned into API batches which run with at most
// maxParallel in flight; each request is retried on transient failure
// within the retry budget. The returned usage covers only this call's
// requests; concurrent callers see their own totals.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, driven.EmbeddingUsage, error) {
	if len(texts) == 0 {
		return nil, driven.EmbeddingUsage{}, nil
	}

	out := make([][]float32, len(texts))

	var usageMu sync.Mutex
	var callUsage driven.EmbeddingUsage

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)

	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		offset, batch := start, texts[start:end]
		g.Go(func() error {
			vectors, usage, err := s.embedWithRetry(gctx, batch)
			if err != nil {
				return err
			}
			copy(out[offset:], vectors)
			usageMu.Lock()
			callUsage.PromptTokens += usage.PromptTokens
			callUsage.TotalTokens += usage.TotalTokens
			usageMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, driven.EmbeddingUsage{}, err
	}
	return out, callUsage, nil
}

// embedWithRetry performs one API batch, retrying transient failures.
func (s *EmbeddingService) embedWithRetry(ctx context.Context, batch []string) ([][]float32, driven.EmbeddingUsage, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("Retrying embedding batch (attempt %d): %v", attempt+1, lastErr)
			select {
			case <-ctx.Done():
				return nil, driven.EmbeddingUsage{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
		vectors, usage, err := s.embedOnce(ctx, batch)
		if err == nil {
			return vectors, usage, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, driven.EmbeddingUsage{}, err
		}
	}
	return nil, driven.EmbeddingUsage{}, fmt.Errorf("embedding batch failed after %d retries: %w", s.maxRetries, lastErr)
}

func (s *EmbeddingService) embedOnce(ctx context.Context, batch []string) ([][]float32, driven.EmbeddingUsage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, driven.EmbeddingUsage{}, err
	}

	jsonBody, err := json.Marshal(embeddingRequest{Model: s.model, Input: batch})
	if err != nil {
		return nil, driven.EmbeddingUsage{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/embeddings",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, driven.EmbeddingUsage{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, driven.EmbeddingUsage{}, fmt.Errorf("send request: %w: %w", domain.ErrRetryable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, driven.EmbeddingUsage{}, fmt.Errorf("read response: %w: %w", domain.ErrRetryable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, driven.EmbeddingUsage{}, fmt.Errorf("openai status %d: %w", resp.StatusCode, domain.ErrRetryable)
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, driven.EmbeddingUsage{}, fmt.Errorf("decode response: %w", err)
	}
	if embedResp.Error != nil {
		return nil, driven.EmbeddingUsage{}, fmt.Errorf("openai error: %s", embedResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, driven.EmbeddingUsage{}, fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}

	usage := driven.EmbeddingUsage{
		PromptTokens: embedResp.Usage.PromptTokens,
		TotalTokens:  embedResp.Usage.TotalTokens,
	}
	s.mu.Lock()
	s.usage.PromptTokens += usage.PromptTokens
	s.usage.TotalTokens += usage.TotalTokens
	s.mu.Unlock()

	// Convert float64 to float32 and order by index.
	vectors := make([][]float32, len(batch))
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= len(batch) {
			continue
		}
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		vectors[data.Index] = vec
	}
	return vectors, usage, nil
}

func isRetryable(err error) bool {
	return errors.Is(err, domain.ErrRetryable)
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// Usage returns cumulative token usage.
func (s *EmbeddingService) Usage() driven.EmbeddingUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
