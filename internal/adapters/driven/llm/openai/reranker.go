// Package openai provides a reranker adapter using the OpenAI API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/ports/driven"
)

// Ensure Reranker implements the interface.
var _ driven.Reranker = (*Reranker)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second

	// maxSnippetChars caps how much of each candidate is shown to the model.
	maxSnippetChars = 400
)

// Config holds configuration for the OpenAI reranker.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Reranker narrows a candidate pool through a chat completion call.
// Failures here are never fatal to retrieval: callers fall back to the
// hybrid top-N.
type Reranker struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
}

// chatCompletionMsg is the OpenAI chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the OpenAI /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// New creates a new OpenAI reranker.
func New(cfg Config) (*Reranker, error) {
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

	return &Reranker{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Narrow asks the model which candidate ids best support writing the
// given topic/section and returns them best first. Ids the model invents
// are dropped.
func (r *Reranker) Narrow(
	ctx context.Context, topic, section string, candidates []domain.Candidate, limit int,
) ([]string, error) {
	if len(candidates) == 0 || limit <= 0 {
		return nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\nSection: %s\n\n", topic, section)
	sb.WriteString("Candidate excerpts:\n")
	for _, c := range candidates {
		snippet := c.Chunk.Text
		if len(snippet) > maxSnippetChars {
			snippet = snippet[:maxSnippetChars]
		}
		fmt.Fprintf(&sb, "- id=%s\n%s\n\n", c.Chunk.ID, snippet)
	}
	fmt.Fprintf(&sb,
		"Return a JSON array of at most %d candidate ids, best first, "+
			"containing only ids listed above. No other text.", limit)

	reqBody := chatCompletionRequest{
		Model: r.model,
		Messages: []chatCompletionMsg{
			{Role: "system", Content: "You select source excerpts for a clinical reference article."},
			{Role: "user", Content: sb.String()},
		},
		MaxTokens: 512,
	}

	content, err := r.chatCompletion(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	ids, err := parseIDList(content)
	if err != nil {
		return nil, fmt.Errorf("parse rerank response: %w", err)
	}

	known := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.Chunk.ID] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *Reranker) chatCompletion(ctx context.Context, reqBody chatCompletionRequest) (string, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty completion")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// parseIDList extracts a JSON string array from model output, tolerating
// surrounding prose or code fences.
func parseIDList(content string) ([]string, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in output")
	}
	var ids []string
	if err := json.Unmarshal([]byte(content[start:end+1]), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// ModelName returns the model used for reranking.
func (r *Reranker) ModelName() string {
	return r.model
}

// Close releases resources.
func (r *Reranker) Close() error {
	return nil
}
