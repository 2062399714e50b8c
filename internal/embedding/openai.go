package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/obudai/phonebook-rag/internal/config"
)

// OpenAIClient implements Client for an OpenAI-compatible embeddings API.
// Works against api.openai.com as well as self-hosted inference servers
// that speak the same protocol (vLLM, TEI and similar).
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client

	dimMu sync.Mutex
	dims  int
}

// EmbeddingRequest is the request format for the embeddings endpoint
type EmbeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// EmbeddingResponse is the response from the embeddings endpoint
type EmbeddingResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
		Object    string    `json:"object"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// NewOpenAIClient creates a new embedding client. The API key is optional:
// self-hosted embedding servers typically run without authentication.
func NewOpenAIClient(cfg *config.EmbeddingConfig) (*OpenAIClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embedding base_url is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	return &OpenAIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Embed generates an embedding for a single text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := EmbeddingRequest{
		Input: texts,
		Model: c.model,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var apiResp EmbeddingResponse
	// Rate limits and transient upstream errors are retried with backoff;
	// everything else fails immediately.
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, "POST",
			c.baseURL+"/embeddings", bytes.NewReader(reqBody))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(httpReq)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("failed to send request: %w", err))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("failed to read response: %w", err))
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("API returned status %d: %s",
				resp.StatusCode, string(body)))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, &apiResp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(apiResp.Data))
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range apiResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("invalid embedding index: %d", data.Index)
		}
		embeddings[data.Index] = data.Embedding
	}

	c.rememberDimensions(embeddings)

	return embeddings, nil
}

// Dimensions returns the embedding dimension. The model decides it, so the
// first call probes the API with a short text and the result is cached.
func (c *OpenAIClient) Dimensions(ctx context.Context) (int, error) {
	c.dimMu.Lock()
	cached := c.dims
	c.dimMu.Unlock()
	if cached > 0 {
		return cached, nil
	}

	vec, err := c.Embed(ctx, "query: dimension probe")
	if err != nil {
		return 0, fmt.Errorf("failed to probe embedding dimensions: %w", err)
	}
	return len(vec), nil
}

func (c *OpenAIClient) rememberDimensions(embeddings [][]float32) {
	for _, emb := range embeddings {
		if len(emb) > 0 {
			c.dimMu.Lock()
			c.dims = len(emb)
			c.dimMu.Unlock()
			return
		}
	}
}
