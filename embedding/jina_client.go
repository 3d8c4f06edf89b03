// Package embedding provides the adapter that turns free text into
// fixed-dimension vectors for corpus retrieval.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carebridge-ai/symptom-core/llm"
)

// Client converts free text into embedding vectors.
type Client interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type JinaClient struct {
	apiKey     string
	httpClient *http.Client
	url        string
	model      string
}

func NewJinaClient(apiKey, model string, timeout time.Duration) *JinaClient {
	return &JinaClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		url:        "https://api.jina.ai/v1/embeddings",
		model:      model,
	}
}

func (c *JinaClient) GetModel() string {
	return c.model
}

// EmbedQuery embeds a single query text.
func (c *JinaClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, &llm.ProviderError{Provider: "jina", Kind: llm.ErrMalformedResponse,
			Err: fmt.Errorf("empty embedding in response")}
	}
	return vectors[0], nil
}

// EmbedTexts embeds a batch of texts, preserving input order.
func (c *JinaClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	request := jinaRequest{
		Model: c.model,
		Input: texts,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyJinaError(ctx, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyJinaError(ctx, resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyJinaError(ctx, resp.StatusCode,
			fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var response jinaResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &llm.ProviderError{Provider: "jina", Kind: llm.ErrMalformedResponse, Err: err}
	}

	vectors := make([][]float32, len(texts))
	for _, data := range response.Data {
		if data.Index < 0 || data.Index >= len(vectors) {
			return nil, &llm.ProviderError{Provider: "jina", Kind: llm.ErrMalformedResponse,
				Err: fmt.Errorf("embedding index %d out of range", data.Index)}
		}
		vectors[data.Index] = data.Embedding
	}

	return vectors, nil
}

func classifyJinaError(ctx context.Context, statusCode int, err error) *llm.ProviderError {
	kind := llm.ErrUnreachable

	switch {
	case ctx.Err() != nil:
		kind = llm.ErrTimeout
	case statusCode == http.StatusTooManyRequests:
		kind = llm.ErrRateLimited
	}

	return &llm.ProviderError{Provider: "jina", Kind: kind, Err: err}
}

// Jina API types
type jinaRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type jinaResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}
