package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type GeminiClient struct {
	apiKey     string
	httpClient *http.Client
	url        string
	model      string
}

func NewGeminiClient(apiKey, model string) LLMClient {
	return &GeminiClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
		url:        fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", model),
		model:      model,
	}
}

func (c *GeminiClient) GetModel() string {
	return c.model
}

func (c *GeminiClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := LLMSettings{
		model:       c.model,
		temperature: 0.3,
		maxTokens:   2048,
	}

	// Apply options
	for _, opt := range opts {
		opt(&settings)
	}

	request := geminiRequest{
		Contents: convertToGeminiContents(messages),
		GenerationConfig: geminiGenerationConfig{
			Temperature:     settings.temperature,
			MaxOutputTokens: settings.maxTokens,
		},
	}

	if settings.system != "" {
		request.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: settings.system}},
		}
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyError(ctx, "gemini", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyError(ctx, "gemini", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return classifyError(ctx, "gemini", resp.StatusCode,
			fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return &ProviderError{Provider: "gemini", Kind: ErrMalformedResponse, Err: err}
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return &ProviderError{Provider: "gemini", Kind: ErrMalformedResponse,
			Err: fmt.Errorf("no content in response")}
	}

	return callback(response.Candidates[0].Content.Parts[0].Text)
}

// convertToGeminiContents maps chat messages onto the Gemini content roles.
// Gemini uses "model" for assistant turns and has no system role in contents.
func convertToGeminiContents(messages []Message) []geminiContent {
	contents := make([]geminiContent, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role == "assistant" {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}
	return contents
}

// Gemini API types
type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}
