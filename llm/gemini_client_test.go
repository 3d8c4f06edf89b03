package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiClient(t *testing.T) {
	client := NewGeminiClient("test-key", "gemini-1.5-pro")
	assert.NotNil(t, client)
	assert.Equal(t, "gemini-1.5-pro", client.GetModel())
}

func TestGeminiClientGenerateInference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Contents)
		// Assistant turns are mapped to the "model" role
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "model", req.Contents[1].Role)
		require.NotNil(t, req.SystemInstruction)

		response := geminiResponse{
			Candidates: []geminiCandidate{
				{
					Content: geminiContent{
						Parts: []geminiPart{{Text: `{"urgency": "routine"}`}},
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := NewGeminiClient("test-key", "gemini-1.5-pro").(*GeminiClient)
	client.url = server.URL

	messages := []Message{
		{Role: "user", Content: "I have a headache"},
		{Role: "assistant", Content: "How long has it lasted?"},
		{Role: "user", Content: "Two days"},
	}

	var result string
	err := client.GenerateInference(context.Background(), messages, func(chunk string) error {
		result = chunk
		return nil
	}, WithSystemPrompt("You are a medical triage assistant."), WithTemperature(0.3))

	require.NoError(t, err)
	assert.Equal(t, `{"urgency": "routine"}`, result)
}

func TestGeminiClientEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiResponse{})
	}))
	defer server.Close()

	client := NewGeminiClient("test-key", "gemini-1.5-pro").(*GeminiClient)
	client.url = server.URL

	err := client.GenerateInference(context.Background(), []Message{{Role: "user", Content: "hi"}}, func(string) error { return nil })
	require.Error(t, err)

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, ErrMalformedResponse, provErr.Kind)
}

func TestGeminiClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewGeminiClient("test-key", "gemini-1.5-pro").(*GeminiClient)
	client.url = server.URL

	err := client.GenerateInference(context.Background(), []Message{{Role: "user", Content: "hi"}}, func(string) error { return nil })
	require.Error(t, err)

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, ErrUnreachable, provErr.Kind)
}
