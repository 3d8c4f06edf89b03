package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type LLMClient interface {
	GenerateInference(
		ctx context.Context,
		messages []Message,
		callback func(chunk string) error,
		opts ...LLMOption,
	) error

	GetModel() string
}

type LLMSettings struct {
	model       string  // model name
	temperature float64 // randomness (0.0 to 1.0)
	maxTokens   int     // maximum tokens to generate
	system      string  // system prompt
}

type LLMOption func(*LLMSettings)

// Common options for all LLM providers
func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) LLMOption {
	return func(s *LLMSettings) { s.system = prompt }
}

type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content string `json:"content"` // the message content
}

// ErrorKind classifies a failed provider call at the request/response
// boundary so callers can decide between fallback and degradation.
type ErrorKind string

const (
	ErrTimeout           ErrorKind = "timeout"
	ErrRateLimited       ErrorKind = "rate_limited"
	ErrMalformedResponse ErrorKind = "malformed_response"
	ErrUnreachable       ErrorKind = "unreachable"
)

// ProviderError wraps any failure of an external provider call.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// classifyError maps a transport or status failure to a ProviderError.
// Context expiry is reported as a timeout regardless of transport wrapping.
func classifyError(ctx context.Context, provider string, statusCode int, err error) *ProviderError {
	kind := ErrUnreachable

	switch {
	case ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded):
		kind = ErrTimeout
	case statusCode == http.StatusTooManyRequests:
		kind = ErrRateLimited
	}

	if err == nil {
		err = fmt.Errorf("API request failed with status %d", statusCode)
	}

	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}
