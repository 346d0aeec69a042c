package llm

import (
	"context"
	"errors"
)

// Client abstracts LLM providers for review analysis.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest carries one rendered prompt to the provider.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserInput    string
	// APIKey overrides the client's configured credential when non-empty.
	APIKey string
}

// Provider failure kinds the pipeline treats as recoverable.
var (
	ErrTimeout = errors.New("llm request timeout")
	ErrQuota   = errors.New("llm quota exceeded")
)

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm client not configured")

// PlaceholderClient is a stub implementation used when no provider is wired.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotConfigured
}
