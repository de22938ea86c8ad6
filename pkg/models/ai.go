package models

import "context"

// AIProvider is the core interface that all chat-completion integrations implement.
// Never call a specific provider directly; always inject this interface.
type AIProvider interface {
	// Complete sends the messages and returns the text of the first choice.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name returns the provider identifier (e.g., "gateway", "ollama").
	Name() string
	// Model returns the model the provider sends requests to.
	Model() string
}

// CompletionRequest is a provider-neutral chat completion request.
type CompletionRequest struct {
	System string
	User   string
	// ImageURL, when set, is attached to the user message as an image part.
	ImageURL string
	// Temperature overrides the provider default when non-nil.
	Temperature *float32
}
