package ai

import "context"

// CompletionRequest is one vision chat completion: a system prompt, a user
// instruction and the image the instruction refers to.
type CompletionRequest struct {
	SystemPrompt string
	UserText     string
	ImageURL     string
	Model        string
	Temperature  float32
}

// Client sends a completion to a vision-capable model and returns the raw text
// of the first choice. Implementations translate upstream failures with FromStatus.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
