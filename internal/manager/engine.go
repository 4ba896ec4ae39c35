package manager

import (
	"context"

	"inferd/pkg/types"
)

// Backend names for ManagerConfig.Backend.
const (
	BackendLlamaCpp    = "llamacpp"
	BackendLlamaServer = "llamaserver"
)

// Engine abstracts the model runtime behind the manager. Implementations:
// an in-process go-llama.cpp engine (build tag llama) and an engine backed
// by a llama-server process speaking the OpenAI-compatible API.
type Engine interface {
	// Load acquires the model. Called once before any Complete; expensive.
	Load(ctx context.Context) error
	// Complete runs one chat completion. Implementations must return when
	// the context is canceled. Safe for concurrent use by up to the
	// configured number of workers.
	Complete(ctx context.Context, req types.ChatRequest) (CompletionResult, error)
	// Close releases the model and any child processes.
	Close() error
}

// CompletionResult is what an engine hands back for one request.
type CompletionResult struct {
	Content      string
	FinishReason string
	Usage        types.Usage
}
