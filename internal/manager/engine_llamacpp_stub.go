//go:build !llama

package manager

// This file provides a no-CGO stub for the in-process engine. It is compiled
// when the 'llama' build tag is NOT set, keeping default builds and CI
// CGO-free. The real engine lives in engine_llamacpp.go (tagged 'llama').

import (
	"context"
	"errors"

	"inferd/pkg/types"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = false

var errLlamaNotBuilt = errors.New("llamacpp support not built (missing 'llama' build tag)")

// llamaEngine is a stub that satisfies Engine but refuses to load a model
// without the 'llama' build tag. This avoids any mocked behavior in binaries
// built without CGO support.
type llamaEngine struct{}

func newLlamaEngine(cfg ManagerConfig) Engine { return &llamaEngine{} }

func (e *llamaEngine) Load(ctx context.Context) error { return errLlamaNotBuilt }

func (e *llamaEngine) Complete(ctx context.Context, req types.ChatRequest) (CompletionResult, error) {
	// Load fails first, so this is unreachable; return a clear error anyway.
	select {
	case <-ctx.Done():
		return CompletionResult{}, ctx.Err()
	default:
	}
	return CompletionResult{}, errLlamaNotBuilt
}

func (e *llamaEngine) Close() error { return nil }
