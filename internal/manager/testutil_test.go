package manager

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"inferd/pkg/types"
)

// createArtifact writes a small file with a valid GGUF magic and returns its
// path.
func createArtifact(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	data := append([]byte("GGUF"), make([]byte, 1020)...)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return p
}

// fakeEngine is a lightweight in-memory engine used for tests.
type fakeEngine struct {
	mu          sync.Mutex
	loadErr     error
	completeErr error
	delay       time.Duration
	block       chan struct{}
	result      CompletionResult

	loads   atomic.Int64
	closes  atomic.Int64
	calls   atomic.Int64
	cur     atomic.Int64
	maxCur  atomic.Int64
	lastReq types.ChatRequest
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		result: CompletionResult{
			Content:      "the Los Angeles Dodgers",
			FinishReason: "stop",
			Usage:        types.Usage{PromptTokens: 12, CompletionTokens: 5, TotalTokens: 17},
		},
	}
}

func (f *fakeEngine) Load(ctx context.Context) error {
	f.loads.Add(1)
	return f.loadErr
}

func (f *fakeEngine) Complete(ctx context.Context, req types.ChatRequest) (CompletionResult, error) {
	f.calls.Add(1)
	cur := f.cur.Add(1)
	defer f.cur.Add(-1)
	for {
		prev := f.maxCur.Load()
		if cur <= prev || f.maxCur.CompareAndSwap(prev, cur) {
			break
		}
	}
	f.mu.Lock()
	f.lastReq = req
	block := f.block
	delay := f.delay
	completeErr := f.completeErr
	result := f.result
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return CompletionResult{}, ctx.Err()
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return CompletionResult{}, ctx.Err()
		}
	}
	if completeErr != nil {
		return CompletionResult{}, completeErr
	}
	return result, nil
}

func (f *fakeEngine) Close() error {
	f.closes.Add(1)
	return nil
}

func (f *fakeEngine) last() types.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

// testCtx returns a context with a generous timeout, canceled on cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

// startedManager builds a Manager around fe with a real artifact on disk,
// runs Start, and registers Shutdown for cleanup.
func startedManager(t *testing.T, fe *fakeEngine, mut func(*ManagerConfig)) *Manager {
	t.Helper()
	dir := t.TempDir()
	cfg := ManagerConfig{
		ModelPath: createArtifact(t, dir, "tiny.gguf"),
		Engine:    fe,
	}
	if mut != nil {
		mut(&cfg)
	}
	m := NewWithConfig(cfg)
	if err := m.Start(testCtx(t)); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})
	return m
}

// userReq builds a minimal valid request.
func userReq(content string) types.ChatRequest {
	return types.ChatRequest{Messages: []types.Message{{Role: types.RoleUser, Content: content}}}
}

// waitFor polls cond until true or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", d)
}
