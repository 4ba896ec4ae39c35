package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"inferd/internal/httpapi"
	"inferd/internal/manager"
	"inferd/pkg/types"
)

// stubEngine is a controllable in-memory engine for end-to-end tests.
type stubEngine struct {
	mu      sync.Mutex
	delay   time.Duration
	block   chan struct{}
	lastReq types.ChatRequest

	calls  atomic.Int64
	cur    atomic.Int64
	maxCur atomic.Int64
}

func (s *stubEngine) Load(ctx context.Context) error { return nil }

func (s *stubEngine) Complete(ctx context.Context, req types.ChatRequest) (manager.CompletionResult, error) {
	s.calls.Add(1)
	cur := s.cur.Add(1)
	defer s.cur.Add(-1)
	for {
		prev := s.maxCur.Load()
		if cur <= prev || s.maxCur.CompareAndSwap(prev, cur) {
			break
		}
	}
	s.mu.Lock()
	s.lastReq = req
	block := s.block
	delay := s.delay
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return manager.CompletionResult{}, ctx.Err()
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return manager.CompletionResult{}, ctx.Err()
		}
	}
	return manager.CompletionResult{
		Content:      "the Los Angeles Dodgers won the World Series in 2020",
		FinishReason: "stop",
		Usage:        types.Usage{PromptTokens: 28, CompletionTokens: 14, TotalTokens: 42},
	}, nil
}

func (s *stubEngine) Close() error { return nil }

func (s *stubEngine) last() types.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReq
}

// createArtifact writes a minimal valid GGUF file.
func createArtifact(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tiny.gguf")
	data := append([]byte("GGUF"), make([]byte, 1020)...)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return p
}

// newServer builds a manager around eng, starts it, and serves the HTTP mux
// over httptest.
func newServer(t *testing.T, eng manager.Engine, mut func(*manager.ManagerConfig)) (*httptest.Server, *manager.Manager) {
	t.Helper()
	cfg := manager.ManagerConfig{
		ModelPath: createArtifact(t),
		Engine:    eng,
	}
	if mut != nil {
		mut(&cfg)
	}
	mgr := manager.NewWithConfig(cfg)
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer scancel()
		_ = mgr.Shutdown(sctx)
	})
	return srv, mgr
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	return httpPostRaw(t, url, payload, "application/json")
}

func httpPostRaw(t *testing.T, url string, payload []byte, contentType string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
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
