package manager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"inferd/pkg/types"
)

// serverReadyTimeout bounds how long a spawned llama-server may take to load
// the model and start answering /v1/models.
const serverReadyTimeout = 120 * time.Second

// serverEngine talks to a llama.cpp server over its OpenAI-compatible API.
// It either spawns the server as a child process (ServerBin) or attaches to
// a running one (ServerURL).
type serverEngine struct {
	cfg        ManagerConfig
	httpClient *http.Client
	oai        *openai.Client
	baseURL    string
	publisher  EventPublisher

	mu     sync.Mutex
	cmd    *exec.Cmd
	stderr *bytes.Buffer
	waitCh chan error
}

func newServerEngine(cfg ManagerConfig) Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout stays 0 here: every request carries a context deadline.
	cli := &http.Client{Transport: tr, Timeout: 0}
	return &serverEngine{cfg: cfg, httpClient: cli, publisher: cfg.Publisher}
}

func (e *serverEngine) Load(ctx context.Context) error {
	if e.cfg.ServerURL != "" {
		e.setBaseURL(strings.TrimRight(e.cfg.ServerURL, "/"))
		return e.waitReady(ctx, nil)
	}
	return e.spawn(ctx)
}

// spawn starts llama-server for the configured artifact and waits until it
// answers health checks, surfacing early exits with a stderr tail.
func (e *serverEngine) spawn(ctx context.Context) error {
	bin := strings.TrimSpace(e.cfg.ServerBin)
	if bin == "" {
		return errors.New("server_bin is empty and no server_url configured")
	}
	host := "127.0.0.1"
	port, err := pickFreePort(host)
	if err != nil {
		return err
	}
	e.setBaseURL(fmt.Sprintf("http://%s:%d", host, port))

	args := buildServerArgs(e.cfg, host, port)
	cmd := exec.Command(bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", bin, err)
	}
	e.cfg.Logger.Info().Int("pid", cmd.Process.Pid).Str("url", e.baseURL).Msg("llama-server starting")
	e.publisher.Publish(Event{Name: EventSpawnStart, Fields: map[string]any{"pid": cmd.Process.Pid, "url": e.baseURL}})

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()
	e.mu.Lock()
	e.cmd = cmd
	e.stderr = &stderr
	e.waitCh = waitCh
	e.mu.Unlock()

	if err := e.waitReady(ctx, waitCh); err != nil {
		e.mu.Lock()
		e.cmd = nil
		e.mu.Unlock()
		return err
	}
	e.cfg.Logger.Info().Int("pid", cmd.Process.Pid).Str("url", e.baseURL).Msg("llama-server ready")
	e.publisher.Publish(Event{Name: EventSpawnReady, Fields: map[string]any{"pid": cmd.Process.Pid, "url": e.baseURL}})
	return nil
}

// setBaseURL fixes the endpoint and builds the OpenAI-compatible client
// against it.
func (e *serverEngine) setBaseURL(base string) {
	e.baseURL = base
	cc := openai.DefaultConfig("")
	cc.BaseURL = base + "/v1"
	cc.HTTPClient = e.httpClient
	e.oai = openai.NewClientWithConfig(cc)
}

// waitReady polls /v1/models until the server answers, the deadline passes,
// or the child exits early (waitCh non-nil in spawn mode).
func (e *serverEngine) waitReady(ctx context.Context, waitCh chan error) error {
	deadline := time.Now().Add(serverReadyTimeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			e.publisher.Publish(Event{Name: EventSpawnTimeout, Fields: map[string]any{"url": e.baseURL}})
			return fmt.Errorf("llama-server not ready in time: %s", e.baseURL)
		}
		if waitCh != nil {
			select {
			case werr := <-waitCh:
				tail := e.stderrTail()
				e.publisher.Publish(Event{Name: EventSpawnExit, Fields: map[string]any{"error": fmt.Sprint(werr)}})
				if werr != nil {
					return fmt.Errorf("llama-server exited early: %v; stderr tail: %s", werr, tail)
				}
				return fmt.Errorf("llama-server exited before ready: %s", e.baseURL)
			default:
			}
		}
		hctx, cancel := context.WithTimeout(ctx, 1*time.Second)
		_, err := e.oai.ListModels(hctx)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (e *serverEngine) stderrTail() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stderr == nil {
		return ""
	}
	tail := e.stderr.String()
	if len(tail) > 4096 {
		tail = tail[len(tail)-4096:]
	}
	return tail
}

// Complete posts the request to /v1/chat/completions. The wire format of
// ChatRequest already matches what llama-server accepts, extras included, so
// the payload is the request document plus model and stream fields.
func (e *serverEngine) Complete(ctx context.Context, req types.ChatRequest) (CompletionResult, error) {
	if e.oai == nil {
		return CompletionResult{}, errors.New("server engine not loaded")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return CompletionResult{}, err
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return CompletionResult{}, err
	}
	model, _ := json.Marshal(e.modelName())
	payload["model"] = model
	payload["stream"] = json.RawMessage("false")
	buf, err := json.Marshal(payload)
	if err != nil {
		return CompletionResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return CompletionResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return CompletionResult{}, ctx.Err()
		}
		return CompletionResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr openai.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != nil && apiErr.Error.Message != "" {
			return CompletionResult{}, fmt.Errorf("llama-server: %s: %s", resp.Status, apiErr.Error.Message)
		}
		return CompletionResult{}, fmt.Errorf("llama-server: %s: %s", resp.Status, raw)
	}
	var cc openai.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cc); err != nil {
		if ctx.Err() != nil {
			return CompletionResult{}, ctx.Err()
		}
		return CompletionResult{}, fmt.Errorf("decode completion: %w", err)
	}
	if len(cc.Choices) == 0 {
		return CompletionResult{}, errors.New("llama-server returned no choices")
	}
	choice := cc.Choices[0]
	finish := string(choice.FinishReason)
	if finish == "" {
		finish = "stop"
	}
	return CompletionResult{
		Content:      choice.Message.Content,
		FinishReason: finish,
		Usage: types.Usage{
			PromptTokens:     cc.Usage.PromptTokens,
			CompletionTokens: cc.Usage.CompletionTokens,
			TotalTokens:      cc.Usage.TotalTokens,
		},
	}, nil
}

// Close terminates a spawned server: SIGTERM, short grace, then kill.
// Attached servers are left alone.
func (e *serverEngine) Close() error {
	e.mu.Lock()
	cmd := e.cmd
	waitCh := e.waitCh
	e.cmd = nil
	e.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	_ = cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-waitCh:
	case <-time.After(2 * time.Second):
		_ = cmd.Process.Kill()
		<-waitCh
	}
	e.publisher.Publish(Event{Name: EventSpawnStop, Fields: map[string]any{}})
	return nil
}

func (e *serverEngine) modelName() string {
	if e.cfg.ModelID != "" {
		return e.cfg.ModelID
	}
	return "default"
}

// buildServerArgs assembles the llama-server command line. --parallel mirrors
// the worker slots so the server accepts as much concurrency as the gate
// admits.
func buildServerArgs(cfg ManagerConfig, host string, port int) []string {
	args := []string{
		"-m", cfg.ModelPath,
		"--host", host,
		"--port", fmt.Sprint(port),
	}
	if cfg.CtxSize > 0 {
		args = append(args, "-c", fmt.Sprint(cfg.CtxSize))
	}
	if cfg.Threads > 0 {
		args = append(args, "-t", fmt.Sprint(cfg.Threads))
	}
	if cfg.Workers > 0 {
		args = append(args, "--parallel", fmt.Sprint(cfg.Workers))
	}
	return args
}

func pickFreePort(host string) (int, error) {
	l, err := net.Listen("tcp", host+":0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected listener addr: %s", l.Addr())
	}
	return addr.Port, nil
}
