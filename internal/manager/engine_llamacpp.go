//go:build llama

package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	llama "github.com/go-skynet/go-llama.cpp"

	"inferd/pkg/types"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// llamaEngine runs completions in-process through go-llama.cpp. One model
// handle per worker slot; weights are mmapped so the copies share pages and
// each handle pays only for its own KV cache.
type llamaEngine struct {
	cfg     ManagerConfig
	handles chan *llama.LLama
}

func newLlamaEngine(cfg ManagerConfig) Engine {
	return &llamaEngine{cfg: cfg}
}

func (e *llamaEngine) Load(ctx context.Context) error {
	if strings.TrimSpace(e.cfg.ModelPath) == "" {
		return errors.New("model path is empty")
	}
	handles := make(chan *llama.LLama, e.cfg.Workers)
	for i := 0; i < e.cfg.Workers; i++ {
		if err := ctx.Err(); err != nil {
			freeHandles(handles)
			return err
		}
		h, err := llama.New(e.cfg.ModelPath, llama.SetContext(e.cfg.CtxSize))
		if err != nil {
			freeHandles(handles)
			return fmt.Errorf("handle %d/%d: %w", i+1, e.cfg.Workers, err)
		}
		handles <- h
	}
	e.handles = handles
	return nil
}

func (e *llamaEngine) Complete(ctx context.Context, req types.ChatRequest) (CompletionResult, error) {
	if e.handles == nil {
		return CompletionResult{}, errors.New("llama engine not loaded")
	}
	var h *llama.LLama
	select {
	case h = <-e.handles:
	case <-ctx.Done():
		return CompletionResult{}, ctx.Err()
	}
	defer func() { e.handles <- h }()

	prompt, stops := renderPrompt(req.Messages)
	stops = append(stops, req.Stop...)

	var completionTokens atomic.Int64
	h.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		completionTokens.Add(1)
		return true
	})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = llama.DefaultOptions.Tokens
	}
	po := []llama.PredictOption{
		llama.SetTokens(maxTokens),
		llama.SetThreads(e.cfg.Threads),
		llama.SetTemperature(f32Or(req.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetTopP(f32Or(req.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(intOr(req.TopK, llama.DefaultOptions.TopK)),
		llama.SetPenalty(f32Or(req.RepeatPenalty, llama.DefaultOptions.Penalty)),
		llama.SetStopWords(stops...),
	}
	if req.Seed != 0 {
		po = append(po, llama.SetSeed(int(req.Seed)))
	}
	// Unknown passthrough keys have no slot in the in-process API; they are
	// honored by the server backend only.

	text, err := h.Predict(prompt, po...)
	if ctx.Err() != nil {
		return CompletionResult{}, ctx.Err()
	}
	if err != nil {
		return CompletionResult{}, err
	}

	content := strings.TrimSpace(trimStops(text, stops))
	generated := int(completionTokens.Load())
	finish := "stop"
	if generated >= maxTokens {
		finish = "length"
	}
	return CompletionResult{
		Content:      content,
		FinishReason: finish,
		Usage: types.Usage{
			CompletionTokens: generated,
			TotalTokens:      generated,
		},
	}, nil
}

func (e *llamaEngine) Close() error {
	if e.handles == nil {
		return nil
	}
	freeHandles(e.handles)
	e.handles = nil
	return nil
}

func freeHandles(handles chan *llama.LLama) {
	for {
		select {
		case h := <-handles:
			h.Free()
		default:
			return
		}
	}
}

// trimStops removes a trailing stop sequence the runtime may leave behind.
func trimStops(s string, stops []string) string {
	for _, stop := range stops {
		s = strings.TrimSuffix(strings.TrimRight(s, "\n"), stop)
	}
	return s
}

func f32Or(v *float64, def float32) float32 {
	if v != nil {
		return float32(*v)
	}
	return def
}

func intOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
