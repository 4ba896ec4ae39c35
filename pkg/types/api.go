package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Chat roles accepted on the wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	// Role of the author. One of: system, user, assistant.
	// example: user
	Role string `json:"role" example:"user"`
	// Content is the message text.
	// example: Who won the world series in 2020?
	Content string `json:"content" example:"Who won the world series in 2020?"`
}

// ChatRequest is the payload for POST /invocations.
//
// Known generation parameters are typed fields; any other top-level key is
// retained verbatim in Extra and forwarded to the engine untouched, so
// backend-specific tuning knobs keep working without a schema change here.
type ChatRequest struct {
	// Ordered conversation history. Must be non-empty.
	Messages []Message `json:"messages"`
	// Maximum number of new tokens to generate. 0 lets the engine decide.
	// example: 256
	MaxTokens int `json:"max_tokens,omitempty" example:"256"`
	// Sampling temperature. Omitted leaves the engine default; 0 is greedy.
	// example: 0.1
	Temperature *float64 `json:"temperature,omitempty" example:"0.1"`
	// Nucleus sampling probability.
	// example: 0.9
	TopP *float64 `json:"top_p,omitempty" example:"0.9"`
	// Top-K sampling: limit candidates to top K tokens.
	// example: 40
	TopK int `json:"top_k,omitempty" example:"40"`
	// Repeat penalty applied by llama.cpp-style engines.
	// example: 1.1
	RepeatPenalty *float64 `json:"repeat_penalty,omitempty" example:"1.1"`
	// Optional stop sequences. Generation stops when any sequence is matched.
	Stop []string `json:"stop,omitempty"`
	// Random seed for reproducibility; 0 or omitted lets the engine choose.
	// example: 42
	Seed int64 `json:"seed,omitempty" example:"42"`
	// Extra holds unrecognized top-level keys, forwarded opaquely.
	Extra map[string]json.RawMessage `json:"-"`
}

// knownRequestKeys are the top-level keys decoded into typed fields; anything
// else lands in Extra.
var knownRequestKeys = map[string]struct{}{
	"messages":       {},
	"max_tokens":     {},
	"temperature":    {},
	"top_p":          {},
	"top_k":          {},
	"repeat_penalty": {},
	"stop":           {},
	"seed":           {},
}

// UnmarshalJSON decodes typed fields and captures unknown keys into Extra.
func (r *ChatRequest) UnmarshalJSON(b []byte) error {
	type plain ChatRequest
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k := range raw {
		if _, ok := knownRequestKeys[k]; ok {
			delete(raw, k)
		}
	}
	if len(raw) > 0 {
		p.Extra = raw
	}
	*r = ChatRequest(p)
	return nil
}

// MarshalJSON emits typed fields merged with Extra, reproducing the original
// top-level document.
func (r ChatRequest) MarshalJSON() ([]byte, error) {
	type plain ChatRequest
	b, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return b, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, ok := knownRequestKeys[k]; ok {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Validate checks the request against the accepted schema: a non-empty
// message sequence where every turn carries a known role and content.
// Generation parameters are deliberately not range-checked here; out-of-range
// knobs are the engine's business.
func (r ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("messages must be a non-empty array")
	}
	for i, m := range r.Messages {
		if strings.TrimSpace(m.Role) == "" {
			return fmt.Errorf("messages[%d]: role is required", i)
		}
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("messages[%d]: unknown role %q", i, m.Role)
		}
		if m.Content == "" {
			return fmt.Errorf("messages[%d]: content is required", i)
		}
	}
	return nil
}

// Usage reports token accounting for one completion.
type Usage struct {
	// Tokens consumed by the rendered prompt. May be 0 when the backend
	// exposes no tokenizer hook.
	// example: 28
	PromptTokens int `json:"prompt_tokens" example:"28"`
	// Tokens generated for the reply.
	// example: 14
	CompletionTokens int `json:"completion_tokens" example:"14"`
	// Sum of the above.
	// example: 42
	TotalTokens int `json:"total_tokens" example:"42"`
}

// ChatResponse is the body returned by POST /invocations.
type ChatResponse struct {
	// Generated assistant turn.
	Message Message `json:"message"`
	// Token accounting for this completion.
	Usage Usage `json:"usage"`
	// Why generation ended: stop, length, or a backend-specific reason.
	// example: stop
	FinishReason string `json:"finish_reason" example:"stop"`
}

// ErrorResponse is the JSON error envelope used by every failing endpoint.
type ErrorResponse struct {
	// Machine-readable failure kind, e.g. ValidationError, GateTimeout.
	// example: ValidationError
	Error string `json:"error" example:"ValidationError"`
	// Human-readable detail.
	// example: messages must be a non-empty array
	Message string `json:"message,omitempty" example:"messages must be a non-empty array"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Lifecycle state: starting, ready, draining, stopped.
	// example: ready
	State string `json:"state" example:"ready"`
	// Loaded artifact metadata. Zero value until the load commits.
	Model ModelInfo `json:"model"`
	// Worker slots configured for concurrent engine calls.
	// example: 4
	Workers int `json:"workers" example:"4"`
	// Engine calls executing right now.
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Requests parked at the gate waiting for a slot.
	// example: 0
	Waiting int `json:"waiting" example:"0"`
	// Maximum callers allowed to wait before fast rejection.
	// example: 32
	MaxQueue int `json:"max_queue" example:"32"`
	// Completed requests since start.
	// example: 1204
	CompletionsTotal uint64 `json:"completions_total" example:"1204"`
	// Requests that reached the engine and failed.
	// example: 3
	FailuresTotal uint64 `json:"failures_total" example:"3"`
	// Requests rejected at the gate under backpressure.
	// example: 17
	RejectionsTotal uint64 `json:"rejections_total" example:"17"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Last engine error observed, if any.
	LastError string `json:"last_error,omitempty"`
}
