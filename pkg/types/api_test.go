package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestChatRequestUnmarshalCapturesUnknownKeys(t *testing.T) {
	body := []byte(`{
		"messages": [{"role": "user", "content": "hi"}],
		"temperature": 0,
		"max_tokens": 64,
		"mirostat": 2,
		"grammar": "root ::= \"yes\""
	}`)
	var req ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(req.Messages) != 1 || req.Messages[0].Content != "hi" {
		t.Fatalf("messages=%+v", req.Messages)
	}
	if req.Temperature == nil || *req.Temperature != 0 {
		t.Fatalf("temperature=%v, want explicit 0", req.Temperature)
	}
	if req.TopP != nil {
		t.Fatalf("top_p=%v, want nil for absent key", req.TopP)
	}
	if req.MaxTokens != 64 {
		t.Fatalf("max_tokens=%d", req.MaxTokens)
	}
	if len(req.Extra) != 2 {
		t.Fatalf("extra=%v, want 2 unknown keys", req.Extra)
	}
	if string(req.Extra["mirostat"]) != "2" {
		t.Fatalf("mirostat=%s", req.Extra["mirostat"])
	}
	if _, ok := req.Extra["messages"]; ok {
		t.Fatalf("known key leaked into extra: %v", req.Extra)
	}
}

func TestChatRequestMarshalRoundTrip(t *testing.T) {
	in := []byte(`{"messages":[{"role":"user","content":"hi"}],"top_k":40,"mirostat_tau":5.0}`)
	var req ChatRequest
	if err := json.Unmarshal(in, &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("remarshal parse: %v", err)
	}
	if string(m["top_k"]) != "40" {
		t.Fatalf("top_k=%s", m["top_k"])
	}
	if string(m["mirostat_tau"]) != "5.0" {
		t.Fatalf("mirostat_tau=%s", m["mirostat_tau"])
	}
	if _, ok := m["temperature"]; ok {
		t.Fatalf("unset temperature should be omitted: %s", out)
	}
}

func TestChatRequestMarshalExtraCannotShadowKnownKeys(t *testing.T) {
	req := ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Extra:    map[string]json.RawMessage{"messages": json.RawMessage(`[]`)},
	}
	out, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m struct {
		Messages []Message `json:"messages"`
	}
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(m.Messages) != 1 {
		t.Fatalf("messages=%+v, typed field must win", m.Messages)
	}
}

func TestChatRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     ChatRequest
		wantErr string
	}{
		{
			name: "ok multi role",
			req: ChatRequest{Messages: []Message{
				{Role: RoleSystem, Content: "be brief"},
				{Role: RoleUser, Content: "hi"},
				{Role: RoleAssistant, Content: "hello"},
				{Role: RoleUser, Content: "bye"},
			}},
		},
		{name: "empty messages", req: ChatRequest{}, wantErr: "non-empty"},
		{
			name:    "missing role",
			req:     ChatRequest{Messages: []Message{{Content: "hi"}}},
			wantErr: "role is required",
		},
		{
			name:    "unknown role",
			req:     ChatRequest{Messages: []Message{{Role: "tool", Content: "x"}}},
			wantErr: `unknown role "tool"`,
		},
		{
			name:    "missing content",
			req:     ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant}}},
			wantErr: "messages[1]: content is required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err=%v, want substring %q", err, tc.wantErr)
			}
		})
	}
}
