package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"inferd/internal/manager"
	"inferd/pkg/types"
)

type mockService struct {
	resp        types.ChatResponse
	completeErr error
	ready       bool
	status      types.StatusResponse
	model       types.ModelInfo
	modelOK     bool
	calls       atomic.Int64
	lastReq     types.ChatRequest
}

func (m *mockService) Complete(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	m.calls.Add(1)
	m.lastReq = req
	if m.completeErr != nil {
		return types.ChatResponse{}, m.completeErr
	}
	return m.resp, nil
}
func (m *mockService) Status() types.StatusResponse   { return m.status }
func (m *mockService) Model() (types.ModelInfo, bool) { return m.model, m.modelOK }
func (m *mockService) Ready() bool                    { return m.ready }

func okService() *mockService {
	return &mockService{
		ready: true,
		resp: types.ChatResponse{
			Message:      types.Message{Role: types.RoleAssistant, Content: "the Los Angeles Dodgers"},
			Usage:        types.Usage{PromptTokens: 12, CompletionTokens: 5, TotalTokens: 17},
			FinishReason: "stop",
		},
	}
}

func postInvocations(t *testing.T, h http.Handler, body string, ct string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invocations", bytes.NewBufferString(body))
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	h.ServeHTTP(w, req)
	return w
}

func TestPingReady(t *testing.T) {
	r := NewMux(&mockService{ready: true})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", w.Body.String())
	}
}

func TestPingNotReady(t *testing.T) {
	r := NewMux(&mockService{ready: false})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestInvocationsSuccess(t *testing.T) {
	svc := okService()
	r := NewMux(svc)
	w := postInvocations(t, r, `{"messages":[{"role":"user","content":"Who won the world series in 2020?"}],"temperature":0.1}`, "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var resp types.ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Message.Content == "" || resp.Usage.CompletionTokens == 0 {
		t.Fatalf("body=%+v", resp)
	}
	if svc.lastReq.Temperature == nil || *svc.lastReq.Temperature != 0.1 {
		t.Fatalf("temperature not forwarded: %+v", svc.lastReq)
	}
}

func TestInvocationsBadJSON(t *testing.T) {
	svc := okService()
	r := NewMux(svc)
	w := postInvocations(t, r, "not-json", "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("json: %v", err)
	}
	if e.Error != manager.KindValidationError {
		t.Fatalf("error=%q", e.Error)
	}
	if svc.calls.Load() != 0 {
		t.Fatalf("engine invoked on malformed body")
	}
}

func TestInvocationsUnsupportedMediaType(t *testing.T) {
	svc := okService()
	r := NewMux(svc)
	for _, ct := range []string{"", "text/plain", "application/x-www-form-urlencoded"} {
		w := postInvocations(t, r, `{"messages":[{"role":"user","content":"hi"}]}`, ct)
		if w.Code != http.StatusUnsupportedMediaType {
			t.Fatalf("ct=%q status=%d", ct, w.Code)
		}
		var e types.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
			t.Fatalf("json: %v", err)
		}
		if e.Error != manager.KindUnsupportedMediaType {
			t.Fatalf("error=%q", e.Error)
		}
	}
	if svc.calls.Load() != 0 {
		t.Fatalf("engine invoked despite media-type rejection")
	}
}

func TestInvocationsCharsetSuffixAccepted(t *testing.T) {
	svc := okService()
	r := NewMux(svc)
	w := postInvocations(t, r, `{"messages":[{"role":"user","content":"hi"}]}`, "application/json; charset=utf-8")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestInvocationsBodyTooLarge(t *testing.T) {
	svc := okService()
	r := NewMux(svc)
	big := make([]byte, (1<<20)+10)
	for i := range big {
		big[i] = 'a'
	}
	w := postInvocations(t, r, string(big), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too-large body, got %d", w.Code)
	}
}

func TestInvocationsValidationRejectedBeforeEngine(t *testing.T) {
	svc := okService()
	svc.completeErr = manager.ErrValidation(errors.New(`messages[0]: unknown role "narrator"`))
	r := NewMux(svc)
	w := postInvocations(t, r, `{"messages":[{"role":"narrator","content":"x"}]}`, "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("json: %v", err)
	}
	if e.Error != manager.KindValidationError || !strings.Contains(e.Message, "narrator") {
		t.Fatalf("envelope=%+v", e)
	}
}

func TestStatusHandler(t *testing.T) {
	svc := okService()
	svc.status = types.StatusResponse{State: "ready", Workers: 4}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.State != "ready" || body.Workers != 4 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestModelHandler(t *testing.T) {
	svc := okService()
	svc.model = types.ModelInfo{ID: "tiny", SizeMB: 668}
	svc.modelOK = true
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/model", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var mi types.ModelInfo
	if err := json.Unmarshal(w.Body.Bytes(), &mi); err != nil {
		t.Fatalf("json: %v", err)
	}
	if mi.ID != "tiny" || mi.SizeMB != 668 {
		t.Fatalf("model=%+v", mi)
	}
}

func TestModelHandlerBeforeLoad(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/model", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestNosniffHeader(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("nosniff header=%q", got)
	}
}
