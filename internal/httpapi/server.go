package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inferd/internal/manager"
	"inferd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *manager.Manager satisfies it.
type Service interface {
	Complete(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error)
	Status() types.StatusResponse
	Model() (types.ModelInfo, bool)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsOpts.enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOpts.origins,
			AllowedMethods: corsOpts.methods,
			AllowedHeaders: corsOpts.headers,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	// Hosting-contract liveness probe: 200 with empty body only when the
	// model is loaded and requests are being accepted. Starting and draining
	// both answer 503 so the platform routes traffic elsewhere.
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	r.Post("/invocations", func(w http.ResponseWriter, r *http.Request) {
		handleInvocations(svc, w, r)
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Status()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, manager.KindInternal, "failed to encode response")
			return
		}
	})

	r.Get("/model", func(w http.ResponseWriter, r *http.Request) {
		mi, ok := svc.Model()
		if !ok {
			writeJSONError(w, http.StatusServiceUnavailable, manager.KindUnavailable, "model not loaded")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(mi); err != nil {
			writeJSONError(w, http.StatusInternalServerError, manager.KindInternal, "failed to encode response")
			return
		}
	})

	// Process liveness, distinct from /ping readiness.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// handleInvocations drives one completion: media-type gate, bounded body
// decode, then the manager's validate/acquire/complete path. Every failure
// maps to the JSON error envelope; the slot release lives inside Complete.
func handleInvocations(svc Service, w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, manager.KindUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	// Limit body size (configurable, default 1MiB)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// An exceeded MaxBytesReader surfaces here too; 400 either way.
		writeJSONError(w, http.StatusBadRequest, manager.KindValidationError, "invalid JSON body")
		return
	}

	lvl := requestLogLevel(r)
	start := time.Now()
	if lvl >= LevelInfo && zlog != nil {
		z := zlog.Info().Str("path", r.URL.Path).Int("messages", len(req.Messages))
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Msg("invocation start")
	}

	// Join server base context with request context so shutdown cancels work too.
	joinedCtx, cancel := joinContexts(baseCtx, r.Context())
	defer cancel()
	resp, err := svc.Complete(joinedCtx, req)
	if err != nil {
		// Client disconnect or shutdown: nothing sensible left to write.
		if r.Context().Err() != nil || baseCtx.Err() != nil {
			return
		}
		if manager.IsGateTimeout(err) {
			IncrementBackpressure("gate_timeout")
		}
		status := writeServiceError(w, err)
		if lvl >= LevelInfo && zlog != nil {
			z := zlog.Info().Int("status", status).Dur("dur", time.Since(start))
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Err(err).Msg("invocation end")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, manager.KindInternal, "failed to encode response")
		return
	}
	if lvl >= LevelInfo && zlog != nil {
		z := zlog.Info().Int("status", http.StatusOK).Dur("dur", time.Since(start)).Int("completion_tokens", resp.Usage.CompletionTokens)
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Msg("invocation end")
	}
}
