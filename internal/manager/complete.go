package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inferd/pkg/types"
)

// Complete runs one chat completion end to end: lifecycle check, schema
// validation, worker gate, engine call under the request deadline.
func (m *Manager) Complete(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	var resp types.ChatResponse
	if st := m.State(); st != StateReady {
		return resp, ErrUnavailable(st)
	}
	if err := req.Validate(); err != nil {
		return resp, ErrValidation(err)
	}

	release, err := m.gate.acquire(ctx)
	if err != nil {
		if IsGateTimeout(err) {
			m.rejections.Add(1)
		}
		return resp, err
	}
	defer release()

	cctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()
	start := time.Now()
	res, err := m.engine.Complete(cctx, req)
	if err != nil {
		m.failures.Add(1)
		m.setLastErr(err)
		switch {
		case ctx.Err() != nil:
			// The caller went away or the server-side deadline above us
			// fired; propagate untouched.
			observeCompletion("canceled", time.Since(start), 0)
			return resp, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded) || cctx.Err() != nil:
			m.log.Warn().Err(err).Dur("timeout", m.cfg.RequestTimeout).Msg("engine call timed out")
			observeCompletion("engine_timeout", time.Since(start), 0)
			return resp, ErrEngineTimeout(fmt.Sprintf("engine did not finish within %s", m.cfg.RequestTimeout))
		default:
			m.log.Warn().Err(err).Msg("engine call failed")
			observeCompletion("inference_error", time.Since(start), 0)
			return resp, ErrInference(err)
		}
	}

	m.completions.Add(1)
	observeCompletion("ok", time.Since(start), res.Usage.CompletionTokens)
	return types.ChatResponse{
		Message: types.Message{
			Role:    types.RoleAssistant,
			Content: res.Content,
		},
		Usage:        res.Usage,
		FinishReason: res.FinishReason,
	}, nil
}
