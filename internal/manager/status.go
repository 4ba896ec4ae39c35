package manager

import (
	"time"

	"inferd/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		State:    m.state,
		Inflight: m.gate.Inflight(),
		Waiting:  m.gate.Waiting(),
		Err:      m.lastErr,
	}
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	return types.StatusResponse{
		State:            string(m.state),
		Model:            m.model,
		Workers:          m.cfg.Workers,
		Inflight:         m.gate.Inflight(),
		Waiting:          m.gate.Waiting(),
		MaxQueue:         m.cfg.MaxQueue,
		CompletionsTotal: m.completions.Load(),
		FailuresTotal:    m.failures.Load(),
		RejectionsTotal:  m.rejections.Load(),
		UptimeSeconds:    int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix:   now.Unix(),
		LastError:        m.lastErr,
	}
}
