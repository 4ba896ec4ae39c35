package manager

import (
	"context"
	"time"
)

// Shutdown drains and stops the manager:
//   - flips to StateDraining so new requests are rejected,
//   - waits up to DrainTimeout for in-flight and queued work to finish,
//   - closes the engine and lands in StateStopped.
//
// Safe to call more than once; later calls return immediately.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateStopped || m.state == StateDraining {
		m.mu.Unlock()
		return nil
	}
	m.state = StateDraining
	m.mu.Unlock()
	m.publisher.Publish(Event{Name: EventDrainStart, Fields: map[string]any{"inflight": m.gate.Inflight(), "waiting": m.gate.Waiting()}})
	m.log.Info().Int("inflight", m.gate.Inflight()).Int("waiting", m.gate.Waiting()).Msg("draining")

	deadline := time.Now().Add(m.cfg.DrainTimeout)
	for !m.gate.idle() {
		if time.Now().After(deadline) {
			m.publisher.Publish(Event{Name: EventDrainTimeout, Fields: map[string]any{"inflight": m.gate.Inflight(), "waiting": m.gate.Waiting()}})
			m.log.Warn().Int("inflight", m.gate.Inflight()).Msg("drain timeout, aborting in-flight work")
			break
		}
		if ctx.Err() != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	err := m.engine.Close()
	m.setState(StateStopped)
	m.publisher.Publish(Event{Name: EventStopped, Fields: map[string]any{}})
	m.log.Info().Msg("stopped")
	return err
}
