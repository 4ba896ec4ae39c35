package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"inferd/pkg/types"
)

// Manager owns the single model handle, the worker gate, and the lifecycle
// state machine. It is the only component that talks to the engine.
type Manager struct {
	mu      sync.RWMutex
	state   State
	model   types.ModelInfo
	lastErr string

	cfg    ManagerConfig
	engine Engine
	gate   *gate

	completions atomic.Uint64
	failures    atomic.Uint64
	rejections  atomic.Uint64

	publisher EventPublisher
	log       zerolog.Logger
	startTime time.Time
}

// New constructs a Manager for the given artifact with package defaults.
func New(modelPath string) *Manager {
	return NewWithConfig(ManagerConfig{ModelPath: modelPath})
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Ready reports whether the model is loaded and requests are being accepted.
func (m *Manager) Ready() bool {
	return m.State() == StateReady
}

// Model returns metadata for the loaded artifact. ok is false before the
// load commits.
func (m *Manager) Model() (types.ModelInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model, m.state == StateReady || m.state == StateDraining
}

// Workers returns the configured number of worker slots.
func (m *Manager) Workers() int { return m.cfg.Workers }

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) setLastErr(err error) {
	m.mu.Lock()
	m.lastErr = err.Error()
	m.mu.Unlock()
}
