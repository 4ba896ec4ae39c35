package manager

import (
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxQueue       = 32
	defaultGateWait       = 30 * time.Second
	defaultRequestTimeout = 120 * time.Second
	defaultDrainTimeout   = 30 * time.Second
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// ModelPath locates the GGUF artifact. Required unless Engine is set.
	ModelPath string
	// ModelID names the artifact in status reports. Derived from the file
	// name when empty.
	ModelID string
	// Backend selects the engine: BackendLlamaCpp (in-process) or
	// BackendLlamaServer (llama-server over HTTP).
	Backend string
	// Workers bounds concurrent engine calls. Defaults to GOMAXPROCS-ish
	// core count.
	Workers int
	// Threads per engine call; 0 divides cores across workers.
	Threads int
	// CtxSize is the context window tokens for the engine.
	CtxSize int
	// MaxQueue bounds callers waiting at the gate before fast rejection.
	MaxQueue int
	// GateWait bounds how long a caller may wait for a worker slot.
	GateWait time.Duration
	// RequestTimeout bounds one engine call end to end.
	RequestTimeout time.Duration
	// DrainTimeout bounds the shutdown drain.
	DrainTimeout time.Duration
	// ServerBin is the llama-server executable for the spawn mode of the
	// server backend.
	ServerBin string
	// ServerURL attaches to an already-running llama-server instead of
	// spawning one. Implies no local artifact preflight.
	ServerURL string
	// Engine overrides backend selection; used by tests.
	Engine Engine
	// Publisher receives lifecycle events. Defaults to a no-op.
	Publisher EventPublisher
	// Logger for manager internals. Defaults to a disabled logger.
	Logger zerolog.Logger
}

// NewWithConfig constructs a Manager in StateStarting. Call Start to load
// the model and begin accepting work.
func NewWithConfig(cfg ManagerConfig) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.NumCPU() / cfg.Workers
		if cfg.Threads < 1 {
			cfg.Threads = 1
		}
	}
	if cfg.CtxSize <= 0 {
		cfg.CtxSize = 4096
	}
	if cfg.MaxQueue < 0 {
		cfg.MaxQueue = 0
	} else if cfg.MaxQueue == 0 {
		cfg.MaxQueue = defaultMaxQueue
	}
	if cfg.GateWait <= 0 {
		cfg.GateWait = defaultGateWait
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = defaultDrainTimeout
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendLlamaCpp
	}
	if cfg.Publisher == nil {
		cfg.Publisher = noopPublisher{}
	}
	m := &Manager{
		cfg:       cfg,
		state:     StateStarting,
		gate:      newGate(cfg.Workers, cfg.MaxQueue, cfg.GateWait),
		publisher: cfg.Publisher,
		log:       cfg.Logger,
		startTime: time.Now(),
	}
	m.engine = cfg.Engine
	if m.engine == nil {
		switch cfg.Backend {
		case BackendLlamaServer:
			m.engine = newServerEngine(cfg)
		default:
			m.engine = newLlamaEngine(cfg)
		}
	}
	return m
}
