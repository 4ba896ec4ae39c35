package manager

// State represents the lifecycle state of the manager.
type State string

const (
	StateStarting State = "starting"
	StateReady    State = "ready"
	StateDraining State = "draining"
	StateStopped  State = "stopped"
)

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State    State
	Inflight int
	Waiting  int
	Err      string
}
