package manager

// Event represents a manager lifecycle event.
// Minimal and stable: name plus optional fields via key/values.
type Event struct {
	Name   string
	Fields map[string]any
}

// Event names published by the manager and the server-backed engine.
const (
	EventLoadStart    = "load_start"
	EventLoadReady    = "load_ready"
	EventLoadError    = "load_error"
	EventDrainStart   = "drain_start"
	EventDrainTimeout = "drain_timeout"
	EventStopped      = "stopped"
	EventSpawnStart   = "spawn_start"
	EventSpawnReady   = "spawn_ready"
	EventSpawnExit    = "spawn_exit"
	EventSpawnTimeout = "spawn_timeout"
	EventSpawnStop    = "spawn_stop"
)

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
