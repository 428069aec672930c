package engine

// Event represents a runtime lifecycle event.
// Minimal and stable: name + handle and optional fields via key/values.
type Event struct {
	Name   string
	Handle Handle
	Fields map[string]any
}

// EventPublisher receives events from the runtime. Implementations should be
// lightweight and non-blocking; Publish must not panic. Events are published
// on the calling goroutine.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// Event names.
const (
	EventLoad         = "model_load"
	EventLoadFailed   = "model_load_failed"
	EventFree         = "model_free"
	EventGenerateDone = "generate_done"
	EventStreamDone   = "stream_done"
	EventEmbed        = "embed"
)
