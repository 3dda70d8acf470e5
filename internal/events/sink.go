package events

import "sync"

// Sink receives planning events as the engine emits them.
// Implementations must be safe for concurrent use.
type Sink interface {
	Emit(event *PlanningEvent)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(event *PlanningEvent)

// Emit calls f(event).
func (f SinkFunc) Emit(event *PlanningEvent) { f(event) }

// CollectorSink buffers emitted events in memory, in emission order.
// Tests and the CLI use it to inspect or persist events after a run.
type CollectorSink struct {
	mu     sync.Mutex
	events []*PlanningEvent
}

// NewCollectorSink creates an empty collector.
func NewCollectorSink() *CollectorSink {
	return &CollectorSink{}
}

// Emit appends the event to the buffer.
func (c *CollectorSink) Emit(event *PlanningEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns a copy of the buffered events.
func (c *CollectorSink) Events() []*PlanningEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*PlanningEvent, len(c.events))
	copy(out, c.events)
	return out
}
