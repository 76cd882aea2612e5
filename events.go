package weft

// EventSink receives the named events the markup binds to click handlers.
// It is owned by the host; the engine neither retries nor swallows
// whatever the sink does with an event.
type EventSink interface {
	HandleEvent(name, elementID string)
}

// EventFunc adapts a plain function to an EventSink.
type EventFunc func(name, elementID string)

func (fn EventFunc) HandleEvent(name, elementID string) { fn(name, elementID) }

// emitEvents fires one event per element whose clicked state transitioned
// on this frame, provided the element declared a handler name. Elements
// absent from the frame were pruned before this runs and cannot fire.
func emitEvents(f *Frame, transitions []string, sink EventSink) {
	for _, id := range transitions {
		if name, ok := f.Handler(id); ok {
			sink.HandleEvent(name, id)
		}
	}
}
