package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(RecordingStartedEvent{...})
func (b *Bus) Publish(ev Event) {
	// Use type switch to call the generic Publish with the correct type
	switch e := ev.(type) {
	case RecordingStartedEvent:
		event.Publish(b.dispatcher, e)
	case RecordingStoppedEvent:
		event.Publish(b.dispatcher, e)
	case SegmentOpenedEvent:
		event.Publish(b.dispatcher, e)
	case SegmentClosedEvent:
		event.Publish(b.dispatcher, e)
	case CaptureErrorEvent:
		event.Publish(b.dispatcher, e)
	case RecordErrorEvent:
		event.Publish(b.dispatcher, e)
	case StorageLowEvent:
		event.Publish(b.dispatcher, e)
	case StorageCleanupEvent:
		event.Publish(b.dispatcher, e)
	case CleanupFailedEvent:
		event.Publish(b.dispatcher, e)
	case FPSUpdateEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives (type inference)
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e RecordingStartedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	// The kelindar/event library needs the concrete event type, so each
	// known handler signature is matched explicitly.
	switch h := handler.(type) {
	case func(RecordingStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RecordingStoppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SegmentOpenedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SegmentClosedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CaptureErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RecordErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StorageLowEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StorageCleanupEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CleanupFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FPSUpdateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}
