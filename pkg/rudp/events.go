package rudp

// LifecycleEvent identifies a point in a Connection's life worth observing
// from outside the state machine (logging, metrics, demo handlers).
//
// Adapted from the teacher's core/events/events.go EventManager/EventHandler
// pair: same publish/subscribe shape, generalized from game events
// (EventPlayerConnect, EventVehicleSpawn, ...) to connection-lifecycle
// events, since this module has no game events to publish.
type LifecycleEvent int

const (
	// EventEstablished fires once the handshake completes (connected flips
	// true).
	EventEstablished LifecycleEvent = iota
	// EventMessageDelivered fires once per message handed to the handler.
	EventMessageDelivered
	// EventClosed fires once per connection, alongside handle_shutdown.
	EventClosed
)

func (e LifecycleEvent) String() string {
	switch e {
	case EventEstablished:
		return "established"
	case EventMessageDelivered:
		return "message_delivered"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// LifecycleObserver receives lifecycle events from a Connection. detail is
// event-specific: 0 for EventEstablished/EventClosed, the delivered
// payload length for EventMessageDelivered.
type LifecycleObserver func(evt LifecycleEvent, detail int)

// eventBus fans a single Connection's lifecycle events out to any number of
// observers. Unlike the teacher's EventManager, there is exactly one
// publisher (the owning Connection) so observers sit in one flat list, not
// routed through a shared manager instance; every observer receives every
// event.
type eventBus struct {
	observers []LifecycleObserver
}

func (b *eventBus) subscribe(o LifecycleObserver) {
	b.observers = append(b.observers, o)
}

func (b *eventBus) publish(evt LifecycleEvent, detail int) {
	for _, o := range b.observers {
		o(evt, detail)
	}
}
