package domain

// Event is the envelope handed to state handlers: an event identifier plus
// an opaque payload. The engine never inspects Payload; producing and
// interpreting it belongs to the application, typically at the boundary
// inside HandleEvent.
type Event struct {
	ID      EventID
	Payload []byte
}

// NewEvent builds an envelope. A nil payload is valid and common for
// signal-only events.
func NewEvent(id EventID, payload []byte) Event {
	return Event{ID: id, Payload: payload}
}
