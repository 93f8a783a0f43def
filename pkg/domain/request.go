package domain

// RequestKind discriminates deferred requests.
type RequestKind int

const (
	// RequestChangeState asks the engine to transition to Target.
	RequestChangeState RequestKind = iota
	// RequestFireEvent asks the engine to dispatch Event after the
	// current chain resolves.
	RequestFireEvent
)

// Request is a deferred instruction produced by a Delegate and consumed
// exactly once, in FIFO order, by the engine's drain loop. Origin is the
// delegate's owning state, carried for diagnostics only.
type Request struct {
	Kind   RequestKind
	Origin StateID
	Target StateID // RequestChangeState
	Event  Event   // RequestFireEvent
}

func (k RequestKind) String() string {
	switch k {
	case RequestChangeState:
		return "change_state"
	case RequestFireEvent:
		return "fire_event"
	default:
		return "unknown"
	}
}
