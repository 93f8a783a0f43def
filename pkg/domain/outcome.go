package domain

// Outcome reports how a dispatched event resolved.
type Outcome int

const (
	// Unhandled means every state from current to its root declined the
	// event. Not an error.
	Unhandled Outcome = iota
	// Handled means some state on the ancestor chain consumed the event.
	Handled
)

func (o Outcome) String() string {
	switch o {
	case Handled:
		return "handled"
	case Unhandled:
		return "unhandled"
	default:
		return "unknown"
	}
}
