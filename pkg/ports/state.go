package ports

import "github.com/lanreath/strata/pkg/domain"

// State is the capability contract application states implement. The
// engine invokes all methods synchronously on its own goroutine; they must
// not block.
//
// HandleEvent returns true when the state consumed the event, stopping the
// ancestor walk. While handling, a state may submit requests through its
// Delegate; effects are deferred until the walk resolves.
type State interface {
	// ID reports the identifier the state was registered under.
	ID() domain.StateID

	// HandleEvent inspects the envelope and reports whether it consumed
	// the event. The payload is opaque to the engine; decoding happens
	// here, at the application boundary.
	HandleEvent(ev *domain.Event) bool

	// OnEnter runs when a transition makes this state part of the active
	// path, ancestor before descendant.
	OnEnter()

	// OnExit runs when a transition removes this state from the active
	// path, descendant before ancestor.
	OnExit()
}
