package strata

import (
	"github.com/lanreath/strata/internal/runtime"
	"github.com/lanreath/strata/pkg/domain"
)

// Delegate is a state's single-issue handle for submitting deferred
// requests. It wraps the send side of the engine's mailbox, so a state
// never holds a live reference to the engine or to sibling states.
//
// Both methods enqueue and return immediately with no validation; the
// engine validates targets when it applies the request during the drain
// that follows the current chain walk. A delegate belongs to its owning
// state and must not be shared.
type Delegate struct {
	owner   domain.StateID
	mailbox *runtime.Mailbox
}

// Owner returns the state id the delegate was minted for.
func (d *Delegate) Owner() domain.StateID {
	return d.owner
}

// ChangeState requests a transition to target. Applied after the current
// walk resolves, in FIFO order with every other queued request.
func (d *Delegate) ChangeState(target domain.StateID) {
	d.mailbox.Push(domain.Request{
		Kind:   domain.RequestChangeState,
		Origin: d.owner,
		Target: target,
	})
}

// FireEvent queues a follow-up event for dispatch after the current walk
// resolves. Multiple calls queue multiple dispatches, processed FIFO.
func (d *Delegate) FireEvent(ev domain.Event) {
	d.mailbox.Push(domain.Request{
		Kind:   domain.RequestFireEvent,
		Origin: d.owner,
		Event:  ev,
	})
}
