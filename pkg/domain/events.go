package domain

import (
	"context"
	"time"
)

// HookType defines the category of a lifecycle notification.
type HookType string

const (
	HookStateEnter         HookType = "state_enter"
	HookStateExit          HookType = "state_exit"
	HookEventDispatched    HookType = "event_dispatched"
	HookTransitionApplied  HookType = "transition_applied"
	HookTransitionRejected HookType = "transition_rejected"
)

// HookBase contains common fields for all lifecycle notifications.
type HookBase struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       HookType  `json:"type"`
	InstanceID string    `json:"instance_id,omitempty"`
}

// StateEvent notifies entry into or exit from a single state during a
// transition.
type StateEvent struct {
	HookBase
	State StateID `json:"state"`
}

// DispatchEvent notifies the resolution of one chain walk, either the
// external event or an internally fired one.
type DispatchEvent struct {
	HookBase
	Event    EventID `json:"event"`
	Outcome  Outcome `json:"outcome"`
	Internal bool    `json:"internal,omitempty"`
}

// TransitionEvent notifies a change-state request leaving the drain loop,
// applied or rejected.
type TransitionEvent struct {
	HookBase
	From   StateID `json:"from"`
	To     StateID `json:"to"`
	Origin StateID `json:"origin"`
}

// LifecycleHooks defines callbacks for engine observability. All fields
// are optional; the engine invokes set hooks synchronously on its own
// goroutine, so implementations must return promptly.
type LifecycleHooks struct {
	OnStateEnter         func(context.Context, *StateEvent)
	OnStateExit          func(context.Context, *StateEvent)
	OnEventDispatched    func(context.Context, *DispatchEvent)
	OnTransitionApplied  func(context.Context, *TransitionEvent)
	OnTransitionRejected func(context.Context, *TransitionEvent)
}

// Chain merges two hook sets, invoking a's callback before b's for every
// hook both define.
func Chain(a, b LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStateEnter:         chainHook(a.OnStateEnter, b.OnStateEnter),
		OnStateExit:          chainHook(a.OnStateExit, b.OnStateExit),
		OnEventDispatched:    chainHook(a.OnEventDispatched, b.OnEventDispatched),
		OnTransitionApplied:  chainHook(a.OnTransitionApplied, b.OnTransitionApplied),
		OnTransitionRejected: chainHook(a.OnTransitionRejected, b.OnTransitionRejected),
	}
}

func chainHook[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return func(ctx context.Context, e *E) {
			a(ctx, e)
			b(ctx, e)
		}
	}
}
