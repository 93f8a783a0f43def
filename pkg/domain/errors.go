package domain

import "errors"

// ErrDuplicateState is returned when a StateID is registered twice.
var ErrDuplicateState = errors.New("state id already registered")

// ErrUnknownParent is returned when a state names a parent that has not
// been registered yet. Parents must be registered before their children.
var ErrUnknownParent = errors.New("parent state not registered")

// ErrUnknownState is returned when an operation names a StateID the
// registry does not contain.
var ErrUnknownState = errors.New("state not registered")

// ErrDelegateTaken is returned when a second delegate is requested for a
// state that already issued one.
var ErrDelegateTaken = errors.New("delegate already taken")

// ErrDispatchInFlight is returned when Dispatch is re-entered while a
// previous dispatch on the same engine is still draining.
var ErrDispatchInFlight = errors.New("dispatch already in flight")

// ErrInvalidTransition marks a queued change-state request whose target is
// not registered. The request is discarded and draining continues; the
// error travels the diagnostic path, never the Dispatch return.
var ErrInvalidTransition = errors.New("invalid transition target")

// ErrInstanceNotFound is returned by snapshot stores and the session
// manager when an instance id is unknown.
var ErrInstanceNotFound = errors.New("instance not found")

// ErrChartInvalid wraps every declarative chart validation failure.
var ErrChartInvalid = errors.New("invalid chart definition")
