package domain

import "strconv"

// StateID identifies a registered state. Applications define their own
// enumerations on top of it; the engine only relies on equality and
// ordering.
type StateID uint16

// EventID identifies an event kind. Like StateID it is opaque to the
// engine; routing never depends on its value beyond equality.
type EventID uint16

func (s StateID) String() string {
	return "state/" + strconv.FormatUint(uint64(s), 10)
}

func (e EventID) String() string {
	return "event/" + strconv.FormatUint(uint64(e), 10)
}
