package dsl

import "github.com/lanreath/strata/pkg/domain"

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	def domain.StateDef
}

// ChildOf nests the state under a parent. States without a parent are
// roots.
func (s *StateBuilder) ChildOf(parent domain.StateID) *StateBuilder {
	p := parent
	s.def.Parent = &p
	return s
}

// Doc attaches free-form prose describing the state.
func (s *StateBuilder) Doc(text string) *StateBuilder {
	s.def.Doc = text
	return s
}

// On declares that this state handles ev by requesting a transition to
// target. A target equal to the state itself consumes the event without
// moving.
func (s *StateBuilder) On(ev domain.EventID, target domain.StateID) *StateBuilder {
	if s.def.On == nil {
		s.def.On = make(map[domain.EventID]domain.StateID)
	}
	s.def.On[ev] = target
	return s
}

// Meta adds a presentation annotation to the state.
func (s *StateBuilder) Meta(key, value string) *StateBuilder {
	if s.def.Meta == nil {
		s.def.Meta = make(map[string]string)
	}
	s.def.Meta[key] = value
	return s
}

// Def returns the underlying domain.StateDef.
// This is primarily used by the Chart, but exposed for advanced usage.
func (s *StateBuilder) Def() domain.StateDef {
	return s.def
}
