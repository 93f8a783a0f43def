package dsl

import (
	"github.com/lanreath/strata/pkg/domain"
)

// Chart manages the construction of a chart definition.
type Chart struct {
	name    string
	initial domain.StateID
	events  map[domain.EventID]string
	order   []domain.StateID
	states  map[domain.StateID]*StateBuilder
}

// NewChart creates a new chart builder.
func NewChart(name string) *Chart {
	return &Chart{
		name:   name,
		states: make(map[domain.StateID]*StateBuilder),
	}
}

// Event declares a named event. Names only label diagrams and logs;
// dispatch works on the id.
func (c *Chart) Event(id domain.EventID, name string) *Chart {
	if c.events == nil {
		c.events = make(map[domain.EventID]string)
	}
	c.events[id] = name
	return c
}

// State creates a new state in the chart.
// If the id already exists, it returns the existing builder and the
// name argument is ignored.
func (c *Chart) State(id domain.StateID, name string) *StateBuilder {
	if sb, ok := c.states[id]; ok {
		return sb
	}
	sb := &StateBuilder{def: domain.StateDef{ID: id, Name: name}}
	c.states[id] = sb
	c.order = append(c.order, id)
	return sb
}

// Initial marks the state the engine enters at build time.
func (c *Chart) Initial(id domain.StateID) *Chart {
	c.initial = id
	return c
}

// Def compiles the accumulated states into a ChartDef in declaration
// order. The result is not validated; Assemble does that.
func (c *Chart) Def() *domain.ChartDef {
	def := &domain.ChartDef{
		Name:    c.name,
		Initial: c.initial,
		States:  make([]domain.StateDef, 0, len(c.order)),
	}
	if len(c.events) > 0 {
		def.Events = make(map[domain.EventID]string, len(c.events))
		for id, name := range c.events {
			def.Events[id] = name
		}
	}
	for _, id := range c.order {
		def.States = append(def.States, c.states[id].def)
	}
	return def
}
