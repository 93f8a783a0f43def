package domain

import "sort"

// ChartDef is a declarative state-machine definition: the hierarchy
// topology plus an optional event table per state. It carries no behavior;
// the dsl package turns it into live states and an engine.
type ChartDef struct {
	// Name labels the chart in snapshots, metrics, and diagrams.
	Name string `json:"name"`

	// Initial is the state the engine enters at build time.
	Initial StateID `json:"initial"`

	// Events maps event ids to their declared names. Purely
	// presentational; dispatch works on ids alone.
	Events map[EventID]string `json:"events,omitempty"`

	// States in declaration order. Order is not significant; assembly
	// sorts parents before children.
	States []StateDef `json:"states"`
}

// StateDef declares one state of a chart.
type StateDef struct {
	ID StateID `json:"id"`

	// Name is the human label used in diagrams and logs.
	Name string `json:"name"`

	// Parent is nil for a root state.
	Parent *StateID `json:"parent,omitempty"`

	// Doc is free-form prose describing the state.
	Doc string `json:"doc,omitempty"`

	// On maps an event to the transition target requested when this
	// state receives it. Events absent from the table are declined, so
	// they defer to the parent.
	On map[EventID]StateID `json:"on,omitempty"`

	// Meta carries presentation annotations (colors, grouping). Never
	// interpreted by the engine.
	Meta map[string]string `json:"meta,omitempty"`
}

// EventName returns the declared name for an event id, falling back to
// the id's string form.
func (c *ChartDef) EventName(id EventID) string {
	if name, ok := c.Events[id]; ok {
		return name
	}
	return id.String()
}

// State returns the definition for id, or nil.
func (c *ChartDef) State(id StateID) *StateDef {
	for i := range c.States {
		if c.States[i].ID == id {
			return &c.States[i]
		}
	}
	return nil
}

// Roots returns the parentless states in id order.
func (c *ChartDef) Roots() []StateDef {
	var roots []StateDef
	for _, s := range c.States {
		if s.Parent == nil {
			roots = append(roots, s)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })
	return roots
}

// Children returns the direct children of id in id order.
func (c *ChartDef) Children(id StateID) []StateDef {
	var kids []StateDef
	for _, s := range c.States {
		if s.Parent != nil && *s.Parent == id {
			kids = append(kids, s)
		}
	}
	sort.Slice(kids, func(i, j int) bool { return kids[i].ID < kids[j].ID })
	return kids
}
