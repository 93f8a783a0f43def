package compiler

import (
	"fmt"
	"sort"

	"github.com/lanreath/strata/pkg/domain"
)

// Validate checks the structural integrity of a chart definition:
// unique ids and names, known parents and transition targets, an
// acyclic parent graph, and a declared initial state. Definitions built
// outside the YAML path (document repositories, code) go through the
// same checks. Violations wrap domain.ErrChartInvalid.
func Validate(def *domain.ChartDef) error {
	var problems []string

	byID := make(map[domain.StateID]string, len(def.States))
	byName := make(map[string]domain.StateID, len(def.States))
	for _, s := range def.States {
		if prev, dup := byID[s.ID]; dup {
			problems = append(problems, fmt.Sprintf("states '%s' and '%s' share id %d", prev, s.Name, s.ID))
		} else {
			byID[s.ID] = s.Name
		}
		if s.Name == "" {
			continue
		}
		if _, dup := byName[s.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate state name '%s'", s.Name))
		} else {
			byName[s.Name] = s.ID
		}
	}

	parent := make(map[domain.StateID]domain.StateID)
	for _, s := range def.States {
		if s.Parent != nil {
			if *s.Parent == s.ID {
				problems = append(problems, fmt.Sprintf("state '%s': is its own parent", s.Name))
			} else if _, ok := byID[*s.Parent]; !ok {
				problems = append(problems, fmt.Sprintf("state '%s': unknown parent %s", s.Name, *s.Parent))
			} else {
				parent[s.ID] = *s.Parent
			}
		}

		targets := make([]domain.EventID, 0, len(s.On))
		for ev := range s.On {
			targets = append(targets, ev)
		}
		sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
		for _, ev := range targets {
			if _, ok := byID[s.On[ev]]; !ok {
				problems = append(problems, fmt.Sprintf("state '%s': transition on %s targets unknown state %s", s.Name, ev, s.On[ev]))
			}
		}
	}

	// The parent links must form a forest. Definitions arrive from
	// arbitrary files, so walk every chain instead of trusting
	// declaration order.
	visited := make(map[domain.StateID]bool, len(def.States))
	for _, s := range def.States {
		onPath := map[domain.StateID]bool{}
		id := s.ID
		for {
			if visited[id] {
				break
			}
			if onPath[id] {
				problems = append(problems, fmt.Sprintf("parent cycle through %s", id))
				break
			}
			onPath[id] = true
			p, ok := parent[id]
			if !ok {
				break
			}
			id = p
		}
		for n := range onPath {
			visited[n] = true
		}
	}

	if _, ok := byID[def.Initial]; !ok {
		problems = append(problems, fmt.Sprintf("initial state %s is not declared", def.Initial))
	}

	if len(problems) > 0 {
		return Invalid(def.Name, problems)
	}
	return nil
}
