// Package compiler turns declarative YAML chart documents into validated
// domain.ChartDef values.
package compiler

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/lanreath/strata/pkg/domain"
)

// chartDoc mirrors the YAML schema before name resolution. States and
// transitions reference each other by name; the compiler resolves names
// to the numeric ids the engine works with.
type chartDoc struct {
	Name    string         `yaml:"name"`
	Initial string         `yaml:"initial"`
	Events  map[string]int `yaml:"events"`
	States  []stateDoc     `yaml:"states"`
}

type stateDoc struct {
	ID     int               `yaml:"id"`
	Name   string            `yaml:"name"`
	Parent string            `yaml:"parent"`
	Doc    string            `yaml:"doc"`
	On     map[string]string `yaml:"on"`
	Meta   map[string]any    `yaml:"meta"`
}

// Compile parses a YAML chart document, resolves state and event names
// to ids, and validates the result. All violations wrap
// domain.ErrChartInvalid.
func Compile(data []byte) (*domain.ChartDef, error) {
	var doc chartDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChartInvalid, err)
	}

	var problems []string

	if strings.TrimSpace(doc.Name) == "" {
		problems = append(problems, "chart has no name")
	}
	if len(doc.States) == 0 {
		problems = append(problems, "chart declares no states")
	}

	events := make(map[string]domain.EventID, len(doc.Events))
	eventNames := make(map[domain.EventID]string, len(doc.Events))
	for _, name := range sortedKeys(doc.Events) {
		raw := doc.Events[name]
		if raw < 1 || raw > math.MaxUint16 {
			problems = append(problems, fmt.Sprintf("event '%s': id %d out of range", name, raw))
			continue
		}
		id := domain.EventID(raw)
		if prev, dup := eventNames[id]; dup {
			problems = append(problems, fmt.Sprintf("events '%s' and '%s' share id %d", prev, name, raw))
			continue
		}
		events[name] = id
		eventNames[id] = name
	}

	states := make(map[string]domain.StateID, len(doc.States))
	stateNames := make(map[domain.StateID]string, len(doc.States))
	for i, s := range doc.States {
		if strings.TrimSpace(s.Name) == "" {
			problems = append(problems, fmt.Sprintf("state #%d: missing name", i+1))
			continue
		}
		if s.ID < 1 || s.ID > math.MaxUint16 {
			problems = append(problems, fmt.Sprintf("state '%s': id %d out of range", s.Name, s.ID))
			continue
		}
		id := domain.StateID(s.ID)
		if _, dup := states[s.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate state name '%s'", s.Name))
			continue
		}
		if prev, dup := stateNames[id]; dup {
			problems = append(problems, fmt.Sprintf("states '%s' and '%s' share id %d", prev, s.Name, s.ID))
			continue
		}
		states[s.Name] = id
		stateNames[id] = s.Name
	}

	def := &domain.ChartDef{Name: doc.Name}
	if len(eventNames) > 0 {
		def.Events = eventNames
	}

	for _, s := range doc.States {
		sid, ok := states[s.Name]
		if !ok {
			continue
		}
		sd := domain.StateDef{ID: sid, Name: s.Name, Doc: strings.TrimSpace(s.Doc)}

		if s.Parent != "" {
			pid, ok := states[s.Parent]
			if !ok {
				problems = append(problems, fmt.Sprintf("state '%s': unknown parent '%s'", s.Name, s.Parent))
			} else {
				sd.Parent = &pid
			}
		}

		if len(s.On) > 0 {
			sd.On = make(map[domain.EventID]domain.StateID, len(s.On))
			for _, evName := range sortedKeys(s.On) {
				target := s.On[evName]
				eid, ok := events[evName]
				if !ok {
					problems = append(problems, fmt.Sprintf("state '%s': undeclared event '%s'", s.Name, evName))
					continue
				}
				tid, ok := states[target]
				if !ok {
					problems = append(problems, fmt.Sprintf("state '%s': transition on '%s' targets unknown state '%s'", s.Name, evName, target))
					continue
				}
				sd.On[eid] = tid
			}
		}

		if len(s.Meta) > 0 {
			meta := make(map[string]string, len(s.Meta))
			if err := mapstructure.WeakDecode(s.Meta, &meta); err != nil {
				problems = append(problems, fmt.Sprintf("state '%s': bad meta block: %v", s.Name, err))
			} else {
				sd.Meta = meta
			}
		}

		def.States = append(def.States, sd)
	}

	switch sid, ok := states[doc.Initial]; {
	case doc.Initial == "":
		problems = append(problems, "chart has no initial state")
	case !ok:
		problems = append(problems, fmt.Sprintf("unknown initial state '%s'", doc.Initial))
	default:
		def.Initial = sid
	}

	if len(problems) > 0 {
		return nil, Invalid(doc.Name, problems)
	}
	if err := Validate(def); err != nil {
		return nil, err
	}
	return def, nil
}

// CompileFile reads and compiles a chart document from disk.
func CompileFile(path string) (*domain.ChartDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart: %w", err)
	}
	def, err := Compile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Invalid wraps a list of chart problems into a single ErrChartInvalid.
// Chart sources that assemble definitions themselves report through the
// same shape.
func Invalid(name string, problems []string) error {
	return fmt.Errorf("%w: chart '%s': found %d problems:\n- %s",
		domain.ErrChartInvalid, name, len(problems), strings.Join(problems, "\n- "))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
