// Package loamdef loads chart definitions from a directory of markdown
// documents managed by Loam. Each state lives in its own document:
// frontmatter carries the topology (id, name, parent, on), the body
// becomes the state's doc prose. One manifest document (frontmatter key
// "chart") names the chart and declares the event table.
package loamdef

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"

	"github.com/lanreath/strata/internal/compiler"
	"github.com/lanreath/strata/pkg/domain"
)

// Source adapts a Loam document repository to the ports.ChartLoader
// interface.
type Source struct {
	Repo *loam.TypedRepository[StateMetadata]
}

// New creates a new Loam chart source.
func New(repo *loam.TypedRepository[StateMetadata]) *Source {
	return &Source{Repo: repo}
}

// Open initializes a Loam repository at path and wraps it in a Source.
func Open(path string) (*Source, error) {
	repo, err := loam.Init(path, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("loam init failed: %w", err)
	}
	return New(loam.NewTyped[StateMetadata](repo)), nil
}

// Load assembles a ChartDef from every document in the repository,
// resolves symbolic references, and runs the result through the
// compiler's validator.
func (s *Source) Load(ctx context.Context) (*domain.ChartDef, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	// Repository listing order is filesystem-dependent.
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	var problems []string
	def := &domain.ChartDef{}

	type stateDoc struct {
		id   domain.StateID
		name string
		meta StateMetadata
		body string
	}

	var states []stateDoc
	byName := make(map[string]domain.StateID)
	byID := make(map[domain.StateID]string)
	var initials []string

	for _, doc := range docs {
		meta := doc.Data

		if meta.Chart != "" {
			if def.Name != "" {
				problems = append(problems, fmt.Sprintf("second chart manifest '%s' (already named '%s')", doc.ID, def.Name))
				continue
			}
			def.Name = meta.Chart
			for _, evName := range sortedKeys(meta.Events) {
				raw := meta.Events[evName]
				if raw < 1 || raw > math.MaxUint16 {
					problems = append(problems, fmt.Sprintf("event '%s': id %d out of range", evName, raw))
					continue
				}
				id := domain.EventID(raw)
				if prev, dup := def.Events[id]; dup {
					problems = append(problems, fmt.Sprintf("events '%s' and '%s' share id %d", prev, evName, raw))
					continue
				}
				if def.Events == nil {
					def.Events = make(map[domain.EventID]string, len(meta.Events))
				}
				def.Events[id] = evName
			}
			continue
		}

		name := meta.Name
		if name == "" {
			// Like node ids, state names default to the filename.
			name = trimExtension(doc.ID)
		}

		if meta.ID < 1 || meta.ID > math.MaxUint16 {
			problems = append(problems, fmt.Sprintf("state '%s': id %d out of range", name, meta.ID))
			continue
		}
		id := domain.StateID(meta.ID)
		if _, dup := byName[name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate state name '%s'", name))
			continue
		}
		if prev, dup := byID[id]; dup {
			problems = append(problems, fmt.Sprintf("states '%s' and '%s' share id %d", prev, name, meta.ID))
			continue
		}
		byName[name] = id
		byID[id] = name

		if meta.Initial {
			initials = append(initials, name)
		}
		states = append(states, stateDoc{id: id, name: name, meta: meta, body: doc.Content})
	}

	if def.Name == "" {
		problems = append(problems, "no chart manifest document (frontmatter key 'chart')")
	}

	for _, sd := range states {
		out := domain.StateDef{ID: sd.id, Name: sd.name, Doc: strings.TrimSpace(sd.body)}

		if sd.meta.Parent != "" {
			pid, ok := byName[sd.meta.Parent]
			if !ok {
				problems = append(problems, fmt.Sprintf("state '%s': unknown parent '%s'", sd.name, sd.meta.Parent))
			} else {
				out.Parent = &pid
			}
		}

		if len(sd.meta.On) > 0 {
			out.On = make(map[domain.EventID]domain.StateID, len(sd.meta.On))
			for _, evName := range sortedKeys(sd.meta.On) {
				target := sd.meta.On[evName]
				eid, ok := eventID(def.Events, evName)
				if !ok {
					problems = append(problems, fmt.Sprintf("state '%s': undeclared event '%s'", sd.name, evName))
					continue
				}
				tid, ok := byName[target]
				if !ok {
					problems = append(problems, fmt.Sprintf("state '%s': transition on '%s' targets unknown state '%s'", sd.name, evName, target))
					continue
				}
				out.On[eid] = tid
			}
		}

		if len(sd.meta.Meta) > 0 {
			m := make(map[string]string, len(sd.meta.Meta))
			if err := mapstructure.WeakDecode(sd.meta.Meta, &m); err != nil {
				problems = append(problems, fmt.Sprintf("state '%s': bad meta block: %v", sd.name, err))
			} else {
				out.Meta = m
			}
		}

		def.States = append(def.States, out)
	}

	switch len(initials) {
	case 0:
		problems = append(problems, "no document marked 'initial: true'")
	case 1:
		def.Initial = byName[initials[0]]
	default:
		problems = append(problems, fmt.Sprintf("multiple documents marked initial: %s", strings.Join(initials, ", ")))
	}

	if len(problems) > 0 {
		return nil, compiler.Invalid(def.Name, problems)
	}
	if err := compiler.Validate(def); err != nil {
		return nil, err
	}
	return def, nil
}

func eventID(events map[domain.EventID]string, name string) (domain.EventID, bool) {
	for id, n := range events {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

func trimExtension(id string) string {
	return strings.TrimSuffix(id, filepath.Ext(id))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
