// Package topology owns the state registry: every registered state keyed
// by id plus the parent mapping that shapes the hierarchy. Registration
// requires parents to exist before their children, so the mapping is a
// forest by construction and ancestor walks always terminate.
package topology

import (
	"fmt"
	"sort"

	"github.com/lanreath/strata/pkg/domain"
	"github.com/lanreath/strata/pkg/ports"
)

// Registry holds the frozen hierarchy of one engine instance. It is
// mutable during the builder phase only; after build all access is
// read-only and needs no locking.
type Registry struct {
	states  map[domain.StateID]ports.State
	parents map[domain.StateID]domain.StateID // absent key = root
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		states:  make(map[domain.StateID]ports.State),
		parents: make(map[domain.StateID]domain.StateID),
	}
}

// Register adds a state under its own id. A nil parent declares a root.
// Fails with domain.ErrDuplicateState when the id is taken and
// domain.ErrUnknownParent when the parent has not been registered yet.
func (r *Registry) Register(parent *domain.StateID, st ports.State) error {
	id := st.ID()
	if _, exists := r.states[id]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateState, id)
	}
	if parent != nil {
		if _, ok := r.states[*parent]; !ok {
			return fmt.Errorf("%w: %s (child %s)", domain.ErrUnknownParent, *parent, id)
		}
		r.parents[id] = *parent
	}
	r.states[id] = st
	return nil
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id domain.StateID) bool {
	_, ok := r.states[id]
	return ok
}

// State returns the state registered under id.
func (r *Registry) State(id domain.StateID) (ports.State, bool) {
	st, ok := r.states[id]
	return st, ok
}

// Parent returns the parent of id; ok is false for roots and unknown ids.
func (r *Registry) Parent(id domain.StateID) (domain.StateID, bool) {
	p, ok := r.parents[id]
	return p, ok
}

// PathToRoot returns the ancestor chain from id (inclusive) up to its
// root (inclusive). Unknown ids yield nil. The chain is finite and free
// of repeats because parents always predate children.
func (r *Registry) PathToRoot(id domain.StateID) []domain.StateID {
	if !r.Contains(id) {
		return nil
	}
	path := []domain.StateID{id}
	for {
		p, ok := r.parents[path[len(path)-1]]
		if !ok {
			return path
		}
		path = append(path, p)
	}
}

// LCA returns the nearest state that is an ancestor of both a and b, each
// counting as its own ancestor. ok is false when a and b live in disjoint
// trees or either id is unknown.
func (r *Registry) LCA(a, b domain.StateID) (domain.StateID, bool) {
	pathA := r.PathToRoot(a)
	if pathA == nil || !r.Contains(b) {
		return 0, false
	}
	onPathA := make(map[domain.StateID]struct{}, len(pathA))
	for _, id := range pathA {
		onPathA[id] = struct{}{}
	}
	cur := b
	for {
		if _, ok := onPathA[cur]; ok {
			return cur, true
		}
		p, ok := r.parents[cur]
		if !ok {
			return 0, false
		}
		cur = p
	}
}

// Len reports the number of registered states.
func (r *Registry) Len() int {
	return len(r.states)
}

// IDs returns every registered id in ascending order.
func (r *Registry) IDs() []domain.StateID {
	ids := make([]domain.StateID, 0, len(r.states))
	for id := range r.states {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
