package dsl

import (
	"github.com/lanreath/strata"
	"github.com/lanreath/strata/internal/compiler"
	"github.com/lanreath/strata/pkg/domain"
)

// tableState is a state whose behavior is fully described by its
// definition: HandleEvent consults the On table and requests the mapped
// transition through the state's own delegate. Events absent from the
// table are declined so they defer up the hierarchy.
type tableState struct {
	def      domain.StateDef
	delegate *strata.Delegate
}

func (s *tableState) ID() domain.StateID { return s.def.ID }

func (s *tableState) HandleEvent(ev *domain.Event) bool {
	target, ok := s.def.On[ev.ID]
	if !ok {
		return false
	}
	s.delegate.ChangeState(target)
	return true
}

func (s *tableState) OnEnter() {}
func (s *tableState) OnExit()  {}

// Assemble validates def and builds a running engine from it, entering
// the chart's initial state.
func Assemble(def *domain.ChartDef, opts ...strata.Option) (*strata.Engine, error) {
	return assemble(def, nil, opts)
}

// Resume validates def and builds an engine already positioned at
// current, skipping all entry actions. Used to rehydrate an instance
// from a persisted snapshot.
func Resume(def *domain.ChartDef, current domain.StateID, opts ...strata.Option) (*strata.Engine, error) {
	return assemble(def, &current, opts)
}

func assemble(def *domain.ChartDef, resumeAt *domain.StateID, opts []strata.Option) (*strata.Engine, error) {
	if err := compiler.Validate(def); err != nil {
		return nil, err
	}

	base := []strata.Option{strata.WithChartName(def.Name)}
	b := strata.NewBuilder(append(base, opts...)...)

	// Parents register before children regardless of declaration order.
	queue := def.Roots()
	for len(queue) > 0 {
		sd := queue[0]
		queue = queue[1:]

		st := &tableState{def: sd}
		if err := b.Register(sd.Parent, st); err != nil {
			return nil, err
		}
		d, err := b.Delegate(sd.ID)
		if err != nil {
			return nil, err
		}
		st.delegate = d

		queue = append(queue, def.Children(sd.ID)...)
	}

	if resumeAt != nil {
		return b.Resume(*resumeAt)
	}
	return b.Build(def.Initial)
}
