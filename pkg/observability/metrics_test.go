package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanreath/strata"
	"github.com/lanreath/strata/pkg/domain"
	"github.com/lanreath/strata/pkg/dsl"
)

const (
	idTop = domain.StateID(1)
	idOff = domain.StateID(2)
	idOn  = domain.StateID(3)

	evFlip = domain.EventID(10)
	evNoop = domain.EventID(11)
)

func lightswitch() *domain.ChartDef {
	c := dsl.NewChart("lights").
		Event(evFlip, "flip").
		Initial(idOff)
	c.State(idTop, "top")
	c.State(idOff, "off").ChildOf(idTop).On(evFlip, idOn)
	c.State(idOn, "on").ChildOf(idTop).On(evFlip, idOff)
	return c.Def()
}

func TestMetrics_CountsDispatchesAndTransitions(t *testing.T) {
	def := lightswitch()
	m := New("lights", WithChartDef(def))

	reg := prometheus.NewRegistry()
	m.MustRegister(reg)

	eng, err := dsl.Assemble(def, strata.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, err)

	// Assembly already entered top and off.
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entries.WithLabelValues("top")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entries.WithLabelValues("off")))

	ctx := context.Background()
	out, err := eng.Dispatch(ctx, domain.NewEvent(evFlip, nil))
	require.NoError(t, err)
	require.Equal(t, domain.Handled, out)

	out, err = eng.Dispatch(ctx, domain.NewEvent(evNoop, nil))
	require.NoError(t, err)
	require.Equal(t, domain.Unhandled, out)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatched.WithLabelValues("flip", "handled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatched.WithLabelValues("event/11", "unhandled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("off", "on")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entries.WithLabelValues("on")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.rejected))
}

// strayState consumes every event by requesting a transition to a state
// that was never registered.
type strayState struct {
	id       domain.StateID
	delegate *strata.Delegate
}

func (s *strayState) ID() domain.StateID { return s.id }
func (s *strayState) HandleEvent(ev *domain.Event) bool {
	s.delegate.ChangeState(domain.StateID(99))
	return true
}
func (s *strayState) OnEnter() {}
func (s *strayState) OnExit()  {}

func TestMetrics_CountsRejectedTransitions(t *testing.T) {
	m := New("stray")

	b := strata.NewBuilder(strata.WithLifecycleHooks(m.Hooks()))
	st := &strayState{id: domain.StateID(1)}
	require.NoError(t, b.Register(nil, st))

	var err error
	st.delegate, err = b.Delegate(st.id)
	require.NoError(t, err)

	eng, err := b.Build(st.id)
	require.NoError(t, err)

	out, err := eng.Dispatch(context.Background(), domain.NewEvent(domain.EventID(7), nil))
	require.NoError(t, err)
	require.Equal(t, domain.Handled, out)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected))
	// Without a chart definition, labels fall back to the id forms.
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatched.WithLabelValues("event/7", "handled")))
}

func TestResidentGauge(t *testing.T) {
	count := 3
	gauge := NewResidentGauge(func() int { return count })

	assert.Equal(t, 3.0, testutil.ToFloat64(gauge))
	count = 1
	assert.Equal(t, 1.0, testutil.ToFloat64(gauge))
}
