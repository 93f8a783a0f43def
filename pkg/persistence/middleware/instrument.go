package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lanreath/strata/pkg/domain"
	"github.com/lanreath/strata/pkg/ports"
)

type instrumented struct {
	next ports.SnapshotStore
	ops  *prometheus.CounterVec
	dur  *prometheus.HistogramVec
}

// NewInstrumentation creates a middleware that counts and times store
// operations. Collectors register on reg once, when the middleware is
// created, not when it wraps.
func NewInstrumentation(reg prometheus.Registerer) Middleware {
	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_store_operations_total",
			Help: "Snapshot store operations by outcome.",
		},
		[]string{"op", "outcome"},
	)
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "strata_store_operation_seconds",
			Help: "Snapshot store operation latency.",
		},
		[]string{"op"},
	)
	reg.MustRegister(ops, dur)

	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &instrumented{next: next, ops: ops, dur: dur}
	}
}

// observe records one operation. A lookup miss is not an infrastructure
// failure and gets its own outcome label.
func (m *instrumented) observe(op string, start time.Time, err error) error {
	outcome := "ok"
	switch {
	case errors.Is(err, domain.ErrInstanceNotFound):
		outcome = "miss"
	case err != nil:
		outcome = "error"
	}
	m.ops.WithLabelValues(op, outcome).Inc()
	m.dur.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return err
}

func (m *instrumented) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	start := time.Now()
	return m.observe("save", start, m.next.Save(ctx, id, snap))
}

func (m *instrumented) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	start := time.Now()
	snap, err := m.next.Load(ctx, id)
	return snap, m.observe("load", start, err)
}

func (m *instrumented) Delete(ctx context.Context, id string) error {
	start := time.Now()
	return m.observe("delete", start, m.next.Delete(ctx, id))
}

func (m *instrumented) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := m.next.List(ctx)
	return ids, m.observe("list", start, err)
}
