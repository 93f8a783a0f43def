package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/lanreath/strata/pkg/domain"
	"github.com/lanreath/strata/pkg/ports"
)

type logged struct {
	next   ports.SnapshotStore
	logger *slog.Logger
}

// NewLogging creates a middleware that traces store operations on the
// given logger: Debug on success, Warn on failure.
func NewLogging(logger *slog.Logger) Middleware {
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &logged{next: next, logger: logger}
	}
}

func (m *logged) log(op, id string, start time.Time, err error) {
	attrs := []any{"op", op, "duration", time.Since(start)}
	if id != "" {
		attrs = append(attrs, "instance", id)
	}
	if err != nil {
		m.logger.Warn("store operation failed", append(attrs, "err", err)...)
		return
	}
	m.logger.Debug("store operation", attrs...)
}

func (m *logged) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	start := time.Now()
	err := m.next.Save(ctx, id, snap)
	m.log("save", id, start, err)
	return err
}

func (m *logged) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	start := time.Now()
	snap, err := m.next.Load(ctx, id)
	m.log("load", id, start, err)
	return snap, err
}

func (m *logged) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := m.next.Delete(ctx, id)
	m.log("delete", id, start, err)
	return err
}

func (m *logged) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := m.next.List(ctx)
	m.log("list", "", start, err)
	return ids, err
}
