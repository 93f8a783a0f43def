package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/lanreath/strata"
	"github.com/lanreath/strata/internal/logging"
	"github.com/lanreath/strata/pkg/domain"
	"github.com/lanreath/strata/pkg/dsl"
	"github.com/lanreath/strata/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates chart instances, ensuring safe concurrent access.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	def   *domain.ChartDef
	store ports.SnapshotStore

	mu        sync.Mutex
	locks     map[string]*lockEntry     // Active per-instance locks
	instances map[string]*strata.Engine // Resident engines

	locker     ports.DistributedLocker // Optional distributed locker
	logger     *slog.Logger            // Logger for internal events (like deferred errors)
	engineOpts []strata.Option
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEngineOptions passes options through to every engine the manager
// assembles, e.g. lifecycle hooks or an engine logger.
func WithEngineOptions(opts ...strata.Option) Option {
	return func(m *Manager) {
		m.engineOpts = append(m.engineOpts, opts...)
	}
}

// NewManager creates a manager for one chart definition backed by the
// given snapshot store. The definition is validated lazily, at the
// first assembly.
func NewManager(def *domain.ChartDef, store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		def:       def,
		store:     store,
		locks:     make(map[string]*lockEntry),
		instances: make(map[string]*strata.Engine),
		logger:    logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Create assembles a fresh instance of the chart, persists its first
// snapshot, and returns the new instance id.
func (m *Manager) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		eng, err := m.assemble(id)
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, id, eng.Snapshot()); err != nil {
			return fmt.Errorf("failed to persist initial snapshot: %w", err)
		}
		m.mu.Lock()
		m.instances[id] = eng
		m.mu.Unlock()
		return nil
	})
	if err != nil {
		return "", err
	}
	m.logger.Info("instance created", "instance", id, "chart", m.def.Name)
	return id, nil
}

// Dispatch delivers an event to an instance and persists the resulting
// snapshot. Instances not resident in this process are rehydrated from
// the store first.
func (m *Manager) Dispatch(ctx context.Context, id string, ev domain.Event) (domain.Outcome, error) {
	var out domain.Outcome
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		eng, err := m.resident(ctx, id)
		if err != nil {
			return err
		}
		out, err = eng.Dispatch(ctx, ev)
		if err != nil {
			return err
		}
		return m.store.Save(ctx, id, eng.Snapshot())
	})
	return out, err
}

// Get returns the instance snapshot, from the resident engine when one
// exists, otherwise straight from the store. It never rehydrates.
func (m *Manager) Get(ctx context.Context, id string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		m.mu.Lock()
		eng, ok := m.instances[id]
		m.mu.Unlock()
		if ok {
			snap = eng.Snapshot()
			return nil
		}
		var err error
		snap, err = m.store.Load(ctx, id)
		return err
	})
	return snap, err
}

// Delete removes the instance from this process and from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		m.mu.Lock()
		delete(m.instances, id)
		m.mu.Unlock()
		return m.store.Delete(ctx, id)
	})
}

// Release evicts the resident engine without touching the persisted
// snapshot. The next dispatch rehydrates it.
func (m *Manager) Release(id string) {
	m.mu.Lock()
	delete(m.instances, id)
	m.mu.Unlock()
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Resident reports how many engines currently live in this process.
func (m *Manager) Resident() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.instances)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// Def returns the chart definition the manager serves.
func (m *Manager) Def() *domain.ChartDef {
	return m.def
}

// WithLock executes a function while holding the lock for the instance.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	// Distributed Locking
	if m.locker != nil {
		// TODO: Configure TTL?
		unlock, err := m.locker.Lock(ctx, id, 30*time.Second)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"instance", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// resident returns the live engine for id, rehydrating it from the
// store when necessary. Caller must hold the instance lock.
func (m *Manager) resident(ctx context.Context, id string) (*strata.Engine, error) {
	m.mu.Lock()
	eng, ok := m.instances[id]
	m.mu.Unlock()
	if ok {
		return eng, nil
	}

	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.Chart != m.def.Name {
		return nil, fmt.Errorf("instance %s belongs to chart %q, this manager serves %q", id, snap.Chart, m.def.Name)
	}

	eng, err = dsl.Resume(m.def, snap.Current, m.withIdentity(id)...)
	if err != nil {
		return nil, fmt.Errorf("failed to rehydrate instance %s: %w", id, err)
	}

	m.mu.Lock()
	m.instances[id] = eng
	m.mu.Unlock()
	m.logger.Debug("instance rehydrated", "instance", id, "state", snap.Current)
	return eng, nil
}

func (m *Manager) assemble(id string) (*strata.Engine, error) {
	eng, err := dsl.Assemble(m.def, m.withIdentity(id)...)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble instance: %w", err)
	}
	return eng, nil
}

func (m *Manager) withIdentity(id string) []strata.Option {
	opts := make([]strata.Option, 0, len(m.engineOpts)+1)
	opts = append(opts, m.engineOpts...)
	opts = append(opts, strata.WithInstanceID(id))
	return opts
}
