package strata

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/lanreath/strata/internal/runtime"
	"github.com/lanreath/strata/internal/topology"
	"github.com/lanreath/strata/pkg/domain"
	"github.com/lanreath/strata/pkg/ports"
)

// Builder assembles one engine instance: states are registered parents
// first, delegates are minted once per state, and Build freezes the
// topology. A builder produces at most one engine and must not be reused
// afterwards.
type Builder struct {
	reg       *topology.Registry
	mailbox   *runtime.Mailbox
	delegates map[domain.StateID]bool

	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	instanceID string
	chart      string
	built      bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithLifecycleHooks registers observability hooks invoked synchronously
// by the engine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Builder) {
		b.hooks = hooks
	}
}

// WithLogger sets a structured logger for the engine. Defaults to a
// discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithInstanceID labels the engine in logs, hooks, and snapshots.
func WithInstanceID(id string) Option {
	return func(b *Builder) {
		b.instanceID = id
	}
}

// WithChartName records the definition name carried by snapshots.
func WithChartName(name string) Option {
	return func(b *Builder) {
		b.chart = name
	}
}

// NewBuilder returns an empty builder with a fresh request mailbox.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		reg:       topology.NewRegistry(),
		mailbox:   runtime.NewMailbox(),
		delegates: make(map[domain.StateID]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if b.instanceID != "" {
		b.logger = b.logger.With("instance", b.instanceID)
	}
	return b
}

// Register adds a state under its own id. A nil parent declares a root;
// a non-nil parent must already be registered. Fails with
// domain.ErrDuplicateState or domain.ErrUnknownParent.
func (b *Builder) Register(parent *domain.StateID, st ports.State) error {
	if b.built {
		return fmt.Errorf("builder already produced an engine")
	}
	return b.reg.Register(parent, st)
}

// Delegate mints the single deferred-request handle for a registered
// state. A second call for the same id fails with
// domain.ErrDelegateTaken; an unregistered id fails with
// domain.ErrUnknownState. Delegates stay valid for the engine's lifetime,
// including before Build: early requests sit queued until the first
// dispatch.
func (b *Builder) Delegate(id domain.StateID) (*Delegate, error) {
	if !b.reg.Contains(id) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownState, id)
	}
	if b.delegates[id] {
		return nil, fmt.Errorf("%w: %s", domain.ErrDelegateTaken, id)
	}
	b.delegates[id] = true
	return &Delegate{owner: id, mailbox: b.mailbox}, nil
}

// Build freezes the topology and returns an engine positioned at initial,
// running OnEnter from the initial state's root down to it. An unknown
// initial is fatal: no engine is produced.
func (b *Builder) Build(initial domain.StateID) (*Engine, error) {
	eng, err := b.assemble(initial)
	if err != nil {
		return nil, err
	}
	eng.runtime.EnterInitial(context.Background())
	return eng, nil
}

// Resume freezes the topology and positions the engine at current without
// running any entry actions. Used to rehydrate an instance from a
// persisted snapshot.
func (b *Builder) Resume(current domain.StateID) (*Engine, error) {
	return b.assemble(current)
}

func (b *Builder) assemble(initial domain.StateID) (*Engine, error) {
	if b.built {
		return nil, fmt.Errorf("builder already produced an engine")
	}
	rt, err := runtime.NewEngine(runtime.Config{
		Registry:   b.reg,
		Mailbox:    b.mailbox,
		Hooks:      b.hooks,
		Logger:     b.logger,
		InstanceID: b.instanceID,
		Chart:      b.chart,
	}, initial)
	if err != nil {
		return nil, err
	}
	b.built = true
	return &Engine{runtime: rt}, nil
}

// Engine is the runtime entry point produced by a Builder. One instance
// per state machine; instances are independent and may coexist.
//
// Dispatch is synchronous end-to-end and single-caller: drive each call
// to completion before submitting the next event. Concurrent callers
// should go through a session.Manager instead.
type Engine struct {
	runtime *runtime.Engine
}

// Dispatch routes one event through the hierarchy and applies every
// deferred request it produces. The outcome describes the external event:
// Handled when some state on the ancestor chain consumed it, Unhandled
// when the root declined.
func (e *Engine) Dispatch(ctx context.Context, ev domain.Event) (domain.Outcome, error) {
	return e.runtime.Dispatch(ctx, ev)
}

// Current returns the active state id.
func (e *Engine) Current() domain.StateID {
	return e.runtime.Current()
}

// InstanceID returns the identifier the engine logs and snapshots under.
func (e *Engine) InstanceID() string {
	return e.runtime.InstanceID()
}

// Snapshot captures the persistable position of the instance.
func (e *Engine) Snapshot() *domain.Snapshot {
	return e.runtime.Snapshot()
}

// Pending reports how many deferred requests await the next dispatch.
func (e *Engine) Pending() int {
	return e.runtime.Pending()
}
