// Package runtime implements the dispatch loop of the state engine: the
// chain-of-responsibility walk up the hierarchy, the FIFO drain of
// deferred requests, and the exit/enter sequencing of transitions around
// the lowest common ancestor.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lanreath/strata/internal/topology"
	"github.com/lanreath/strata/pkg/domain"
)

// Config carries the frozen collaborators of one engine instance.
type Config struct {
	Registry   *topology.Registry
	Mailbox    *Mailbox
	Hooks      domain.LifecycleHooks
	Logger     *slog.Logger
	InstanceID string
	Chart      string
}

// Engine owns the registry, the current state pointer, and the consuming
// end of the mailbox. One instance per state machine; instances are
// independent and never share state.
//
// Dispatch is single-caller by contract: one external caller drives each
// dispatch to completion before submitting the next event. The in-flight
// guard turns violations into domain.ErrDispatchInFlight instead of
// corrupting the walk.
type Engine struct {
	reg        *topology.Registry
	mailbox    *Mailbox
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	instanceID string
	chart      string

	current  domain.StateID
	inFlight atomic.Bool
}

// NewEngine validates cfg and positions the engine at initial without
// running entry actions. Callers follow up with EnterInitial (fresh
// build) or nothing (resume from a snapshot).
func NewEngine(cfg Config, initial domain.StateID) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("runtime: registry is required")
	}
	if cfg.Mailbox == nil {
		return nil, fmt.Errorf("runtime: mailbox is required")
	}
	if !cfg.Registry.Contains(initial) {
		return nil, fmt.Errorf("%w: initial %s", domain.ErrUnknownState, initial)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Engine{
		reg:        cfg.Registry,
		mailbox:    cfg.Mailbox,
		hooks:      cfg.Hooks,
		logger:     logger,
		instanceID: cfg.InstanceID,
		chart:      cfg.Chart,
		current:    initial,
	}, nil
}

// EnterInitial runs the entry cascade of a fresh build: OnEnter from the
// initial state's root down to the initial state, inclusive on both ends.
func (e *Engine) EnterInitial(ctx context.Context) {
	path := e.reg.PathToRoot(e.current)
	for i := len(path) - 1; i >= 0; i-- {
		e.enterState(ctx, path[i])
	}
	e.logger.Debug("entered initial state", "instance", e.instanceID, "state", e.current)
}

// Current returns the active state id.
func (e *Engine) Current() domain.StateID {
	return e.current
}

// InstanceID returns the identifier the engine logs and snapshots under.
func (e *Engine) InstanceID() string {
	return e.instanceID
}

// Snapshot captures the engine's persistable position.
func (e *Engine) Snapshot() *domain.Snapshot {
	return domain.NewSnapshot(e.instanceID, e.chart, e.current)
}

// Pending reports the number of queued requests awaiting the next
// dispatch.
func (e *Engine) Pending() int {
	return e.mailbox.Len()
}

// Dispatch routes one event: walk the ancestor chain from the current
// state until a handler consumes it, then drain every request the walk
// (and subsequent applications) queued. The returned outcome describes
// the external event only; internally fired events report through hooks
// and logs.
//
// If ctx is cancelled mid-drain, Dispatch stops early and leaves the
// remaining requests queued for the next call.
func (e *Engine) Dispatch(ctx context.Context, ev domain.Event) (domain.Outcome, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return domain.Unhandled, domain.ErrDispatchInFlight
	}
	defer e.inFlight.Store(false)

	outcome := e.walk(ctx, &ev, false)
	if err := e.drain(ctx); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// walk invokes HandleEvent on the current state, then on each ancestor,
// stopping at the first that consumes the event.
func (e *Engine) walk(ctx context.Context, ev *domain.Event, internal bool) domain.Outcome {
	outcome := domain.Unhandled
	cur := e.current
	for {
		st, ok := e.reg.State(cur)
		if !ok {
			// Unreachable while the registry is frozen; current only
			// ever moves to validated targets.
			e.logger.Error("current state missing from registry", "instance", e.instanceID, "state", cur)
			break
		}
		if st.HandleEvent(ev) {
			outcome = domain.Handled
			break
		}
		parent, ok := e.reg.Parent(cur)
		if !ok {
			break
		}
		cur = parent
	}

	e.logger.Debug("event dispatched",
		"instance", e.instanceID,
		"event", ev.ID,
		"outcome", outcome,
		"internal", internal,
	)
	if e.hooks.OnEventDispatched != nil {
		e.hooks.OnEventDispatched(ctx, &domain.DispatchEvent{
			HookBase: e.hookBase(domain.HookEventDispatched),
			Event:    ev.ID,
			Outcome:  outcome,
			Internal: internal,
		})
	}
	return outcome
}

// drain applies queued requests in FIFO order until the mailbox is empty.
func (e *Engine) drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("drain interrupted", "instance", e.instanceID, "pending", e.mailbox.Len(), "err", err)
			return err
		}
		req, ok := e.mailbox.Pop()
		if !ok {
			return nil
		}
		switch req.Kind {
		case domain.RequestChangeState:
			e.applyChange(ctx, req)
		case domain.RequestFireEvent:
			e.walk(ctx, &req.Event, true)
		}
	}
}

// applyChange executes one transition: exit from the current state up to
// (excluding) the lowest common ancestor, move the pointer, enter down to
// the target. Unregistered targets are discarded; the drain continues.
func (e *Engine) applyChange(ctx context.Context, req domain.Request) {
	target := req.Target
	if !e.reg.Contains(target) {
		e.logger.Warn("transition discarded",
			"instance", e.instanceID,
			"from", e.current,
			"to", target,
			"origin", req.Origin,
			"err", domain.ErrInvalidTransition,
		)
		if e.hooks.OnTransitionRejected != nil {
			e.hooks.OnTransitionRejected(ctx, &domain.TransitionEvent{
				HookBase: e.hookBase(domain.HookTransitionRejected),
				From:     e.current,
				To:       target,
				Origin:   req.Origin,
			})
		}
		return
	}
	if target == e.current {
		e.logger.Debug("self transition ignored", "instance", e.instanceID, "state", target)
		return
	}

	from := e.current
	exitPath, enterPath := e.transitionPaths(from, target)

	for _, id := range exitPath {
		e.exitState(ctx, id)
	}
	e.current = target
	for _, id := range enterPath {
		e.enterState(ctx, id)
	}

	e.logger.Info("transition applied",
		"instance", e.instanceID,
		"from", from,
		"to", target,
		"origin", req.Origin,
	)
	if e.hooks.OnTransitionApplied != nil {
		e.hooks.OnTransitionApplied(ctx, &domain.TransitionEvent{
			HookBase: e.hookBase(domain.HookTransitionApplied),
			From:     from,
			To:       target,
			Origin:   req.Origin,
		})
	}
}

// transitionPaths resolves the exit and enter sequences for a transition.
// Exit runs leaf-to-root from `from` (inclusive) up to the LCA
// (exclusive); enter runs root-to-leaf from the LCA (exclusive) down to
// `to` (inclusive). Across disjoint trees both full paths apply.
func (e *Engine) transitionPaths(from, to domain.StateID) (exitPath, enterPath []domain.StateID) {
	lca, hasLCA := e.reg.LCA(from, to)

	for _, id := range e.reg.PathToRoot(from) {
		if hasLCA && id == lca {
			break
		}
		exitPath = append(exitPath, id)
	}

	var down []domain.StateID
	for _, id := range e.reg.PathToRoot(to) {
		if hasLCA && id == lca {
			break
		}
		down = append(down, id)
	}
	for i := len(down) - 1; i >= 0; i-- {
		enterPath = append(enterPath, down[i])
	}
	return exitPath, enterPath
}

func (e *Engine) enterState(ctx context.Context, id domain.StateID) {
	if st, ok := e.reg.State(id); ok {
		st.OnEnter()
	}
	e.logger.Debug("state entered", "instance", e.instanceID, "state", id)
	if e.hooks.OnStateEnter != nil {
		e.hooks.OnStateEnter(ctx, &domain.StateEvent{
			HookBase: e.hookBase(domain.HookStateEnter),
			State:    id,
		})
	}
}

func (e *Engine) exitState(ctx context.Context, id domain.StateID) {
	if st, ok := e.reg.State(id); ok {
		st.OnExit()
	}
	e.logger.Debug("state exited", "instance", e.instanceID, "state", id)
	if e.hooks.OnStateExit != nil {
		e.hooks.OnStateExit(ctx, &domain.StateEvent{
			HookBase: e.hookBase(domain.HookStateExit),
			State:    id,
		})
	}
}

func (e *Engine) hookBase(t domain.HookType) domain.HookBase {
	return domain.HookBase{
		Timestamp:  time.Now().UTC(),
		Type:       t,
		InstanceID: e.instanceID,
	}
}
