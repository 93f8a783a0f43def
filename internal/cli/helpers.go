package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/lanreath/strata/internal/logging"
	"github.com/lanreath/strata/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the session logger.
// In debug mode, it writes to Stderr (to separate from the stdout prompt flow).
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized system message to stdout.
func printSystemMessage(format string, args ...any) {
	fmt.Printf(">>> %s\n", fmt.Sprintf(format, args...))
}

// narrationHooks reports each applied or rejected transition on stdout so
// the operator can watch the machine move.
func narrationHooks(def *domain.ChartDef) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransitionApplied: func(ctx context.Context, e *domain.TransitionEvent) {
			printSystemMessage("%s -> %s", stateLabel(def, e.From), stateLabel(def, e.To))
		},
		OnTransitionRejected: func(ctx context.Context, e *domain.TransitionEvent) {
			printSystemMessage("rejected: %s -> %s (unknown target)", stateLabel(def, e.From), e.To)
		},
	}
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.Debug("Enter State", "state", e.State)
		},
		OnStateExit: func(ctx context.Context, e *domain.StateEvent) {
			logger.Debug("Exit State", "state", e.State)
		},
		OnEventDispatched: func(ctx context.Context, e *domain.DispatchEvent) {
			logger.Debug("Event Dispatched", "event", e.Event, "outcome", e.Outcome, "internal", e.Internal)
		},
	}
}

// stateLabel resolves a state id to its declared name for prompt output.
func stateLabel(def *domain.ChartDef, id domain.StateID) string {
	if sd := def.State(id); sd != nil {
		return sd.Name
	}
	return id.String()
}

func isInterrupted(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF) ||
		(errors.Unwrap(err) != nil && isInterrupted(errors.Unwrap(err)))
}

func handleExecutionError(err error) error {
	if err == nil {
		return nil
	}
	if isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}

func logCompletion(def *domain.ChartDef, current domain.StateID, err error, sig os.Signal) {
	if err == nil {
		printSystemMessage("Finished at '%s'.", stateLabel(def, current))
		return
	}

	if isInterrupted(err) {
		if sig == os.Interrupt {
			fmt.Printf("[CTRL+C]\n")
			printSystemMessage("Interrupted at '%s'.", stateLabel(def, current))
		} else if sig != nil {
			fmt.Printf("\n")
			printSystemMessage("Terminated at '%s'.", stateLabel(def, current))
		} else {
			printSystemMessage("Session closed at '%s'.", stateLabel(def, current))
		}
	}
}
