/*
Package strata is a hierarchical state-machine (HSM) engine: events route
to the currently active state, defer up the state hierarchy when declined
(chain of responsibility), and transitions run exit and entry actions in
the order fixed by the lowest common ancestor of the outgoing and
incoming states.

States never hold a reference to the engine. Each state receives a
single-issue Delegate instead, a send-only handle onto the engine's
request queue: ChangeState and FireEvent enqueue deferred requests that
the engine applies in FIFO order after the triggering event resolves.
Dispatch is synchronous end-to-end; it returns once the event and every
transitively fired event have fully drained.

# Key Properties

  - Deferred effects: transition requests made while handling an event
    apply strictly after that event's chain walk resolves.
  - LCA sequencing: exits run leaf-to-root up to the common ancestor,
    entries root-to-leaf down to the target, neither touching the
    ancestor itself.
  - Strict construction: duplicate ids, unknown parents, and an unknown
    initial state fail the build; no engine is produced.
  - Value errors: an unhandled event is an outcome, not an error; a bad
    transition target is discarded with a diagnostic while the drain
    continues.

# Usage

Implement ports.State for each state, register the hierarchy parents
first, mint delegates, and build:

	package main

	import (
		"context"
		"log"

		"github.com/lanreath/strata"
		"github.com/lanreath/strata/pkg/domain"
	)

	func main() {
		b := strata.NewBuilder()

		top := &Top{}
		off := &Off{}
		on := &On{}

		if err := b.Register(nil, top); err != nil {
			log.Fatal(err)
		}
		parent := top.ID()
		if err := b.Register(&parent, off); err != nil {
			log.Fatal(err)
		}
		if err := b.Register(&parent, on); err != nil {
			log.Fatal(err)
		}

		// Each state keeps its own delegate for deferred requests.
		d, err := b.Delegate(off.ID())
		if err != nil {
			log.Fatal(err)
		}
		off.delegate = d

		eng, err := b.Build(off.ID())
		if err != nil {
			log.Fatal(err)
		}

		outcome, err := eng.Dispatch(context.Background(), domain.NewEvent(EvToggle, nil))
		if err != nil {
			log.Fatal(err)
		}
		log.Println(outcome, eng.Current())
	}

The pkg/dsl package assembles engines from declarative chart definitions,
pkg/session serializes concurrent callers and persists snapshots through
pkg/adapters stores, and cmd/strata wraps the whole thing in a CLI.
*/
package strata
