/*
Package dsl provides a Go DSL for constructing strata charts
programmatically.

It allows developers to define state hierarchies and transition tables
using a type-safe, fluent builder pattern instead of external YAML
files. This is particularly useful for dynamic chart generation, unit
testing, and leveraging IDE autocompletion/type-checking.

Example usage:

	package main

	import (
		"context"

		"github.com/lanreath/strata/pkg/domain"
		"github.com/lanreath/strata/pkg/dsl"
	)

	const (
		top  domain.StateID = 1
		off  domain.StateID = 2
		on   domain.StateID = 3
		flip domain.EventID = 10
	)

	func main() {
		c := dsl.NewChart("lightswitch").
			Event(flip, "flip").
			Initial(off)

		c.State(top, "top")
		c.State(off, "off").ChildOf(top).On(flip, on)
		c.State(on, "on").ChildOf(top).On(flip, off)

		eng, err := dsl.Assemble(c.Def())
		if err != nil {
			panic(err)
		}

		eng.Dispatch(context.Background(), domain.NewEvent(flip, nil))
	}

States assembled this way are table-driven: each one handles exactly the
events in its On table and declines everything else, so unmatched events
defer to ancestors the same way hand-written states do.
*/
package dsl
