// Package middleware wraps a ports.SnapshotStore with cross-cutting
// behavior, leaving the adapters themselves backend-only.
package middleware

import "github.com/lanreath/strata/pkg/ports"

// Middleware allows wrapping a SnapshotStore to add behavior.
type Middleware func(ports.SnapshotStore) ports.SnapshotStore

// Chain applies middlewares around store. The first middleware is the
// outermost: it sees every call before the others.
func Chain(store ports.SnapshotStore, mws ...Middleware) ports.SnapshotStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
