package ports

import (
	"context"

	"github.com/lanreath/strata/pkg/domain"
)

// SnapshotStore persists instance snapshots, enabling stop-and-resume of
// engine instances across processes.
type SnapshotStore interface {
	// Save persists the snapshot for an instance id, overwriting any
	// previous snapshot.
	Save(ctx context.Context, id string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for an instance id.
	// Returns domain.ErrInstanceNotFound if the id is unknown.
	Load(ctx context.Context, id string) (*domain.Snapshot, error)

	// Delete removes the snapshot for an instance id. Deleting an
	// unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the known instance ids, newest first where the
	// backend can order them.
	List(ctx context.Context) ([]string, error)
}
