package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanreath/strata/pkg/domain"
)

// RunSnapshotStoreContract verifies that a SnapshotStore implementation
// honors the interface contract. Adapter test suites call it against a
// fresh store.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	instanceID := "contract-" + time.Now().Format("20060102150405.000000000")

	t.Run("SaveAndLoad", func(t *testing.T) {
		snap := domain.NewSnapshot(instanceID, "lights", domain.StateID(3))

		err := store.Save(ctx, instanceID, snap)
		require.NoError(t, err)

		loaded, err := store.Load(ctx, instanceID)
		require.NoError(t, err)
		assert.Equal(t, snap.InstanceID, loaded.InstanceID)
		assert.Equal(t, snap.Chart, loaded.Chart)
		assert.Equal(t, snap.Current, loaded.Current)
		assert.WithinDuration(t, snap.UpdatedAt, loaded.UpdatedAt, time.Second)
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		first := domain.NewSnapshot(instanceID, "lights", domain.StateID(3))
		require.NoError(t, store.Save(ctx, instanceID, first))

		second := domain.NewSnapshot(instanceID, "lights", domain.StateID(7))
		require.NoError(t, store.Save(ctx, instanceID, second))

		loaded, err := store.Load(ctx, instanceID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateID(7), loaded.Current)
	})

	t.Run("LoadNonExistent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+instanceID)
		assert.ErrorIs(t, err, domain.ErrInstanceNotFound)
	})

	t.Run("LoadedCopyIsIndependent", func(t *testing.T) {
		snap := domain.NewSnapshot(instanceID, "lights", domain.StateID(3))
		require.NoError(t, store.Save(ctx, instanceID, snap))

		loaded, err := store.Load(ctx, instanceID)
		require.NoError(t, err)
		loaded.Current = domain.StateID(99)

		again, err := store.Load(ctx, instanceID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateID(3), again.Current)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, instanceID, domain.NewSnapshot(instanceID, "lights", domain.StateID(1))))

		require.NoError(t, store.Delete(ctx, instanceID))

		_, err := store.Load(ctx, instanceID)
		assert.ErrorIs(t, err, domain.ErrInstanceNotFound)

		// Deleting an unknown id is not an error.
		assert.NoError(t, store.Delete(ctx, instanceID))
	})

	t.Run("List", func(t *testing.T) {
		id1 := instanceID + "-1"
		id2 := instanceID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewSnapshot(id1, "lights", domain.StateID(1))))
		require.NoError(t, store.Save(ctx, id2, domain.NewSnapshot(id2, "lights", domain.StateID(2))))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
