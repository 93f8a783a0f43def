package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lanreath/strata/pkg/adapters/redis"
	"github.com/lanreath/strata/pkg/domain"
	"github.com/lanreath/strata/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisStore_Contract(t *testing.T) {
	// Setup miniredis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	// Initialize client
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	// Run contract
	store := redis.NewFromClient(client)
	ports.RunSnapshotStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	// Create store with 1s TTL
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	id := "instance-ttl"
	snap := domain.NewSnapshot(id, "toggle", 2)

	// 1. Save
	err = store.Save(ctx, id, snap)
	assert.NoError(t, err)

	// 2. Verify List (immediately)
	ids, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, ids, id)

	// 3. Fast Forward time in miniredis (for Key Expiration)
	mr.FastForward(2 * time.Second)

	// 4. Verify Load (should fail)
	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, domain.ErrInstanceNotFound)

	// 5. Verify List (lazily cleaned up)
	// The index prune uses time.Now() for its cutoff score, so wait out
	// the TTL in real time as well.
	time.Sleep(1200 * time.Millisecond)

	ids, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	// Custom Prefix
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()
	id := "my-instance"

	err = store.Save(ctx, id, domain.NewSnapshot(id, "toggle", 1))
	assert.NoError(t, err)

	// Verify keys in Redis directly
	// Key should be "custom:app:my-instance"
	exists := mr.Exists("custom:app:my-instance")
	assert.True(t, exists, "Expected key with custom prefix to exist")

	// Index should be "custom:app:index"
	existsIndex := mr.Exists("custom:app:index")
	assert.True(t, existsIndex, "Expected index with custom prefix to exist")

	// Verify List works
	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, list, id)
}
