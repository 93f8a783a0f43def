// Package redis provides a Redis-backed ports.SnapshotStore and a
// ports.DistributedLocker for multi-replica deployments.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lanreath/strata/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.SnapshotStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for instance snapshots.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for instance snapshots.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "strata:instance:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the snapshot to Redis.
func (s *Store) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := s.client.Pipeline()

	// 1. Save JSON with TTL
	// Use 0 for no expiration if ttl is not set.
	pipe.Set(ctx, s.key(id), data, s.ttl)

	// 2. Add to Index (ZSET)
	// Score = Now + TTL. If TTL = 0, Score = +Inf (approx).
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01 (Far enough for now)
	}

	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: id,
	})

	// Execute pipeline
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	return nil
}

// Load retrieves the snapshot from Redis.
func (s *Store) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// Delete removes the instance snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns known instance ids.
// Uses the ZSET index with lazy cleanup of expired entries.
func (s *Store) List(ctx context.Context) ([]string, error) {
	// Lazy Cleanup: Remove expired ids from Index
	now := float64(time.Now().Unix())

	// If TTL > 0, we can rely on cleanup.
	// If everything is infinite, this removes nothing.
	// ZREMRANGEBYSCORE key -inf (now)
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired instances: %w", err)
	}

	// Get remaining instances
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	return ids, nil
}

// Client exposes the underlying redis client so callers can share the
// connection, e.g. with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
