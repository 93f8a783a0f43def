// Package bolt provides a single-file ports.SnapshotStore backed by
// bbolt, for deployments that want durability without an external
// service. Snapshots are encoded with CBOR.
package bolt

import (
	"context"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"

	"github.com/lanreath/strata/pkg/domain"
)

var bucketSnapshots = []byte("snapshots")

// Store implements ports.SnapshotStore on a bbolt database file.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the database file at path and ensures the
// snapshot bucket exists.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Save persists the snapshot.
func (s *Store) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	data, err := cbor.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte(id), data)
	})
}

// Load retrieves the snapshot for id.
func (s *Store) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSnapshots).Get([]byte(id))
		if data == nil {
			return domain.ErrInstanceNotFound
		}
		return cbor.Unmarshal(data, &snap)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Delete removes the snapshot for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Delete([]byte(id))
	})
}

// List returns the stored instance ids in key order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshots).ForEach(func(k, v []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
