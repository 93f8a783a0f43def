// Package sqlite persists engine snapshots in a single-file SQLite
// database. The driver is pure Go, so the adapter works anywhere the
// binary runs, with no cgo toolchain involved.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lanreath/strata/pkg/domain"
)

// Store keeps snapshots in a snapshots table, one row per instance.
type Store struct {
	db *sql.DB
}

// toMillis converts a time to UTC milliseconds for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis converts stored UTC milliseconds back to a time.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
	   instance_id TEXT PRIMARY KEY,
	   chart       TEXT NOT NULL,
	   current     INTEGER NOT NULL,
	   updated_at  INTEGER NOT NULL
	 )`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure snapshots table: %w", err)
	}

	return &Store{db: db}, nil
}

// Save upserts the snapshot row keyed by id.
func (s *Store) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is required")
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO snapshots (instance_id, chart, current, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(instance_id) DO UPDATE SET
		   chart = excluded.chart,
		   current = excluded.current,
		   updated_at = excluded.updated_at`,
		id,
		snap.Chart,
		uint16(snap.Current),
		toMillis(snap.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for id, or domain.ErrInstanceNotFound when
// no row exists.
func (s *Store) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT instance_id, chart, current, updated_at
		   FROM snapshots WHERE instance_id = ?`,
		id,
	)

	var snap domain.Snapshot
	var current uint16
	var updatedAt int64
	err := row.Scan(&snap.InstanceID, &snap.Chart, &current, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInstanceNotFound, id)
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	snap.Current = domain.StateID(current)
	snap.UpdatedAt = fromMillis(updatedAt)
	return &snap, nil
}

// Delete removes the snapshot row. Deleting a missing instance is not
// an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE instance_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// List returns all stored instance ids in key order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT instance_id FROM snapshots ORDER BY instance_id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return ids, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
