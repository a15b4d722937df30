// Package store provides database access for the alert engine.
//
// # Design
//
// The store uses raw SQL with pgx. The process is the single writer to its
// database; correctness of the alert dedup protocol rests on the unique
// constraint on (bmkg_alert_code, matched_location_id), not on read-then-write
// snapshots.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new store with the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewStoreFromURL creates a new store by connecting to the given database URL.
func NewStoreFromURL(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping tests database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Pool returns the underlying connection pool for advanced operations.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}
