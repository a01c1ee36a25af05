// Package database opens the optional PostgreSQL pool.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoURL is returned by New when no connection string is given.
var ErrNoURL = errors.New("database url not set")

const connectTimeout = 5 * time.Second

// DB wraps a pgx connection pool. A nil *DB stands for "no database
// configured": Health reports healthy and Close does nothing.
type DB struct {
	pool *pgxpool.Pool
}

// New parses url, creates a pool and pings it. The pool is closed again if
// the ping fails.
func New(ctx context.Context, url string) (*DB, error) {
	if url == "" {
		return nil, ErrNoURL
	}

	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Pool returns the underlying pool, or nil when no database is configured.
func (db *DB) Pool() *pgxpool.Pool {
	if db == nil {
		return nil
	}
	return db.pool
}

// Health pings the database.
func (db *DB) Health(ctx context.Context) error {
	if db == nil {
		return nil
	}
	return db.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (db *DB) Close() {
	if db == nil {
		return
	}
	db.pool.Close()
}
