package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool defaults
const (
	DefaultMaxConns        = 10
	DefaultMaxConnLifetime = time.Hour
	DefaultMaxConnIdleTime = 30 * time.Minute
)

// DB wraps the database connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Option tunes the connection pool
type Option func(*pgxpool.Config)

// WithMaxConns caps the number of open connections; non-positive keeps the default
func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// WithConnLifetime bounds how long a connection lives and how long it may sit idle.
// Zero values keep the defaults.
func WithConnLifetime(lifetime, idle time.Duration) Option {
	return func(c *pgxpool.Config) {
		if lifetime > 0 {
			c.MaxConnLifetime = lifetime
		}
		if idle > 0 {
			c.MaxConnIdleTime = idle
		}
	}
}

// New opens a pool for connString and verifies it with a ping
func New(ctx context.Context, connString string, opts ...Option) (*DB, error) {
	config, err := poolConfig(connString, opts...)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func poolConfig(connString string, opts ...Option) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	config.MaxConns = DefaultMaxConns
	config.MaxConnLifetime = DefaultMaxConnLifetime
	config.MaxConnIdleTime = DefaultMaxConnIdleTime
	for _, opt := range opts {
		opt(config)
	}
	return config, nil
}

// Pool returns the underlying connection pool
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the pool
func (db *DB) Close() {
	db.pool.Close()
}
