// Package store persists the small amount of client-side session state the
// site keeps between runs: the backend identity under a fixed key, and the
// provider session used to mint fresh ID tokens.
//
// Five implementations of the Store interface are provided:
//   - MemoryStore: in-process, for tests and short-lived commands.
//   - FileStore: a single JSON file, optionally sealed with secretbox.
//   - SQLiteStore: a local database file (modernc.org/sqlite, no cgo).
//   - PostgresStore: shared storage for multi-instance gateways.
//   - RedisStore: shared storage with optional per-key expiry.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when the key has never been written or has
// been deleted.
var ErrNotFound = errors.New("store: key not found")

// Store is a durable key-value store. Delete of a missing key is not an
// error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Path is the file for the file and sqlite backends.
	Path string
	// DSN is the PostgreSQL connection string.
	DSN string
	// RedisAddr is host:port of the Redis server.
	RedisAddr string
	// EncryptionKey seals the file backend when non-empty.
	EncryptionKey string
	// Namespace prefixes keys in shared backends (postgres, redis).
	Namespace string
}

// Open constructs the backend named by opts.Backend.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		if opts.Path == "" {
			return nil, errors.New("store: file backend requires a path")
		}
		return NewFileStore(opts.Path, opts.EncryptionKey)
	case BackendSQLite:
		if opts.Path == "" {
			return nil, errors.New("store: sqlite backend requires a path")
		}
		return NewSQLiteStore(opts.Path)
	case BackendPostgres:
		if opts.DSN == "" {
			return nil, errors.New("store: postgres backend requires a DSN")
		}
		pool, err := pgxpool.New(ctx, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("store: connect postgres: %w", err)
		}
		s, err := NewPostgresStore(ctx, pool, opts.Namespace, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		s.ownsPool = true
		return s, nil
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, errors.New("store: redis backend requires an address")
		}
		rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("store: ping redis: %w", err)
		}
		s := NewRedisStore(rdb, opts.Namespace)
		s.ownsClient = true
		return s, nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", opts.Backend)
	}
}
