package db

import (
	"context"
	"time"
)

// Store is the key-value facade the snapshot loaders read from.
type Store interface {
	Pinger
	HashReader
	KVReader
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashReader reads hashes.
type HashReader interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// KVReader reads plain string values.
type KVReader interface {
	// GetMulti fetches keys in one round-trip. A missing key yields a nil
	// entry at its position, not an error.
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}
