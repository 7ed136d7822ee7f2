// Package backend builds the configured store and the read cache in front
// of it.
package backend

import (
	"context"
	"time"

	"fintrack/internal/store"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// BackendResult contains the store and the cleanup to run at shutdown.
type BackendResult struct {
	Store   store.Store
	Cleanup CleanupFunc
	// Ready pings the database; backends without a connection are always ready.
	Ready func(context.Context) error
}

// Pinger is implemented by stores that hold a database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresURL string

	// Firestore specific
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirestoreCredentialsJSON string

	// Read cache
	Cache     CacheType
	CacheSize int
	CacheTTL  time.Duration
}

type BackendType string

const (
	MemoryBackend    BackendType = "memory"
	SQLiteBackend    BackendType = "sqlite"
	PostgresBackend  BackendType = "postgres"
	FirestoreBackend BackendType = "firestore"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, FirestoreBackend:
		return true
	default:
		return false
	}
}

type CacheType string

const (
	NoCache        CacheType = "none"
	LRUCache       CacheType = "lru"
	RistrettoCache CacheType = "ristretto"
)

func (ct CacheType) IsValid() bool {
	switch ct {
	case NoCache, LRUCache, RistrettoCache:
		return true
	default:
		return false
	}
}
