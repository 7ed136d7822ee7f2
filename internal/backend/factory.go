package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
	"fintrack/internal/store/cached"
	"fintrack/internal/store/firestore"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/postgres"
	"fintrack/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend opens the configured store and wraps it in the read cache.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	st, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	wrapped, stopCache, err := f.wrapCache(st, config)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	ready := func(context.Context) error { return nil }
	if p, ok := st.(Pinger); ok {
		ready = p.Ping
	}

	return &BackendResult{
		Store: wrapped,
		Ready: ready,
		Cleanup: func() error {
			stopCache()
			return st.Close()
		},
	}, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (store.Store, error) {
	switch config.Type {
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil

	case SQLiteBackend:
		st, err := sqlite.New(ctx, config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return st, nil

	case PostgresBackend:
		st, err := postgres.Connect(ctx, config.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return st, nil

	case FirestoreBackend:
		st, err := firestore.New(ctx, firestore.Config{
			ProjectID:       config.FirestoreProjectID,
			CredentialsFile: config.FirestoreCredentialsFile,
			CredentialsJSON: config.FirestoreCredentialsJSON,
			Logger:          f.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firestore store: %w", err)
		}
		f.logger.Info("Initialized Firestore backend", "project_id", config.FirestoreProjectID)
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) wrapCache(st store.Store, config Config) (store.Store, func(), error) {
	switch config.Cache {
	case LRUCache:
		txs := cache.NewLRUCache[[]core.Transaction](config.CacheSize, config.CacheTTL)
		goals := cache.NewLRUCache[[]core.Goal](config.CacheSize, config.CacheTTL)

		mgr := cache.NewManager(f.logger.WithComponent(log.ComponentCache).Slog())
		mgr.Register(txs)
		mgr.Register(goals)
		mgr.StartCleanup(config.CacheTTL)

		f.logger.Info("Enabled LRU read cache", "size", config.CacheSize, "ttl", config.CacheTTL)
		return cached.New(st, txs, goals), mgr.Stop, nil

	case RistrettoCache:
		txs, err := cache.NewRistretto[[]core.Transaction](int64(config.CacheSize), config.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		goals, err := cache.NewRistretto[[]core.Goal](int64(config.CacheSize), config.CacheTTL)
		if err != nil {
			txs.Close()
			return nil, nil, err
		}

		f.logger.Info("Enabled ristretto read cache", "size", config.CacheSize, "ttl", config.CacheTTL)
		return cached.New(st, txs, goals), func() { txs.Close(); goals.Close() }, nil

	case NoCache, "":
		return st, func() {}, nil

	default:
		return nil, nil, errors.New("unsupported cache type: " + string(config.Cache))
	}
}
