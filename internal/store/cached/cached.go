// Package cached puts read-through caches in front of a store's list
// queries. Every write through the decorator drops the owner's entry and
// bumps the owner's version; a list only fills the cache if no write
// finished while it was reading.
package cached

import (
	"context"
	"sync"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	store.Store
	transactions cache.Cache[[]core.Transaction]
	goals        cache.Cache[[]core.Goal]

	mu         sync.Mutex
	txVersions map[string]uint64
	goalVers   map[string]uint64
}

var _ store.Store = (*Store)(nil)

func New(inner store.Store, transactions cache.Cache[[]core.Transaction], goals cache.Cache[[]core.Goal]) *Store {
	return &Store{
		Store:        inner,
		transactions: transactions,
		goals:        goals,
		txVersions:   make(map[string]uint64),
		goalVers:     make(map[string]uint64),
	}
}

func (s *Store) version(versions map[string]uint64, userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return versions[userID]
}

// fill stores list under userID unless the user's version moved past seen.
// The check and the Set happen under the lock so a concurrent write cannot
// slip between them.
func fill[T any](s *Store, versions map[string]uint64, c cache.Cache[[]T], userID string, seen uint64, list []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if versions[userID] == seen {
		c.Set(userID, clone(list))
	}
}

func invalidate[T any](s *Store, versions map[string]uint64, c cache.Cache[[]T], userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	versions[userID]++
	c.Delete(userID)
}

func (s *Store) txWritten(userID string)   { invalidate(s, s.txVersions, s.transactions, userID) }
func (s *Store) goalWritten(userID string) { invalidate(s, s.goalVers, s.goals, userID) }

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	if txs, ok := s.transactions.Get(userID); ok {
		return clone(txs), nil
	}
	seen := s.version(s.txVersions, userID)
	txs, err := s.Store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	fill(s, s.txVersions, s.transactions, userID, seen, txs)
	return txs, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	defer s.txWritten(t.UserID)
	return s.Store.CreateTransaction(ctx, t)
}

func (s *Store) UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	defer s.txWritten(userID)
	return s.Store.UpdateTransaction(ctx, userID, id, patch)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	defer s.txWritten(userID)
	return s.Store.DeleteTransaction(ctx, userID, id)
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	if goals, ok := s.goals.Get(userID); ok {
		return clone(goals), nil
	}
	seen := s.version(s.goalVers, userID)
	goals, err := s.Store.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	fill(s, s.goalVers, s.goals, userID, seen, goals)
	return goals, nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	defer s.goalWritten(g.UserID)
	return s.Store.CreateGoal(ctx, g)
}

func (s *Store) UpdateGoal(ctx context.Context, userID, id string, patch core.GoalPatch) (core.Goal, error) {
	defer s.goalWritten(userID)
	return s.Store.UpdateGoal(ctx, userID, id, patch)
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	defer s.goalWritten(userID)
	return s.Store.DeleteGoal(ctx, userID, id)
}

// Invalidate drops both cached lists of a user.
func (s *Store) Invalidate(userID string) {
	s.txWritten(userID)
	s.goalWritten(userID)
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s...)
}
