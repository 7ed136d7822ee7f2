// Package store defines the data access boundary of the tracker. Backends
// live in the subpackages; every query is scoped to the owning user.
package store

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type (
	// TransactionStore persists transactions. ListTransactions returns the
	// user's records ordered by date, newest first.
	TransactionStore interface {
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	// GoalStore persists goals. ListGoals orders by target date, newest first.
	GoalStore interface {
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
		GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		UpdateGoal(ctx context.Context, userID, id string, patch core.GoalPatch) (core.Goal, error)
		DeleteGoal(ctx context.Context, userID, id string) error
	}

	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUserByID(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdateUserName(ctx context.Context, id, name string) (core.User, error)
		UpdatePassword(ctx context.Context, id, passwordHash string) error
	}

	// Ledger is the part of the store the ledger services need.
	Ledger interface {
		TransactionStore
		GoalStore
	}

	// Store is implemented by every backend.
	Store interface {
		Ledger
		UserStore
		Close() error
	}
)
