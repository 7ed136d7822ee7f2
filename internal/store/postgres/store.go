// Package postgres is the multi-user store backend on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ store.Store = (*Store)(nil)

// Connect opens a pool, checks it and applies migrations.
func Connect(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, now: time.Now}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const transactionColumns = `id, user_id, type, amount_cents, date, notes, category_id, category_name, goal_id, goal_name, created_at`

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t    core.Transaction
		flat core.FlatEntry
		kind string
	)
	err := row.Scan(&t.ID, &t.UserID, &kind, &t.Amount.Cents, &t.Date, &t.Notes,
		&flat.CategoryID, &flat.CategoryName, &flat.GoalID, &flat.GoalName, &t.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	flat.Kind = core.Kind(kind)
	if t.Entry, err = flat.Entry(); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Date = t.Date.Local()
	t.CreatedAt = t.CreatedAt.Local()
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	flat := core.FlattenEntry(t.Entry)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.UserID, string(flat.Kind), t.Amount.Cents, t.Date, t.Notes,
		flat.CategoryID, flat.CategoryName, flat.GoalID, flat.GoalName, t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		current, err := scanTransaction(tx.QueryRow(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID))
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get transaction: %w", err)
		}
		updated = patch.Apply(current)
		flat := core.FlattenEntry(updated.Entry)
		_, err = tx.Exec(ctx,
			`UPDATE transactions SET type = $1, amount_cents = $2, date = $3, notes = $4,
			 category_id = $5, category_name = $6, goal_id = $7, goal_name = $8
			 WHERE id = $9 AND user_id = $10`,
			string(flat.Kind), updated.Amount.Cents, updated.Date, updated.Notes,
			flat.CategoryID, flat.CategoryName, flat.GoalID, flat.GoalName, id, userID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		return nil
	})
	return updated, err
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOneRow(tag)
}

const goalColumns = `id, user_id, title, target_amount_cents, current_amount_cents, target_date, created_at`

func scanGoal(row pgx.Row) (core.Goal, error) {
	var g core.Goal
	if err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &g.TargetDate, &g.CreatedAt); err != nil {
		return core.Goal{}, err
	}
	g.TargetDate = g.TargetDate.Local()
	g.CreatedAt = g.CreatedAt.Local()
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = $1 ORDER BY target_date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	g, err := scanGoal(s.pool.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Goal{}, store.ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.ID = uuid.NewString()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID, g.UserID, g.Title, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.TargetDate, g.CreatedAt)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, userID, id string, patch core.GoalPatch) (core.Goal, error) {
	var updated core.Goal
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		current, err := scanGoal(tx.QueryRow(ctx,
			`SELECT `+goalColumns+` FROM goals WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID))
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get goal: %w", err)
		}
		updated = patch.Apply(current)
		_, err = tx.Exec(ctx,
			`UPDATE goals SET title = $1, target_amount_cents = $2, current_amount_cents = $3, target_date = $4
			 WHERE id = $5 AND user_id = $6`,
			updated.Title, updated.TargetAmount.Cents, updated.CurrentAmount.Cents, updated.TargetDate, id, userID)
		if err != nil {
			return fmt.Errorf("update goal: %w", err)
		}
		return nil
	})
	return updated, err
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return expectOneRow(tag)
}

const userColumns = `id, email, name, password_hash, created_at`

func scanUser(row pgx.Row) (core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.ID = uuid.NewString()
	u.Email = core.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return core.User{}, store.ErrConflict
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (core.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, core.NormalizeEmail(email))
}

func (s *Store) getUser(ctx context.Context, query, arg string) (core.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, store.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUserName(ctx context.Context, id, name string) (core.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`UPDATE users SET name = $1 WHERE id = $2 RETURNING `+userColumns, name, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, store.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("update user name: %w", err)
	}
	return u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectOneRow(tag)
}

func expectOneRow(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
