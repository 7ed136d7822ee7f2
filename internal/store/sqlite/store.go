package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New opens (and migrates) the database at dbPath.
func New(ctx context.Context, dbPath string) (*Store, error) {
	db, err := Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for maintenance commands.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

const transactionColumns = `id, user_id, type, amount_cents, date, notes, category_id, category_name, goal_id, goal_name, created_at`

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t               core.Transaction
		flat            core.FlatEntry
		kind            string
		date, createdAt int64
	)
	err := row.Scan(&t.ID, &t.UserID, &kind, &t.Amount.Cents, &date, &t.Notes,
		&flat.CategoryID, &flat.CategoryName, &flat.GoalID, &flat.GoalName, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	flat.Kind = core.Kind(kind)
	if t.Entry, err = flat.Entry(); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Date = time.UnixMilli(date)
	t.CreatedAt = time.UnixMilli(createdAt)
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID)
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

func (s *Store) getTransaction(ctx context.Context, q querier, userID, id string) (core.Transaction, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	flat := core.FlattenEntry(t.Entry)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(flat.Kind), t.Amount.Cents, t.Date.UnixMilli(), t.Notes,
		flat.CategoryID, flat.CategoryName, flat.GoalID, flat.GoalName, t.CreatedAt.UnixMilli())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := s.getTransaction(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		updated = patch.Apply(current)
		flat := core.FlattenEntry(updated.Entry)
		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET type = ?, amount_cents = ?, date = ?, notes = ?,
			 category_id = ?, category_name = ?, goal_id = ?, goal_name = ?
			 WHERE id = ? AND user_id = ?`,
			string(flat.Kind), updated.Amount.Cents, updated.Date.UnixMilli(), updated.Notes,
			flat.CategoryID, flat.CategoryName, flat.GoalID, flat.GoalName, id, userID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		return nil
	})
	return updated, err
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOneRow(res)
}

const goalColumns = `id, user_id, title, target_amount_cents, current_amount_cents, target_date, created_at`

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g                     core.Goal
		targetDate, createdAt int64
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &targetDate, &createdAt); err != nil {
		return core.Goal{}, err
	}
	g.TargetDate = time.UnixMilli(targetDate)
	g.CreatedAt = time.UnixMilli(createdAt)
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY target_date DESC, created_at DESC`, userID)
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
	return s.getGoal(ctx, s.db, userID, id)
}

func (s *Store) getGoal(ctx context.Context, q querier, userID, id string) (core.Goal, error) {
	g, err := scanGoal(q.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
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
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Title, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		g.TargetDate.UnixMilli(), g.CreatedAt.UnixMilli())
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, userID, id string, patch core.GoalPatch) (core.Goal, error) {
	var updated core.Goal
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := s.getGoal(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		updated = patch.Apply(current)
		_, err = tx.ExecContext(ctx,
			`UPDATE goals SET title = ?, target_amount_cents = ?, current_amount_cents = ?, target_date = ?
			 WHERE id = ? AND user_id = ?`,
			updated.Title, updated.TargetAmount.Cents, updated.CurrentAmount.Cents,
			updated.TargetDate.UnixMilli(), id, userID)
		if err != nil {
			return fmt.Errorf("update goal: %w", err)
		}
		return nil
	})
	return updated, err
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return expectOneRow(res)
}

const userColumns = `id, email, name, password_hash, created_at`

func scanUser(row rowScanner) (core.User, error) {
	var (
		u         core.User
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &createdAt); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = time.UnixMilli(createdAt)
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.ID = uuid.NewString()
	u.Email = core.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, store.ErrConflict
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (core.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, core.NormalizeEmail(email))
}

func (s *Store) getUser(ctx context.Context, query string, arg string) (core.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, store.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUserName(ctx context.Context, id, name string) (core.User, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return core.User{}, fmt.Errorf("update user name: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return core.User{}, err
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectOneRow(res)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
