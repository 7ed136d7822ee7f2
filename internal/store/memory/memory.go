// Package memory is an in-process store backend used for development and
// tests. Data is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	mu           sync.Mutex
	now          func() time.Time
	users        map[string]core.User
	transactions []core.Transaction
	goals        []core.Goal
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now, users: make(map[string]core.User)}
}

// WithClock overrides the clock used for CreatedAt stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Close() error { return nil }

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.transactions {
		if t.ID == id && t.UserID == userID {
			s.transactions[i] = patch.Apply(t)
			return s.transactions[i], nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.transactions {
		if t.ID == id && t.UserID == userID {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TargetDate.After(out[j].TargetDate) })
	return out, nil
}

func (s *Store) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goals {
		if g.ID == id && g.UserID == userID {
			return g, nil
		}
	}
	return core.Goal{}, store.ErrNotFound
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = uuid.NewString()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, userID, id string, patch core.GoalPatch) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID == id && g.UserID == userID {
			s.goals[i] = patch.Apply(g)
			return s.goals[i], nil
		}
	}
	return core.Goal{}, store.ErrNotFound
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID == id && g.UserID == userID {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := core.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == email {
			return core.User{}, store.ErrConflict
		}
	}
	u.ID = uuid.NewString()
	u.Email = email
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = core.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, store.ErrNotFound
}

func (s *Store) UpdateUserName(_ context.Context, id, name string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	u.Name = name
	s.users[id] = u
	return u, nil
}

func (s *Store) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = passwordHash
	s.users[id] = u
	return nil
}
