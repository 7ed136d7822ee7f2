// Package session holds the per-sign-in application context: the signed-in
// user, the last loaded ledger snapshot and the goal amounts known from it.
//
// A Session lives from a sign-in event to the matching sign-out. Loads are
// stamped with a generation ticket so a result that arrives after the
// session was cleared or switched users is discarded instead of applied.
package session

import (
	"sync"
	"time"

	"fintrack/internal/core"
)

// Snapshot is the raw ledger of one user as last loaded.
type Snapshot struct {
	Transactions []core.Transaction
	Goals        []core.Goal
}

// Ticket identifies the generation a load was started in.
type Ticket struct {
	generation uint64
	userID     string
}

type Session struct {
	id        string
	expiresAt time.Time

	mu          sync.RWMutex
	user        core.User
	generation  uint64
	snapshot    Snapshot
	loaded      bool
	goalAmounts map[string]core.Money
}

func New(id string, user core.User) *Session {
	return &Session{id: id, user: user, goalAmounts: make(map[string]core.Money)}
}

// ExpiresAt is when the sign-in behind the session lapses. Zero means the
// session never expires on its own.
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

func (s *Session) expired(now time.Time) bool {
	return !s.expiresAt.IsZero() && !now.Before(s.expiresAt)
}

func (s *Session) ID() string { return s.id }

func (s *Session) User() core.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// UserID returns "" once the session has been cleared, or for a nil session.
func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.ID
}

// SetUser refreshes profile fields for the same user, or switches to a
// different user, which drops everything loaded for the previous one.
func (s *Session) SetUser(u core.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID != s.user.ID {
		s.resetLocked()
	}
	s.user = u
}

// Begin starts a load and returns the ticket to hand back to Apply.
func (s *Session) Begin() Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Ticket{generation: s.generation, userID: s.user.ID}
}

// Apply stores snap if t still belongs to the current generation and user.
// It reports whether the snapshot was applied.
func (s *Session) Apply(t Ticket, snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.generation != s.generation || t.userID != s.user.ID || s.user.ID == "" {
		return false
	}
	s.snapshot = snap
	s.loaded = true
	s.goalAmounts = make(map[string]core.Money, len(snap.Goals))
	for _, g := range snap.Goals {
		s.goalAmounts[g.ID] = g.CurrentAmount
	}
	return true
}

// Snapshot returns the last applied snapshot and whether one exists.
func (s *Session) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.loaded
}

// KnownGoalAmount returns the current amount of a goal as last seen by this
// session.
func (s *Session) KnownGoalAmount(goalID string) (core.Money, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.goalAmounts[goalID]
	return m, ok
}

func (s *Session) SetGoalAmount(goalID string, amount core.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goalAmounts[goalID] = amount
}

func (s *Session) ForgetGoal(goalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.goalAmounts, goalID)
}

// Clear drops the user and all loaded state. Loads begun before Clear will
// not be applied.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.user = core.User{}
}

func (s *Session) resetLocked() {
	s.generation++
	s.snapshot = Snapshot{}
	s.loaded = false
	s.goalAmounts = make(map[string]core.Money)
}
