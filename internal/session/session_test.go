package session

import (
	"fmt"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

func snapshotWithGoal(id string, cents int64) Snapshot {
	return Snapshot{Goals: []core.Goal{{ID: id, CurrentAmount: core.Money{Cents: cents}}}}
}

func TestApplyStoresSnapshotAndKnownAmounts(t *testing.T) {
	s := New("s1", core.User{ID: "u1"})

	ticket := s.Begin()
	if !s.Apply(ticket, snapshotWithGoal("g1", 10000)) {
		t.Fatal("expected current ticket to apply")
	}
	if _, ok := s.Snapshot(); !ok {
		t.Fatal("expected a loaded snapshot")
	}
	amount, ok := s.KnownGoalAmount("g1")
	if !ok || amount.Cents != 10000 {
		t.Fatalf("known amount = %v, %v", amount, ok)
	}
}

func TestApplyDiscardsStaleResults(t *testing.T) {
	tests := []struct {
		name    string
		between func(s *Session)
	}{
		{"cleared", func(s *Session) { s.Clear() }},
		{"user switched", func(s *Session) { s.SetUser(core.User{ID: "u2"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("s1", core.User{ID: "u1"})
			ticket := s.Begin()
			tt.between(s)

			if s.Apply(ticket, snapshotWithGoal("g1", 500)) {
				t.Fatal("stale result was applied")
			}
			if _, ok := s.KnownGoalAmount("g1"); ok {
				t.Fatal("stale goal amount leaked into the session")
			}
		})
	}
}

func TestSetUserSameIDKeepsState(t *testing.T) {
	s := New("s1", core.User{ID: "u1", Name: "Ada"})
	s.Apply(s.Begin(), snapshotWithGoal("g1", 100))

	ticket := s.Begin()
	s.SetUser(core.User{ID: "u1", Name: "Ada L."})
	if !s.Apply(ticket, snapshotWithGoal("g1", 200)) {
		t.Fatal("a profile refresh must not invalidate in-flight loads")
	}
	if s.User().Name != "Ada L." {
		t.Fatalf("name = %q", s.User().Name)
	}
}

func TestClearedSessionHasNoUser(t *testing.T) {
	s := New("s1", core.User{ID: "u1"})
	s.SetGoalAmount("g1", core.Money{Cents: 1})
	s.Clear()

	if s.UserID() != "" {
		t.Fatal("expected no user after Clear")
	}
	if s.Apply(s.Begin(), Snapshot{}) {
		t.Fatal("a cleared session must not accept snapshots")
	}
	if _, ok := s.KnownGoalAmount("g1"); ok {
		t.Fatal("expected goal amounts to be dropped")
	}
}

type fakeAuth struct {
	fns []func(auth.AuthEvent)
}

func (f *fakeAuth) OnAuthStateChanged(fn func(auth.AuthEvent)) func() {
	f.fns = append(f.fns, fn)
	return func() { f.fns = nil }
}

func (f *fakeAuth) emit(ev auth.AuthEvent) {
	for _, fn := range f.fns {
		fn(ev)
	}
}

func TestRegistryFollowsAuthEvents(t *testing.T) {
	src := &fakeAuth{}
	reg := NewRegistry(log.Nop())
	detach := reg.Attach(src)

	user := core.User{ID: "u1", Email: "ada@example.com"}
	src.emit(auth.AuthEvent{User: user, SessionID: "s1", SignedIn: true})

	s, ok := reg.Get("s1")
	if !ok || s.UserID() != "u1" {
		t.Fatalf("expected session for u1, got %v %v", s, ok)
	}
	ticket := s.Begin()

	src.emit(auth.AuthEvent{User: user, SessionID: "s1", SignedIn: false})
	if _, ok := reg.Get("s1"); ok {
		t.Fatal("expected session to be removed on sign-out")
	}
	if s.Apply(ticket, Snapshot{}) {
		t.Fatal("load finishing after sign-out must be discarded")
	}

	detach()
	src.emit(auth.AuthEvent{User: user, SessionID: "s2", SignedIn: true})
	if reg.Len() != 0 {
		t.Fatal("registry still subscribed after detach")
	}
}

func TestSweepDropsExpiredSessions(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	src := &fakeAuth{}
	reg := NewRegistry(log.Nop()).WithClock(func() time.Time { return now })
	reg.Attach(src)

	user := core.User{ID: "u1"}
	ttl := 24 * time.Hour
	for i := 0; i < 51; i++ {
		src.emit(auth.AuthEvent{User: user, SessionID: fmt.Sprintf("s%d", i), SignedIn: true, ExpiresAt: now.Add(ttl)})
	}
	src.emit(auth.AuthEvent{User: user, SessionID: "fresh", SignedIn: true, ExpiresAt: now.Add(96 * time.Hour)})
	src.emit(auth.AuthEvent{User: user, SessionID: "open", SignedIn: true})
	old, _ := reg.Get("s0")
	ticket := old.Begin()

	if n := reg.Sweep(); n != 0 {
		t.Fatalf("swept %d live sessions", n)
	}

	now = now.Add(ttl + 48*time.Hour)
	if n := reg.Sweep(); n != 51 {
		t.Fatalf("swept %d sessions, want 51", n)
	}
	if reg.Len() != 2 {
		t.Fatalf("registry holds %d sessions, want 2", reg.Len())
	}
	if _, ok := reg.Get("fresh"); !ok {
		t.Fatal("unexpired session was swept")
	}
	if _, ok := reg.Get("open"); !ok {
		t.Fatal("session without expiry was swept")
	}
	if old.Apply(ticket, Snapshot{}) {
		t.Fatal("load finishing after the sweep must be discarded")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	reg := NewRegistry(log.Nop())
	reg.StartCleanup(time.Hour)
	reg.Stop()
	reg.Stop()
}
