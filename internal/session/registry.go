package session

import (
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/log"
)

// AuthSource emits sign-in and sign-out events.
type AuthSource interface {
	OnAuthStateChanged(fn func(auth.AuthEvent)) func()
}

// Registry keeps one Session per signed-in session id. Sessions whose
// sign-in lapsed without a logout are dropped by Sweep.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *log.Logger
	now      func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Nop()
	}
	return &Registry{
		sessions:    make(map[string]*Session),
		logger:      logger.WithComponent(log.ComponentSession),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
}

// WithClock replaces the clock Sweep compares expiries against.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// StartCleanup sweeps expired sessions every interval until Stop.
func (r *Registry) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-r.stopCleanup:
				return
			}
		}
	}()
}

func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCleanup)
	})
}

// Sweep ends every session past its expiry and returns how many it ended.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.expired(now) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Clear()
	}
	if len(expired) > 0 {
		r.logger.Debug("Expired sessions swept", "count", len(expired))
	}
	return len(expired)
}

// Attach subscribes the registry to src and returns the unsubscribe func.
func (r *Registry) Attach(src AuthSource) func() {
	return src.OnAuthStateChanged(r.handle)
}

func (r *Registry) handle(ev auth.AuthEvent) {
	if ev.SignedIn {
		r.Start(ev.SessionID, ev)
		return
	}
	r.End(ev.SessionID)
}

// Start creates the session for a sign-in event, replacing any previous
// session registered under the same id.
func (r *Registry) Start(id string, ev auth.AuthEvent) *Session {
	s := New(id, ev.User)
	s.expiresAt = ev.ExpiresAt

	r.mu.Lock()
	if old, ok := r.sessions[id]; ok {
		old.Clear()
	}
	r.sessions[id] = s
	r.mu.Unlock()

	r.logger.Debug("Session started", log.FieldSessionID, id, log.FieldUserID, ev.User.ID)
	return s
}

// End clears and forgets a session. Unknown ids are ignored.
func (r *Registry) End(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Clear()
		r.logger.Debug("Session ended", log.FieldSessionID, id)
	}
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
