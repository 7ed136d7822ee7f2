package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/session"
)

type ctxKey int

const (
	claimsKey ctxKey = iota
	sessionKey
)

// authenticate resolves the bearer token to its session. Sessions live in
// memory, so a valid token seen after a restart gets a fresh session.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, log.OpValidate, services.ErrUnauthenticated)
			return
		}
		claims, err := s.auth.ParseToken(token)
		if err != nil {
			writeError(w, r, log.OpValidate, err)
			return
		}

		sess, ok := s.sessions.Get(claims.SessionID())
		if !ok {
			if sess, err = s.rehydrate(r.Context(), claims); err != nil {
				writeError(w, r, log.OpValidate, err)
				return
			}
		}

		logger := log.FromContext(r.Context()).With(log.FieldUserID, claims.UserID, log.FieldSessionID, claims.SessionID())
		ctx := log.NewContext(r.Context(), logger)
		ctx = context.WithValue(ctx, claimsKey, claims)
		ctx = context.WithValue(ctx, sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rehydrate registers a session for a token that outlived its in-memory
// session. A logout can land between ParseToken and Start, so revocation is
// checked again once the session is registered.
func (s *Server) rehydrate(ctx context.Context, claims auth.Claims) (*session.Session, error) {
	user, err := s.auth.CurrentUser(ctx, claims.UserID)
	if err != nil {
		return nil, errors.Join(auth.ErrInvalidToken, err)
	}
	ev := auth.AuthEvent{User: user, SessionID: claims.SessionID(), SignedIn: true}
	if claims.ExpiresAt != nil {
		ev.ExpiresAt = claims.ExpiresAt.Time
	}
	sess := s.sessions.Start(claims.SessionID(), ev)
	if s.auth.IsRevoked(claims.SessionID()) {
		s.sessions.End(claims.SessionID())
		return nil, auth.ErrInvalidToken
	}
	return sess, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

func claimsFrom(ctx context.Context) auth.Claims {
	c, _ := ctx.Value(claimsKey).(auth.Claims)
	return c
}

// sessionFrom returns nil outside authenticated routes; the ledger treats a
// nil session as signed out.
func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}

// today is the current time in the server's location.
func (s *Server) today() time.Time {
	return s.now().In(s.loc)
}
