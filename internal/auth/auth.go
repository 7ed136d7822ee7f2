// Package auth is the identity boundary: registration, password login,
// logout, password reset and sign-in/sign-out notifications.
//
// Sessions are HS256 JWTs. A logged-out session id is kept on a deny list
// until the token would have expired anyway.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailTaken         = errors.New("email already registered")
)

const (
	purposeSession = "session"
	purposeReset   = "reset"
)

type Config struct {
	Secret     []byte
	SessionTTL time.Duration
	ResetTTL   time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Claims are carried by both session and reset tokens.
type Claims struct {
	UserID  string `json:"user_id"`
	Purpose string `json:"purpose"`
	// PasswordFP binds a reset token to the password it replaces, so the
	// token stops working once used.
	PasswordFP string `json:"pwd,omitempty"`
	jwt.RegisteredClaims
}

// SessionID is the token's jti.
func (c Claims) SessionID() string { return c.ID }

// SignIn is what a successful register or login returns.
type SignIn struct {
	User      core.User `json:"user"`
	Token     string    `json:"token"`
	SessionID string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthEvent is emitted on every sign-in (SignedIn) and sign-out.
// ExpiresAt is the session token's expiry and is zero on sign-out.
type AuthEvent struct {
	User      core.User
	SessionID string
	SignedIn  bool
	ExpiresAt time.Time
}

// ResetNotifier delivers password reset tokens to their owner.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, user core.User, token string, expiresAt time.Time) error
}

type Service struct {
	users    store.UserStore
	cfg      Config
	notifier ResetNotifier
	logger   *log.Logger
	now      func() time.Time

	mu        sync.Mutex
	listeners map[int]func(AuthEvent)
	nextID    int
	revoked   map[string]time.Time
}

func NewService(users store.UserStore, cfg Config, notifier ResetNotifier, logger *log.Logger) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Service{
		users:     users,
		cfg:       cfg,
		notifier:  notifier,
		logger:    logger.WithComponent(log.ComponentAuth),
		now:       time.Now,
		listeners: make(map[int]func(AuthEvent)),
		revoked:   make(map[string]time.Time),
	}
}

// WithClock replaces the clock used to issue and check tokens.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Register(ctx context.Context, reg core.Registration) (SignIn, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = core.NormalizeEmail(reg.Email)
	if err := reg.Validate(); err != nil {
		return SignIn{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cfg.BcryptCost)
	if err != nil {
		return SignIn{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, core.User{Email: reg.Email, Name: reg.Name, PasswordHash: string(hash)})
	if errors.Is(err, store.ErrConflict) {
		return SignIn{}, ErrEmailTaken
	}
	if err != nil {
		return SignIn{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered", log.NewFields().WithOperation(log.OpRegister).WithUser(user.ID).ToSlice()...)
	return s.signIn(ctx, user)
}

func (s *Service) Login(ctx context.Context, email, password string) (SignIn, error) {
	user, err := s.users.GetUserByEmail(ctx, core.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return SignIn{}, ErrInvalidCredentials
	}
	if err != nil {
		return SignIn{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Invalid password attempt", log.NewFields().WithOperation(log.OpLogin).WithUser(user.ID).ToSlice()...)
		return SignIn{}, ErrInvalidCredentials
	}
	return s.signIn(ctx, user)
}

func (s *Service) signIn(ctx context.Context, user core.User) (SignIn, error) {
	now := s.now()
	sessionID := uuid.NewString()
	expires := now.Add(s.cfg.SessionTTL)

	token, err := s.sign(Claims{
		UserID:  user.ID,
		Purpose: purposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	if err != nil {
		return SignIn{}, err
	}

	s.emit(AuthEvent{User: user, SessionID: sessionID, SignedIn: true, ExpiresAt: expires})
	s.logger.InfoContext(ctx, "User signed in", log.NewFields().WithOperation(log.OpLogin).WithUser(user.ID).ToSlice()...)
	return SignIn{User: user, Token: token, SessionID: sessionID, ExpiresAt: expires}, nil
}

// Logout revokes the session named by claims and notifies listeners.
func (s *Service) Logout(ctx context.Context, claims Claims) error {
	if claims.ID == "" {
		return ErrInvalidToken
	}

	s.mu.Lock()
	expires := s.now().Add(s.cfg.SessionTTL)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	s.revoked[claims.ID] = expires
	s.pruneRevokedLocked()
	s.mu.Unlock()

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		user = core.User{ID: claims.UserID}
	}
	s.emit(AuthEvent{User: user, SessionID: claims.ID, SignedIn: false})
	s.logger.InfoContext(ctx, "User signed out", log.NewFields().WithOperation(log.OpLogout).WithUser(claims.UserID).ToSlice()...)
	return nil
}

// ResetPassword sends a reset token when the email belongs to a user. The
// result does not reveal whether it does.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	email = core.NormalizeEmail(email)
	if err := core.ValidateEmail(email); err != nil {
		return err
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.DebugContext(ctx, "Password reset for unknown email", log.FieldOperation, log.OpReset)
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	now := s.now()
	expires := now.Add(s.cfg.ResetTTL)
	token, err := s.sign(Claims{
		UserID:     user.ID,
		Purpose:    purposeReset,
		PasswordFP: passwordFingerprint(user.PasswordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	if err != nil {
		return err
	}

	if s.notifier == nil {
		return errors.New("password reset delivery is not configured")
	}
	if err := s.notifier.NotifyPasswordReset(ctx, user, token, expires); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	s.logger.InfoContext(ctx, "Password reset issued", log.NewFields().WithOperation(log.OpReset).WithUser(user.ID).ToSlice()...)
	return nil
}

// ConfirmPasswordReset sets a new password using a reset token.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := core.ValidatePassword(newPassword); err != nil {
		return err
	}
	claims, err := s.parse(token, purposeReset)
	if err != nil {
		return err
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return ErrInvalidToken
	}
	if claims.PasswordFP != passwordFingerprint(user.PasswordHash) {
		return ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.logger.InfoContext(ctx, "Password reset completed", log.NewFields().WithOperation(log.OpReset).WithUser(user.ID).ToSlice()...)
	return nil
}

// ParseToken validates a session token and returns its claims.
func (s *Service) ParseToken(token string) (Claims, error) {
	claims, err := s.parse(token, purposeSession)
	if err != nil {
		return Claims{}, err
	}
	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// IsRevoked reports whether the session id was logged out.
func (s *Service) IsRevoked(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[sessionID]
	return ok
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (core.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// UpdateName changes the display name, the only mutable profile field.
func (s *Service) UpdateName(ctx context.Context, userID, name string) (core.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.User{}, &core.ValidationError{Field: "name", Err: core.ErrEmptyName}
	}
	return s.users.UpdateUserName(ctx, userID, name)
}

// OnAuthStateChanged registers fn for sign-in and sign-out events and
// returns a function that removes it.
func (s *Service) OnAuthStateChanged(fn func(AuthEvent)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) emit(ev AuthEvent) {
	s.mu.Lock()
	fns := make([]func(AuthEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Service) sign(c Claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *Service) parse(token, purpose string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("invalid signing method")
			}
			return s.cfg.Secret, nil
		},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.UserID == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) pruneRevokedLocked() {
	now := s.now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
}

func passwordFingerprint(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}
