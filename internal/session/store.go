// Package session owns the signed-in identity and its bearer token.
//
// A Store is created once at startup. It restores the previous session
// from durable Storage without touching the network, and writes through
// to Storage on every login, registration and logout so that memory and
// disk never disagree after an operation returns.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/errors"
	"github.com/felixgeelhaar/parkspot/internal/log"
)

// ErrSessionSuperseded is returned by Login and Register when a logout
// happened while the request was in flight. The response is discarded.
var ErrSessionSuperseded = errors.New(errors.ErrCodeSessionSuperseded, "session ended while the request was in flight")

// ErrSessionEnded is the cancellation cause of contexts derived with
// Store.Context once the session they belong to is logged out.
var ErrSessionEnded = errors.New(errors.ErrCodeSessionSuperseded, "session ended")

// Authenticator is the part of the API client the store needs
type Authenticator interface {
	Login(ctx context.Context, creds api.Credentials) (*api.AuthResponse, error)
	AdminLogin(ctx context.Context, creds api.Credentials) (*api.AuthResponse, error)
	Register(ctx context.Context, reg api.Registration) (*api.AuthResponse, error)
}

// Snapshot is a consistent copy of the session state
type Snapshot struct {
	User          *api.User  `json:"user" yaml:"user"`
	Authenticated bool       `json:"authenticated" yaml:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// Store holds the current user and token
type Store struct {
	storage Storage
	auth    Authenticator
	logger  *log.Logger
	now     func() time.Time

	mu    sync.RWMutex
	user  *api.User
	token string
	// generation increments on every logout; in-flight logins compare it
	// to detect that the session they started in is gone.
	generation uint64
	lifetime   context.Context
	endLife    context.CancelCauseFunc
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store's logger
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock replaces time.Now, for token expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore restores the persisted session from storage. A half-written,
// undecodable or expired session is discarded and cleared from storage.
func NewStore(storage Storage, auth Authenticator, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		auth:    auth,
		logger:  log.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lifetime, s.endLife = context.WithCancelCause(context.Background())
	s.restore()
	return s
}

func (s *Store) restore() {
	token, hasToken := s.storage.Get(KeyToken)
	rawUser, hasUser := s.storage.Get(KeyUser)

	if !hasToken && !hasUser {
		return
	}

	discard := func(reason string) {
		s.logger.Warn("discarding stored session", "reason", reason)
		if err := s.storage.Remove(KeyToken, KeyUser); err != nil {
			s.logger.LogError("failed to clear stored session", err)
		}
	}

	if token == "" || !hasUser {
		discard("incomplete")
		return
	}

	var user api.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || rawUser == "null" {
		discard("user record is not valid JSON")
		return
	}

	if tokenExpired(token, s.now()) {
		discard("token expired")
		return
	}

	s.user = &user
	s.token = token
	s.logger.Debug("session restored", "username", user.Username, "role", user.Role)
}

// Login authenticates against the user or admin endpoint and persists
// the resulting session. API errors are returned untouched.
func (s *Store) Login(ctx context.Context, creds api.Credentials, isAdmin bool) (*api.User, error) {
	gen := s.currentGeneration()

	var (
		resp *api.AuthResponse
		err  error
	)
	if isAdmin {
		resp, err = s.auth.AdminLogin(ctx, creds)
	} else {
		resp, err = s.auth.Login(ctx, creds)
	}
	if err != nil {
		return nil, err
	}
	return s.establish(gen, resp)
}

// Register creates an account and persists the returned session
func (s *Store) Register(ctx context.Context, reg api.Registration) (*api.User, error) {
	gen := s.currentGeneration()

	resp, err := s.auth.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	return s.establish(gen, resp)
}

func (s *Store) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// establish writes storage first and memory second, so a failed write
// leaves the previous state intact in both.
func (s *Store) establish(gen uint64, resp *api.AuthResponse) (*api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		s.logger.Warn("discarding auth response that arrived after logout")
		return nil, ErrSessionSuperseded
	}

	rawUser, err := json.Marshal(resp.User)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSessionCorrupt, "failed to encode user", err)
	}

	if err := s.storage.Set(KeyToken, resp.Token); err != nil {
		return nil, errors.NewSessionPersistError(storagePath(s.storage), err)
	}
	if err := s.storage.Set(KeyUser, string(rawUser)); err != nil {
		s.rollbackLocked()
		return nil, errors.NewSessionPersistError(storagePath(s.storage), err)
	}

	user := *resp.User
	s.user = &user
	s.token = resp.Token
	s.logger.Info("session established", "username", user.Username, "role", user.Role)

	out := user
	return &out, nil
}

// rollbackLocked puts storage back in line with the in-memory state
func (s *Store) rollbackLocked() {
	if s.token == "" || s.user == nil {
		_ = s.storage.Remove(KeyToken, KeyUser)
		return
	}
	rawUser, _ := json.Marshal(s.user)
	_ = s.storage.Set(KeyToken, s.token)
	_ = s.storage.Set(KeyUser, string(rawUser))
}

// Logout clears the session from memory and storage. Memory is always
// cleared; a storage failure is reported to the caller.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endLocked("logout")
}

func (s *Store) endLocked(reason string) error {
	hadSession := s.user != nil
	s.user = nil
	s.token = ""
	s.generation++

	s.endLife(ErrSessionEnded)
	s.lifetime, s.endLife = context.WithCancelCause(context.Background())

	if hadSession {
		s.logger.Info("session ended", "reason", reason)
	}
	if err := s.storage.Remove(KeyToken, KeyUser); err != nil {
		return errors.NewSessionPersistError(storagePath(s.storage), err)
	}
	return nil
}

// IsAuthenticated reports whether both a token and a user are held. An
// expired JWT ends the session as a side effect.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	token, user := s.token, s.user
	s.mu.RUnlock()

	if token == "" || user == nil {
		return false
	}
	if !tokenExpired(token, s.now()) {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Someone may have logged in again between the two locks.
	if s.token == token {
		if err := s.endLocked("token expired"); err != nil {
			s.logger.LogError("failed to clear expired session", err)
		}
		return false
	}
	return s.token != "" && s.user != nil
}

// Token returns the bearer token, or "" when signed out.
// It makes Store an api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil
func (s *Store) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Role returns the signed-in user's role, or ""
func (s *Store) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

// Snapshot returns the session state in one consistent read
func (s *Store) Snapshot() Snapshot {
	authenticated := s.IsAuthenticated()

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Authenticated: authenticated && s.user != nil}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if exp, ok := TokenExpiry(s.token); ok {
		snap.ExpiresAt = &exp
	}
	return snap
}

// Context derives a context from parent that is also cancelled, with
// cause ErrSessionEnded, when the current session is logged out.
func (s *Store) Context(parent context.Context) (context.Context, context.CancelFunc) {
	s.mu.RLock()
	life := s.lifetime
	s.mu.RUnlock()

	ctx, cancel := context.WithCancelCause(parent)
	stop := context.AfterFunc(life, func() {
		cancel(context.Cause(life))
	})
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}

func storagePath(st Storage) string {
	if fs, ok := st.(*FileStorage); ok {
		return fs.Path()
	}
	return "session storage"
}
