// Package session holds the process-wide authentication state. A Manager
// is created once, started with an initial profile check, and then only
// changes through CheckAuth, Login, Register and Logout.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"wastemarket/mobile/internal/models"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrLoginFailed        = errors.New("login failed")
	ErrRegistrationFailed = errors.New("registration failed")
)

type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Authenticator is the slice of the auth service the session drives.
type Authenticator interface {
	GetProfile(ctx context.Context) (models.ProfileResponse, error)
	Login(ctx context.Context, data models.LoginData) (models.AuthResponse, error)
	Register(ctx context.Context, data models.RegisterData) (models.AuthResponse, error)
	Logout(ctx context.Context) (models.MessageResponse, error)
}

type Snapshot struct {
	State   State        `json:"state"`
	User    *models.User `json:"user"`
	Loading bool         `json:"loading"`
}

type Manager struct {
	auth     Authenticator
	log      zerolog.Logger
	onLogout func(context.Context)

	mu          sync.RWMutex
	user        *models.User
	initialized bool
	inflight    int
}

type Option func(*Manager)

// OnLogout runs after the local state has been cleared by Logout.
func OnLogout(fn func(context.Context)) Option {
	return func(m *Manager) {
		m.onLogout = fn
	}
}

func NewManager(auth Authenticator, log zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		auth: auth,
		log:  log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start resolves the initial loading state with a profile check.
func (m *Manager) Start(ctx context.Context) error {
	return m.CheckAuth(ctx)
}

type checkOptions struct {
	preserveOnFailure bool
}

type CheckOption func(*checkOptions)

// PreserveOnFailure keeps an already authenticated user when the check
// fails, so a transient error does not log the user out.
func PreserveOnFailure() CheckOption {
	return func(o *checkOptions) {
		o.preserveOnFailure = true
	}
}

// CheckAuth asks the profile endpoint who is signed in. It returns the failure, if
// any, after the state has been updated.
func (m *Manager) CheckAuth(ctx context.Context, opts ...CheckOption) error {
	var o checkOptions
	for _, opt := range opts {
		opt(&o)
	}

	m.begin()
	resp, err := m.auth.GetProfile(ctx)
	if err == nil && (!resp.Success || resp.User == nil) {
		err = ErrNotAuthenticated
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = true
	m.inflight--

	if err != nil {
		m.log.Debug().Err(err).Bool("preserve", o.preserveOnFailure).Msg("not authenticated")
		if !o.preserveOnFailure {
			m.user = nil
		}
		return err
	}

	user := *resp.User
	m.user = &user
	return nil
}

func (m *Manager) Login(ctx context.Context, data models.LoginData) error {
	m.begin()
	defer m.end()

	resp, err := m.auth.Login(ctx, data)
	if err != nil {
		return err
	}
	return m.accept(resp, ErrLoginFailed, "Login failed")
}

func (m *Manager) Register(ctx context.Context, data models.RegisterData) error {
	m.begin()
	defer m.end()

	resp, err := m.auth.Register(ctx, data)
	if err != nil {
		return err
	}
	return m.accept(resp, ErrRegistrationFailed, "Registration failed")
}

// Logout tells the backend best-effort and always ends anonymous.
func (m *Manager) Logout(ctx context.Context) {
	m.begin()
	defer m.end()

	if _, err := m.auth.Logout(ctx); err != nil {
		m.log.Error().Err(err).Msg("logout error")
	}

	m.mu.Lock()
	m.user = nil
	m.initialized = true
	m.mu.Unlock()

	if m.onLogout != nil {
		m.onLogout(ctx)
	}
}

// accept installs the user from a login or register response. A
// response without a user counts as a failure even when success is set.
func (m *Manager) accept(resp models.AuthResponse, kind error, fallback string) error {
	if !resp.Success || resp.User == nil {
		msg := resp.Message
		if msg == "" {
			msg = fallback
		}
		return &rejectedError{msg: msg, kind: kind}
	}

	user := *resp.User
	m.mu.Lock()
	m.user = &user
	m.initialized = true
	m.mu.Unlock()
	return nil
}

func (m *Manager) begin() {
	m.mu.Lock()
	m.inflight++
	m.mu.Unlock()
}

func (m *Manager) end() {
	m.mu.Lock()
	m.inflight--
	m.mu.Unlock()
}

// User returns a copy of the current user, or nil when anonymous.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	user := *m.user
	return &user
}

func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.initialized || m.inflight > 0
}

func (m *Manager) State() State {
	return m.Snapshot().State
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{Loading: !m.initialized || m.inflight > 0}
	switch {
	case !m.initialized:
		snap.State = StateLoading
	case m.user != nil:
		user := *m.user
		snap.User = &user
		snap.State = StateAuthenticated
	default:
		snap.State = StateAnonymous
	}
	return snap
}

type rejectedError struct {
	msg  string
	kind error
}

func (e *rejectedError) Error() string {
	return e.msg
}

func (e *rejectedError) Unwrap() error {
	return e.kind
}
