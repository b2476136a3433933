// Package session keeps the authenticated user and bearer token for the
// client, backed by durable storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yukikurage/taskboard/internal/client"
	"github.com/yukikurage/taskboard/internal/dto"
	"github.com/yukikurage/taskboard/internal/storage"
)

// User-facing messages.
const (
	MsgLoginFailed    = "Failed to login. Please try again."
	MsgRegisterFailed = "Failed to register. Please try again."
	MsgLoggedOut      = "Logged out successfully"
	MsgSessionExpired = "Session expired. Please login again."
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrMissingFields      = errors.New("first name, last name, email and password are required")
	ErrCorruptSession     = errors.New("stored session is corrupt")
)

// AuthAPI is the part of the API client the session needs.
type AuthAPI interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error)
}

// Navigator moves the UI between the login screen and the dashboard.
type Navigator interface {
	ToLogin()
	ToDashboard()
}

type noopNavigator struct{}

func (noopNavigator) ToLogin()     {}
func (noopNavigator) ToDashboard() {}

// State is a snapshot of the session. IsAuthenticated is true exactly when
// Token is non-empty.
type State struct {
	User            *dto.UserDTO
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
	Notice          string
}

// Manager owns the session. It is safe for concurrent use.
type Manager struct {
	api   AuthAPI
	store storage.Store
	nav   Navigator
	log   logrus.FieldLogger

	mu    sync.RWMutex
	state State
}

// Option configures a Manager.
type Option func(*Manager)

func WithNavigator(nav Navigator) Option {
	return func(m *Manager) {
		m.nav = nav
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// NewManager creates an unauthenticated Manager. Call Restore to pick up a
// stored session.
func NewManager(api AuthAPI, store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		api:   api,
		store: store,
		nav:   noopNavigator{},
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// update applies fn to the state and re-derives IsAuthenticated.
func (m *Manager) update(fn func(s *State)) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.state)
	m.state.IsAuthenticated = m.state.Token != ""
	if !m.state.IsAuthenticated {
		m.state.User = nil
	}
	return m.state
}

// State returns a copy of the current session state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Token returns the bearer token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Token
}

// CurrentUser returns the logged in user, or nil.
func (m *Manager) CurrentUser() *dto.UserDTO {
	return m.State().User
}

// ClearError drops the current error message.
func (m *Manager) ClearError() {
	m.update(func(s *State) { s.Error = "" })
}

// Restore loads the session from storage. A stored token is trusted without a
// server round-trip; the first 401 will expire it.
func (m *Manager) Restore(ctx context.Context) error {
	token, ok, err := m.store.Get(ctx, storage.KeyToken)
	if err != nil {
		return fmt.Errorf("read stored token: %w", err)
	}
	if !ok || token == "" {
		m.update(func(s *State) { *s = State{} })
		return nil
	}

	raw, ok, err := m.store.Get(ctx, storage.KeyUser)
	if err != nil {
		return fmt.Errorf("read stored user: %w", err)
	}
	var user dto.UserDTO
	if !ok || json.Unmarshal([]byte(raw), &user) != nil {
		m.log.Warn("Discarding stored session with unreadable user")
		m.expire(ctx, "")
		return ErrCorruptSession
	}

	m.update(func(s *State) {
		*s = State{User: &user, Token: token}
	})
	m.log.WithField("user_id", user.ID).Debug("Session restored")
	return nil
}

// Login authenticates with email and password.
func (m *Manager) Login(ctx context.Context, req dto.LoginRequest) error {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		m.update(func(s *State) { s.Error = ErrMissingCredentials.Error() })
		return ErrMissingCredentials
	}

	m.begin()
	resp, err := m.api.Login(ctx, req)
	if err != nil {
		m.fail(err, MsgLoginFailed)
		return fmt.Errorf("login: %w", err)
	}
	m.establish(ctx, resp)
	return nil
}

// Register creates an account and logs it in.
func (m *Manager) Register(ctx context.Context, req dto.RegisterRequest) error {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" ||
		strings.TrimSpace(req.Email) == "" || req.Password == "" {
		m.update(func(s *State) { s.Error = ErrMissingFields.Error() })
		return ErrMissingFields
	}

	m.begin()
	resp, err := m.api.Register(ctx, req)
	if err != nil {
		m.fail(err, MsgRegisterFailed)
		return fmt.Errorf("register: %w", err)
	}
	m.establish(ctx, resp)
	return nil
}

func (m *Manager) begin() {
	m.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
		s.Notice = ""
	})
}

func (m *Manager) fail(err error, fallback string) {
	msg := client.Message(err)
	if msg == "" {
		msg = fallback
	}
	m.update(func(s *State) {
		s.IsLoading = false
		s.Error = msg
	})
	m.log.WithError(err).Info("Authentication failed")
}

func (m *Manager) establish(ctx context.Context, resp *dto.AuthResponse) {
	user := resp.User
	raw, err := json.Marshal(user)
	if err == nil {
		err = m.store.Set(ctx, storage.KeyToken, resp.Token)
	}
	if err == nil {
		err = m.store.Set(ctx, storage.KeyUser, string(raw))
	}
	if err != nil {
		// the session still works for this process
		m.log.WithError(err).Warn("Failed to persist session")
	}

	m.update(func(s *State) {
		*s = State{User: &user, Token: resp.Token}
	})
	m.log.WithField("user_id", user.ID).Info("Logged in")
	m.nav.ToDashboard()
}

// Logout forgets the session locally. The server is not contacted.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.store.Delete(ctx, storage.KeyToken, storage.KeyUser)
	m.update(func(s *State) {
		*s = State{Notice: MsgLoggedOut}
	})
	m.nav.ToLogin()
	if err != nil {
		return fmt.Errorf("clear stored session: %w", err)
	}
	return nil
}

// Expire ends the session after the server rejected the token. It is the
// client's unauthorized handler. Without a held token it does nothing, so a
// rejected login leaves storage alone.
func (m *Manager) Expire(ctx context.Context, reason string) {
	if m.Token() == "" {
		return
	}
	m.expire(ctx, reason)
}

func (m *Manager) expire(ctx context.Context, reason string) {
	if reason == "" {
		reason = MsgSessionExpired
	}
	if err := m.store.Delete(ctx, storage.KeyToken, storage.KeyUser); err != nil {
		m.log.WithError(err).Warn("Failed to clear stored session")
	}
	m.update(func(s *State) {
		*s = State{Error: reason}
	})
	m.log.Info("Session expired")
	m.nav.ToLogin()
}

// UnauthorizedHandler adapts Expire to the API client's hook.
func (m *Manager) UnauthorizedHandler() func(ctx context.Context, err *client.Error) {
	return func(ctx context.Context, _ *client.Error) {
		m.Expire(ctx, "")
	}
}
