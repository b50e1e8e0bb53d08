package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kjannette/tradejournal/internal/models"
)

type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Authenticator is the subset of the auth API the manager drives.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Signup(ctx context.Context, name, email, password string) (*models.AuthResponse, error)
	Profile(ctx context.Context) (*models.User, error)
}

// AuthError is returned by Login and Signup. Message is safe to show to the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// userMessage is implemented by API errors that carry a server message.
type userMessage interface {
	UserMessage() string
}

// Manager owns the session: the persisted token and the current user.
type Manager struct {
	auth  Authenticator
	store TokenStore

	mu       sync.Mutex
	state    State
	user     *models.User
	watchers []func(State, *models.User)
}

func NewManager(auth Authenticator, store TokenStore) *Manager {
	return &Manager{auth: auth, store: store}
}

// OnChange registers fn to run after every state transition.
func (m *Manager) OnChange(fn func(State, *models.User)) {
	m.mu.Lock()
	m.watchers = append(m.watchers, fn)
	m.mu.Unlock()
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

func (m *Manager) IsAuthenticated() bool {
	return m.State() == Authenticated
}

// Start restores a persisted session. With no stored token it leaves the
// manager unauthenticated and returns nil. A token the server rejects is
// cleared and the profile error is returned.
func (m *Manager) Start(ctx context.Context) error {
	token, err := m.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		m.transition(Unauthenticated, nil)
		return nil
	}

	m.transition(Authenticating, nil)
	user, err := m.auth.Profile(ctx)
	if err != nil {
		m.dropToken(ctx)
		m.transition(Unauthenticated, nil)
		return fmt.Errorf("restore session: %w", err)
	}
	m.transition(Authenticated, user)
	return nil
}

func (m *Manager) Login(ctx context.Context, email, password string) error {
	return m.authenticate(ctx, "Invalid credentials", func() (*models.AuthResponse, error) {
		return m.auth.Login(ctx, email, password)
	})
}

func (m *Manager) Signup(ctx context.Context, name, email, password string) error {
	return m.authenticate(ctx, "Failed to create account", func() (*models.AuthResponse, error) {
		return m.auth.Signup(ctx, name, email, password)
	})
}

func (m *Manager) authenticate(ctx context.Context, fallback string, call func() (*models.AuthResponse, error)) error {
	m.transition(Authenticating, nil)

	fail := func(err error) error {
		m.transition(Unauthenticated, nil)
		return &AuthError{Message: messageFor(err, fallback), Err: err}
	}

	resp, err := call()
	if err != nil {
		return fail(err)
	}
	if resp.AccessToken == "" {
		return fail(errors.New("server returned no access token"))
	}
	if err := m.store.Set(ctx, resp.AccessToken); err != nil {
		return fail(fmt.Errorf("persist token: %w", err))
	}
	user, err := m.auth.Profile(ctx)
	if err != nil {
		m.dropToken(ctx)
		return fail(fmt.Errorf("fetch profile: %w", err))
	}

	m.transition(Authenticated, user)
	return nil
}

// Logout clears the persisted token and the current user.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.store.Clear(ctx)
	m.transition(Unauthenticated, nil)
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Expire handles a 401 from the request layer. The client has already
// cleared the token. During Start or Login the in-progress call owns the
// outcome, so only an authenticated session is affected.
func (m *Manager) Expire(ctx context.Context) {
	m.mu.Lock()
	if m.state != Authenticated {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	log.Debug().Msg("session expired")
	m.transition(Unauthenticated, nil)
}

func (m *Manager) transition(s State, u *models.User) {
	m.mu.Lock()
	changed := m.state != s || m.user != u
	m.state = s
	m.user = u
	watchers := append([]func(State, *models.User){}, m.watchers...)
	m.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range watchers {
		fn(s, u)
	}
}

func (m *Manager) dropToken(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to clear token")
	}
}

func messageFor(err error, fallback string) string {
	var um userMessage
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
