package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/tradejournal/internal/models"
)

type detailErr struct{ msg string }

func (e detailErr) Error() string       { return "api: " + e.msg }
func (e detailErr) UserMessage() string { return e.msg }

// fakeAuth issues "tok-<email>" tokens and validates the profile call
// against the token currently in the store.
type fakeAuth struct {
	store      TokenStore
	loginErr   error
	profileErr error
	calls      []string
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (*models.AuthResponse, error) {
	f.calls = append(f.calls, "login")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.AuthResponse{AccessToken: "tok-" + email, TokenType: "bearer"}, nil
}

func (f *fakeAuth) Signup(_ context.Context, name, email, _ string) (*models.AuthResponse, error) {
	f.calls = append(f.calls, "signup")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.AuthResponse{AccessToken: "tok-" + email, TokenType: "bearer"}, nil
}

func (f *fakeAuth) Profile(ctx context.Context) (*models.User, error) {
	f.calls = append(f.calls, "profile")
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	tok, _ := f.store.Get(ctx)
	if tok == "" {
		return nil, errors.New("no token")
	}
	return &models.User{ID: 1, Name: "Test User", Email: tok[len("tok-"):]}, nil
}

func setup() (*Manager, *fakeAuth, *MemoryStore) {
	store := NewMemoryStore()
	fa := &fakeAuth{store: store}
	return NewManager(fa, store), fa, store
}

func TestLoginSuccess(t *testing.T) {
	m, _, store := setup()
	ctx := context.Background()

	var seen []State
	m.OnChange(func(s State, _ *models.User) { seen = append(seen, s) })

	require.NoError(t, m.Login(ctx, "testuser@example.com", "testpass123"))

	assert.True(t, m.IsAuthenticated())
	require.NotNil(t, m.User())
	assert.Equal(t, "testuser@example.com", m.User().Email)
	tok, _ := store.Get(ctx)
	assert.Equal(t, "tok-testuser@example.com", tok)
	assert.Equal(t, []State{Authenticating, Authenticated}, seen)
}

func TestLoginFailureKeepsNoToken(t *testing.T) {
	m, fa, store := setup()
	fa.loginErr = detailErr{"Invalid credentials"}

	err := m.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Invalid credentials", ae.Message)
	assert.ErrorIs(t, err, fa.loginErr)
	assert.Equal(t, Unauthenticated, m.State())
	assert.Nil(t, m.User())
	tok, _ := store.Get(context.Background())
	assert.Empty(t, tok)
}

func TestSignupFailureFallbackMessage(t *testing.T) {
	m, fa, _ := setup()
	fa.loginErr = errors.New("dial tcp: connection refused")

	err := m.Signup(context.Background(), "N", "n@example.com", "pw")
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Failed to create account", ae.Message)
}

func TestSignupServerDetail(t *testing.T) {
	m, fa, _ := setup()
	fa.loginErr = detailErr{"Email already registered"}

	err := m.Signup(context.Background(), "N", "n@example.com", "pw")
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Email already registered", ae.Message)
}

func TestLoginProfileFailureDropsToken(t *testing.T) {
	m, fa, store := setup()
	fa.profileErr = errors.New("boom")

	require.Error(t, m.Login(context.Background(), "a@b.c", "pw"))
	assert.Equal(t, Unauthenticated, m.State())
	tok, _ := store.Get(context.Background())
	assert.Empty(t, tok)
}

func TestStartWithoutToken(t *testing.T) {
	m, fa, _ := setup()
	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, Unauthenticated, m.State())
	assert.Empty(t, fa.calls, "no profile fetch without a token")
}

func TestStartRestoresSession(t *testing.T) {
	m, _, store := setup()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "tok-saved@example.com"))

	require.NoError(t, m.Start(ctx))
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "saved@example.com", m.User().Email)
}

func TestStartWithStaleToken(t *testing.T) {
	m, fa, store := setup()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "tok-old@example.com"))
	fa.profileErr = errors.New("401")

	require.Error(t, m.Start(ctx))
	assert.Equal(t, Unauthenticated, m.State())
	tok, _ := store.Get(ctx)
	assert.Empty(t, tok)
}

func TestLogout(t *testing.T) {
	m, _, store := setup()
	ctx := context.Background()
	require.NoError(t, m.Login(ctx, "a@b.c", "pw"))

	require.NoError(t, m.Logout(ctx))
	assert.Equal(t, Unauthenticated, m.State())
	assert.Nil(t, m.User())
	tok, _ := store.Get(ctx)
	assert.Empty(t, tok)
}

func TestExpire(t *testing.T) {
	m, _, _ := setup()
	ctx := context.Background()

	var expired int
	m.OnChange(func(s State, u *models.User) {
		if s == Unauthenticated {
			expired++
			assert.Nil(t, u)
		}
	})

	m.Expire(ctx)
	assert.Zero(t, expired, "already unauthenticated")

	require.NoError(t, m.Login(ctx, "a@b.c", "pw"))
	m.Expire(ctx)
	assert.Equal(t, 1, expired)
	assert.Nil(t, m.User())
	assert.False(t, m.IsAuthenticated())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unauthenticated", Unauthenticated.String())
	assert.Equal(t, "authenticating", Authenticating.String())
	assert.Equal(t, "authenticated", Authenticated.String())
}
