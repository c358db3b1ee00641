package session

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/state"
	"github.com/tair/storefront/internal/storage"
	"github.com/tair/storefront/internal/validation"
)

const appName = "STOREFRONT"

func signedToken(t *testing.T, user domain.User) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{User: user}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

type fakeAuth struct {
	token     domain.Token
	err       error
	logoutErr error
	logins    int
	logouts   int
}

func (f *fakeAuth) Login(context.Context, domain.SignInInput) (domain.Token, error) {
	f.logins++
	return f.token, f.err
}

func (f *fakeAuth) SignUp(context.Context, domain.SignUpInput) (domain.Token, error) {
	return f.token, f.err
}

func (f *fakeAuth) RefreshToken(context.Context) (domain.Token, error) {
	return f.token, f.err
}

func (f *fakeAuth) Logout(context.Context) error {
	f.logouts++
	return f.logoutErr
}

func setup(t *testing.T, remote *fakeAuth) (*Manager, *TokenStore, storage.Store, *state.App) {
	t.Helper()
	kv := storage.NewMemoryStore()
	tokens := NewTokenStore(kv, appName)
	app := state.NewApp()
	return NewManager(tokens, remote, app), tokens, kv, app
}

func TestTokenStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	s := NewTokenStore(kv, appName)

	tok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, tok.Empty())

	require.NoError(t, s.Save(ctx, domain.Token{Token: "t", CSRF: "c"}))
	raw, err := kv.Get(ctx, "STOREFRONT_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "t", string(raw))
	raw, err = kv.Get(ctx, "STOREFRONT_CSRF")
	require.NoError(t, err)
	assert.Equal(t, "c", string(raw))

	tok, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Token{Token: "t", CSRF: "c"}, tok)

	require.NoError(t, s.Destroy(ctx))
	tok, err = s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, tok.Empty())
}

func TestDecodeUser(t *testing.T) {
	user := domain.User{Entity: domain.Entity{ID: "u-1"}, Email: "a@b.c", Role: domain.RoleConsumer}

	got, err := DecodeUser(signedToken(t, user))
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, "a@b.c", got.Email)

	_, err = DecodeUser("not-a-jwt")
	assert.ErrorIs(t, err, ErrUndecodableToken)

	_, err = DecodeUser(signedToken(t, domain.User{}))
	assert.ErrorIs(t, err, ErrUndecodableToken)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token signs in", func(t *testing.T) {
		m, tokens, _, app := setup(t, &fakeAuth{})
		tok := signedToken(t, domain.User{Entity: domain.Entity{ID: "u-1"}})
		require.NoError(t, tokens.Save(ctx, domain.Token{Token: tok, CSRF: "c"}))

		auth, err := m.Restore(ctx)
		require.NoError(t, err)
		assert.True(t, auth.Authenticated())
		assert.Equal(t, "u-1", app.Auth().Get().UserID())
	})

	t.Run("undecodable token is destroyed", func(t *testing.T) {
		m, tokens, kv, app := setup(t, &fakeAuth{})
		require.NoError(t, tokens.Save(ctx, domain.Token{Token: "garbage", CSRF: "c"}))

		auth, err := m.Restore(ctx)
		require.NoError(t, err)
		assert.False(t, auth.Authenticated())
		assert.False(t, app.Auth().Get().Authenticated())

		ok, err := kv.Exists(ctx, "STOREFRONT_TOKEN")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no token stays signed out", func(t *testing.T) {
		m, _, _, _ := setup(t, &fakeAuth{})
		auth, err := m.Restore(ctx)
		require.NoError(t, err)
		assert.False(t, auth.Authenticated())
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	tok := signedToken(t, domain.User{Entity: domain.Entity{ID: "u-9"}, Name: "Kim"})
	remote := &fakeAuth{token: domain.Token{Token: tok, CSRF: "csrf"}}
	m, tokens, _, _ := setup(t, remote)

	user, err := m.Login(ctx, domain.SignInInput{Email: "kim@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Kim", user.Name)

	stored, err := tokens.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "csrf", stored.CSRF)

	current, err := m.RequireUser()
	require.NoError(t, err)
	assert.Equal(t, "u-9", current.ID)
}

func TestLogin_ValidationNeverReachesBackend(t *testing.T) {
	remote := &fakeAuth{}
	m, _, _, _ := setup(t, remote)

	_, err := m.Login(context.Background(), domain.SignInInput{Email: "nope"})
	assert.True(t, validation.IsValidationError(err))
	assert.Zero(t, remote.logins)
}

func TestLogin_FailureKeepsSignedOut(t *testing.T) {
	remote := &fakeAuth{err: errors.New("bad credentials")}
	m, _, _, _ := setup(t, remote)

	_, err := m.Login(context.Background(), domain.SignInInput{Email: "kim@example.com", Password: "x"})
	assert.Error(t, err)

	_, err = m.RequireUser()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLogout_ClearsEverythingEvenIfBackendFails(t *testing.T) {
	ctx := context.Background()
	tok := signedToken(t, domain.User{Entity: domain.Entity{ID: "u-1"}})
	remote := &fakeAuth{token: domain.Token{Token: tok, CSRF: "c"}, logoutErr: errors.New("offline")}
	m, tokens, _, app := setup(t, remote)

	_, err := m.Login(ctx, domain.SignInInput{Email: "kim@example.com", Password: "x"})
	require.NoError(t, err)
	app.LikesCell().Set(domain.LikeList{Items: []domain.Item{{Entity: domain.Entity{ID: "i"}}}})

	require.NoError(t, m.Logout(ctx))
	assert.Equal(t, 1, remote.logouts)
	assert.False(t, app.Auth().Get().Authenticated())
	assert.Empty(t, app.Likes().Get().Items)

	stored, err := tokens.Get(ctx)
	require.NoError(t, err)
	assert.True(t, stored.Empty())
}

func TestRefresh_FailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	tok := signedToken(t, domain.User{Entity: domain.Entity{ID: "u-1"}})
	remote := &fakeAuth{token: domain.Token{Token: tok, CSRF: "c"}}
	m, _, _, _ := setup(t, remote)

	assert.ErrorIs(t, m.Refresh(ctx), ErrNotAuthenticated)

	_, err := m.Login(ctx, domain.SignInInput{Email: "kim@example.com", Password: "x"})
	require.NoError(t, err)

	remote.err = errors.New("expired")
	assert.Error(t, m.Refresh(ctx))
	assert.True(t, m.Current().Authenticated())
}
