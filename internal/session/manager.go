// Package session owns sign-in state: the durable token pair and the Auth
// cell of the application state.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/state"
	"github.com/tair/storefront/internal/validation"
	"github.com/tair/storefront/pkg/logger"
)

// ErrNotAuthenticated is returned by operations that need a signed-in user
var ErrNotAuthenticated = errors.New("not signed in")

// Authenticator is the backend side of a session
type Authenticator interface {
	Login(ctx context.Context, in domain.SignInInput) (domain.Token, error)
	SignUp(ctx context.Context, in domain.SignUpInput) (domain.Token, error)
	RefreshToken(ctx context.Context) (domain.Token, error)
	Logout(ctx context.Context) error
}

// Manager signs users in and out
type Manager struct {
	tokens *TokenStore
	remote Authenticator
	app    *state.App
	auth   *state.Cell[state.Auth]
	mu     sync.Mutex
}

// NewManager creates a session manager writing to app's Auth cell
func NewManager(tokens *TokenStore, remote Authenticator, app *state.App) *Manager {
	return &Manager{
		tokens: tokens,
		remote: remote,
		app:    app,
		auth:   app.AuthCell(),
	}
}

// Restore loads the stored token pair. A token that cannot be decoded is
// destroyed and the session stays signed out.
func (m *Manager) Restore(ctx context.Context) (state.Auth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, err := m.tokens.Get(ctx)
	if err != nil {
		return state.Auth{}, err
	}
	if tok.Empty() {
		m.auth.Set(state.Auth{})
		return state.Auth{}, nil
	}

	user, err := DecodeUser(tok.Token)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Stored token unusable, signing out")
		if derr := m.tokens.Destroy(ctx); derr != nil {
			return state.Auth{}, derr
		}
		m.auth.Set(state.Auth{})
		return state.Auth{}, nil
	}

	auth := state.Auth{Token: tok.Token, CSRF: tok.CSRF, CurrentUser: user}
	m.auth.Set(auth)
	logger.Debug(ctx).Str("user_id", user.ID).Msg("Session restored")
	return auth, nil
}

// Login validates the form, signs in and stores the token pair
func (m *Manager) Login(ctx context.Context, in domain.SignInInput) (*domain.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return m.authenticate(ctx, func() (domain.Token, error) {
		return m.remote.Login(ctx, in)
	})
}

// SignUp validates the form, creates the account and signs in
func (m *Manager) SignUp(ctx context.Context, in domain.SignUpInput) (*domain.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return m.authenticate(ctx, func() (domain.Token, error) {
		return m.remote.SignUp(ctx, in)
	})
}

func (m *Manager) authenticate(ctx context.Context, call func() (domain.Token, error)) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, err := call()
	if err != nil {
		return nil, err
	}
	user, err := DecodeUser(tok.Token)
	if err != nil {
		return nil, fmt.Errorf("backend issued an unusable token: %w", err)
	}
	if err := m.tokens.Save(ctx, tok); err != nil {
		return nil, err
	}

	m.auth.Set(state.Auth{Token: tok.Token, CSRF: tok.CSRF, CurrentUser: user})
	logger.Info(ctx).Str("user_id", user.ID).Msg("Signed in")
	return user, nil
}

// Logout tells the backend, ignoring its answer, then forgets the token
// pair and clears every state cell.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.remote.Logout(ctx); err != nil {
		logger.Warn(ctx).Err(err).Msg("Backend logout failed")
	}
	err := m.tokens.Destroy(ctx)
	m.app.Clear()
	return err
}

// Refresh asks the backend for a fresh pair. Failures leave the current
// session untouched.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.auth.Get().Authenticated() {
		return ErrNotAuthenticated
	}
	tok, err := m.remote.RefreshToken(ctx)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Token refresh failed")
		return err
	}
	user, err := DecodeUser(tok.Token)
	if err != nil {
		return err
	}
	if err := m.tokens.Save(ctx, tok); err != nil {
		return err
	}
	m.auth.Set(state.Auth{Token: tok.Token, CSRF: tok.CSRF, CurrentUser: user})
	return nil
}

// Current returns the Auth cell value
func (m *Manager) Current() state.Auth {
	return m.auth.Get()
}

// RequireUser returns the signed-in user or ErrNotAuthenticated
func (m *Manager) RequireUser() (*domain.User, error) {
	auth := m.auth.Get()
	if !auth.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	return auth.CurrentUser, nil
}

// SetCurrentUser replaces the cached user after a profile edit
func (m *Manager) SetCurrentUser(user domain.User) {
	m.auth.Update(func(a state.Auth) state.Auth {
		if a.Authenticated() {
			a.CurrentUser = &user
		}
		return a
	})
}
