package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/storage"
)

// TokenStore keeps the credential pair in durable storage under
// <app>_TOKEN and <app>_CSRF.
type TokenStore struct {
	kv      storage.Store
	appName string
}

// NewTokenStore creates a token store
func NewTokenStore(kv storage.Store, appName string) *TokenStore {
	return &TokenStore{kv: kv, appName: appName}
}

func (s *TokenStore) tokenKey() string { return s.appName + "_TOKEN" }
func (s *TokenStore) csrfKey() string  { return s.appName + "_CSRF" }

// Get returns the stored pair. Missing keys read as empty strings.
func (s *TokenStore) Get(ctx context.Context) (domain.Token, error) {
	token, err := s.read(ctx, s.tokenKey())
	if err != nil {
		return domain.Token{}, err
	}
	csrf, err := s.read(ctx, s.csrfKey())
	if err != nil {
		return domain.Token{}, err
	}
	return domain.Token{Token: token, CSRF: csrf}, nil
}

// Save overwrites both keys
func (s *TokenStore) Save(ctx context.Context, t domain.Token) error {
	if err := s.kv.Set(ctx, s.tokenKey(), []byte(t.Token)); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := s.kv.Set(ctx, s.csrfKey(), []byte(t.CSRF)); err != nil {
		return fmt.Errorf("failed to save csrf token: %w", err)
	}
	return nil
}

// Destroy removes both keys
func (s *TokenStore) Destroy(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.tokenKey()); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	if err := s.kv.Delete(ctx, s.csrfKey()); err != nil {
		return fmt.Errorf("failed to delete csrf token: %w", err)
	}
	return nil
}

func (s *TokenStore) read(ctx context.Context, key string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(v), nil
}
