package sandbox

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/session"
	"github.com/tair/storefront/pkg/logger"
)

type contextKey string

const userContextKey contextKey = "user"

// tokenIssuer signs and verifies HS256 access tokens
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (t *tokenIssuer) issue(user domain.User, csrf string) (domain.Token, error) {
	now := t.now()
	claims := session.Claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return domain.Token{}, err
	}
	return domain.Token{Token: signed, CSRF: csrf}, nil
}

func (t *tokenIssuer) verify(raw string) (*session.Claims, error) {
	claims := &session.Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	if claims.User.ID == "" {
		return nil, errors.New("token has no user")
	}
	return claims, nil
}

// identify resolves the bearer token of r, if any, to a user
func (h *Handler) identify(r *http.Request) (domain.User, string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return domain.User{}, "", nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return domain.User{}, "", unauthorized("invalid authorization header format")
	}

	claims, err := h.tokens.verify(parts[1])
	if err != nil {
		return domain.User{}, "", unauthorized("invalid or expired token")
	}

	user, csrf, ok := h.store.session(claims.User.ID)
	if !ok {
		return domain.User{}, "", unauthorized("user no longer exists")
	}
	return user, csrf, nil
}

// authenticated rejects requests without a valid token. Mutating requests
// must also echo the csrf token issued with it.
func (h *Handler) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, csrf, err := h.identify(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if user.ID == "" {
			respondError(w, r, unauthorized("missing authorization header"))
			return
		}
		if r.Method != http.MethodGet && r.Header.Get(api.HeaderCSRF) != csrf {
			logger.Warn(r.Context()).
				Str("user_id", user.ID).
				Str("path", r.URL.Path).
				Msg("CSRF token mismatch")
			respondError(w, r, forbidden("invalid csrf token"))
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// providerOnly additionally requires a provider account
func (h *Handler) providerOnly(next http.HandlerFunc) http.HandlerFunc {
	return h.authenticated(func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if !user.IsProvider() {
			respondError(w, r, forbidden("provider account required"))
			return
		}
		next(w, r)
	})
}

// optionalUser identifies the caller on public routes. A bad token is
// treated as anonymous.
func (h *Handler) optionalUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _, err := h.identify(r)
		if err == nil && user.ID != "" {
			r = r.WithContext(context.WithValue(r.Context(), userContextKey, user))
		}
		next(w, r)
	}
}

// currentUser returns the authenticated user, or nil on anonymous requests
func currentUser(r *http.Request) *domain.User {
	user, ok := r.Context().Value(userContextKey).(domain.User)
	if !ok {
		return nil
	}
	return &user
}
