package api

import (
	"context"
	"net/http"

	"github.com/tair/storefront/internal/domain"
)

type userBody[T any] struct {
	User T `json:"user"`
}

// Login exchanges credentials for a token pair
func (c *Client) Login(ctx context.Context, in domain.SignInInput) (domain.Token, error) {
	var out domain.Token
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/login",
		body:     userBody[domain.SignInInput]{User: in},
		bare:     true,
		resource: "auth",
	}, &out)
	return out, err
}

// SignUp creates an account and returns its token pair
func (c *Client) SignUp(ctx context.Context, in domain.SignUpInput) (domain.Token, error) {
	var out domain.Token
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/signup",
		body:     userBody[domain.SignUpInput]{User: in},
		bare:     true,
		resource: "auth",
	}, &out)
	return out, err
}

// RefreshToken asks for a new token pair. Best effort, never retried.
func (c *Client) RefreshToken(ctx context.Context) (domain.Token, error) {
	var out domain.Token
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/token",
		body:     struct{}{},
		auth:     true,
		bare:     true,
		resource: "auth",
	}, &out)
	return out, err
}

// Logout ends the session on the backend
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/logout",
		auth:     true,
		bare:     true,
		resource: "auth",
	}, nil)
}

// EditProfile updates the signed-in user
func (c *Client) EditProfile(ctx context.Context, in domain.EditProfileInput) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/edit-profile",
		body:     in,
		auth:     true,
		resource: "users",
	}, nil)
}

// ChangePassword replaces the signed-in user's password
func (c *Client) ChangePassword(ctx context.Context, in domain.ChangePasswordInput) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/change-password",
		body:     in,
		auth:     true,
		resource: "users",
	}, nil)
}
