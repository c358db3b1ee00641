package command

import (
	"context"
	"fmt"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/likes"
	"github.com/tair/storefront/internal/session"
	"github.com/tair/storefront/internal/validation"
	"github.com/tair/storefront/pkg/logger"
)

// SignInCommand logs in, or signs up when SignUp is set
type SignInCommand struct {
	Login  domain.SignInInput
	SignUp *domain.SignUpInput
}

// SignInHandler handles sign in command
type SignInHandler struct {
	sessions *session.Manager
	loadCart *LoadCartHandler
	likes    *likes.List
}

// NewSignInHandler creates a new sign in handler
func NewSignInHandler(sessions *session.Manager, loadCart *LoadCartHandler, list *likes.List) *SignInHandler {
	return &SignInHandler{sessions: sessions, loadCart: loadCart, likes: list}
}

// Handle executes the sign in command and loads the user's shopping list
// and likes. Failing to load either does not undo the sign in.
func (h *SignInHandler) Handle(ctx context.Context, cmd SignInCommand) (*domain.User, error) {
	var (
		user *domain.User
		err  error
	)
	if cmd.SignUp != nil {
		user, err = h.sessions.SignUp(ctx, *cmd.SignUp)
	} else {
		user, err = h.sessions.Login(ctx, cmd.Login)
	}
	if err != nil {
		return nil, err
	}

	if _, err := h.loadCart.Handle(ctx); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to load shopping list")
	}
	if err := h.likes.Load(ctx); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to load like list")
	}
	return user, nil
}

// EditProfileHandler handles edit profile command
type EditProfileHandler struct {
	profile  ProfileAPI
	sessions *session.Manager
}

// NewEditProfileHandler creates a new edit profile handler
func NewEditProfileHandler(profile ProfileAPI, sessions *session.Manager) *EditProfileHandler {
	return &EditProfileHandler{profile: profile, sessions: sessions}
}

// Handle executes the edit profile command
func (h *EditProfileHandler) Handle(ctx context.Context, in domain.EditProfileInput) (*domain.User, error) {
	user, err := h.sessions.RequireUser()
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := h.profile.EditProfile(ctx, in); err != nil {
		return nil, fmt.Errorf("failed to edit profile: %w", err)
	}

	updated := *user
	updated.Email = in.Email
	updated.Name = in.Name
	updated.Phone = in.Phone
	updated.Address1 = in.Address1
	h.sessions.SetCurrentUser(updated)
	return &updated, nil
}

// ChangePasswordHandler handles change password command
type ChangePasswordHandler struct {
	profile ProfileAPI
	users   CurrentUser
}

// NewChangePasswordHandler creates a new change password handler
func NewChangePasswordHandler(profile ProfileAPI, users CurrentUser) *ChangePasswordHandler {
	return &ChangePasswordHandler{profile: profile, users: users}
}

// Handle executes the change password command
func (h *ChangePasswordHandler) Handle(ctx context.Context, in domain.ChangePasswordInput) error {
	if _, err := h.users.RequireUser(); err != nil {
		return err
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	if err := h.profile.ChangePassword(ctx, in); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}
