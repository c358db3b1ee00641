package sandbox

import (
	"net/http"

	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/validation"
	"github.com/tair/storefront/pkg/logger"
)

type userRequest[T any] struct {
	User T `json:"user"`
}

// validate turns validation failures into 400 responses
func validate(in interface{}) error {
	if err := validation.Struct(in); err != nil {
		return badRequest(err.Error())
	}
	return nil
}

// SignUp handles POST /signup
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req userRequest[domain.SignUpInput]
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(req.User); err != nil {
		respondError(w, r, err)
		return
	}

	acc, err := h.store.createAccount(req.User)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.Info(r.Context()).
		Str("user_id", acc.user.ID).
		Str("role", string(acc.user.Role)).
		Msg("Account created")
	h.respondToken(w, r, acc.user, acc.csrf)
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req userRequest[domain.SignInInput]
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(req.User); err != nil {
		respondError(w, r, err)
		return
	}

	acc, err := h.store.authenticate(req.User)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondToken(w, r, acc.user, acc.csrf)
}

// RefreshToken handles POST /token
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	_, csrf, _ := h.store.session(user.ID)
	h.respondToken(w, r, *user, csrf)
}

// Logout handles DELETE /logout. The csrf token is rotated so the old token
// pair can no longer mutate anything.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.store.endSession(currentUser(r).ID)
	respondOK(w)
}

// EditProfile handles POST /edit-profile
func (h *Handler) EditProfile(w http.ResponseWriter, r *http.Request) {
	var in domain.EditProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(in); err != nil {
		respondError(w, r, err)
		return
	}

	if _, err := h.store.editProfile(currentUser(r).ID, in); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w)
}

// ChangePassword handles POST /change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in domain.ChangePasswordInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(in); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.store.changePassword(currentUser(r).ID, in); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w)
}

func (h *Handler) respondToken(w http.ResponseWriter, r *http.Request, user domain.User, csrf string) {
	tok, err := h.tokens.issue(user, csrf)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tok)
}
