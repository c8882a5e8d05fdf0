package handlers

import (
	"net/http"

	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/http/middleware"
	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
	"github.com/go-chi/chi/v5"
)

// RefreshRequest trades a refresh token for a new session.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Signup handles POST /api/v1/auth/signup
func (h *APIHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.SignupCommand
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.auth.Signup(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, session, "Account created")
}

// Login handles POST /api/v1/auth/login
func (h *APIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.LoginCommand
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.auth.Login(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, session, "Login successful")
}

// SocialLogin handles POST /api/v1/auth/social/{provider}
func (h *APIHandlers) SocialLogin(w http.ResponseWriter, r *http.Request) {
	provider := user.SocialProvider(chi.URLParam(r, "provider"))

	session, err := h.auth.SocialLogin(r.Context(), provider)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, session, "Login successful")
}

// Refresh handles POST /api/v1/auth/refresh
func (h *APIHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, session, "Token refreshed successfully")
}

// Logout handles POST /api/v1/auth/logout. The guest has nothing to revoke.
func (h *APIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.AccessTokenFromContext(r.Context()); ok {
		if err := h.auth.Logout(r.Context(), token); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	h.ok(w, nil, "Logout successful")
}

// Me handles GET /api/v1/auth/me
func (h *APIHandlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.CurrentUser(r.Context(), email(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, u, "")
}

// UpdateMe handles PUT /api/v1/auth/me
func (h *APIHandlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.UpdateUserCommand
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.auth.UpdateUser(r.Context(), email(r), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, session, "Profile updated successfully")
}
