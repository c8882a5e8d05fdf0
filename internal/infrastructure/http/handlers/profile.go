package handlers

import (
	"net/http"
	"strconv"

	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"github.com/go-chi/chi/v5"
)

// RestrictionRequest adds one dietary restriction.
type RestrictionRequest struct {
	Item string `json:"item" validate:"required,max=100"`
}

// Profile handles GET /api/v1/profile
func (h *APIHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profile.Profile(r.Context(), email(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, profile, "")
}

// Restrictions handles GET /api/v1/profile/restrictions
func (h *APIHandlers) Restrictions(w http.ResponseWriter, r *http.Request) {
	list, err := h.profile.Restrictions(r.Context(), email(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, list, "")
}

// AddRestriction handles POST /api/v1/profile/restrictions
func (h *APIHandlers) AddRestriction(w http.ResponseWriter, r *http.Request) {
	var req RestrictionRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.profile.AddRestriction(r.Context(), email(r), req.Item)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, list, "")
}

// RemoveRestriction handles DELETE /api/v1/profile/restrictions/{index}.
// The optional expect query parameter guards against a shifted list.
func (h *APIHandlers) RemoveRestriction(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.fail(w, r, apperrors.NewBadRequestError("Restriction index must be a number"))
		return
	}

	var expected *string
	if q := r.URL.Query(); q.Has("expect") {
		v := q.Get("expect")
		expected = &v
	}

	list, err := h.profile.RemoveRestriction(r.Context(), email(r), index, expected)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, list, "")
}

// Settings handles GET /api/v1/settings
func (h *APIHandlers) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.profile.Settings(r.Context(), email(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, settings, "")
}

// UpdateSettings handles PUT /api/v1/settings
func (h *APIHandlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.UpdateSettingsCommand
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}

	settings, err := h.profile.UpdateSettings(r.Context(), email(r), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, settings, "Settings saved")
}
