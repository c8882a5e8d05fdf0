package handlers

import (
	"errors"
	"net/http"

	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
)

// ShareRequest wraps the recipe to share.
type ShareRequest struct {
	Recipe recipe.Recipe `json:"recipe"`
}

// ShareResponse is a share token and the link carrying it.
type ShareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// CreateShare handles POST /api/v1/share
func (h *APIHandlers) CreateShare(w http.ResponseWriter, r *http.Request) {
	var req ShareRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Recipe.Name == "" {
		h.fail(w, r, apperrors.NewKeyedValidationError(recipe.ErrNameRequired))
		return
	}

	token, err := recipe.EncodeShare(req.Recipe)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	link, err := recipe.ShareURL(h.publicURL, req.Recipe)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, ShareResponse{Token: token, URL: link}, "")
}

// OpenShare handles GET /api/v1/share?recipe=
func (h *APIHandlers) OpenShare(w http.ResponseWriter, r *http.Request) {
	rec, err := recipe.DecodeShare(r.URL.Query().Get(recipe.ShareParam))
	if errors.Is(err, recipe.ErrInvalidShareToken) {
		h.fail(w, r, apperrors.NewBadRequestError("Invalid share link").WithCause(err))
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, rec, "")
}
