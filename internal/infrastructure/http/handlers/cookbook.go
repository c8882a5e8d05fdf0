package handlers

import (
	"net/http"

	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
	"github.com/go-chi/chi/v5"
)

// CookedRequest marks a dish as cooked.
type CookedRequest struct {
	RecipeName string `json:"recipeName" validate:"required,max=200"`
}

// CookedResponse carries the new total.
type CookedResponse struct {
	CookedCount int `json:"cookedCount"`
}

// ListCookbook handles GET /api/v1/cookbook?search=&category=&tag=
func (h *APIHandlers) ListCookbook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.cookbook.List(r.Context(), email(r), recipe.Query{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, entries, "")
}

// SaveRecipe handles PUT /api/v1/cookbook
func (h *APIHandlers) SaveRecipe(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.SaveRecipeCommand
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.cookbook.Save(r.Context(), email(r), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, entry, "Recipe saved")
}

// Facets handles GET /api/v1/cookbook/facets
func (h *APIHandlers) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.cookbook.Facets(r.Context(), email(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, facets, "")
}

// GetRecipe handles GET /api/v1/cookbook/{id}
func (h *APIHandlers) GetRecipe(w http.ResponseWriter, r *http.Request) {
	entry, err := h.cookbook.Get(r.Context(), email(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, entry, "")
}

// DeleteRecipe handles DELETE /api/v1/cookbook/{id}. The id may also be
// the recipe name.
func (h *APIHandlers) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := h.cookbook.Unsave(r.Context(), email(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, nil, "Recipe removed")
}

// MarkCooked handles POST /api/v1/cookbook/cooked
func (h *APIHandlers) MarkCooked(w http.ResponseWriter, r *http.Request) {
	var req CookedRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	total, err := h.cookbook.MarkCooked(r.Context(), email(r), req.RecipeName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, CookedResponse{CookedCount: total}, "")
}
