package handlers

import (
	"net/http"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/http/middleware"
	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
)

// ImageRequest asks for a photo of a dish.
type ImageRequest struct {
	RecipeName  string `json:"recipeName" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// ImageResponse carries the photo URL; it is empty when none was produced.
type ImageResponse struct {
	ImageURL string `json:"imageUrl"`
}

// AnalyzeRequest carries a photo as a data URL.
type AnalyzeRequest struct {
	Image string `json:"image" validate:"required"`
}

// AnalyzeResponse describes the ingredients found in a photo.
type AnalyzeResponse struct {
	Description string `json:"description"`
}

// InspirationResponse lists the one-tap prompts and a random surprise.
type InspirationResponse struct {
	Categories []ai.Inspiration `json:"categories"`
	Surprise   string           `json:"surprise"`
}

// GenerateRecipes handles POST /api/v1/recipes/generate
func (h *APIHandlers) GenerateRecipes(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.GenerateCommand
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}

	cmd.Client = middleware.ClientKey(r)

	result, err := h.generation.GenerateRecipes(r.Context(), email(r), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, result, "")
}

// GenerateImage handles POST /api/v1/recipes/image. A failed generation is
// not an error; the client shows a placeholder.
func (h *APIHandlers) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	url := h.generation.GenerateImage(r.Context(), email(r), req.RecipeName, req.Description)
	h.ok(w, ImageResponse{ImageURL: url}, "")
}

// AnalyzeIngredients handles POST /api/v1/ingredients/analyze
func (h *APIHandlers) AnalyzeIngredients(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	text, err := h.generation.AnalyzeImage(r.Context(), email(r), req.Image)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, AnalyzeResponse{Description: text}, "")
}

// Inspiration handles GET /api/v1/inspiration
func (h *APIHandlers) Inspiration(w http.ResponseWriter, r *http.Request) {
	h.rndMu.Lock()
	surprise := ai.SurprisePrompt(h.rnd)
	h.rndMu.Unlock()

	h.ok(w, InspirationResponse{Categories: ai.Inspirations, Surprise: surprise}, "")
}
