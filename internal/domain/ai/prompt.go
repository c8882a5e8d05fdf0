package ai

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// PromptType selects between pantry (3 recipes) and single-recipe prompts.
type PromptType string

const (
	PromptPantry PromptType = "pantry"
	PromptSingle PromptType = "single"
)

// ServingSize is the number of diners by group.
type ServingSize struct {
	Adults   int `json:"adults" yaml:"adults" validate:"gte=0,lte=50"`
	Children int `json:"children" yaml:"children" validate:"gte=0,lte=50"`
	Seniors  int `json:"seniors" yaml:"seniors" validate:"gte=0,lte=50"`
}

// DefaultServingSize matches the form's initial state.
func DefaultServingSize() ServingSize {
	return ServingSize{Adults: 2}
}

// Total is the number of diners.
func (s ServingSize) Total() int {
	return s.Adults + s.Children + s.Seniors
}

// Request is a generation request as submitted by a client.
type Request struct {
	PromptType   PromptType  `json:"promptType"`
	Ingredients  []string    `json:"ingredients,omitempty"`
	SinglePrompt string      `json:"singlePrompt,omitempty"`
	ServingSize  ServingSize `json:"servingSize"`
	Restrictions []string    `json:"restrictions,omitempty"`
}

// Validate checks the request before any provider is contacted.
func (r Request) Validate() error {
	switch r.PromptType {
	case PromptPantry:
		if len(NewPantry(r.Ingredients...)) == 0 {
			return ErrNoIngredients
		}
	case PromptSingle:
		if strings.TrimSpace(r.SinglePrompt) == "" {
			return ErrEmptyPrompt
		}
	default:
		return ErrUnknownPromptType
	}
	if r.ServingSize.Adults < 0 || r.ServingSize.Children < 0 || r.ServingSize.Seniors < 0 {
		return ErrNoServings
	}
	if r.ServingSize.Total() == 0 {
		return ErrNoServings
	}
	return nil
}

// Normalize returns a copy with the ingredient list rebuilt as a pantry
// and the prompt trimmed.
func (r Request) Normalize() Request {
	r.Ingredients = NewPantry(r.Ingredients...)
	r.SinglePrompt = strings.TrimSpace(r.SinglePrompt)
	return r
}

// WithRestrictions returns a copy whose restriction list is the union of
// the request's list and extra, keeping first-seen order.
func (r Request) WithRestrictions(extra []string) Request {
	seen := make(map[string]bool, len(r.Restrictions)+len(extra))
	merged := make([]string, 0, len(r.Restrictions)+len(extra))
	for _, list := range [][]string{r.Restrictions, extra} {
		for _, item := range list {
			item = strings.TrimSpace(item)
			if item == "" || seen[item] {
				continue
			}
			seen[item] = true
			merged = append(merged, item)
		}
	}
	r.Restrictions = merged
	return r
}

// Prompt is what gets sent to a provider.
type Prompt struct {
	System string
	User   string
	// Multiple is true when the provider is asked for a JSON array.
	Multiple bool
}

// Fingerprint identifies a prompt for caching and request coalescing.
func (p Prompt) Fingerprint() string {
	sum := sha256.Sum256([]byte(p.System + "\x00" + p.User))
	return hex.EncodeToString(sum[:])
}

const schemaDescription = `Return JSON only. Schema:
{
    "recipeName": "string",
    "description": "string",
    "ingredients": ["string", "string"],
    "instructions": ["string", "string"],
    "cookTime": "string",
    "difficulty": "Easy" | "Medium" | "Hard",
    "servingSize": "string",
    "nutrition": { "calories": "string", "protein": "string", "carbs": "string", "fat": "string" }
}`

// SystemInstruction is shared by every text generation call.
const SystemInstruction = "You are an expert chef. " + schemaDescription

// ServingSentence tells the model how many people to cook for.
func ServingSentence(s ServingSize) string {
	return fmt.Sprintf(
		`This meal should serve %d adult(s), %d child(ren), and %d senior(s). Please adjust ingredient quantities accordingly and consider dietary needs if applicable. The "servingSize" field in the JSON response should be a human-readable string like "2 Adults, 1 Child".`,
		s.Adults, s.Children, s.Seniors,
	)
}

// RestrictionsSentence is empty when there are no restrictions.
func RestrictionsSentence(restrictions []string) string {
	if len(restrictions) == 0 {
		return ""
	}
	return fmt.Sprintf(
		"IMPORTANT DIETARY RESTRICTIONS: The user is allergic to or avoids: %s. DO NOT include these ingredients, derivatives, or items containing them.",
		strings.Join(restrictions, ", "),
	)
}

// BuildPrompt renders the system instruction and user prompt for r. The
// request should have been validated.
func BuildPrompt(r Request) Prompt {
	lines := make([]string, 0, 6)
	multiple := r.PromptType == PromptPantry

	if multiple {
		lines = append(lines,
			"Based on the following ingredients, generate 3 diverse and delicious recipes.",
			fmt.Sprintf("Ingredients: %s.", strings.Join(NewPantry(r.Ingredients...), ", ")),
		)
	} else {
		lines = append(lines, fmt.Sprintf("The user wants a recipe based on this request: \"%s\"", strings.TrimSpace(r.SinglePrompt)))
	}

	lines = append(lines, ServingSentence(r.ServingSize))
	if s := RestrictionsSentence(r.Restrictions); s != "" {
		lines = append(lines, s)
	}

	if multiple {
		lines = append(lines, "Return a JSON Array of recipes.")
	} else {
		lines = append(lines,
			"Generate a single creative and delicious recipe.",
			"Return a single JSON Object of the recipe.",
		)
	}

	return Prompt{
		System:   SystemInstruction,
		User:     strings.Join(lines, "\n"),
		Multiple: multiple,
	}
}
