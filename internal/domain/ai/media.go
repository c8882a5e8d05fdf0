package ai

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// ImagePrompt describes the food photograph requested for a recipe.
func ImagePrompt(recipeName, description string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A vibrant, appetizing, professional food photograph of \"%s\".", recipeName)
	if description != "" {
		fmt.Fprintf(&b, " It is described as: \"%s\"", description)
	}
	b.WriteString("\nThe image should be well-lit, with a shallow depth of field, plated beautifully on a clean, modern dish.")
	b.WriteString("\nFocus on textures and colors to make it look delicious. Minimalistic background.")
	return b.String()
}

// AnalyzePrompt asks a vision model to list the ingredients in a photo.
const AnalyzePrompt = "Identify the food ingredients in this picture. List them clearly. If it's not food, describe what you see."

// NoDescription is returned when a vision model answers with no text.
const NoDescription = "No description available."

var dataURLPattern = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

// InlineImage is an image carried inside a request.
type InlineImage struct {
	MimeType string
	// Data is the base64 payload, exactly as received.
	Data string
}

// ParseDataURL splits a data:<mime>;base64,<payload> URL.
func ParseDataURL(s string) (InlineImage, error) {
	m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(s))
	if len(m) != 3 {
		return InlineImage{}, ErrInvalidImageFormat
	}
	if _, err := base64.StdEncoding.DecodeString(m[2]); err != nil {
		return InlineImage{}, ErrInvalidImageFormat
	}
	return InlineImage{MimeType: m[1], Data: m[2]}, nil
}

// DataURL renders raw image bytes as a data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
