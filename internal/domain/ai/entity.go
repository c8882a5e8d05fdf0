// Package ai defines recipe generation requests, prompts and provider settings.
package ai

import (
	"strings"
)

// Provider identifies an LLM vendor.
type Provider string

const (
	ProviderGemini   Provider = "gemini"
	ProviderOpenAI   Provider = "openai"
	ProviderDeepSeek Provider = "deepseek"
)

// DefaultProvider is used when nothing (or something unknown) is selected.
const DefaultProvider = ProviderGemini

// Providers lists the supported vendors in display order.
var Providers = []Provider{ProviderGemini, ProviderOpenAI, ProviderDeepSeek}

// ParseProvider maps a stored value to a provider, falling back to the
// default for blank or unknown values.
func ParseProvider(s string) Provider {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if p.Valid() {
		return p
	}
	return DefaultProvider
}

// Valid reports whether p is supported.
func (p Provider) Valid() bool {
	switch p {
	case ProviderGemini, ProviderOpenAI, ProviderDeepSeek:
		return true
	}
	return false
}

// DisplayName is the vendor name used in user-facing messages.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderDeepSeek:
		return "DeepSeek"
	default:
		return "Gemini"
	}
}

// Languages supported by the clients, in menu order.
var Languages = []string{
	"English", "Spanish", "French", "German", "Hindi",
	"Bengali", "Tamil", "Telugu", "Marathi", "Kannada",
}

// DefaultLanguage is used when no valid language is stored.
const DefaultLanguage = "English"

// ValidLanguage reports whether lang is in Languages.
func ValidLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Settings are a user's provider choice, keys and language. APIKeys holds
// plaintext only in memory; repositories store them encrypted.
type Settings struct {
	Provider Provider            `json:"provider"`
	APIKeys  map[Provider]string `json:"apiKeys"`
	Language string              `json:"language"`
}

// DefaultSettings returns settings for a user who never saved any.
func DefaultSettings() Settings {
	return Settings{
		Provider: DefaultProvider,
		APIKeys:  map[Provider]string{},
		Language: DefaultLanguage,
	}
}

// Normalize replaces unknown values with defaults and drops blank keys.
func (s Settings) Normalize() Settings {
	out := Settings{
		Provider: ParseProvider(string(s.Provider)),
		APIKeys:  make(map[Provider]string, len(s.APIKeys)),
		Language: s.Language,
	}
	if !ValidLanguage(out.Language) {
		out.Language = DefaultLanguage
	}
	for p, k := range s.APIKeys {
		if k = strings.TrimSpace(k); k != "" && p.Valid() {
			out.APIKeys[p] = k
		}
	}
	return out
}

// KeyFor returns the stored key for p, or "" when none.
func (s Settings) KeyFor(p Provider) string {
	if s.APIKeys == nil {
		return ""
	}
	return s.APIKeys[p]
}

// Masked returns a copy safe to send to clients: keys keep only their last
// four characters.
func (s Settings) Masked() Settings {
	out := s
	out.APIKeys = make(map[Provider]string, len(s.APIKeys))
	for p, k := range s.APIKeys {
		out.APIKeys[p] = MaskKey(k)
	}
	return out
}

// MaskKey hides all but the last four characters of key.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
