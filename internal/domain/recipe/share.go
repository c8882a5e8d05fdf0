package recipe

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// ShareParam is the query parameter carrying a shared recipe.
const ShareParam = "recipe"

// EncodeShare serialises r as base64 (standard alphabet) of its UTF-8 JSON.
func EncodeShare(r Recipe) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeShare reverses EncodeShare. It also accepts the URL-safe alphabet
// and missing padding, since links get mangled by chat clients.
func DecodeShare(token string) (Recipe, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Recipe{}, ErrInvalidShareToken
	}

	var data []byte
	var err error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		if data, err = enc.DecodeString(token); err == nil {
			break
		}
	}
	if err != nil {
		return Recipe{}, fmt.Errorf("%w: %v", ErrInvalidShareToken, err)
	}

	var r Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return Recipe{}, fmt.Errorf("%w: %v", ErrInvalidShareToken, err)
	}
	if r.Name == "" {
		return Recipe{}, ErrInvalidShareToken
	}
	return r, nil
}

// ShareURL appends the encoded recipe to base as ?recipe=.
func ShareURL(base string, r Recipe) (string, error) {
	token, err := EncodeShare(r)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(ShareParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
