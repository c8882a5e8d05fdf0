package recipe

import (
	"encoding/base64"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareRoundTrip(t *testing.T) {
	r := Recipe{
		Name:         "Crème Brûlée",
		Description:  "Custard with a glassy top",
		Ingredients:  []string{"4 egg yolks", "2 cups cream"},
		Instructions: []string{"Bake", "Torch"},
		CookTime:     "1 hour",
		Difficulty:   DifficultyMedium,
		ServingSize:  "4 Adults",
		Nutrition:    &Nutrition{Calories: "400", Protein: "5g", Carbs: "30g", Fat: "28g"},
	}

	token, err := EncodeShare(r)
	require.NoError(t, err)

	got, err := DecodeShare(token)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestDecodeShare_AcceptsURLSafeUnpadded(t *testing.T) {
	token := base64.RawURLEncoding.EncodeToString([]byte(`{"recipeName":"Tacos?>"}`))

	got, err := DecodeShare(token)
	require.NoError(t, err)
	assert.Equal(t, "Tacos?>", got.Name)
}

func TestDecodeShare_Invalid(t *testing.T) {
	for _, token := range []string{"", "!!!", base64.StdEncoding.EncodeToString([]byte("not json")), base64.StdEncoding.EncodeToString([]byte(`{}`))} {
		_, err := DecodeShare(token)
		assert.ErrorIs(t, err, ErrInvalidShareToken, token)
	}
}

func TestShareURL(t *testing.T) {
	link, err := ShareURL("https://chefculina.example/app?lang=en", Recipe{Name: "Pho"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://chefculina.example/app?"))

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "en", u.Query().Get("lang"))

	got, err := DecodeShare(u.Query().Get(ShareParam))
	require.NoError(t, err)
	assert.Equal(t, "Pho", got.Name)
}
