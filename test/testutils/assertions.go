// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors the API response body.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    apperrors.ErrorCode `json:"code"`
		Message string              `json:"message"`
		Details string              `json:"details"`
	} `json:"error"`
}

// AssertAppError asserts that err is an AppError with code.
func AssertAppError(t testing.TB, err error, code apperrors.ErrorCode, msgAndArgs ...interface{}) bool {
	t.Helper()
	if !assert.Error(t, err, msgAndArgs...) {
		return false
	}
	return assert.Equal(t, code, apperrors.GetCode(err), msgAndArgs...)
}

// DecodeEnvelope parses a recorded API response.
func DecodeEnvelope(t testing.TB, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

// DecodeData parses the data field of a successful response into v.
func DecodeData(t testing.TB, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	env := DecodeEnvelope(t, rec)
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

// AssertErrorResponse asserts the status and error code of a failed response.
func AssertErrorResponse(t testing.TB, rec *httptest.ResponseRecorder, status int, code apperrors.ErrorCode) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	env := DecodeEnvelope(t, rec)
	assert.False(t, env.Success)
	if assert.NotNil(t, env.Error, rec.Body.String()) {
		assert.Equal(t, code, env.Error.Code)
	}
}
