package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestError_ServerFaultLogsOrigin(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := httptest.NewRecorder()

	Error(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cookbook", nil), zap.New(core),
		apperrors.NewDatabaseError("load cookbook", errors.New("disk full")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	entries := logs.FilterMessage("Request failed").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["origin"], "response_test.go:")

	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, apperrors.CodeDatabaseError, body.Error.Code)
	assert.Empty(t, body.Error.Details)
}

func TestError_ClientFaultOmitsOrigin(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := httptest.NewRecorder()

	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), zap.New(core), apperrors.NewBadRequestError("bad"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	entries := logs.FilterMessage("Request rejected").All()
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].ContextMap(), "origin")
}

func TestError_PlainErrorIsUnknown(t *testing.T) {
	rec := httptest.NewRecorder()

	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), zap.NewNop(), errors.New("boom"))

	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperrors.UnknownErrorMessage, body.Message)
	assert.Equal(t, apperrors.CodeInternal, body.Error.Code)
}
