// Package response writes the JSON envelope every API endpoint returns.
package response

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool                    `json:"success"`
	Data    interface{}             `json:"data,omitempty"`
	Error   *apperrors.ErrorDetails `json:"error,omitempty"`
	Message string                  `json:"message,omitempty"`
}

// JSON writes a JSON response
func JSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// OK writes a successful envelope around data.
func OK(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}, message string) {
	JSON(w, logger, status, APIResponse{Success: true, Data: data, Message: message})
}

// Error maps err to its status code and writes the error envelope. Errors
// that are not AppErrors surface as the generic unknown error.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr := apperrors.Wrap(err, apperrors.UnknownErrorMessage)
	status := appErr.StatusCode()
	requestID := chimiddleware.GetReqID(r.Context())

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("code", string(appErr.Code)),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		if appErr.Caller != "" {
			fields = append(fields, zap.String("origin", appErr.Caller))
		}
		logger.Error("Request failed", fields...)
	} else {
		logger.Debug("Request rejected", fields...)
	}

	details := appErr.Describe(requestID)
	JSON(w, logger, status, APIResponse{Success: false, Error: &details, Message: details.Message})
}
