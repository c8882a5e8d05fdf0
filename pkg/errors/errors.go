// Package errors provides structured error handling for the application.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	// Client errors (4xx)
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"

	// Server errors (5xx)
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeDatabaseError      ErrorCode = "DATABASE_ERROR"

	// Business logic errors
	CodeRecipeNotFound       ErrorCode = "RECIPE_NOT_FOUND"
	CodeInvalidCredentials   ErrorCode = "INVALID_CREDENTIALS"
	CodeEmailAlreadyExists   ErrorCode = "EMAIL_ALREADY_EXISTS"
	CodeMissingAPIKey        ErrorCode = "MISSING_API_KEY"
	CodeProviderError        ErrorCode = "PROVIDER_ERROR"
	CodeMalformedResponse    ErrorCode = "MALFORMED_RESPONSE"
	CodeGenerationInProgress ErrorCode = "GENERATION_IN_PROGRESS"
	CodeStaleIndex           ErrorCode = "STALE_INDEX"
)

// UnknownErrorMessage is surfaced for errors that carry no user-facing text.
const UnknownErrorMessage = "An unknown error occurred."

// AppError represents an application error with structured information
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Cause    error                  `json:"-"`
	// Caller is the file:line that built the error.
	Caller string `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// statusByCode maps codes to HTTP statuses. Unlisted codes are 500.
var statusByCode = map[ErrorCode]int{
	CodeBadRequest:           http.StatusBadRequest,
	CodeValidationFailed:     http.StatusBadRequest,
	CodeMissingAPIKey:        http.StatusBadRequest,
	CodeUnauthorized:         http.StatusUnauthorized,
	CodeInvalidCredentials:   http.StatusUnauthorized,
	CodeNotFound:             http.StatusNotFound,
	CodeRecipeNotFound:       http.StatusNotFound,
	CodeConflict:             http.StatusConflict,
	CodeEmailAlreadyExists:   http.StatusConflict,
	CodeGenerationInProgress: http.StatusConflict,
	CodeStaleIndex:           http.StatusConflict,
	CodeTooManyRequests:      http.StatusTooManyRequests,
	CodeProviderError:        http.StatusBadGateway,
	CodeMalformedResponse:    http.StatusBadGateway,
	CodeServiceUnavailable:   http.StatusServiceUnavailable,
}

// StatusCode returns the HTTP status for the error code.
func (e *AppError) StatusCode() int {
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Caller:  caller(),
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewKeyedValidationError reports a domain validation failure whose message
// is a translation key the client renders.
func NewKeyedValidationError(err error) *AppError {
	return NewAppError(CodeValidationFailed, err.Error(), "").WithCause(err)
}

// NewTooManyRequestsError creates a rate limit error
func NewTooManyRequestsError(message string) *AppError {
	if message == "" {
		message = "Too many requests, slow down"
	}
	return NewAppError(CodeTooManyRequests, message, "")
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "Authentication required"
	}
	return NewAppError(CodeUnauthorized, message, "")
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	message := "Resource not found"
	if resource != "" {
		message = fmt.Sprintf("%s not found", resource)
	}
	return NewAppError(CodeNotFound, message, "")
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(CodeConflict, message, "")
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = UnknownErrorMessage
	}
	return NewAppError(CodeInternal, message, "")
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(
		CodeDatabaseError,
		"Database operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewRecipeNotFoundError creates a recipe not found error
func NewRecipeNotFoundError(recipeID string) *AppError {
	return NewAppError(
		CodeRecipeNotFound,
		"Recipe not found",
		fmt.Sprintf("Recipe with ID %s is not in the cookbook", recipeID),
	).WithMetadata("recipe_id", recipeID)
}

// NewInvalidCredentialsError uses the translation key the clients render.
func NewInvalidCredentialsError() *AppError {
	return NewAppError(CodeInvalidCredentials, "auth.errors.invalidCredentials", "")
}

// NewEmailAlreadyExistsError creates an email already exists error
func NewEmailAlreadyExistsError(email string) *AppError {
	return NewAppError(CodeEmailAlreadyExists, "auth.errors.emailExists", "").
		WithMetadata("email", email)
}

// NewMissingAPIKeyError is returned before any vendor call when the selected
// provider has no key configured.
func NewMissingAPIKeyError(provider string) *AppError {
	return NewAppError(
		CodeMissingAPIKey,
		fmt.Sprintf("Please add your %s API key in Profile settings before using AI.", provider),
		"",
	).WithMetadata("provider", provider)
}

// NewProviderError wraps a vendor failure; message is shown to the user as-is.
func NewProviderError(provider, message string, cause error) *AppError {
	return NewAppError(CodeProviderError, message, "").
		WithMetadata("provider", provider).
		WithCause(cause)
}

// NewMalformedResponseError reports vendor output that is not valid recipe JSON.
func NewMalformedResponseError(provider string, cause error) *AppError {
	return NewAppError(
		CodeMalformedResponse,
		fmt.Sprintf("%s returned a response that could not be parsed", provider),
		"",
	).WithMetadata("provider", provider).WithCause(cause)
}

// NewGenerationInProgressError creates a generation in progress error
func NewGenerationInProgressError() *AppError {
	return NewAppError(
		CodeGenerationInProgress,
		"A recipe is already being generated",
		"Wait for the current request to finish",
	)
}

// NewStaleIndexError is returned when a list changed between read and delete.
func NewStaleIndexError(index int, expected, actual string) *AppError {
	return NewAppError(
		CodeStaleIndex,
		"List changed, refresh and try again",
		fmt.Sprintf("index %d holds %q, expected %q", index, actual, expected),
	).WithMetadata("index", index)
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// UserMessage returns the text a client should display for err.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return UnknownErrorMessage
}

// caller returns the first frame outside this package.
func caller() string {
	for skip := 2; skip < 8; skip++ {
		_, file, line, ok := runtime.Caller(skip)
		if !ok {
			break
		}
		if !strings.HasSuffix(file, "pkg/errors/errors.go") {
			return fmt.Sprintf("%s:%d", file, line)
		}
	}
	return ""
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value,omitempty"`
	Tag     string      `json:"tag"`
	Message string      `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Message)
	}

	return strings.Join(messages, "; ")
}

// NewValidationErrors creates validation errors from validator errors
func NewValidationErrors(errs []ValidationError) *AppError {
	validationErrs := ValidationErrors(errs)

	return NewAppError(
		CodeValidationFailed,
		"Validation failed",
		validationErrs.Error(),
	).WithMetadata("validation_errors", validationErrs)
}

// ErrorDetails is the error object of the JSON envelope.
type ErrorDetails struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// Describe renders the error for a client. Server faults other than vendor
// failures keep their details out of the response.
func (e *AppError) Describe(requestID string) ErrorDetails {
	d := ErrorDetails{
		Code:      e.Code,
		Message:   e.Message,
		Details:   e.Details,
		Metadata:  e.Metadata,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if status := e.StatusCode(); status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		d.Details = ""
	}
	return d
}
