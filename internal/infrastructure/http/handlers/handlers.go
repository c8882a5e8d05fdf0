// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/http/middleware"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/http/response"
	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Services groups the use cases the handlers call.
type Services struct {
	Auth       inbound.AuthService
	Profile    inbound.ProfileService
	Cookbook   inbound.CookbookService
	Generation inbound.GenerationService
}

// APIHandlers handles REST API requests
type APIHandlers struct {
	auth       inbound.AuthService
	profile    inbound.ProfileService
	cookbook   inbound.CookbookService
	generation inbound.GenerationService
	validate   *validator.Validate
	publicURL  string
	logger     *zap.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewAPIHandlers creates a new API handlers instance. publicURL is the base
// of share links.
func NewAPIHandlers(services Services, publicURL string, logger *zap.Logger) *APIHandlers {
	return &APIHandlers{
		auth:       services.Auth,
		profile:    services.Profile,
		cookbook:   services.Cookbook,
		generation: services.Generation,
		validate:   validator.New(),
		publicURL:  publicURL,
		logger:     logger.Named("api"),
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// decode reads a JSON body into dst and runs struct validation.
func (h *APIHandlers) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperrors.NewBadRequestError("Request body is required")
		case errors.As(err, &maxErr):
			return apperrors.NewBadRequestError("Request body too large")
		default:
			return apperrors.NewBadRequestError("Invalid JSON payload").WithCause(err)
		}
	}

	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return apperrors.NewValidationError(err.Error())
		}
		out := make([]apperrors.ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, apperrors.ValidationError{
				Field:   fe.Namespace(),
				Tag:     fe.Tag(),
				Message: fe.Error(),
			})
		}
		return apperrors.NewValidationErrors(out)
	}
	return nil
}

func (h *APIHandlers) ok(w http.ResponseWriter, data interface{}, message string) {
	response.OK(w, h.logger, http.StatusOK, data, message)
}

func (h *APIHandlers) created(w http.ResponseWriter, data interface{}, message string) {
	response.OK(w, h.logger, http.StatusCreated, data, message)
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	response.Error(w, r, h.logger, err)
}

// email is the caller's namespace key; the guest when unauthenticated.
func email(r *http.Request) string {
	return middleware.UserFromContext(r.Context()).Email
}
