package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/http/response"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"go.uber.org/zap"
)

type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "access_token"
)

// Authenticator resolves access tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*user.User, error)
}

// Authenticate puts the caller in the request context. Requests without a
// bearer token run as the guest; a token that fails validation is
// rejected so the client can refresh it.
func Authenticate(auth Authenticator, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present, ok := bearerToken(r)
			if !present {
				guest := user.Guest()
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), &guest)))
				return
			}
			if !ok {
				response.Error(w, r, logger, apperrors.NewUnauthorizedError("Invalid authorization header format"))
				return
			}

			u, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				response.Error(w, r, logger, err)
				return
			}

			ctx := WithUser(r.Context(), u)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken returns the token, whether an Authorization header was sent
// and whether it was well formed.
func bearerToken(r *http.Request) (string, bool, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", true, false
	}
	return strings.TrimSpace(parts[1]), true, true
}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, or the guest when the
// middleware did not run.
func UserFromContext(ctx context.Context) *user.User {
	if u, ok := ctx.Value(userKey).(*user.User); ok && u != nil {
		return u
	}
	guest := user.Guest()
	return &guest
}

// EmailFromContext extracts the caller's email from the request context
func EmailFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(userKey).(*user.User)
	if !ok || u == nil {
		return "", false
	}
	return u.Email, true
}

// AccessTokenFromContext returns the bearer token of an authenticated request.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}
