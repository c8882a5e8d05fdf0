// Package user provides the application layer for accounts, sessions and
// the per-user profile.
package user

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/security"
	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"go.uber.org/zap"
)

// socialAttempts bounds retries when a generated social email collides.
const socialAttempts = 5

// TokenIssuer signs, validates and revokes session tokens.
type TokenIssuer interface {
	Issue(u user.User) (security.TokenPair, error)
	Validate(ctx context.Context, token string, expected security.TokenType) (*security.Claims, error)
	Revoke(ctx context.Context, claims *security.Claims) error
}

// Metrics receives account measurements.
type Metrics interface {
	UserRegistered()
}

// AuthService implements inbound.AuthService
type AuthService struct {
	users   outbound.UserRepository
	tokens  TokenIssuer
	metrics Metrics
	logger  *zap.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

var _ inbound.AuthService = (*AuthService)(nil)

// NewAuthService creates a new auth service. metrics may be nil.
func NewAuthService(
	users outbound.UserRepository,
	tokens TokenIssuer,
	metrics Metrics,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		metrics: metrics,
		logger:  logger.Named("auth-service"),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Signup creates an account and signs it in.
func (s *AuthService) Signup(ctx context.Context, cmd inbound.SignupCommand) (*inbound.Session, error) {
	u, err := user.NewUser(cmd.Name, cmd.Email, cmd.Password, cmd.ConfirmPassword)
	if err != nil {
		return nil, validationError(err)
	}

	if err := s.create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("email", u.Email))
	return s.session(u)
}

// Login checks credentials. Emails match case-insensitively.
func (s *AuthService) Login(ctx context.Context, cmd inbound.LoginCommand) (*inbound.Session, error) {
	if err := user.ValidateLogin(cmd.Email, cmd.Password); err != nil {
		return nil, validationError(err)
	}

	u, err := s.users.FindByEmail(ctx, cmd.Email)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, apperrors.NewInvalidCredentialsError()
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("find user", err)
	}

	if !u.CheckPassword(cmd.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("email", cmd.Email))
		return nil, apperrors.NewInvalidCredentialsError()
	}

	return s.session(u)
}

// SocialLogin simulates a social sign-in: the first account under the
// provider's domain is reused, otherwise a new one is created.
func (s *AuthService) SocialLogin(ctx context.Context, provider user.SocialProvider) (*inbound.Session, error) {
	if !provider.Valid() {
		return nil, apperrors.NewKeyedValidationError(user.ErrUnknownSocialProvider)
	}

	u, err := s.users.FindFirstByEmailSuffix(ctx, provider.EmailDomain())
	if err == nil {
		return s.session(u)
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return nil, apperrors.NewDatabaseError("find social user", err)
	}

	for attempt := 0; attempt < socialAttempts; attempt++ {
		u, err = user.NewSocialUser(provider, s.randomSuffix())
		if err != nil {
			return nil, apperrors.NewKeyedValidationError(err)
		}
		err = s.create(ctx, u)
		if apperrors.Is(err, apperrors.CodeEmailAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("Social account created", zap.String("provider", string(provider)), zap.String("email", u.Email))
		return s.session(u)
	}
	s.logger.Warn("Social account suffixes exhausted", zap.String("provider", string(provider)))
	return nil, apperrors.NewConflictError("Could not allocate a social account, please try again")
}

// Refresh trades a refresh token for a new session. The old refresh token
// is revoked so it can be used once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*inbound.Session, error) {
	claims, err := s.tokens.Validate(ctx, refreshToken, security.RefreshToken)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Session expired, please sign in again")
	}

	u, err := s.users.FindByEmail(ctx, claims.Email)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, apperrors.NewUnauthorizedError("Session expired, please sign in again")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("find user", err)
	}

	if err := s.tokens.Revoke(ctx, claims); err != nil {
		s.logger.Warn("Failed to revoke refresh token", zap.Error(err))
	}
	return s.session(u)
}

// Logout revokes the access token. Invalid or already revoked tokens are
// not an error.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.Validate(ctx, accessToken, security.AccessToken)
	if err != nil {
		return nil
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return apperrors.Wrap(err, "logout failed")
	}
	s.logger.Info("User logged out", zap.String("email", claims.Email))
	return nil
}

// Authenticate implements inbound.AuthService
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*user.User, error) {
	claims, err := s.tokens.Validate(ctx, accessToken, security.AccessToken)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid or expired session")
	}

	u, err := s.users.FindByEmail(ctx, claims.Email)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, apperrors.NewUnauthorizedError("Invalid or expired session")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("find user", err)
	}
	return u, nil
}

// CurrentUser returns the account for email, or the guest.
func (s *AuthService) CurrentUser(ctx context.Context, email string) (*user.User, error) {
	return findUser(ctx, s.users, email)
}

// UpdateUser edits name and email. Changing the email moves every
// per-user row, so the session is reissued for the new address.
func (s *AuthService) UpdateUser(ctx context.Context, email string, cmd inbound.UpdateUserCommand) (*inbound.Session, error) {
	if email == "" || email == user.GuestEmail {
		return nil, apperrors.NewUnauthorizedError("")
	}

	u, err := findUser(ctx, s.users, email)
	if err != nil {
		return nil, err
	}
	previous := u.Email

	if err := u.Rename(cmd.Name, cmd.Email); err != nil {
		return nil, validationError(err)
	}

	err = s.users.Update(ctx, previous, u)
	switch {
	case errors.Is(err, user.ErrEmailExists):
		return nil, apperrors.NewEmailAlreadyExistsError(u.Email)
	case errors.Is(err, user.ErrUserNotFound):
		return nil, apperrors.NewNotFoundError("User")
	case err != nil:
		return nil, apperrors.NewDatabaseError("update user", err)
	}

	s.logger.Info("User updated", zap.String("previous_email", previous), zap.String("email", u.Email))
	return s.session(u)
}

func (s *AuthService) create(ctx context.Context, u *user.User) error {
	err := s.users.Create(ctx, u)
	if errors.Is(err, user.ErrEmailExists) {
		return apperrors.NewEmailAlreadyExistsError(u.Email)
	}
	if err != nil {
		return apperrors.NewDatabaseError("create user", err)
	}
	if s.metrics != nil {
		s.metrics.UserRegistered()
	}
	return nil
}

func (s *AuthService) session(u *user.User) (*inbound.Session, error) {
	pair, err := s.tokens.Issue(*u)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to issue session")
	}
	return &inbound.Session{
		User:         *u,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}, nil
}

func (s *AuthService) randomSuffix() int {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.rnd.Intn(10000)
}

// findUser resolves email to an account; the guest email resolves to the
// shared guest identity.
func findUser(ctx context.Context, users outbound.UserRepository, email string) (*user.User, error) {
	if email == "" || email == user.GuestEmail {
		guest := user.Guest()
		return &guest, nil
	}

	u, err := users.FindByEmail(ctx, email)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, apperrors.NewNotFoundError("User")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("find user", err)
	}
	return u, nil
}

// validationError maps domain validation sentinels to keyed errors.
func validationError(err error) error {
	switch {
	case errors.Is(err, user.ErrNameEmpty),
		errors.Is(err, user.ErrEmailInvalid),
		errors.Is(err, user.ErrPasswordEmpty),
		errors.Is(err, user.ErrPasswordShort),
		errors.Is(err, user.ErrPasswordMismatch):
		return apperrors.NewKeyedValidationError(err)
	}
	return apperrors.Wrap(err, "validation failed")
}
