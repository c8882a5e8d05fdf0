// Package security provides session tokens, secret encryption and rate
// limiting.
package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	issuer          = "chefculina"
	audience        = "chefculina-api"
	revokedKeyFmt   = "revoked_token:%s"
	revokedMarker   = "revoked"
	minSecretLength = 16
)

var (
	// ErrInvalidToken covers malformed, expired and wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrTokenRevoked is returned for tokens that were logged out.
	ErrTokenRevoked = errors.New("token has been revoked")
)

// TokenType represents different types of JWT tokens
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims represents JWT claims structure
type Claims struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is an access token with its refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// TokenService signs and validates session tokens. Revocations are kept in
// the cache so they are shared by every instance using the same Redis.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	cache      outbound.CacheRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewTokenService creates a token service from the auth configuration.
func NewTokenService(cfg *config.AuthConfig, cache outbound.CacheRepository, logger *zap.Logger) (*TokenService, error) {
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}

	accessTTL := cfg.JWTExpiration
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	refreshTTL := cfg.RefreshExpiration
	if refreshTTL < accessTTL {
		refreshTTL = accessTTL
	}

	return &TokenService{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		cache:      cache,
		logger:     logger.Named("tokens"),
		now:        time.Now,
	}, nil
}

// Issue creates an access and refresh token for u.
func (s *TokenService) Issue(u user.User) (TokenPair, error) {
	access, expiresAt, err := s.sign(u, AccessToken, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, _, err := s.sign(u, RefreshToken, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

func (s *TokenService) sign(u user.User, tokenType TokenType, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		Email:     u.Email,
		Name:      u.Name,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.Email,
			Audience:  []string{audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, expiresAt, nil
}

// Validate parses tokenString and checks its type and revocation state.
func (s *TokenService) Validate(ctx context.Context, tokenString string, expected TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != expected {
		return nil, fmt.Errorf("%w: expected %s token, got %s", ErrInvalidToken, expected, claims.TokenType)
	}

	revoked, err := s.cache.Exists(ctx, fmt.Sprintf(revokedKeyFmt, claims.ID))
	if err != nil {
		s.logger.Warn("Failed to check token revocation", zap.Error(err))
	} else if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// Revoke blacklists the token until it would have expired anyway.
func (s *TokenService) Revoke(ctx context.Context, claims *Claims) error {
	ttl := s.refreshTTL
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}

	key := fmt.Sprintf(revokedKeyFmt, claims.ID)
	if err := s.cache.Set(ctx, key, []byte(revokedMarker), ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
