package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/persistence/memory"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/security"
	"github.com/Aethermaxx/ChefCulina/internal/ports/inbound"
	apperrors "github.com/Aethermaxx/ChefCulina/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type AuthServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	cache   *memory.CacheRepository
	users   *fakeUsers
	metrics *countingMetrics
	service *AuthService
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.cache = memory.NewCacheRepository(time.Hour)
	s.users = newFakeUsers()
	s.metrics = &countingMetrics{}

	tokens, err := security.NewTokenService(&config.AuthConfig{
		JWTSecret:         "test-secret-key-for-testing-only-32-bytes",
		JWTExpiration:     time.Hour,
		RefreshExpiration: 24 * time.Hour,
	}, s.cache, zaptest.NewLogger(s.T()))
	s.Require().NoError(err)

	s.service = NewAuthService(s.users, tokens, s.metrics, zaptest.NewLogger(s.T()))
}

func (s *AuthServiceTestSuite) TearDownTest() {
	_ = s.cache.Close()
}

func (s *AuthServiceTestSuite) signup(name, email string) *inbound.Session {
	session, err := s.service.Signup(s.ctx, inbound.SignupCommand{
		Name: name, Email: email, Password: "secret1", ConfirmPassword: "secret1",
	})
	s.Require().NoError(err)
	return session
}

func (s *AuthServiceTestSuite) TestSignupAndLogin() {
	session := s.signup("Ada", "Ada@Example.com")
	s.Equal("Ada", session.User.Name)
	s.NotEmpty(session.AccessToken)
	s.NotEmpty(session.RefreshToken)
	s.Equal(1, s.metrics.registered)

	login, err := s.service.Login(s.ctx, inbound.LoginCommand{Email: "ada@example.com", Password: "secret1"})
	s.Require().NoError(err)
	s.Equal("Ada@Example.com", login.User.Email)

	u, err := s.service.Authenticate(s.ctx, login.AccessToken)
	s.Require().NoError(err)
	s.Equal("Ada", u.Name)
}

func (s *AuthServiceTestSuite) TestSignupValidation() {
	cases := []struct {
		name string
		cmd  inbound.SignupCommand
		key  error
	}{
		{"empty name", inbound.SignupCommand{Email: "a@b.co", Password: "secret1", ConfirmPassword: "secret1"}, user.ErrNameEmpty},
		{"bad email", inbound.SignupCommand{Name: "A", Email: "nope", Password: "secret1", ConfirmPassword: "secret1"}, user.ErrEmailInvalid},
		{"short password", inbound.SignupCommand{Name: "A", Email: "a@b.co", Password: "abc", ConfirmPassword: "abc"}, user.ErrPasswordShort},
		{"mismatch", inbound.SignupCommand{Name: "A", Email: "a@b.co", Password: "secret1", ConfirmPassword: "secret2"}, user.ErrPasswordMismatch},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Signup(s.ctx, tc.cmd)
			s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
			s.Equal(tc.key.Error(), apperrors.UserMessage(err))
		})
	}
}

func (s *AuthServiceTestSuite) TestSignupDuplicateEmail() {
	s.signup("Ada", "ada@example.com")

	_, err := s.service.Signup(s.ctx, inbound.SignupCommand{
		Name: "Other", Email: "ADA@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	s.True(apperrors.Is(err, apperrors.CodeEmailAlreadyExists))
	s.Equal(1, s.metrics.registered)
}

func (s *AuthServiceTestSuite) TestLoginInvalidCredentials() {
	s.signup("Ada", "ada@example.com")

	_, err := s.service.Login(s.ctx, inbound.LoginCommand{Email: "ada@example.com", Password: "wrong-one"})
	s.True(apperrors.Is(err, apperrors.CodeInvalidCredentials))

	_, err = s.service.Login(s.ctx, inbound.LoginCommand{Email: "nobody@example.com", Password: "secret1"})
	s.True(apperrors.Is(err, apperrors.CodeInvalidCredentials))

	_, err = s.service.Login(s.ctx, inbound.LoginCommand{Email: "ada@example.com"})
	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
}

func (s *AuthServiceTestSuite) TestSocialLoginReusesFirstAccount() {
	first, err := s.service.SocialLogin(s.ctx, user.SocialGoogle)
	s.Require().NoError(err)
	s.Equal("Google User", first.User.Name)
	s.True(strings.HasPrefix(first.User.Email, "user."))
	s.True(strings.HasSuffix(first.User.Email, "@google.social"))

	again, err := s.service.SocialLogin(s.ctx, user.SocialGoogle)
	s.Require().NoError(err)
	s.Equal(first.User.Email, again.User.Email)

	discord, err := s.service.SocialLogin(s.ctx, user.SocialDiscord)
	s.Require().NoError(err)
	s.True(strings.HasSuffix(discord.User.Email, "@discord.social"))

	_, err = s.service.SocialLogin(s.ctx, user.SocialProvider("myspace"))
	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
}

// collidingUsers rejects every new account as a duplicate.
type collidingUsers struct {
	*fakeUsers
	creates int
}

func (c *collidingUsers) Create(context.Context, *user.User) error {
	c.creates++
	return user.ErrEmailExists
}

func (s *AuthServiceTestSuite) TestSocialLoginGivesUpAfterCollisions() {
	users := &collidingUsers{fakeUsers: newFakeUsers()}
	service := NewAuthService(users, s.service.tokens, s.metrics, zaptest.NewLogger(s.T()))

	_, err := service.SocialLogin(s.ctx, user.SocialApple)

	s.True(apperrors.Is(err, apperrors.CodeConflict))
	s.False(apperrors.Is(err, apperrors.CodeValidationFailed))
	s.Equal(socialAttempts, users.creates)
	s.Zero(s.metrics.registered)
}

func (s *AuthServiceTestSuite) TestRefreshIsSingleUse() {
	session := s.signup("Ada", "ada@example.com")

	next, err := s.service.Refresh(s.ctx, session.RefreshToken)
	s.Require().NoError(err)
	s.NotEmpty(next.AccessToken)

	_, err = s.service.Refresh(s.ctx, session.RefreshToken)
	s.True(apperrors.Is(err, apperrors.CodeUnauthorized))

	_, err = s.service.Refresh(s.ctx, session.AccessToken)
	s.True(apperrors.Is(err, apperrors.CodeUnauthorized))
}

func (s *AuthServiceTestSuite) TestLogoutRevokesAccessToken() {
	session := s.signup("Ada", "ada@example.com")

	s.Require().NoError(s.service.Logout(s.ctx, session.AccessToken))

	_, err := s.service.Authenticate(s.ctx, session.AccessToken)
	s.True(apperrors.Is(err, apperrors.CodeUnauthorized))

	s.NoError(s.service.Logout(s.ctx, session.AccessToken))
	s.NoError(s.service.Logout(s.ctx, "garbage"))
}

func (s *AuthServiceTestSuite) TestCurrentUser() {
	guest, err := s.service.CurrentUser(s.ctx, user.GuestEmail)
	s.Require().NoError(err)
	s.True(guest.IsGuest())
	s.Equal(user.GuestName, guest.Name)

	_, err = s.service.CurrentUser(s.ctx, "missing@example.com")
	s.True(apperrors.Is(err, apperrors.CodeNotFound))
}

func (s *AuthServiceTestSuite) TestUpdateUser() {
	s.signup("Ada", "ada@example.com")
	s.signup("Bob", "bob@example.com")

	session, err := s.service.UpdateUser(s.ctx, "ada@example.com", inbound.UpdateUserCommand{Name: "Ada L", Email: "lovelace@example.com"})
	s.Require().NoError(err)
	s.Equal("lovelace@example.com", session.User.Email)

	u, err := s.service.Authenticate(s.ctx, session.AccessToken)
	s.Require().NoError(err)
	s.Equal("Ada L", u.Name)

	login, err := s.service.Login(s.ctx, inbound.LoginCommand{Email: "lovelace@example.com", Password: "secret1"})
	s.Require().NoError(err)
	s.Equal("Ada L", login.User.Name)

	_, err = s.service.UpdateUser(s.ctx, "lovelace@example.com", inbound.UpdateUserCommand{Name: "Ada", Email: "bob@example.com"})
	s.True(apperrors.Is(err, apperrors.CodeEmailAlreadyExists))

	_, err = s.service.UpdateUser(s.ctx, "lovelace@example.com", inbound.UpdateUserCommand{Name: " ", Email: "x@example.com"})
	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
}

func (s *AuthServiceTestSuite) TestGuestCannotUpdate() {
	_, err := s.service.UpdateUser(s.ctx, user.GuestEmail, inbound.UpdateUserCommand{Name: "Me", Email: "me@example.com"})
	s.True(apperrors.Is(err, apperrors.CodeUnauthorized))
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
