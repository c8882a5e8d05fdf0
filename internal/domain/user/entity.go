// Package user defines accounts, the guest identity and dietary restrictions.
package user

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Guest identity used for requests without a session.
const (
	GuestName  = "Guest Chef"
	GuestEmail = "guest@chefculina.com"
)

// MinPasswordLength applies to signup only; login checks presence.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// User represents an account. Email is the namespace key for every per-user
// bucket (cookbook, counters, restrictions, settings).
type User struct {
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	Provider     SocialProvider `json:"provider,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Guest returns the shared guest identity.
func Guest() User {
	return User{Name: GuestName, Email: GuestEmail}
}

// IsGuest reports whether u is the guest identity.
func (u User) IsGuest() bool {
	return strings.EqualFold(u.Email, GuestEmail)
}

// NewUser validates a signup and hashes the password.
func NewUser(name, email, password, confirm string) (*User, error) {
	if err := ValidateSignup(name, email, password, confirm); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	return &User{
		Name:         strings.TrimSpace(name),
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CheckPassword verifies if the provided password matches. Social accounts
// have no password and never match.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Rename applies a profile edit. The password hash is kept.
func (u *User) Rename(name, email string) error {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" {
		return ErrNameEmpty
	}
	if !ValidEmail(email) {
		return ErrEmailInvalid
	}
	u.Name = name
	u.Email = email
	u.UpdatedAt = time.Now()
	return nil
}

// ValidEmail applies the loose something@something.tld check.
func ValidEmail(email string) bool {
	return strings.TrimSpace(email) != "" && emailPattern.MatchString(email)
}

// ValidateSignup checks a signup form in the order the client shows errors.
func ValidateSignup(name, email, password, confirm string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameEmpty
	}
	if !ValidEmail(email) {
		return ErrEmailInvalid
	}
	if password == "" {
		return ErrPasswordEmpty
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordShort
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// ValidateLogin checks a login form.
func ValidateLogin(email, password string) error {
	if !ValidEmail(email) {
		return ErrEmailInvalid
	}
	if password == "" {
		return ErrPasswordEmpty
	}
	return nil
}

// SocialProvider names a simulated social sign-in.
type SocialProvider string

const (
	SocialGoogle  SocialProvider = "google"
	SocialApple   SocialProvider = "apple"
	SocialDiscord SocialProvider = "discord"
)

// Valid reports whether p is a supported provider.
func (p SocialProvider) Valid() bool {
	switch p {
	case SocialGoogle, SocialApple, SocialDiscord:
		return true
	}
	return false
}

// EmailDomain is the synthetic domain social accounts are created under.
func (p SocialProvider) EmailDomain() string {
	return "@" + string(p) + ".social"
}

// DisplayName is the capitalised provider name ("Google").
func (p SocialProvider) DisplayName() string {
	if p == "" {
		return ""
	}
	s := string(p)
	return strings.ToUpper(s[:1]) + s[1:]
}

// NewSocialUser builds the account created on first social sign-in. n is a
// random number in [0, 10000).
func NewSocialUser(p SocialProvider, n int) (*User, error) {
	if !p.Valid() {
		return nil, ErrUnknownSocialProvider
	}
	now := time.Now()
	return &User{
		Name:      p.DisplayName() + " User",
		Email:     fmt.Sprintf("user.%d%s", n, p.EmailDomain()),
		Provider:  p,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
