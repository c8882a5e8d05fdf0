package user

import "errors"

// Validation errors carry the translation keys clients render.
var (
	ErrNameEmpty        = errors.New("auth.errors.nameEmpty")
	ErrEmailInvalid     = errors.New("auth.errors.emailInvalid")
	ErrPasswordEmpty    = errors.New("auth.errors.passwordEmpty")
	ErrPasswordShort    = errors.New("auth.errors.passwordShort")
	ErrPasswordMismatch = errors.New("auth.errors.passwordMismatch")

	ErrUnknownSocialProvider = errors.New("auth.errors.socialLogin")
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailExists           = errors.New("auth.errors.emailExists")

	ErrRestrictionIndex = errors.New("restriction index out of range")
)
