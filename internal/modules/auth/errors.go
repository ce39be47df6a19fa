package auth

import (
	"identity/internal/pkg/apperr"
	"identity/internal/pkg/jwt"
)

var (
	ErrBadCredentials     = apperr.New(apperr.CategoryUnauthorized, "AUTH_BAD_CREDENTIALS", "Invalid email or password")
	ErrInvalidLoginMethod = apperr.New(apperr.CategoryBadRequest, "AUTH_INVALID_LOGIN_METHOD", "Account uses a different login method")
	ErrMissingCredentials = apperr.New(apperr.CategoryBadRequest, "VALIDATION_ERROR", "Credentials are required for this login method")
	ErrAccountDisabled    = apperr.New(apperr.CategoryForbidden, "ACCOUNT_DISABLED", "Account is disabled")
	ErrAccountEnabled     = apperr.New(apperr.CategoryConflict, "ACCOUNT_ALREADY_ENABLED", "Account is already confirmed")
	ErrEmailAlreadyExists = apperr.New(apperr.CategoryConflict, "EMAIL_EXISTS", "This email is already registered")
	ErrUserNotFound       = apperr.New(apperr.CategoryNotFound, "USER_NOT_FOUND", "User not found")

	// Access and refresh tokens share the codec's codes.
	ErrTokenInvalid = jwt.ErrTokenInvalid
	ErrTokenExpired = jwt.ErrTokenExpired

	// Mail confirmation and forgot password tokens.
	ErrInvalidToken = apperr.New(apperr.CategoryBadRequest, "SECRET_TOKEN_INVALID", "Token is malformed")
	ErrExpiredToken = apperr.New(apperr.CategoryBadRequest, "SECRET_TOKEN_EXPIRED", "Token has expired, request a new one")
	ErrNotFound     = apperr.New(apperr.CategoryNotFound, "NOT_FOUND", "Token not found")
)
