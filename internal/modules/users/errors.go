package users

import "identity/internal/pkg/apperr"

var (
	ErrUserNotFound     = apperr.New(apperr.CategoryNotFound, "USER_NOT_FOUND", "user not found")
	ErrInvalidRole      = apperr.New(apperr.CategoryBadRequest, "INVALID_ROLE", "unknown role")
	ErrInvalidUserID    = apperr.New(apperr.CategoryBadRequest, "INVALID_USER_ID", "user id must be a UUID")
	ErrSelfModification = apperr.New(apperr.CategoryConflict, "SELF_MODIFICATION", "administrators cannot change their own role or status")
	ErrForbidden        = apperr.New(apperr.CategoryForbidden, "FORBIDDEN", "Access denied: insufficient privileges")
)
