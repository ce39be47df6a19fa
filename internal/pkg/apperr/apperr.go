// Package apperr carries machine-readable error codes across layers so the
// HTTP boundary can branch on category and code instead of message text.
package apperr

import (
	"errors"
	"net/http"
)

type Category string

const (
	CategoryBadRequest      Category = "bad_request"
	CategoryUnauthorized    Category = "unauthorized"
	CategoryForbidden       Category = "forbidden"
	CategoryNotFound        Category = "not_found"
	CategoryConflict        Category = "conflict"
	CategoryTooManyRequests Category = "too_many_requests"
	CategoryBadGateway      Category = "bad_gateway"
	CategoryInternal        Category = "internal"
)

// Error is a coded failure. Two errors match under errors.Is when their codes
// are equal, so wrapped copies of a sentinel still match it.
type Error struct {
	Category Category
	Code     string
	Message  string
	Err      error
}

func New(category Category, code, message string) *Error {
	return &Error{Category: category, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	clone := *e
	clone.Err = err
	return &clone
}

// WithMessage returns a copy of e with a different human message.
func (e *Error) WithMessage(message string) *Error {
	clone := *e
	clone.Message = message
	return &clone
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func (c Category) HTTPStatus() int {
	switch c {
	case CategoryBadRequest:
		return http.StatusBadRequest
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryForbidden:
		return http.StatusForbidden
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryConflict:
		return http.StatusConflict
	case CategoryTooManyRequests:
		return http.StatusTooManyRequests
	case CategoryBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
