// Package social verifies third-party identity tokens and resolves them to
// an email address.
package social

import (
	"context"
	"fmt"
	"strings"

	"identity/internal/domain"
	"identity/internal/pkg/apperr"
)

var errLoginFailed = apperr.New(apperr.CategoryBadGateway, "SOCIAL_LOGIN_FAILED", "identity provider rejected the login")

// Identity is what a provider vouches for.
type Identity struct {
	Email string
	Name  string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Error reports a provider failure. Code is the provider-specific reason.
type Error struct {
	Provider domain.LoginMethod
	Code     string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s login failed (%s): %v", e.Provider, e.Code, e.Err)
	}
	return fmt.Sprintf("%s login failed (%s)", e.Provider, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// As exposes provider failures as coded application errors.
func (e *Error) As(target any) bool {
	t, ok := target.(**apperr.Error)
	if !ok {
		return false
	}
	*t = errLoginFailed.WithMessage(fmt.Sprintf("%s login failed: %s", strings.ToLower(string(e.Provider)), e.Code))
	return true
}

// Registry dispatches by login method.
type Registry struct {
	verifiers map[domain.LoginMethod]Verifier
}

func NewRegistry() *Registry {
	return &Registry{verifiers: map[domain.LoginMethod]Verifier{}}
}

func (r *Registry) Register(method domain.LoginMethod, v Verifier) {
	r.verifiers[method] = v
}

func (r *Registry) Verify(ctx context.Context, method domain.LoginMethod, token string) (*Identity, error) {
	v, ok := r.verifiers[method]
	if !ok {
		return nil, &Error{Provider: method, Code: "provider_not_configured"}
	}
	identity, err := v.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	identity.Email = domain.NormalizeEmail(identity.Email)
	if identity.Email == "" {
		return nil, &Error{Provider: method, Code: "email_missing"}
	}
	return identity, nil
}
