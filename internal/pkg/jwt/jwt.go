package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"identity/internal/domain"
	"identity/internal/pkg/apperr"
)

var (
	ErrTokenInvalid = apperr.New(apperr.CategoryUnauthorized, "TOKEN_INVALID", "token is invalid")
	ErrTokenExpired = apperr.New(apperr.CategoryBadRequest, "TOKEN_EXPIRED", "token has expired")
)

// Service signs and parses access tokens. It is immutable after New and safe
// for concurrent use.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Claims carries the registered claims plus the serialized principal.
type Claims struct {
	Principal string `json:"principal"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of s reading time from now.
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) GenerateAccessToken(p domain.Principal) (string, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode principal: %w", err)
	}

	now := s.now()
	claims := Claims{
		Principal: string(payload),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   p.ID.String(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) ParseAccessToken(tokenStr string) (*domain.Principal, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrTokenExpired.Wrap(err)
		}
		return nil, ErrTokenInvalid.Wrap(err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Principal == "" {
		return nil, ErrTokenInvalid.WithMessage("token carries no principal")
	}

	var p domain.Principal
	if err := json.Unmarshal([]byte(claims.Principal), &p); err != nil {
		return nil, ErrTokenInvalid.Wrap(err)
	}
	if p.ID.String() != claims.Subject {
		return nil, ErrTokenInvalid.WithMessage("token subject does not match principal")
	}

	return &p, nil
}
