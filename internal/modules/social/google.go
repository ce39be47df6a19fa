package social

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	jwtlib "github.com/golang-jwt/jwt/v5"

	"identity/internal/domain"
)

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwtlib.RegisteredClaims
}

// GoogleVerifier checks Google ID tokens offline against Google's JWKS.
type GoogleVerifier struct {
	clientID string
	keys     jwtlib.Keyfunc
}

func NewGoogleVerifier(clientID string, keys jwtlib.Keyfunc) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, keys: keys}
}

// FetchGoogleKeys loads the JWKS and keeps it refreshed in the background
// until ctx is done.
func FetchGoogleKeys(ctx context.Context, jwksURL string) (*keyfunc.JWKS, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx: ctx,
		RefreshErrorHandler: func(err error) {
			log.Printf("social: google jwks refresh failed: %v", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch google jwks: %w", err)
	}
	return jwks, nil
}

func (v *GoogleVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	claims := &googleClaims{}
	_, err := jwtlib.ParseWithClaims(token, claims, v.keys,
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodRS256.Alg()}),
		jwtlib.WithAudience(v.clientID),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, &Error{Provider: domain.LoginMethodGoogle, Code: googleErrorCode(err), Err: err}
	}
	if !googleIssuers[claims.Issuer] {
		return nil, &Error{Provider: domain.LoginMethodGoogle, Code: "issuer_mismatch"}
	}
	if !claims.EmailVerified {
		return nil, &Error{Provider: domain.LoginMethodGoogle, Code: "email_unverified"}
	}

	return &Identity{Email: claims.Email, Name: claims.Name}, nil
}

func googleErrorCode(err error) string {
	switch {
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, jwtlib.ErrTokenInvalidAudience):
		return "audience_mismatch"
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return "signature_invalid"
	default:
		return "token_invalid"
	}
}
