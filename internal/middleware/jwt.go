package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"identity/internal/domain"
	"identity/internal/pkg/response"
)

// PrincipalKey is the gin context key holding the authenticated principal.
const PrincipalKey = "principal"

type TokenParser interface {
	ParseAccessToken(token string) (*domain.Principal, error)
}

// JWTAuth validates the bearer token and stores the principal it carries.
func JWTAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Missing Authorization header")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be: Bearer <token>")
			return
		}

		principal, err := parser.ParseAccessToken(token)
		if err != nil {
			response.FromError(c, err)
			c.Abort()
			return
		}
		if !principal.Enabled {
			response.AbortWithError(c, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is disabled")
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by JWTAuth.
func PrincipalFrom(c *gin.Context) (*domain.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*domain.Principal)
	return p, ok && p != nil
}
