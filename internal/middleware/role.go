package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"identity/internal/domain"
	"identity/internal/pkg/response"
)

// RequirePrivilege lets the request through when the principal holds any of
// the given privileges.
func RequirePrivilege(privileges ...domain.Privilege) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			response.AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		for _, p := range privileges {
			if principal.HasPrivilege(p) {
				c.Next()
				return
			}
		}

		response.AbortWithError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient privileges")
	}
}

// RequireRole checks the ROLE_ marker of the principal.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			response.AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		if !principal.HasAuthority(domain.RoleAuthorityPrefix + string(role)) {
			response.AbortWithError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
