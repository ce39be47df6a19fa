package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Principal is the authenticated identity snapshot carried inside access
// tokens. Handlers receive it explicitly from the auth middleware.
type Principal struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Authorities []string  `json:"authorities"`
	Enabled     bool      `json:"enabled"`
}

func (p *Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

func (p *Principal) HasPrivilege(privilege Privilege) bool {
	return p.HasAuthority(string(privilege))
}

// Role extracts the role from the ROLE_ marker, if any.
func (p *Principal) Role() (Role, bool) {
	for _, a := range p.Authorities {
		if strings.HasPrefix(a, RoleAuthorityPrefix) {
			return ParseRole(a)
		}
	}
	return "", false
}
