package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type LoginMethod string

const (
	LoginMethodPassword LoginMethod = "PASSWORD"
	LoginMethodGoogle   LoginMethod = "GOOGLE"
	LoginMethodFacebook LoginMethod = "FACEBOOK"
)

func (m LoginMethod) IsValid() bool {
	switch m {
	case LoginMethodPassword, LoginMethodGoogle, LoginMethodFacebook:
		return true
	default:
		return false
	}
}

// IsSocial reports whether the method delegates credential checks to an
// external identity provider.
func (m LoginMethod) IsSocial() bool {
	return m == LoginMethodGoogle || m == LoginMethodFacebook
}

// User is an account managed by the identity service.
//
// Password users always carry a hash; social users never do. Accounts are
// deactivated through Enabled and are never deleted.
type User struct {
	ID           uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string      `json:"email" gorm:"size:320;uniqueIndex;not null"`
	Name         string      `json:"name" gorm:"size:255"`
	PasswordHash *string     `json:"-" gorm:"column:password_hash"`
	LoginMethod  LoginMethod `json:"login_method" gorm:"size:16;not null"`
	Role         Role        `json:"role" gorm:"size:16;not null"`
	Enabled      bool        `json:"enabled" gorm:"not null"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewPasswordUser builds a USER-role account that signs in with a password.
func NewPasswordUser(email, name, passwordHash string, enabled bool, now time.Time) *User {
	hash := passwordHash
	return &User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: &hash,
		LoginMethod:  LoginMethodPassword,
		Role:         RoleUser,
		Enabled:      enabled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewSocialUser builds an enabled USER-role account backed by an identity
// provider. The provider already proved ownership of the email.
func NewSocialUser(email, name string, method LoginMethod, now time.Time) *User {
	return &User{
		ID:          uuid.New(),
		Email:       NormalizeEmail(email),
		Name:        strings.TrimSpace(name),
		LoginMethod: method,
		Role:        RoleUser,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Principal returns the authorization snapshot embedded in access tokens.
func (u *User) Principal() Principal {
	return Principal{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Authorities: Authorities(u.Role),
		Enabled:     u.Enabled,
	}
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
