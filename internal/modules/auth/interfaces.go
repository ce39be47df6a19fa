package auth

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"identity/internal/domain"
	"identity/internal/modules/social"
)

// UserRepository is the subset of user storage the auth flows need. DB
// exposes the handle used to open transactions.
type UserRepository interface {
	DB() *gorm.DB
	Create(ctx context.Context, tx *gorm.DB, u *domain.User) error
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*domain.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SetEnabled(ctx context.Context, tx *gorm.DB, id uuid.UUID, enabled bool) error
	UpdatePasswordHash(ctx context.Context, tx *gorm.DB, id uuid.UUID, hash string) error
}

type TokenCodec interface {
	GenerateAccessToken(p domain.Principal) (string, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type SocialVerifier interface {
	Verify(ctx context.Context, method domain.LoginMethod, token string) (*social.Identity, error)
}
