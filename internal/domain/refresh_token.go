package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken stores the refresh credential of a user.
//
// Security notes:
// - We never store the raw token in DB, only its SHA-256 hash (TokenHash).
// - UserID is unique: issuing a new token replaces the previous one.
type RefreshToken struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`

	TokenHash string `json:"-" gorm:"size:64;uniqueIndex;not null"`

	CreatedAt time.Time `json:"created_at" gorm:"index;not null"`
}

// IsExpired reports whether now is strictly past CreatedAt+validity.
func (t *RefreshToken) IsExpired(now time.Time, validity time.Duration) bool {
	return now.After(t.CreatedAt.Add(validity))
}
