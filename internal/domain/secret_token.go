package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tables backing the two kinds of single-use secret tokens.
const (
	MailConfirmationTokensTable = "mail_confirmation_tokens"
	ForgotPasswordTokensTable   = "forgot_password_tokens"
)

// SecretToken is the shared shape of single-use, time-limited tokens. At most
// one row exists per user and kind.
type SecretToken struct {
	Token     uuid.UUID `json:"-" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

// IsExpired reports whether now is strictly past CreatedAt+validity.
func (t *SecretToken) IsExpired(now time.Time, validity time.Duration) bool {
	return now.After(t.CreatedAt.Add(validity))
}

// MailConfirmationToken enables an account created with mail confirmation
// required.
type MailConfirmationToken struct {
	SecretToken
}

func (MailConfirmationToken) TableName() string { return MailConfirmationTokensTable }

// ForgotPasswordToken authorizes a password reset without the old password.
type ForgotPasswordToken struct {
	SecretToken
}

func (ForgotPasswordToken) TableName() string { return ForgotPasswordTokensTable }
