// Package mail delivers account emails. Senders are fire-and-forget: a
// failed delivery is logged and never surfaces to the caller.
package mail

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindMailConfirmation Kind = "mail_confirmation"
	KindResetPassword    Kind = "reset_password"
)

// Message is the payload exchanged with the mail worker.
type Message struct {
	Kind      Kind      `json:"kind"`
	Email     string    `json:"email"`
	Token     uuid.UUID `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

type Sender interface {
	SendConfirmationMail(ctx context.Context, email string, token uuid.UUID)
	SendResetPasswordMail(ctx context.Context, email string, token uuid.UUID)
}

// LogSender writes mails to the process log. Used in development and by the
// worker when no SMTP relay is configured.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (LogSender) SendConfirmationMail(_ context.Context, email string, token uuid.UUID) {
	log.Printf("[DEV-EMAIL] kind=%s email=%s token=%s", KindMailConfirmation, email, token)
}

func (LogSender) SendResetPasswordMail(_ context.Context, email string, token uuid.UUID) {
	log.Printf("[DEV-EMAIL] kind=%s email=%s token=%s", KindResetPassword, email, token)
}

// Deliver routes m to the matching method of s.
func Deliver(ctx context.Context, s Sender, m Message) {
	switch m.Kind {
	case KindMailConfirmation:
		s.SendConfirmationMail(ctx, m.Email, m.Token)
	case KindResetPassword:
		s.SendResetPasswordMail(ctx, m.Email, m.Token)
	default:
		log.Printf("mail: unknown kind=%q email=%s", m.Kind, m.Email)
	}
}
