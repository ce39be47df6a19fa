package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"identity/internal/domain"
)

type SecretTokenRepository interface {
	Replace(ctx context.Context, tx *gorm.DB, t *domain.SecretToken) error
	GetByToken(ctx context.Context, tx *gorm.DB, token uuid.UUID) (*domain.SecretToken, error)
	Delete(ctx context.Context, tx *gorm.DB, token uuid.UUID) error
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SecretTokens manages one kind of single-use token (mail confirmation or
// forgot password). Kinds differ only by repository and validity.
type SecretTokens struct {
	repo     SecretTokenRepository
	validity time.Duration
	now      func() time.Time
}

func NewSecretTokens(repo SecretTokenRepository, validity time.Duration) *SecretTokens {
	return &SecretTokens{
		repo:     repo,
		validity: validity,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create issues a fresh token for userID, dropping any unused one.
func (s *SecretTokens) Create(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (uuid.UUID, error) {
	t := &domain.SecretToken{
		Token:     uuid.New(),
		UserID:    userID,
		CreatedAt: s.now(),
	}
	if err := s.repo.Replace(ctx, tx, t); err != nil {
		return uuid.Nil, err
	}
	return t.Token, nil
}

func (s *SecretTokens) Resolve(ctx context.Context, tx *gorm.DB, token uuid.UUID) (*domain.SecretToken, error) {
	t, err := s.repo.GetByToken(ctx, tx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// IsExpired is strict: a token exactly at the end of its validity is still
// usable.
func (s *SecretTokens) IsExpired(t *domain.SecretToken) bool {
	return t.IsExpired(s.now(), s.validity)
}

// Consume deletes t. Losing a race with another consumer yields ErrNotFound.
func (s *SecretTokens) Consume(ctx context.Context, tx *gorm.DB, t *domain.SecretToken) error {
	err := s.repo.Delete(ctx, tx, t.Token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *SecretTokens) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteCreatedBefore(ctx, s.now().Add(-s.validity))
}

// ParseSecretToken validates the wire form of a secret token.
func ParseSecretToken(raw string) (uuid.UUID, error) {
	token, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ErrInvalidToken.Wrap(err)
	}
	return token, nil
}
