package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"identity/internal/domain"
)

type RefreshTokenRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, t *domain.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	DeleteByHash(ctx context.Context, hash string) error
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RefreshStore keeps at most one opaque refresh token per user. Only a
// peppered SHA-256 of the raw value is persisted.
type RefreshStore struct {
	repo     RefreshTokenRepository
	pepper   string
	validity time.Duration
	now      func() time.Time
}

func NewRefreshStore(repo RefreshTokenRepository, pepper string, validity time.Duration) *RefreshStore {
	return &RefreshStore{
		repo:     repo,
		pepper:   pepper,
		validity: validity,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Issue replaces the user's refresh token and returns the new raw value.
func (s *RefreshStore) Issue(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	raw := hex.EncodeToString(buf)

	err := s.repo.Upsert(ctx, tx, &domain.RefreshToken{
		UserID:    userID,
		TokenHash: s.hash(raw),
		CreatedAt: s.now(),
	})
	if err != nil {
		return "", err
	}
	return raw, nil
}

// Resolve returns the owner of raw. An expired token is deleted before
// ErrTokenExpired is returned.
func (s *RefreshStore) Resolve(ctx context.Context, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, ErrTokenInvalid
	}
	hash := s.hash(raw)

	t, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrTokenInvalid
		}
		return uuid.Nil, err
	}

	if t.IsExpired(s.now(), s.validity) {
		if err := s.repo.DeleteByHash(ctx, hash); err != nil {
			return uuid.Nil, err
		}
		return uuid.Nil, ErrTokenExpired
	}

	return t.UserID, nil
}

// Revoke is idempotent.
func (s *RefreshStore) Revoke(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return s.repo.DeleteByUser(ctx, tx, userID)
}

func (s *RefreshStore) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteCreatedBefore(ctx, s.now().Add(-s.validity))
}

func (s *RefreshStore) hash(raw string) string {
	sum := sha256.Sum256([]byte(raw + s.pepper))
	return hex.EncodeToString(sum[:])
}
