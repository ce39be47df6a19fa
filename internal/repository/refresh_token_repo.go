package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"identity/internal/domain"
)

// RefreshTokenRepository provides DB access for refresh tokens.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Upsert stores t as the only refresh token of t.UserID, replacing any
// previous one.
func (r *RefreshTokenRepository) Upsert(ctx context.Context, tx *gorm.DB, t *domain.RefreshToken) error {
	err := conn(r.db, ctx, tx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_hash", "created_at"}),
	}).Create(t).Error
	return translateError(err)
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *RefreshTokenRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *RefreshTokenRepository) DeleteByHash(ctx context.Context, hash string) error {
	return r.db.WithContext(ctx).
		Where("token_hash = ?", hash).
		Delete(&domain.RefreshToken{}).Error
}

// DeleteByUser is a no-op when the user holds no token.
func (r *RefreshTokenRepository) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return conn(r.db, ctx, tx).
		Where("user_id = ?", userID).
		Delete(&domain.RefreshToken{}).Error
}

func (r *RefreshTokenRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}
