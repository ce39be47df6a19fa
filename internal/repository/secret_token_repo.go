package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"identity/internal/domain"
)

// SecretTokenRepository stores one kind of single-use token. Both kinds
// share the same row shape and differ only by table.
type SecretTokenRepository struct {
	db    *gorm.DB
	table string
}

func NewMailConfirmationTokenRepository(db *gorm.DB) *SecretTokenRepository {
	return &SecretTokenRepository{db: db, table: domain.MailConfirmationTokensTable}
}

func NewForgotPasswordTokenRepository(db *gorm.DB) *SecretTokenRepository {
	return &SecretTokenRepository{db: db, table: domain.ForgotPasswordTokensTable}
}

func (r *SecretTokenRepository) Table() string {
	return r.table
}

// Replace stores t as the user's only token of this kind in a single
// statement, overwriting any unused one.
func (r *SecretTokenRepository) Replace(ctx context.Context, tx *gorm.DB, t *domain.SecretToken) error {
	err := conn(r.db, ctx, tx).Table(r.table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "created_at"}),
	}).Create(t).Error
	return translateError(err)
}

func (r *SecretTokenRepository) GetByToken(ctx context.Context, tx *gorm.DB, token uuid.UUID) (*domain.SecretToken, error) {
	var t domain.SecretToken
	err := conn(r.db, ctx, tx).Table(r.table).Where("token = ?", token).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes the token row. A row already gone yields
// gorm.ErrRecordNotFound so concurrent consumers cannot both succeed.
func (r *SecretTokenRepository) Delete(ctx context.Context, tx *gorm.DB, token uuid.UUID) error {
	res := conn(r.db, ctx, tx).Table(r.table).Where("token = ?", token).Delete(&domain.SecretToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *SecretTokenRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Table(r.table).
		Where("created_at < ?", cutoff).
		Delete(&domain.SecretToken{})
	return res.RowsAffected, res.Error
}
