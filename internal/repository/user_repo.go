package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"identity/internal/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) DB() *gorm.DB {
	return r.db
}

// Create inserts u. A taken email yields ErrDuplicateKey.
func (r *UserRepository) Create(ctx context.Context, tx *gorm.DB, u *domain.User) error {
	u.Email = domain.NormalizeEmail(u.Email)
	return translateError(conn(r.db, ctx, tx).Create(u).Error)
}

func (r *UserRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := conn(r.db, ctx, tx).
		Where("email = ?", domain.NormalizeEmail(email)).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := conn(r.db, ctx, tx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ?", domain.NormalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

// List returns users ordered by creation time, newest first.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	var (
		users []domain.User
		total int64
	)
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, total, err
}

func (r *UserRepository) SetEnabled(ctx context.Context, tx *gorm.DB, id uuid.UUID, enabled bool) error {
	return r.updateColumns(ctx, tx, id, map[string]any{"enabled": enabled})
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, tx *gorm.DB, id uuid.UUID, hash string) error {
	return r.updateColumns(ctx, tx, id, map[string]any{"password_hash": hash})
}

func (r *UserRepository) UpdateRole(ctx context.Context, tx *gorm.DB, id uuid.UUID, role domain.Role) error {
	return r.updateColumns(ctx, tx, id, map[string]any{"role": role})
}

func (r *UserRepository) updateColumns(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := conn(r.db, ctx, tx).Model(&domain.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
