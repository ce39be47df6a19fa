package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"identity/internal/database"
	"identity/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, repo *UserRepository, email string) *domain.User {
	t.Helper()
	u := domain.NewPasswordUser(email, "Test User", "hash", true, time.Now().UTC())
	require.NoError(t, repo.Create(context.Background(), nil, u))
	return u
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	u := seedUser(t, repo, "Mixed.Case@Example.com")

	got, err := repo.GetByEmail(ctx, nil, "mixed.case@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "mixed.case@example.com", got.Email)
	assert.Equal(t, domain.RoleUser, got.Role)
	require.NotNil(t, got.PasswordHash)

	byID, err := repo.GetByID(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)

	exists, err := repo.ExistsByEmail(ctx, "MIXED.case@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetByID(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	seedUser(t, repo, "dup@example.com")

	again := domain.NewPasswordUser("DUP@example.com", "Other", "hash", true, time.Now().UTC())
	err := repo.Create(context.Background(), nil, again)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestUserRepository_Updates(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	u := seedUser(t, repo, "upd@example.com")

	require.NoError(t, repo.SetEnabled(ctx, nil, u.ID, false))
	require.NoError(t, repo.UpdateRole(ctx, nil, u.ID, domain.RoleAdmin))
	require.NoError(t, repo.UpdatePasswordHash(ctx, nil, u.ID, "new-hash"))

	got, err := repo.GetByID(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, "new-hash", *got.PasswordHash)

	err = repo.SetEnabled(ctx, nil, uuid.New(), true)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	seedUser(t, repo, "a@example.com")
	seedUser(t, repo, "b@example.com")
	seedUser(t, repo, "c@example.com")

	users, total, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, users, 2)
}

func TestRefreshTokenRepository_UpsertKeepsOnePerUser(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	repo := NewRefreshTokenRepository(db)
	u := seedUser(t, users, "rt@example.com")

	first := &domain.RefreshToken{UserID: u.ID, TokenHash: "hash-1", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Upsert(ctx, nil, first))

	second := &domain.RefreshToken{UserID: u.ID, TokenHash: "hash-2", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Upsert(ctx, nil, second))

	_, err := repo.GetByHash(ctx, "hash-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := repo.GetByHash(ctx, "hash-2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	var count int64
	require.NoError(t, db.Model(&domain.RefreshToken{}).Where("user_id = ?", u.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRefreshTokenRepository_Deletes(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	repo := NewRefreshTokenRepository(db)

	old := seedUser(t, users, "old@example.com")
	fresh := seedUser(t, users, "fresh@example.com")
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(ctx, nil, &domain.RefreshToken{UserID: old.ID, TokenHash: "old", CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, repo.Upsert(ctx, nil, &domain.RefreshToken{UserID: fresh.ID, TokenHash: "fresh", CreatedAt: now}))

	n, err := repo.DeleteCreatedBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, repo.DeleteByUser(ctx, nil, fresh.ID))
	require.NoError(t, repo.DeleteByUser(ctx, nil, fresh.ID), "idempotent")

	_, err = repo.GetByUser(ctx, fresh.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSecretTokenRepository_ReplaceAndDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	u := seedUser(t, users, "secret@example.com")

	confirm := NewMailConfirmationTokenRepository(db)
	forgot := NewForgotPasswordTokenRepository(db)

	first := &domain.SecretToken{Token: uuid.New(), UserID: u.ID, CreatedAt: time.Now().UTC()}
	require.NoError(t, confirm.Replace(ctx, nil, first))
	second := &domain.SecretToken{Token: uuid.New(), UserID: u.ID, CreatedAt: time.Now().UTC()}
	require.NoError(t, confirm.Replace(ctx, nil, second))

	_, err := confirm.GetByToken(ctx, nil, first.Token)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := confirm.GetByToken(ctx, nil, second.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	// Kinds live in separate tables.
	_, err = forgot.GetByToken(ctx, nil, second.Token)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, confirm.Delete(ctx, nil, second.Token))
	assert.ErrorIs(t, confirm.Delete(ctx, nil, second.Token), gorm.ErrRecordNotFound)
}

func TestSecretTokenRepository_ReplaceConcurrently(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := seedUser(t, NewUserRepository(db), "racer@example.com")
	forgot := NewForgotPasswordTokenRepository(db)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- forgot.Replace(ctx, nil, &domain.SecretToken{Token: uuid.New(), UserID: u.ID, CreatedAt: time.Now().UTC()})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	var n int64
	require.NoError(t, db.Table(domain.ForgotPasswordTokensTable).Where("user_id = ?", u.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestSecretTokenRepository_DeleteCreatedBefore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	repo := NewForgotPasswordTokenRepository(db)
	now := time.Now().UTC()

	stale := seedUser(t, users, "stale@example.com")
	live := seedUser(t, users, "live@example.com")
	require.NoError(t, repo.Replace(ctx, nil, &domain.SecretToken{Token: uuid.New(), UserID: stale.ID, CreatedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, repo.Replace(ctx, nil, &domain.SecretToken{Token: uuid.New(), UserID: live.ID, CreatedAt: now}))

	n, err := repo.DeleteCreatedBefore(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
