package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity/internal/database"
	"identity/internal/domain"
	"identity/internal/repository"
)

func runCmd(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("APP_ENV", "dev")
	t.Setenv("AUTH_CONFIG_FILE", "")
	t.Setenv("BCRYPT_COST", "4")

	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--database-url", dbPath}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func userRepo(t *testing.T, dbPath string) *repository.UserRepository {
	t.Helper()
	db, err := database.Connect(dbPath)
	require.NoError(t, err)
	return repository.NewUserRepository(db)
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "identity.db")

	out, err := runCmd(t, dbPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date")

	db, err := database.Connect(dbPath)
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&domain.User{}))
}

func TestSeedAdminAndSetRole(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "identity.db")

	out, err := runCmd(t, dbPath, "seed-admin", "--email", "Root@Example.com", "--password", "s3cret-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "created ADMIN root@example.com")

	admin, err := userRepo(t, dbPath).GetByEmail(ctx, nil, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.True(t, admin.Enabled)

	out, err = runCmd(t, dbPath, "set-role", "root@example.com", "user")
	require.NoError(t, err)
	assert.Contains(t, out, "is now USER")

	out, err = runCmd(t, dbPath, "seed-admin", "--email", "root@example.com", "--password", "ignored-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "promoted root@example.com")

	admin, err = userRepo(t, dbPath).GetByEmail(ctx, nil, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
}

func TestSetRoleErrors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "identity.db")

	_, err := runCmd(t, dbPath, "set-role", "ghost@example.com", "ADMIN")
	assert.ErrorContains(t, err, "no account")

	_, err = runCmd(t, dbPath, "set-role", "ghost@example.com", "ROOT")
	assert.ErrorContains(t, err, "unknown role")

	_, err = runCmd(t, dbPath, "set-role", "only-one-arg")
	assert.Error(t, err)
}

func TestSeedAdminRequiresPassword(t *testing.T) {
	t.Setenv("AUTHCTL_ADMIN_PASSWORD", "")

	_, err := runCmd(t, filepath.Join(t.TempDir(), "identity.db"), "seed-admin", "--email", "a@example.com")
	assert.ErrorContains(t, err, "required")
}

func TestCleanupCommand(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "identity.db")
	_, err := runCmd(t, dbPath, "migrate")
	require.NoError(t, err)

	db, err := database.Connect(dbPath)
	require.NoError(t, err)
	users := repository.NewUserRepository(db)
	u := domain.NewPasswordUser("ann@example.com", "Ann", "hash", true, time.Now().UTC())
	require.NoError(t, users.Create(ctx, nil, u))
	require.NoError(t, repository.NewRefreshTokenRepository(db).Upsert(ctx, nil, &domain.RefreshToken{
		UserID:    u.ID,
		TokenHash: "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
		CreatedAt: time.Now().UTC().Add(-30 * 24 * time.Hour),
	}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	out, err := runCmd(t, dbPath, "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "refresh_tokens=1")
}
