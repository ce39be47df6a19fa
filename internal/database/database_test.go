package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity/internal/domain"
)

func TestMigrate_CreatesTables(t *testing.T) {
	db, err := Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	m := db.Migrator()
	assert.True(t, m.HasTable(&domain.User{}))
	assert.True(t, m.HasTable(&domain.RefreshToken{}))
	assert.True(t, m.HasTable(domain.MailConfirmationTokensTable))
	assert.True(t, m.HasTable(domain.ForgotPasswordTokensTable))

	// Idempotent.
	require.NoError(t, Migrate(db))
}
