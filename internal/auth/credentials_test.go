package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
)

func TestHashAndVerify(t *testing.T) {
	store := NewCredentialStore(testHashParams)

	hash, err := store.Hash("Sup3r-secret")
	require.NoError(t, err)
	require.NotEqual(t, "Sup3r-secret", hash)

	assert.True(t, store.Verify("Sup3r-secret", hash))
	assert.False(t, store.Verify("sup3r-secret", hash))
	assert.False(t, store.Verify("", hash))
}

func TestVerifyGarbageHash(t *testing.T) {
	store := NewCredentialStore(testHashParams)

	assert.False(t, store.Verify("anything", "not-an-argon2id-hash"))
	assert.False(t, store.Verify("anything", ""))
}

func TestValidateComplexityRuleOrder(t *testing.T) {
	store := NewCredentialStore(testHashParams)

	tests := []struct {
		name     string
		password string
		want     error
	}{
		// a short password violating several rules reports length first
		{"too short", "aB1!", ErrPasswordTooShort},
		{"no uppercase", "abcdef1!", ErrPasswordNoUpper},
		{"no lowercase", "ABCDEF1!", ErrPasswordNoLower},
		{"no digit", "Abcdefg!", ErrPasswordNoDigit},
		{"no special", "Abcdefg1", ErrPasswordNoSpecial},
		{"valid", "Abcdef1!", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.ValidateComplexity(tt.password)
			if tt.want == nil {
				assert.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrPasswordPolicy)
		})
	}
}

func TestStorePassword(t *testing.T) {
	db := setupTestDB(t)
	store := NewCredentialStore(testHashParams)
	user := createLocalUser(t, db, store, "jdoe", "Old-pass1")

	require.NoError(t, store.StorePassword(db, user, "New-pass1!"))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)

	assert.True(t, store.Verify("New-pass1!", reloaded.Password))
	assert.False(t, store.Verify("Old-pass1", reloaded.Password))
}

func TestStorePasswordRefusesDirectoryManaged(t *testing.T) {
	db := setupTestDB(t)
	store := NewCredentialStore(testHashParams)
	user := createDirectoryUser(t, db, "jdoe", "CN=jdoe,DC=example,DC=com")

	err := store.StorePassword(db, user, "New-pass1!")
	require.ErrorIs(t, err, ErrDirectoryManaged)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, user.Password, reloaded.Password)
}

func TestPlaceholderHashNeverVerifiesEmpty(t *testing.T) {
	store := NewCredentialStore(testHashParams)

	_, err := store.PlaceholderHash("")
	require.Error(t, err)

	hash, err := store.PlaceholderHash("random-throwaway-secret")
	require.NoError(t, err)
	assert.False(t, store.Verify("", hash))
}
