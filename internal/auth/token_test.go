package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-signing-key", time.Hour)
	user := &models.User{ID: 42, Username: "jdoe"}

	token, err := issuer.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "jdoe", claims.Username)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), userID)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	issuer := NewTokenIssuer("test-signing-key", time.Hour)
	other := NewTokenIssuer("another-signing-key", time.Hour)

	token, err := issuer.Issue(&models.User{ID: 1, Username: "jdoe"})
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-signing-key", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Issue(&models.User{ID: 1, Username: "jdoe"})
	require.NoError(t, err)

	issuer.now = time.Now

	_, err = issuer.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-signing-key", time.Hour)

	_, err := issuer.Verify("not.a.token")
	require.Error(t, err)

	_, err = issuer.Verify("")
	require.Error(t, err)
}
