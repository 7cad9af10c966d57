package auth

import (
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/controller/directorysettings"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
)

// testHashParams keeps Argon2id cheap enough for unit tests.
var testHashParams = &argon2id.Params{
	Memory:      16 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// setupTestDB creates an in-memory SQLite database with all identity tables.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.User{}, &models.Group{}, &models.UserGroup{}, &models.DirectorySettings{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// enableDirectory persists an enabled settings row with the AD defaults.
func enableDirectory(t *testing.T, db *gorm.DB) *models.DirectorySettings {
	t.Helper()

	settings := directorysettings.Defaults()
	settings.Enabled = true
	settings.Host = "dc1.example.com"
	settings.BaseDN = "DC=example,DC=com"
	settings.BindDN = "CN=svc,OU=Service,DC=example,DC=com"
	settings.BindPassword = "svc-secret"

	require.NoError(t, db.Create(settings).Error)

	return settings
}

func createLocalUser(t *testing.T, db *gorm.DB, store *CredentialStore, username, password string) *models.User {
	t.Helper()

	hash, err := store.Hash(password)
	require.NoError(t, err)

	user := &models.User{
		Active:     true,
		Username:   username,
		Password:   hash,
		AuthSource: models.AuthSourceLocal,
	}
	require.NoError(t, db.Create(user).Error)

	return user
}

func createDirectoryUser(t *testing.T, db *gorm.DB, username, dn string) *models.User {
	t.Helper()

	user := &models.User{
		Active:     true,
		Username:   username,
		Password:   "$argon2id$unusable-placeholder",
		AuthSource: models.AuthSourceDirectory,
		ExternalID: dn,
	}
	require.NoError(t, db.Create(user).Error)

	return user
}

func createGroup(t *testing.T, db *gorm.DB, name string, source models.GroupSource, externalID string) *models.Group {
	t.Helper()

	group := &models.Group{
		Name:       name,
		Source:     source,
		ExternalID: externalID,
	}
	require.NoError(t, db.Create(group).Error)

	return group
}

func addMembership(t *testing.T, db *gorm.DB, user *models.User, group *models.Group) {
	t.Helper()

	require.NoError(t, db.Create(&models.UserGroup{UserID: user.ID, GroupID: group.ID}).Error)
}

func membershipGroupIDs(t *testing.T, db *gorm.DB, user *models.User) []uint {
	t.Helper()

	var memberships []models.UserGroup

	require.NoError(t, db.Where("user_id = ?", user.ID).Order("group_id").Find(&memberships).Error)

	ids := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.GroupID)
	}

	return ids
}
