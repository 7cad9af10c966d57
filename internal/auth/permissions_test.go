package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
)

func createGroupWithPermissions(t *testing.T, db *gorm.DB, name string, permissions models.PermissionMap) *models.Group {
	t.Helper()

	group := &models.Group{
		Name:        name,
		Source:      models.GroupSourceLocal,
		Permissions: permissions,
	}
	require.NoError(t, db.Create(group).Error)

	return group
}

func TestHasCapabilityUnionAcrossGroups(t *testing.T) {
	db := setupTestDB(t)
	store := NewCredentialStore(testHashParams)
	user := createLocalUser(t, db, store, "jdoe", "Sup3r-secret")

	viewers := createGroupWithPermissions(t, db, "Viewers", models.PermissionMap{
		ResourceDevices: {ActionView},
	})
	editors := createGroupWithPermissions(t, db, "Editors", models.PermissionMap{
		ResourceDevices: {ActionEdit},
		ResourceUsers:   {ActionView},
	})
	addMembership(t, db, user, viewers)
	addMembership(t, db, user, editors)

	evaluator := NewPermissionEvaluator(db)

	// grants from either group apply
	for _, tt := range []struct {
		resource, action string
		want             bool
	}{
		{ResourceDevices, ActionView, true},
		{ResourceDevices, ActionEdit, true},
		{ResourceUsers, ActionView, true},
		{ResourceUsers, ActionManage, false},
		{ResourceSettings, ActionView, false},
	} {
		granted, err := evaluator.HasCapability(user.ID, tt.resource, tt.action)
		require.NoError(t, err)
		assert.Equal(t, tt.want, granted, "%s:%s", tt.resource, tt.action)
	}
}

func TestHasCapabilityNoGroups(t *testing.T) {
	db := setupTestDB(t)
	store := NewCredentialStore(testHashParams)
	user := createLocalUser(t, db, store, "jdoe", "Sup3r-secret")

	evaluator := NewPermissionEvaluator(db)

	granted, err := evaluator.HasCapability(user.ID, ResourceDevices, ActionView)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestEffectivePermissionsMergesActionLists(t *testing.T) {
	db := setupTestDB(t)
	store := NewCredentialStore(testHashParams)
	user := createLocalUser(t, db, store, "jdoe", "Sup3r-secret")

	addMembership(t, db, user, createGroupWithPermissions(t, db, "A", models.PermissionMap{
		ResourceUsers: {ActionView},
	}))
	addMembership(t, db, user, createGroupWithPermissions(t, db, "B", models.PermissionMap{
		ResourceUsers: {ActionView, ActionManage},
	}))

	evaluator := NewPermissionEvaluator(db)

	effective, err := evaluator.EffectivePermissions(user.ID)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{ActionView, ActionManage}, effective[ResourceUsers])
}
