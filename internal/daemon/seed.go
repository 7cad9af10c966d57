package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/auth"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/config"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
)

// seed creates the built-in groups and a default admin identity when the
// user table is empty.
func seed(_ *config.Config, db *gorm.DB) {
	var count int64

	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	administrators := &models.Group{
		Name:   "Administrators",
		Source: models.GroupSourceLocal,
		Kind:   "system",
		Permissions: models.PermissionMap{
			auth.ResourceDevices:  {auth.ActionView, auth.ActionEdit, auth.ActionManage},
			auth.ResourceUsers:    {auth.ActionView, auth.ActionEdit, auth.ActionManage},
			auth.ResourceGroups:   {auth.ActionView, auth.ActionEdit, auth.ActionManage},
			auth.ResourceSettings: {auth.ActionView, auth.ActionEdit, auth.ActionManage},
			auth.ResourceAudit:    {auth.ActionView},
		},
	}

	operators := &models.Group{
		Name:   "Operators",
		Source: models.GroupSourceLocal,
		Kind:   "system",
		Permissions: models.PermissionMap{
			auth.ResourceDevices: {auth.ActionView, auth.ActionEdit},
			auth.ResourceUsers:   {auth.ActionView},
		},
	}

	if err := db.Create(administrators).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed Administrators group")
		return
	}

	if err := db.Create(operators).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed Operators group")
		return
	}

	store := auth.NewCredentialStore(nil)

	hash, err := store.Hash("changeme")
	if err != nil {
		log.Error().Err(err).Msg("failed to hash default admin password")
		return
	}

	admin := &models.User{
		Username:   "admin",
		Password:   hash,
		Active:     true,
		AuthSource: models.AuthSourceLocal,
	}

	if err := db.Create(admin).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed admin user")
		return
	}

	if err := db.Create(&models.UserGroup{UserID: admin.ID, GroupID: administrators.ID}).Error; err != nil {
		log.Error().Err(err).Msg("failed to add admin to Administrators")
		return
	}

	log.Info().Msg("seeded default admin user (username: admin), change its password immediately")
}
