// Package directorysettings manages the singleton directory connection settings row.
package directorysettings

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrInvalidSettings is returned when the settings fail validation.
	ErrInvalidSettings = errors.New("invalid directory settings")
)

// validate is the shared validator instance for settings structs.
var validate = validator.New() //nolint:gochecknoglobals

// defaultPort is used when no directory port is configured.
const defaultPort = 389

// Get retrieves the directory settings, returning defaults if no row exists yet.
func Get(db *gorm.DB) (*models.DirectorySettings, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings models.DirectorySettings

	result := db.First(&settings, models.DirectorySettingsID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Defaults(), nil
		}

		return nil, result.Error
	}

	applyDefaults(&settings)

	return &settings, nil
}

// Save validates and persists the settings as the singleton row.
func Save(db *gorm.DB, settings *models.DirectorySettings) error {
	if db == nil {
		return ErrDBNil
	}

	applyDefaults(settings)

	if err := validate.Struct(settings); err != nil {
		return errors.Join(ErrInvalidSettings, err)
	}

	settings.ID = models.DirectorySettingsID

	return db.Save(settings).Error
}

// Defaults returns a settings struct with the attribute and filter defaults
// applied, directory integration disabled.
func Defaults() *models.DirectorySettings {
	settings := &models.DirectorySettings{ID: models.DirectorySettingsID}
	applyDefaults(settings)

	return settings
}

// applyDefaults fills the configurable attribute names and timeouts with the
// conventional Active Directory values when unset.
func applyDefaults(s *models.DirectorySettings) {
	if s.Port == 0 {
		s.Port = defaultPort
	}

	if s.UserFilter == "" {
		s.UserFilter = "(&(objectClass=user)(sAMAccountName={username}))"
	}

	if s.GroupFilter == "" {
		s.GroupFilter = "(&(objectClass=group)(member={userdn}))"
	}

	if s.GroupMemberAttr == "" {
		s.GroupMemberAttr = "member"
	}

	if s.GroupNameAttr == "" {
		s.GroupNameAttr = "cn"
	}

	if s.MemberOfAttr == "" {
		s.MemberOfAttr = "memberOf"
	}

	if s.UsernameAttr == "" {
		s.UsernameAttr = "sAMAccountName"
	}

	if s.EmailAttr == "" {
		s.EmailAttr = "mail"
	}

	if s.DisplayNameAttr == "" {
		s.DisplayNameAttr = "displayName"
	}

	if s.ConnectTimeoutSeconds == 0 {
		s.ConnectTimeoutSeconds = 10
	}

	if s.OperationTimeoutSeconds == 0 {
		s.OperationTimeoutSeconds = 30
	}
}
