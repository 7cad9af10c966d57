package auth

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
)

// Resource names used in group permission maps.
const (
	// ResourceDevices covers the managed device inventory.
	ResourceDevices = "devices"
	// ResourceUsers covers identity administration.
	ResourceUsers = "users"
	// ResourceGroups covers group administration.
	ResourceGroups = "groups"
	// ResourceSettings covers system and directory settings.
	ResourceSettings = "settings"
	// ResourceAudit covers the audit log.
	ResourceAudit = "audit"
)

// Action verbs used in group permission maps.
const (
	// ActionView allows reading a resource.
	ActionView = "view"
	// ActionEdit allows modifying a resource.
	ActionEdit = "edit"
	// ActionManage allows full administration of a resource.
	ActionManage = "manage"
)

// PermissionEvaluator computes capability grants from group membership.
// An identity's effective permission map is the union of the maps of all
// groups it belongs to: a grant from any group suffices, there is no deny
// rule, and absence from every map is a deny.
type PermissionEvaluator struct {
	db *gorm.DB
}

// NewPermissionEvaluator creates a permission evaluator.
func NewPermissionEvaluator(db *gorm.DB) *PermissionEvaluator {
	return &PermissionEvaluator{db: db}
}

// HasCapability checks if the user may perform action on resource.
func (e *PermissionEvaluator) HasCapability(userID uint64, resource, action string) (bool, error) {
	effective, err := e.EffectivePermissions(userID)
	if err != nil {
		return false, err
	}

	return effective.Grants(resource, action), nil
}

// EffectivePermissions returns the union of the permission maps of all
// groups the user belongs to.
func (e *PermissionEvaluator) EffectivePermissions(userID uint64) (models.PermissionMap, error) {
	groups, err := e.UserGroups(userID)
	if err != nil {
		return nil, err
	}

	effective := models.PermissionMap{}
	for _, group := range groups {
		effective = effective.Merge(group.Permissions)
	}

	return effective, nil
}

// UserGroups retrieves all groups a user belongs to.
func (e *PermissionEvaluator) UserGroups(userID uint64) ([]models.Group, error) {
	var groups []models.Group

	err := e.db.Table("groups").
		Joins("JOIN user_groups ON user_groups.group_id = groups.id").
		Where("user_groups.user_id = ?", userID).
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}

	return groups, nil
}
