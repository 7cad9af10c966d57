package models

import "time"

// GroupSource represents the origin of a group.
// It indicates whether the group is managed locally or mirrored from the directory.
type GroupSource string

const (
	// GroupSourceLocal indicates the group is locally managed within the application.
	GroupSourceLocal GroupSource = "local"
	// GroupSourceDirectory indicates the group is mirrored from an LDAP or
	// Active Directory server and participates in membership reconciliation.
	GroupSourceDirectory GroupSource = "directory"
)

// Group represents a named set of users carrying a permission map.
// Directory sourced groups are reconciled against the directory by the group
// sync engine; local groups are edited exclusively through administration.
type Group struct {
	// ID is the unique identifier for the group.
	ID uint `gorm:"primaryKey"`
	// Name is the unique display name of the group.
	Name string `gorm:"unique;size:100;not null"`
	// Description provides a human-readable explanation of the group's purpose.
	Description string `gorm:"size:255"`
	// ExternalID is the directory distinguished name for directory sourced groups.
	// Combined with Source, this forms a unique constraint.
	ExternalID string `gorm:"size:255;uniqueIndex:idx_source_external"`
	// Source indicates where the group originates from (local or directory).
	Source GroupSource `gorm:"type:varchar(20);not null;uniqueIndex:idx_source_external"`
	// Kind is a free-form classification tag (e.g. "system", "device").
	Kind string `gorm:"size:50"`
	// Permissions maps resource names to the action verbs this group grants.
	Permissions PermissionMap `gorm:"type:text"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time
}

// DirectorySourced reports whether this group's membership is mirrored from
// the directory.
func (g *Group) DirectorySourced() bool {
	return g.Source == GroupSourceDirectory
}

// TableName specifies the database table name for the Group model.
// This overrides GORM's default pluralized table naming.
func (Group) TableName() string {
	return "groups"
}
