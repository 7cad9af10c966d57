package models

import "time"

// UserGroup represents the many-to-many relationship between users and groups.
// A pair is unique and carries no ordering semantics. For directory sourced
// groups these rows are created and destroyed by the group sync engine; for
// local groups only by direct administrative action.
type UserGroup struct {
	// UserID is the ID of the user in this membership.
	UserID uint64 `gorm:"primaryKey;column:user_id"`
	// GroupID is the ID of the group in this membership.
	GroupID uint `gorm:"primaryKey;column:group_id"`
	// User is the associated user (loaded via foreign key).
	// When a user is deleted, all their group memberships are automatically removed (CASCADE).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Group is the associated group (loaded via foreign key).
	// Deleting a group requires its memberships be empty (RESTRICT).
	Group Group `gorm:"foreignKey:GroupID;constraint:OnDelete:RESTRICT"`
	// CreatedAt is the timestamp when the user was added to the group (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the UserGroup model.
// This overrides GORM's default pluralized table naming.
func (UserGroup) TableName() string {
	return "user_groups"
}
