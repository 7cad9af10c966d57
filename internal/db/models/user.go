package models

import (
	"time"
)

// AuthSource represents the credential authority for a user account.
// It indicates how the user authenticates (local password hash or directory).
type AuthSource string

const (
	// AuthSourceLocal indicates the user authenticates with a local database password.
	AuthSourceLocal AuthSource = "local"
	// AuthSourceDirectory indicates the user authenticates via LDAP or Active Directory.
	AuthSourceDirectory AuthSource = "directory"
)

// User represents an identity in the system.
// Users authenticate either against the local password store or against the
// directory, never both. They can belong to multiple groups whose permission
// maps determine what they may do.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the user account is active and can log in.
	Active bool
	// Username is the unique username for login.
	Username string `gorm:"unique;size:100;not null"`
	// Email is the user's email address.
	Email string `gorm:"size:255"`
	// DisplayName is the user's human readable name.
	DisplayName string `gorm:"size:255"`
	// Password is the Argon2id hashed password. For directory managed users it
	// holds an unusable random placeholder and is never consulted during login.
	Password string `gorm:"size:255"`
	// AuthSource indicates which authority validates this user (local or directory).
	AuthSource AuthSource `gorm:"type:varchar(20);not null;default:'local'"`
	// ExternalID is the directory distinguished name for directory managed users.
	ExternalID string `gorm:"size:255"`
	// LastLoginAt is the timestamp of the last successful login (nil if never).
	LastLoginAt *time.Time
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
	// DeletedAt is the soft delete timestamp (nil if not deleted, managed by GORM).
	DeletedAt *time.Time
}

// DirectoryManaged reports whether the directory is the credential authority
// for this user. The local password hash is never read or written on the
// login path of a directory managed user.
func (u *User) DirectoryManaged() bool {
	return u.AuthSource == AuthSourceDirectory
}
