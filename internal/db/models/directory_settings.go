package models

import "time"

// DirectorySettingsID is the primary key of the singleton settings row.
const DirectorySettingsID = 1

// DirectorySettings holds the LDAP/Active Directory connection and mapping
// configuration. Exactly one row exists; it is read by the identity core at
// call time and mutated only through the settings controller.
type DirectorySettings struct {
	// ID is always DirectorySettingsID.
	ID uint `gorm:"primaryKey"`
	// Enabled indicates if directory authentication is enabled.
	Enabled bool
	// Host is the directory server hostname or IP address.
	Host string `validate:"required_if=Enabled true"`
	// Port is the directory server port (typically 389 for LDAP, 636 for LDAPS).
	Port int `validate:"omitempty,min=1,max=65535"`
	// UseSSL enables LDAPS (LDAP over SSL/TLS) on port 636.
	UseSSL bool
	// UseTLS enables StartTLS to upgrade a plain connection to TLS.
	UseTLS bool
	// SkipVerify skips TLS certificate verification (insecure, for testing only).
	SkipVerify bool
	// BindDN is the distinguished name to bind with for performing searches.
	BindDN string `gorm:"size:255"`
	// BindPassword is the password for the bind DN.
	BindPassword string `gorm:"size:255"`
	// BaseDN is the base distinguished name for user searches.
	BaseDN string `gorm:"size:255" validate:"required_if=Enabled true"`
	// UserFilter is the filter for finding users (e.g. "(sAMAccountName={username})").
	// The {username} placeholder is replaced with the actual username.
	UserFilter string `gorm:"size:255"`
	// GroupBaseDN is the base distinguished name for group searches.
	GroupBaseDN string `gorm:"size:255"`
	// GroupFilter is the filter for finding the groups of a user
	// (e.g. "(member={userdn})"). The {userdn} placeholder is replaced with
	// the user's DN.
	GroupFilter string `gorm:"size:255"`
	// GroupMemberAttr is the attribute holding group members (e.g. "member").
	GroupMemberAttr string `gorm:"size:100"`
	// GroupNameAttr is the attribute containing the group name (e.g. "cn").
	GroupNameAttr string `gorm:"size:100"`
	// MemberOfAttr is the attribute on a user entry listing its groups (e.g. "memberOf").
	MemberOfAttr string `gorm:"size:100"`
	// UsernameAttr is the attribute containing the login id (e.g. "sAMAccountName").
	UsernameAttr string `gorm:"size:100"`
	// EmailAttr is the attribute containing the email address (e.g. "mail").
	EmailAttr string `gorm:"size:100"`
	// DisplayNameAttr is the attribute containing the display name (e.g. "displayName").
	DisplayNameAttr string `gorm:"size:100"`
	// UPNSuffix, when set, enables user@suffix as a bind candidate.
	UPNSuffix string `gorm:"size:255"`
	// NetBIOSDomain, when set, enables DOMAIN\user as a bind candidate.
	NetBIOSDomain string `gorm:"size:100"`
	// ConnectTimeoutSeconds bounds establishing the transport session.
	ConnectTimeoutSeconds int `validate:"omitempty,min=1"`
	// OperationTimeoutSeconds bounds individual directory operations.
	OperationTimeoutSeconds int `validate:"omitempty,min=1"`
	// UpdatedAt is the timestamp when the settings were last changed (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the DirectorySettings model.
func (DirectorySettings) TableName() string {
	return "directory_settings"
}
