package auth

import "errors"

var (
	// ErrInvalidCredentials is the single user-facing login failure. Every
	// login failure cause collapses into it so callers can not distinguish
	// unknown accounts from wrong passwords or an unreachable directory.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidToken is returned when a session token fails signature,
	// expiry or identity checks.
	ErrInvalidToken = errors.New("invalid or expired session token")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAccountDisabled is returned when operating on a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrInvalidOldPassword is returned when the provided current password does
	// not match during a self-service password change.
	ErrInvalidOldPassword = errors.New("invalid current password")

	// ErrDirectoryManaged is returned when a local-only operation is attempted
	// on a directory managed identity.
	ErrDirectoryManaged = errors.New("identity is directory managed")

	// ErrNotDirectoryManaged is returned when a directory-only operation is
	// attempted on a locally managed identity.
	ErrNotDirectoryManaged = errors.New("identity is not directory managed")

	// ErrPasswordPolicy is the base error for password complexity violations.
	ErrPasswordPolicy = errors.New("password policy violation")
)
