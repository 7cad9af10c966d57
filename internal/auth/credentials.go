package auth

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/alexedwards/argon2id"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
)

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// Password complexity violations. All wrap ErrPasswordPolicy; the first
// failing rule determines which one is returned.
var (
	// ErrPasswordTooShort is returned for passwords below the minimum length.
	ErrPasswordTooShort = fmt.Errorf("%w: must be at least 8 characters", ErrPasswordPolicy)
	// ErrPasswordNoUpper is returned when no uppercase letter is present.
	ErrPasswordNoUpper = fmt.Errorf("%w: must contain an uppercase letter", ErrPasswordPolicy)
	// ErrPasswordNoLower is returned when no lowercase letter is present.
	ErrPasswordNoLower = fmt.Errorf("%w: must contain a lowercase letter", ErrPasswordPolicy)
	// ErrPasswordNoDigit is returned when no digit is present.
	ErrPasswordNoDigit = fmt.Errorf("%w: must contain a digit", ErrPasswordPolicy)
	// ErrPasswordNoSpecial is returned when no non-alphanumeric character is present.
	ErrPasswordNoSpecial = fmt.Errorf("%w: must contain a special character", ErrPasswordPolicy)
)

// CredentialStore hashes and verifies local passwords. It is the single
// writer of credential hashes: every code path that stores a hash goes
// through StorePassword, so there is exactly one place that can get
// hashing wrong.
type CredentialStore struct {
	params *argon2id.Params
}

// NewCredentialStore creates a credential store with the given Argon2id
// parameters, or the library defaults when nil.
func NewCredentialStore(params *argon2id.Params) *CredentialStore {
	if params == nil {
		params = argon2id.DefaultParams
	}

	return &CredentialStore{params: params}
}

// Hash hashes a plaintext password using the Argon2id algorithm.
func (s *CredentialStore) Hash(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, s.params)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return hash, nil
}

// Verify verifies a plaintext password against a stored hash using
// constant-time comparison.
func (s *CredentialStore) Verify(password, hash string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false
	}

	return match
}

// ValidateComplexity checks the password against the local complexity policy:
// minimum length, one uppercase, one lowercase, one digit, one special
// character. It must never be invoked for a directory managed identity.
func (s *CredentialStore) ValidateComplexity(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return ErrPasswordNoUpper
	case !hasLower:
		return ErrPasswordNoLower
	case !hasDigit:
		return ErrPasswordNoDigit
	case !hasSpecial:
		return ErrPasswordNoSpecial
	}

	return nil
}

// StorePassword hashes a password and writes it to the user row. It refuses
// directory managed identities, whose local hash is never a credential.
func (s *CredentialStore) StorePassword(db *gorm.DB, user *models.User, password string) error {
	if user.DirectoryManaged() {
		return ErrDirectoryManaged
	}

	hash, err := s.Hash(password)
	if err != nil {
		return err
	}

	if err := db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("password", hash).Error; err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}

	user.Password = hash

	return nil
}

// PlaceholderHash produces the hash of a random throwaway credential for
// directory managed identities. The plaintext is discarded so the hash can
// never verify a login.
func (s *CredentialStore) PlaceholderHash(random string) (string, error) {
	if random == "" {
		return "", errors.New("placeholder credential can not be empty")
	}

	return s.Hash(random)
}
