package directory

import (
	"errors"
	"fmt"
	"net"

	"github.com/go-ldap/ldap/v3"
)

var (
	// ErrUnavailable is returned when the directory can not be reached or an
	// operation timed out. It is transient; the caller may retry.
	ErrUnavailable = errors.New("directory unavailable")

	// ErrInvalidCredentials is returned when a bind was rejected by the
	// directory. It is never produced by network or timeout failures.
	ErrInvalidCredentials = errors.New("directory rejected credentials")

	// ErrProtocol is returned for unexpected protocol-level failures other
	// than the benign duplicate-add and missing-delete modify outcomes.
	ErrProtocol = errors.New("directory protocol error")

	// ErrDisabled is returned when directory integration is disabled or the
	// required connection settings are missing.
	ErrDisabled = errors.New("directory integration is disabled")

	// ErrEntryNotFound is returned when a search expected an entry but found none.
	ErrEntryNotFound = errors.New("directory entry not found")

	// ErrMultipleEntries is returned when a search expected one entry but found
	// several. This typically indicates a misconfigured login filter.
	ErrMultipleEntries = errors.New("multiple directory entries found")
)

// classify maps a raw ldap error to the package taxonomy, keeping the
// original error in the chain for diagnostics. A timeout is always
// ErrUnavailable, never conflated with ErrInvalidCredentials.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if ldap.IsErrorWithCode(err, ldap.ErrorNetwork) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	return fmt.Errorf("%w: %v", ErrProtocol, err)
}
