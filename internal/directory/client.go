package directory

import (
	"github.com/go-ldap/ldap/v3"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
)

// Scope selects how deep a search descends below its base DN.
type Scope int

const (
	// ScopeBase searches the base entry only.
	ScopeBase Scope = Scope(ldap.ScopeBaseObject)
	// ScopeOneLevel searches the immediate children of the base entry.
	ScopeOneLevel Scope = Scope(ldap.ScopeSingleLevel)
	// ScopeSubtree searches the base entry and its whole subtree.
	ScopeSubtree Scope = Scope(ldap.ScopeWholeSubtree)
)

// ModifyOp is the kind of attribute modification to perform.
type ModifyOp int

const (
	// OpAdd adds a value to an attribute.
	OpAdd ModifyOp = iota
	// OpDelete removes a value from an attribute.
	OpDelete
	// OpReplace replaces all values of an attribute.
	OpReplace
)

// ModifyOutcome describes how a modify operation ended.
type ModifyOutcome int

const (
	// OutcomeApplied means the directory applied the change.
	OutcomeApplied ModifyOutcome = iota
	// OutcomeAlreadyPresent means an added value already existed. Benign.
	OutcomeAlreadyPresent
	// OutcomeAlreadyAbsent means a deleted value did not exist. Benign.
	OutcomeAlreadyAbsent
)

// String returns a log-friendly name for the outcome.
func (o ModifyOutcome) String() string {
	switch o {
	case OutcomeAlreadyPresent:
		return "already-present"
	case OutcomeAlreadyAbsent:
		return "already-absent"
	default:
		return "applied"
	}
}

// Entry is one directory entry with its requested attributes.
type Entry struct {
	// DN is the distinguished name of the entry.
	DN string
	// Attributes maps attribute names to their values.
	Attributes map[string][]string
}

// GetAttributeValue returns the first value of the named attribute, or "".
func (e *Entry) GetAttributeValue(name string) string {
	if values := e.Attributes[name]; len(values) > 0 {
		return values[0]
	}

	return ""
}

// GetAttributeValues returns all values of the named attribute.
func (e *Entry) GetAttributeValues(name string) []string {
	return e.Attributes[name]
}

// Client is the low-level protocol session against the directory service.
//
// A Client is only valid after a successful Connector call; any operation
// after Close is undefined. Close must be invoked on every exit path.
type Client interface {
	// Bind authenticates a principal. A rejected credential returns
	// ErrInvalidCredentials; transport failures return ErrUnavailable.
	Bind(dn, secret string) error

	// Search starts a lazy search below baseDN. The returned stream must be
	// fully drained or aborted before the next operation on this client.
	Search(baseDN, filter string, scope Scope, attributes []string) (*SearchStream, error)

	// ModifyAttribute performs one attribute modification. Duplicate adds and
	// missing deletes are reported as benign outcomes, not errors.
	ModifyAttribute(dn string, op ModifyOp, attribute string, values ...string) (ModifyOutcome, error)

	// SetPassword replaces the entry's password using the directory's
	// password-change convention (quoted UTF-16LE unicodePwd replace).
	SetPassword(dn, newPassword string) error

	// Close releases the transport session.
	Close()
}

// Connector establishes a directory session from the persisted settings.
// The production implementation is Dial; tests install a Fake.
type Connector func(settings *models.DirectorySettings) (Client, error)
