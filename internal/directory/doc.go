// Package directory implements the LDAP/Active Directory protocol client used
// by the identity core.
//
// The package exposes a small Client interface (bind, search, modify,
// password set, close) so that callers depend on an injectable abstraction
// and tests run against the deterministic Fake instead of a live server.
// Connections are created per operation through a Connector built from the
// persisted DirectorySettings; every caller is responsible for invoking
// Close on all exit paths.
//
// Search results are returned as a SearchStream: a lazy, finite,
// non-restartable sequence that must either be fully drained or explicitly
// aborted, with a terminal error available through Err.
//
// Errors are classified into three sentinel values:
//   - ErrUnavailable: network or timeout failure, transient, caller may retry
//   - ErrInvalidCredentials: a bind was rejected, terminal for this attempt
//   - ErrProtocol: any other unexpected protocol-level failure
//
// Modify operations additionally distinguish the benign outcomes
// AlreadyPresent (duplicate add) and AlreadyAbsent (missing delete), which
// indicate the desired end state already holds and are not errors.
package directory
