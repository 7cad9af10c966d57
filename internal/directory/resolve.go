package directory

import (
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
)

// UserFilter renders the configured login filter for a username.
// The {username} placeholder is replaced with the escaped login id.
func UserFilter(settings *models.DirectorySettings, username string) string {
	return strings.ReplaceAll(settings.UserFilter, "{username}", ldap.EscapeFilter(username))
}

// GroupFilter renders the configured reverse membership filter for a user DN.
// The {userdn} placeholder is replaced with the escaped DN.
func GroupFilter(settings *models.DirectorySettings, userDN string) string {
	return strings.ReplaceAll(settings.GroupFilter, "{userdn}", ldap.EscapeFilter(userDN))
}

// BindCandidates returns the principal formats to try for a user bind, in
// fixed order: the resolved entry DN first, then the userPrincipalName form
// when an UPN suffix is configured, then the down-level DOMAIN\user form when
// a NetBIOS domain is configured. The order is deterministic so bind behavior
// is testable without probing a live server.
func BindCandidates(settings *models.DirectorySettings, username, resolvedDN string) []string {
	var out []string

	if resolvedDN != "" {
		out = append(out, resolvedDN)
	}

	if settings.UPNSuffix != "" {
		out = append(out, username+"@"+settings.UPNSuffix)
	}

	if settings.NetBIOSDomain != "" {
		out = append(out, settings.NetBIOSDomain+`\`+username)
	}

	return out
}
