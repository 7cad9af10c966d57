package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/audit"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/controller/directorysettings"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/directory"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/uniuri"
)

// placeholderSecretLength is the length of the random secret hashed into the
// unusable password of a directory managed account.
const placeholderSecretLength = 40

// ImportError is one per-identity failure collected during a batch import.
type ImportError struct {
	// Username names the identity the failure relates to.
	Username string
	// Err is the underlying failure.
	Err error
}

// ImportResult reports the outcome of a batch import.
type ImportResult struct {
	// Imported lists usernames that were newly provisioned.
	Imported []string
	// Skipped lists usernames that already existed or were machine accounts.
	Skipped []string
	// Errors collects per-identity failures. Identities after a failed one are
	// still processed.
	Errors []ImportError
}

// UserProvisioningService creates local identities from directory entries,
// either one by one during login or as an administrative batch import.
type UserProvisioningService struct {
	db          *gorm.DB
	connect     directory.Connector
	credentials *CredentialStore
	recorder    audit.Recorder
}

// NewUserProvisioningService creates a provisioning service.
func NewUserProvisioningService(db *gorm.DB, connect directory.Connector, credentials *CredentialStore, recorder audit.Recorder) *UserProvisioningService {
	return &UserProvisioningService{
		db:          db,
		connect:     connect,
		credentials: credentials,
		recorder:    recorder,
	}
}

// ImportIdentities provisions the named directory identities as local users
// over a single directory connection. Existing users and machine accounts are
// skipped. Group membership comes from the entry's memberOf values mapped to
// known directory groups, unless overrides provides an explicit group id list
// for the username.
func (p *UserProvisioningService) ImportIdentities(actor string, usernames []string, overrides map[string][]uint) (*ImportResult, error) {
	settings, err := directorysettings.Get(p.db)
	if err != nil {
		return nil, err
	}

	if !settings.Enabled {
		return nil, directory.ErrDisabled
	}

	client, err := p.connect(settings)
	if err != nil {
		return nil, err
	}

	defer client.Close()

	if settings.BindDN != "" {
		if err := client.Bind(settings.BindDN, settings.BindPassword); err != nil {
			return nil, err
		}
	}

	result := &ImportResult{}

	for _, username := range usernames {
		imported, err := p.importOne(client, settings, username, overrides[username])
		if err != nil {
			if errors.Is(err, directory.ErrUnavailable) {
				return nil, err
			}

			result.Errors = append(result.Errors, ImportError{Username: username, Err: err})

			continue
		}

		if imported {
			result.Imported = append(result.Imported, username)
		} else {
			result.Skipped = append(result.Skipped, username)
		}
	}

	outcome := audit.OutcomeSuccess
	if len(result.Errors) > 0 {
		outcome = audit.OutcomeFailure
	}

	p.recorder.Record(audit.NewEvent(actor, audit.ActionImport, fmt.Sprintf("%d identities", len(usernames)),
		outcome,
		fmt.Sprintf("imported=%d skipped=%d errors=%d", len(result.Imported), len(result.Skipped), len(result.Errors))))

	return result, nil
}

// importOne provisions a single identity. It reports false without error when
// the identity is skipped (already present or a machine account).
func (p *UserProvisioningService) importOne(client directory.Client, settings *models.DirectorySettings, username string, groupOverride []uint) (bool, error) {
	var existing models.User

	err := p.db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to check for existing user: %w", err)
	}

	entry, err := p.lookupEntry(client, settings, username)
	if err != nil {
		return false, err
	}

	if isMachineAccount(entry) {
		return false, nil
	}

	user, err := p.ProvisionFromEntry(settings, username, entry)
	if err != nil {
		return false, err
	}

	groupIDs := groupOverride
	if groupIDs == nil {
		groupIDs, err = p.GroupIDsFromMemberOf(settings, entry)
		if err != nil {
			return false, err
		}
	}

	for _, groupID := range groupIDs {
		if err := p.db.Create(&models.UserGroup{UserID: user.ID, GroupID: groupID}).Error; err != nil {
			return false, fmt.Errorf("failed to add group membership: %w", err)
		}
	}

	return true, nil
}

// lookupEntry searches the directory for one identity by the configured login
// filter, requesting the attributes provisioning consumes.
func (p *UserProvisioningService) lookupEntry(client directory.Client, settings *models.DirectorySettings, username string) (*directory.Entry, error) {
	attributes := []string{
		settings.UsernameAttr,
		settings.EmailAttr,
		settings.DisplayNameAttr,
		settings.MemberOfAttr,
		"objectClass",
	}

	stream, err := client.Search(settings.BaseDN, directory.UserFilter(settings, username),
		directory.ScopeSubtree, attributes)
	if err != nil {
		return nil, err
	}

	return directory.CollectOne(stream)
}

// ProvisionFromEntry creates a directory managed local user from a directory
// entry. The password column receives a hashed random placeholder so the row
// can never satisfy local verification.
func (p *UserProvisioningService) ProvisionFromEntry(settings *models.DirectorySettings, username string, entry *directory.Entry) (*models.User, error) {
	placeholder, err := p.credentials.PlaceholderHash(uniuri.NewLen(placeholderSecretLength))
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Active:      true,
		Username:    username,
		Email:       sanitizeEmail(entry.GetAttributeValue(settings.EmailAttr)),
		DisplayName: entry.GetAttributeValue(settings.DisplayNameAttr),
		Password:    placeholder,
		AuthSource:  models.AuthSourceDirectory,
		ExternalID:  entry.DN,
	}

	if err := p.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GroupIDsFromMemberOf maps the entry's membership attribute to the ids of
// locally known directory sourced groups. Unknown group DNs are ignored.
func (p *UserProvisioningService) GroupIDsFromMemberOf(settings *models.DirectorySettings, entry *directory.Entry) ([]uint, error) {
	memberOf := entry.GetAttributeValues(settings.MemberOfAttr)
	if len(memberOf) == 0 {
		return nil, nil
	}

	var groups []models.Group
	if err := p.db.
		Where("source = ? AND external_id IN ?", models.GroupSourceDirectory, memberOf).
		Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to map directory groups: %w", err)
	}

	groupIDs := make([]uint, 0, len(groups))
	for _, group := range groups {
		groupIDs = append(groupIDs, group.ID)
	}

	return groupIDs, nil
}

// isMachineAccount reports whether the entry's object classes mark it as a
// non-human principal.
func isMachineAccount(entry *directory.Entry) bool {
	for _, class := range entry.GetAttributeValues("objectClass") {
		if strings.EqualFold(class, "computer") {
			return true
		}
	}

	return false
}

// sanitizeEmail returns the address when it parses, "" otherwise. Directory
// entries routinely carry malformed or empty mail attributes.
func sanitizeEmail(address string) string {
	if address == "" {
		return ""
	}

	if _, err := mail.ParseAddress(address); err != nil {
		return ""
	}

	return address
}
