package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/audit"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/controller/directorysettings"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/directory"
)

// IdentitySummary is the caller-facing view of an authenticated identity.
type IdentitySummary struct {
	ID               uint64 `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	DisplayName      string `json:"display_name"`
	DirectoryManaged bool   `json:"directory_managed"`
}

// Service is the hybrid login orchestrator. It decides per identity which
// credential authority governs a login attempt, triggers provisioning and
// group sync for directory identities, and issues session tokens.
type Service struct {
	db          *gorm.DB
	connect     directory.Connector
	credentials *CredentialStore
	tokens      *TokenIssuer
	sync        *GroupSyncEngine
	provisioner *UserProvisioningService
	recorder    audit.Recorder
}

// NewService creates the auth orchestrator.
func NewService(
	db *gorm.DB,
	connect directory.Connector,
	credentials *CredentialStore,
	tokens *TokenIssuer,
	sync *GroupSyncEngine,
	provisioner *UserProvisioningService,
	recorder audit.Recorder,
) *Service {
	return &Service{
		db:          db,
		connect:     connect,
		credentials: credentials,
		tokens:      tokens,
		sync:        sync,
		provisioner: provisioner,
		recorder:    recorder,
	}
}

// Login authenticates a username/password pair against whichever authority
// governs the identity and returns a session token. Every failure cause
// collapses into ErrInvalidCredentials for the caller; the specific cause is
// kept in logs and the audit trail only.
func (s *Service) Login(username, password string) (string, *IdentitySummary, error) {
	if username == "" || password == "" {
		return s.failLogin(username, ErrInvalidCredentials)
	}

	user, err := s.findUser(username)
	if err != nil {
		return s.failLogin(username, err)
	}

	settings, err := directorysettings.Get(s.db)
	if err != nil {
		return s.failLogin(username, err)
	}

	if settings.Enabled && (user == nil || user.DirectoryManaged()) {
		user, err = s.directoryLogin(settings, username, password, user)
		if err != nil {
			return s.failLogin(username, err)
		}
	} else {
		if user == nil {
			return s.failLogin(username, ErrUserNotFound)
		}

		// a directory managed identity never falls back to local verification
		if user.DirectoryManaged() {
			return s.failLogin(username, ErrDirectoryManaged)
		}

		if !s.credentials.Verify(password, user.Password) {
			return s.failLogin(username, ErrInvalidCredentials)
		}
	}

	if !user.Active {
		return s.failLogin(username, ErrUserAccountDisabled)
	}

	now := time.Now()
	if err := s.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("last_login_at", now).Error; err != nil {
		return s.failLogin(username, fmt.Errorf("failed to stamp last login: %w", err))
	}

	user.LastLoginAt = &now

	token, err := s.tokens.Issue(user)
	if err != nil {
		return s.failLogin(username, err)
	}

	s.recorder.Record(audit.NewEvent(username, audit.ActionLogin, username, audit.OutcomeSuccess, ""))

	return token, summarize(user), nil
}

// failLogin records the internal cause and returns the uniform login error.
func (s *Service) failLogin(username string, cause error) (string, *IdentitySummary, error) {
	log.Warn().Err(cause).Str("username", username).Msg("login rejected")
	s.recorder.Record(audit.NewEvent(username, audit.ActionLogin, username, audit.OutcomeFailure, cause.Error()))

	return "", nil, ErrInvalidCredentials
}

// directoryLogin authenticates against the directory and provisions or
// refreshes the local identity from the matched entry.
func (s *Service) directoryLogin(settings *models.DirectorySettings, username, password string, existing *models.User) (*models.User, error) {
	client, err := s.connect(settings)
	if err != nil {
		return nil, err
	}

	defer client.Close()

	if settings.BindDN != "" {
		if err := client.Bind(settings.BindDN, settings.BindPassword); err != nil {
			return nil, err
		}
	}

	entry, err := s.provisioner.lookupEntry(client, settings, username)
	if err != nil && !errors.Is(err, directory.ErrEntryNotFound) {
		return nil, err
	}

	resolvedDN := ""
	if entry != nil {
		resolvedDN = entry.DN
	} else if existing != nil {
		resolvedDN = existing.ExternalID
	}

	if err := s.bindAsUser(client, settings, username, password, resolvedDN); err != nil {
		return nil, err
	}

	if entry == nil {
		// bound via an alternate DN form but the login filter matched nothing;
		// without an entry there is nothing to provision or refresh from
		if existing == nil {
			return nil, ErrUserNotFound
		}

		return existing, nil
	}

	if existing == nil {
		existing, err = s.provisioner.ProvisionFromEntry(settings, username, entry)
		if err != nil {
			return nil, err
		}
	} else if err := s.refreshAttributes(settings, existing, entry); err != nil {
		return nil, err
	}

	if settings.MemberOfAttr != "" {
		s.syncFromEntry(settings, existing, entry)
	}

	return existing, nil
}

// bindAsUser tries the enumerated DN candidates in order until one bind
// succeeds. An unreachable directory aborts immediately; any other failure on
// every candidate means the credentials are wrong.
func (s *Service) bindAsUser(client directory.Client, settings *models.DirectorySettings, username, password, resolvedDN string) error {
	var lastErr error

	for _, dn := range directory.BindCandidates(settings, username, resolvedDN) {
		err := client.Bind(dn, password)
		if err == nil {
			return nil
		}

		if errors.Is(err, directory.ErrUnavailable) {
			return err
		}

		lastErr = err
	}

	if lastErr == nil {
		lastErr = ErrInvalidCredentials
	}

	return lastErr
}

// refreshAttributes updates the local row from the directory entry on every
// successful directory login.
func (s *Service) refreshAttributes(settings *models.DirectorySettings, user *models.User, entry *directory.Entry) error {
	user.Email = sanitizeEmail(entry.GetAttributeValue(settings.EmailAttr))
	user.DisplayName = entry.GetAttributeValue(settings.DisplayNameAttr)
	user.ExternalID = entry.DN

	if err := s.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"email":        user.Email,
			"display_name": user.DisplayName,
			"external_id":  user.ExternalID,
		}).Error; err != nil {
		return fmt.Errorf("failed to refresh user attributes: %w", err)
	}

	return nil
}

// syncFromEntry reconciles group membership from the entry's membership
// attribute. Sync failures do not fail the login; local membership simply
// keeps its previous state.
func (s *Service) syncFromEntry(settings *models.DirectorySettings, user *models.User, entry *directory.Entry) {
	groupIDs, err := s.provisioner.GroupIDsFromMemberOf(settings, entry)
	if err != nil {
		log.Warn().Err(err).Str("username", user.Username).Msg("skipping group sync on login")

		return
	}

	if _, err := s.sync.SyncMembership(user.Username, user, groupIDs); err != nil {
		log.Warn().Err(err).Str("username", user.Username).Msg("group sync failed during login")
	}
}

// VerifyToken validates a session token and re-reads the identity row so
// deactivation after issuance takes immediate effect.
func (s *Service) VerifyToken(tokenString string) (*IdentitySummary, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}

		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	return summarize(&user), nil
}

// ChangeOwnPassword verifies the current password against the identity's
// authority and stores the new one through the same authority.
func (s *Service) ChangeOwnPassword(user *models.User, currentPassword, newPassword string) error {
	if user.DirectoryManaged() {
		if err := s.directoryPasswordChange(user, currentPassword, newPassword); err != nil {
			return err
		}
	} else {
		if !s.credentials.Verify(currentPassword, user.Password) {
			return ErrInvalidOldPassword
		}

		if err := s.credentials.ValidateComplexity(newPassword); err != nil {
			return err
		}

		if err := s.credentials.StorePassword(s.db, user, newPassword); err != nil {
			return err
		}
	}

	s.recorder.Record(audit.NewEvent(user.Username, audit.ActionPasswordChange, user.Username, audit.OutcomeSuccess, ""))

	return nil
}

// ResetPassword sets a new password without checking the current one. The
// routing to local store or directory follows the identity's authority.
func (s *Service) ResetPassword(actor string, user *models.User, newPassword string) error {
	if user.DirectoryManaged() {
		if err := s.directoryPasswordSet(user, newPassword); err != nil {
			return err
		}
	} else {
		if err := s.credentials.ValidateComplexity(newPassword); err != nil {
			return err
		}

		if err := s.credentials.StorePassword(s.db, user, newPassword); err != nil {
			return err
		}
	}

	s.recorder.Record(audit.NewEvent(actor, audit.ActionPasswordReset, user.Username, audit.OutcomeSuccess, ""))

	return nil
}

// directoryPasswordChange verifies the current password with a user bind and
// then writes the new one under the service bind.
func (s *Service) directoryPasswordChange(user *models.User, currentPassword, newPassword string) error {
	if !user.DirectoryManaged() {
		return ErrNotDirectoryManaged
	}

	settings, err := directorysettings.Get(s.db)
	if err != nil {
		return err
	}

	if !settings.Enabled {
		return directory.ErrDisabled
	}

	client, err := s.connect(settings)
	if err != nil {
		return err
	}

	defer client.Close()

	if err := client.Bind(user.ExternalID, currentPassword); err != nil {
		if errors.Is(err, directory.ErrInvalidCredentials) {
			return ErrInvalidOldPassword
		}

		return err
	}

	if settings.BindDN != "" {
		if err := client.Bind(settings.BindDN, settings.BindPassword); err != nil {
			return err
		}
	}

	return client.SetPassword(user.ExternalID, newPassword)
}

// directoryPasswordSet writes a new password under the service bind only.
func (s *Service) directoryPasswordSet(user *models.User, newPassword string) error {
	if !user.DirectoryManaged() {
		return ErrNotDirectoryManaged
	}

	settings, err := directorysettings.Get(s.db)
	if err != nil {
		return err
	}

	if !settings.Enabled {
		return directory.ErrDisabled
	}

	client, err := s.connect(settings)
	if err != nil {
		return err
	}

	defer client.Close()

	if settings.BindDN != "" {
		if err := client.Bind(settings.BindDN, settings.BindPassword); err != nil {
			return err
		}
	}

	return client.SetPassword(user.ExternalID, newPassword)
}

// findUser loads a user by username, returning nil without error when the
// username is unknown.
func (s *Service) findUser(username string) (*models.User, error) {
	var user models.User

	err := s.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &user, nil
}

func summarize(user *models.User) *IdentitySummary {
	return &IdentitySummary{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		DisplayName:      user.DisplayName,
		DirectoryManaged: user.DirectoryManaged(),
	}
}
