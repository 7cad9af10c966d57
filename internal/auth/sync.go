package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/audit"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/controller/directorysettings"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/directory"
)

// SyncError is one per-group directory failure collected during a sync.
type SyncError struct {
	// Group is the group name the failure relates to ("" for the identity itself).
	Group string
	// Err is the underlying failure.
	Err error
}

// SyncResult reports the directory changes a sync attempted.
type SyncResult struct {
	// Added lists groups the identity was added to on the directory side.
	Added []string
	// Removed lists groups the identity was removed from on the directory side.
	Removed []string
	// Errors collects per-group directory failures. The local membership table
	// is reconciled even when this is non-empty.
	Errors []SyncError
}

// GroupSyncEngine reconciles membership between the local store and the
// directory. Local state is the source of truth for authorization: the
// membership table always ends up mirroring the desired set for directory
// sourced groups, while directory-side changes are pushed best effort and
// reported. Local-only groups are never touched.
type GroupSyncEngine struct {
	db       *gorm.DB
	connect  directory.Connector
	recorder audit.Recorder

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// NewGroupSyncEngine creates a group sync engine.
func NewGroupSyncEngine(db *gorm.DB, connect directory.Connector, recorder audit.Recorder) *GroupSyncEngine {
	return &GroupSyncEngine{
		db:       db,
		connect:  connect,
		recorder: recorder,
		locks:    make(map[uint64]*sync.Mutex),
	}
}

// lockFor returns the per-identity mutex serializing syncs for one user.
// Syncs for different identities proceed concurrently.
func (e *GroupSyncEngine) lockFor(userID uint64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[userID] = lock
	}

	return lock
}

// SyncMembership reconciles the user's membership in directory sourced
// groups to exactly the desired group ids. Ids of local groups in the
// desired set are ignored. Only a fully unreachable directory aborts the
// operation; individual directory failures are collected in the result.
func (e *GroupSyncEngine) SyncMembership(actor string, user *models.User, desiredGroupIDs []uint) (*SyncResult, error) {
	lock := e.lockFor(user.ID)
	lock.Lock()
	defer lock.Unlock()

	// only directory sourced groups participate in reconciliation
	var desired []models.Group

	if len(desiredGroupIDs) > 0 {
		if err := e.db.
			Where("id IN ? AND source = ?", desiredGroupIDs, models.GroupSourceDirectory).
			Find(&desired).Error; err != nil {
			return nil, fmt.Errorf("failed to load desired groups: %w", err)
		}
	}

	settings, err := directorysettings.Get(e.db)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}

	if settings.Enabled {
		if err := e.pushToDirectory(settings, user, desired, result); err != nil {
			e.recorder.Record(audit.NewEvent(actor, audit.ActionGroupSync, user.Username,
				audit.OutcomeFailure, err.Error()))

			return nil, err
		}
	}

	if err := e.reconcileLocal(user, desired); err != nil {
		return nil, err
	}

	e.recorder.Record(audit.NewEvent(actor, audit.ActionGroupSync, user.Username,
		audit.OutcomeSuccess,
		fmt.Sprintf("added=%d removed=%d errors=%d", len(result.Added), len(result.Removed), len(result.Errors))))

	return result, nil
}

// reconcileLocal mirrors the desired set exactly for directory sourced
// groups, delete-then-recreate inside one transaction. Memberships in local
// groups are left alone.
func (e *GroupSyncEngine) reconcileLocal(user *models.User, desired []models.Group) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).
			Where("group_id IN (SELECT id FROM groups WHERE source = ?)", models.GroupSourceDirectory).
			Delete(&models.UserGroup{}).Error; err != nil {
			return fmt.Errorf("failed to remove old group memberships: %w", err)
		}

		for _, group := range desired {
			if err := tx.Create(&models.UserGroup{
				UserID:  user.ID,
				GroupID: group.ID,
			}).Error; err != nil {
				return fmt.Errorf("failed to add group membership: %w", err)
			}
		}

		return nil
	})
}

// pushToDirectory computes the directory-side delta and issues the member
// attribute modifications. Benign outcomes are logged, per-group failures
// collected; only ErrUnavailable propagates and aborts the sync.
func (e *GroupSyncEngine) pushToDirectory(
	settings *models.DirectorySettings,
	user *models.User,
	desired []models.Group,
	result *SyncResult,
) error {
	client, err := e.connect(settings)
	if err != nil {
		if errors.Is(err, directory.ErrDisabled) {
			return nil
		}

		return err
	}

	defer client.Close()

	if settings.BindDN != "" {
		if err := client.Bind(settings.BindDN, settings.BindPassword); err != nil {
			return err
		}
	}

	userDN, err := e.resolveUserDN(client, settings, user)
	if err != nil {
		if errors.Is(err, directory.ErrUnavailable) {
			return err
		}

		// directory push impossible for this identity; local reconcile still runs
		result.Errors = append(result.Errors, SyncError{Err: err})

		return nil
	}

	current, err := e.currentGroupDNs(client, settings, userDN)
	if err != nil {
		if errors.Is(err, directory.ErrUnavailable) {
			return err
		}

		result.Errors = append(result.Errors, SyncError{Err: err})

		return nil
	}

	desiredDNs := make(map[string]bool, len(desired))
	for _, group := range desired {
		if group.ExternalID != "" {
			desiredDNs[group.ExternalID] = true
		}
	}

	// toAdd = desired - current
	for _, group := range desired {
		if group.ExternalID == "" {
			result.Errors = append(result.Errors, SyncError{
				Group: group.Name,
				Err:   errors.New("group has no directory DN"),
			})

			continue
		}

		if current[group.ExternalID] {
			continue
		}

		outcome, errModify := client.ModifyAttribute(group.ExternalID, directory.OpAdd, settings.GroupMemberAttr, userDN)
		if errModify != nil {
			if errors.Is(errModify, directory.ErrUnavailable) {
				return errModify
			}

			result.Errors = append(result.Errors, SyncError{Group: group.Name, Err: errModify})

			continue
		}

		if outcome != directory.OutcomeApplied {
			log.Debug().Str("group", group.Name).Stringer("outcome", outcome).
				Msg("benign directory modify outcome during member add")
		}

		result.Added = append(result.Added, group.Name)
	}

	// toRemove = current - desired, restricted to groups mirrored locally
	removals, err := e.removableGroups(current, desiredDNs)
	if err != nil {
		return err
	}

	for _, group := range removals {
		outcome, errModify := client.ModifyAttribute(group.ExternalID, directory.OpDelete, settings.GroupMemberAttr, userDN)
		if errModify != nil {
			if errors.Is(errModify, directory.ErrUnavailable) {
				return errModify
			}

			result.Errors = append(result.Errors, SyncError{Group: group.Name, Err: errModify})

			continue
		}

		if outcome != directory.OutcomeApplied {
			log.Debug().Str("group", group.Name).Stringer("outcome", outcome).
				Msg("benign directory modify outcome during member delete")
		}

		result.Removed = append(result.Removed, group.Name)
	}

	return nil
}

// removableGroups maps the current directory-side memberships to locally
// mirrored groups that are not in the desired set. Directory groups unknown
// to the local store are left untouched.
func (e *GroupSyncEngine) removableGroups(current, desiredDNs map[string]bool) ([]models.Group, error) {
	currentDNs := make([]string, 0, len(current))

	for dn := range current {
		if !desiredDNs[dn] {
			currentDNs = append(currentDNs, dn)
		}
	}

	if len(currentDNs) == 0 {
		return nil, nil
	}

	var groups []models.Group
	if err := e.db.
		Where("source = ? AND external_id IN ?", models.GroupSourceDirectory, currentDNs).
		Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to load current groups: %w", err)
	}

	return groups, nil
}

// resolveUserDN finds the identity's DN via the configured login filter,
// falling back to the stored DN when the search finds nothing.
func (e *GroupSyncEngine) resolveUserDN(client directory.Client, settings *models.DirectorySettings, user *models.User) (string, error) {
	stream, err := client.Search(settings.BaseDN, directory.UserFilter(settings, user.Username),
		directory.ScopeSubtree, []string{settings.UsernameAttr})
	if err != nil {
		return "", err
	}

	entry, err := directory.CollectOne(stream)
	if err != nil {
		if errors.Is(err, directory.ErrEntryNotFound) && user.ExternalID != "" {
			return user.ExternalID, nil
		}

		return "", err
	}

	return entry.DN, nil
}

// currentGroupDNs performs the reverse membership lookup: all groups whose
// member attribute references the identity's DN.
func (e *GroupSyncEngine) currentGroupDNs(client directory.Client, settings *models.DirectorySettings, userDN string) (map[string]bool, error) {
	baseDN := settings.GroupBaseDN
	if baseDN == "" {
		baseDN = settings.BaseDN
	}

	stream, err := client.Search(baseDN, directory.GroupFilter(settings, userDN),
		directory.ScopeSubtree, []string{settings.GroupNameAttr})
	if err != nil {
		return nil, err
	}

	entries, err := directory.Collect(stream)
	if err != nil {
		return nil, err
	}

	current := make(map[string]bool, len(entries))
	for _, entry := range entries {
		current[entry.DN] = true
	}

	return current, nil
}
