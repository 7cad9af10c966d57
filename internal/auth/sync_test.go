package auth

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/audit"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/directory"
)

const (
	testUserDN   = "CN=jdoe,OU=People,DC=example,DC=com"
	testGroupADN = "CN=NetOps,OU=Groups,DC=example,DC=com"
	testGroupBDN = "CN=Helpdesk,OU=Groups,DC=example,DC=com"
)

// syncFixture wires a sync engine against a fake directory where jdoe
// resolves to testUserDN and is currently a member of group B.
func syncFixture(t *testing.T, db *gorm.DB, fake *directory.Fake, settings *models.DirectorySettings) {
	t.Helper()

	fake.SetSecret(settings.BindDN, settings.BindPassword)
	fake.AddSearchResult(directory.UserFilter(settings, "jdoe"), &directory.Entry{DN: testUserDN})
	fake.AddSearchResult(directory.GroupFilter(settings, testUserDN), &directory.Entry{DN: testGroupBDN})
	fake.SetAttribute(testGroupBDN, settings.GroupMemberAttr, testUserDN)
}

func TestSyncMembershipAddsAndRemoves(t *testing.T) {
	db := setupTestDB(t)
	settings := enableDirectory(t, db)
	fake := directory.NewFake()
	syncFixture(t, db, fake, settings)

	groupA := createGroup(t, db, "NetOps", models.GroupSourceDirectory, testGroupADN)
	groupB := createGroup(t, db, "Helpdesk", models.GroupSourceDirectory, testGroupBDN)
	localGroup := createGroup(t, db, "Console Admins", models.GroupSourceLocal, "")

	user := createDirectoryUser(t, db, "jdoe", testUserDN)
	addMembership(t, db, user, groupB)
	addMembership(t, db, user, localGroup)

	recorder := &audit.Capture{}
	engine := NewGroupSyncEngine(db, fake.Connector(), recorder)

	result, err := engine.SyncMembership("admin", user, []uint{groupA.ID})
	require.NoError(t, err)

	assert.Equal(t, []string{"NetOps"}, result.Added)
	assert.Equal(t, []string{"Helpdesk"}, result.Removed)
	assert.Empty(t, result.Errors)

	// directory state pushed
	assert.Equal(t, []string{testUserDN}, fake.AttributeValues(testGroupADN, settings.GroupMemberAttr))
	assert.Empty(t, fake.AttributeValues(testGroupBDN, settings.GroupMemberAttr))

	// local membership mirrors desired, local-only group untouched
	assert.Equal(t, []uint{groupA.ID, localGroup.ID}, membershipGroupIDs(t, db, user))

	assert.Equal(t, 1, fake.Closes)

	require.Len(t, recorder.Events, 1)
	assert.Equal(t, audit.ActionGroupSync, recorder.Events[0].Action)
	assert.Equal(t, audit.OutcomeSuccess, recorder.Events[0].Outcome)
}

func TestSyncMembershipIdempotent(t *testing.T) {
	db := setupTestDB(t)
	settings := enableDirectory(t, db)
	fake := directory.NewFake()
	syncFixture(t, db, fake, settings)

	groupA := createGroup(t, db, "NetOps", models.GroupSourceDirectory, testGroupADN)
	user := createDirectoryUser(t, db, "jdoe", testUserDN)

	engine := NewGroupSyncEngine(db, fake.Connector(), audit.Nop{})

	_, err := engine.SyncMembership("admin", user, []uint{groupA.ID})
	require.NoError(t, err)

	applied := fake.AppliedModifies()

	result, err := engine.SyncMembership("admin", user, []uint{groupA.ID})
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	// second pass only produces benign no-ops and no duplicate rows
	assert.Equal(t, applied, fake.AppliedModifies())
	assert.Equal(t, []uint{groupA.ID}, membershipGroupIDs(t, db, user))
}

func TestSyncMembershipLocalGroupIDsIgnored(t *testing.T) {
	db := setupTestDB(t)
	settings := enableDirectory(t, db)
	fake := directory.NewFake()
	syncFixture(t, db, fake, settings)

	localGroup := createGroup(t, db, "Console Admins", models.GroupSourceLocal, "")
	user := createDirectoryUser(t, db, "jdoe", testUserDN)

	engine := NewGroupSyncEngine(db, fake.Connector(), audit.Nop{})

	result, err := engine.SyncMembership("admin", user, []uint{localGroup.ID})
	require.NoError(t, err)

	// a local group id in the desired set creates no membership and no push
	assert.Empty(t, result.Added)
	assert.Empty(t, membershipGroupIDs(t, db, user))
	assert.Empty(t, fake.AttributeValues(localGroup.ExternalID, settings.GroupMemberAttr))
}

func TestSyncMembershipUnreachableAborts(t *testing.T) {
	db := setupTestDB(t)
	enableDirectory(t, db)

	fake := directory.NewFake()
	fake.DialErr = directory.ErrUnavailable

	groupA := createGroup(t, db, "NetOps", models.GroupSourceDirectory, testGroupADN)
	groupB := createGroup(t, db, "Helpdesk", models.GroupSourceDirectory, testGroupBDN)
	user := createDirectoryUser(t, db, "jdoe", testUserDN)
	addMembership(t, db, user, groupB)

	recorder := &audit.Capture{}
	engine := NewGroupSyncEngine(db, fake.Connector(), recorder)

	_, err := engine.SyncMembership("admin", user, []uint{groupA.ID})
	require.ErrorIs(t, err, directory.ErrUnavailable)

	// local state untouched when the whole directory is unreachable
	assert.Equal(t, []uint{groupB.ID}, membershipGroupIDs(t, db, user))

	require.Len(t, recorder.Events, 1)
	assert.Equal(t, audit.OutcomeFailure, recorder.Events[0].Outcome)
}

func TestSyncMembershipCollectsPerGroupErrors(t *testing.T) {
	db := setupTestDB(t)
	settings := enableDirectory(t, db)
	fake := directory.NewFake()
	syncFixture(t, db, fake, settings)
	fake.FailModify(testGroupADN, directory.ErrProtocol)

	groupA := createGroup(t, db, "NetOps", models.GroupSourceDirectory, testGroupADN)
	groupB := createGroup(t, db, "Helpdesk", models.GroupSourceDirectory, testGroupBDN)
	user := createDirectoryUser(t, db, "jdoe", testUserDN)
	addMembership(t, db, user, groupB)

	engine := NewGroupSyncEngine(db, fake.Connector(), audit.Nop{})

	result, err := engine.SyncMembership("admin", user, []uint{groupA.ID})
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "NetOps", result.Errors[0].Group)
	assert.ErrorIs(t, result.Errors[0].Err, directory.ErrProtocol)

	// removal of group B still happened
	assert.Equal(t, []string{"Helpdesk"}, result.Removed)

	// local state mirrors desired despite the partial directory failure
	assert.Equal(t, []uint{groupA.ID}, membershipGroupIDs(t, db, user))
}

func TestSyncMembershipDirectoryDisabled(t *testing.T) {
	db := setupTestDB(t)

	fake := directory.NewFake()
	groupA := createGroup(t, db, "NetOps", models.GroupSourceDirectory, testGroupADN)
	groupB := createGroup(t, db, "Helpdesk", models.GroupSourceDirectory, testGroupBDN)
	user := createDirectoryUser(t, db, "jdoe", testUserDN)
	addMembership(t, db, user, groupB)

	engine := NewGroupSyncEngine(db, fake.Connector(), audit.Nop{})

	result, err := engine.SyncMembership("admin", user, []uint{groupA.ID})
	require.NoError(t, err)

	// no directory traffic, local reconcile only
	assert.Equal(t, 0, fake.Dials)
	assert.Empty(t, result.Added)
	assert.Equal(t, []uint{groupA.ID}, membershipGroupIDs(t, db, user))
}

func TestSyncMembershipConcurrentSameIdentity(t *testing.T) {
	db := setupTestDB(t)

	fake := directory.NewFake()
	groupA := createGroup(t, db, "NetOps", models.GroupSourceDirectory, testGroupADN)
	groupB := createGroup(t, db, "Helpdesk", models.GroupSourceDirectory, testGroupBDN)
	user := createDirectoryUser(t, db, "jdoe", testUserDN)

	engine := NewGroupSyncEngine(db, fake.Connector(), audit.Nop{})

	// interleave two desired sets; serialization per identity means every
	// reconcile runs to completion, so the end state is exactly one of them
	const workers = 8

	var wg sync.WaitGroup

	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		desired := []uint{groupA.ID}
		if i%2 == 1 {
			desired = []uint{groupB.ID}
		}

		wg.Add(1)

		go func(desired []uint) {
			defer wg.Done()

			_, err := engine.SyncMembership("admin", user, desired)
			errs <- err
		}(desired)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got := membershipGroupIDs(t, db, user)
	require.Len(t, got, 1)
	assert.Contains(t, [][]uint{{groupA.ID}, {groupB.ID}}, got)
}
