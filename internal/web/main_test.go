package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/auth"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/config"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/controller/directorysettings"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
	"github.com/NetConsole-Admin/NetConsole-Admin/internal/directory"
)

const testTimeoutMS = 15000

// setupService builds the full web service against an in-memory database and
// a fake directory.
func setupService(t *testing.T) (*Service, *gorm.DB, *directory.Fake) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Group{}, &models.UserGroup{}, &models.DirectorySettings{},
	))

	cfg := &config.Config{
		Title: "test",
		Webserver: config.Webserver{
			Port:         8080,
			ShutDownTime: 1,
			URL:          "http://localhost:8080",
			Token: config.Token{
				SigningKey: "test-signing-key",
				Validity:   time.Hour,
			},
		},
	}

	fake := directory.NewFake()

	return New(cfg, db, fake.Connector()), db, fake
}

func createUser(t *testing.T, db *gorm.DB, username, password string) *models.User {
	t.Helper()

	store := auth.NewCredentialStore(nil)
	hash, err := store.Hash(password)
	require.NoError(t, err)

	user := &models.User{
		Active:     true,
		Username:   username,
		Password:   hash,
		AuthSource: models.AuthSourceLocal,
	}
	require.NoError(t, db.Create(user).Error)

	return user
}

func createAdmin(t *testing.T, db *gorm.DB, username, password string) *models.User {
	t.Helper()

	user := createUser(t, db, username, password)

	group := &models.Group{
		Name:   "Administrators",
		Source: models.GroupSourceLocal,
		Permissions: models.PermissionMap{
			auth.ResourceUsers:    {auth.ActionManage},
			auth.ResourceSettings: {auth.ActionManage},
		},
	}
	require.NoError(t, db.Create(group).Error)
	require.NoError(t, db.Create(&models.UserGroup{UserID: user.ID, GroupID: group.ID}).Error)

	return user
}

func doJSON(t *testing.T, service *Service, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := service.App.Test(req, testTimeoutMS)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	defer resp.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func loginToken(t *testing.T, service *Service, username, password string) string {
	t.Helper()

	resp := doJSON(t, service, http.MethodPost, "/api/login", "",
		map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	return token
}

func TestCheckAlive(t *testing.T) {
	service, _, _ := setupService(t)

	resp := doJSON(t, service, http.MethodGet, CheckAlivePath, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	service, _, _ := setupService(t)

	resp := doJSON(t, service, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginAndWhoami(t *testing.T) {
	service, db, _ := setupService(t)
	createUser(t, db, "jdoe", "Sup3r-secret")

	token := loginToken(t, service, "jdoe", "Sup3r-secret")

	resp := doJSON(t, service, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	identity, _ := body["identity"].(map[string]any)
	require.NotNil(t, identity)
	assert.Equal(t, "jdoe", identity["username"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	service, db, _ := setupService(t)
	createUser(t, db, "jdoe", "Sup3r-secret")

	resp := doJSON(t, service, http.MethodPost, "/api/login", "",
		map[string]string{"username": "jdoe", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, service, http.MethodPost, "/api/login", "",
		map[string]string{"username": "nobody", "password": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWhoamiRequiresToken(t *testing.T) {
	service, _, _ := setupService(t)

	resp := doJSON(t, service, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, service, http.MethodGet, "/api/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChangeOwnPassword(t *testing.T) {
	service, db, _ := setupService(t)
	createUser(t, db, "jdoe", "Old-pass1!")

	token := loginToken(t, service, "jdoe", "Old-pass1!")

	resp := doJSON(t, service, http.MethodPost, "/api/me/password", token,
		map[string]string{"current_password": "wrong", "new_password": "New-pass1!"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, service, http.MethodPost, "/api/me/password", token,
		map[string]string{"current_password": "Old-pass1!", "new_password": "weak"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, service, http.MethodPost, "/api/me/password", token,
		map[string]string{"current_password": "Old-pass1!", "new_password": "New-pass1!"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	loginToken(t, service, "jdoe", "New-pass1!")
}

func TestAdminResetPasswordRequiresCapability(t *testing.T) {
	service, db, _ := setupService(t)
	createAdmin(t, db, "admin", "Admin-pass1!")
	target := createUser(t, db, "jdoe", "Old-pass1!")

	plainToken := loginToken(t, service, "jdoe", "Old-pass1!")
	adminToken := loginToken(t, service, "admin", "Admin-pass1!")

	path := "/api/admin/users/" + itoa(target.ID) + "/password"

	resp := doJSON(t, service, http.MethodPost, path, plainToken,
		map[string]string{"new_password": "New-pass1!"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, service, http.MethodPost, path, adminToken,
		map[string]string{"new_password": "New-pass1!"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	loginToken(t, service, "jdoe", "New-pass1!")
}

func TestAdminSetGroups(t *testing.T) {
	service, db, _ := setupService(t)
	createAdmin(t, db, "admin", "Admin-pass1!")
	target := createUser(t, db, "jdoe", "Old-pass1!")

	group := &models.Group{
		Name:       "NetOps",
		Source:     models.GroupSourceDirectory,
		ExternalID: "CN=NetOps,OU=Groups,DC=example,DC=com",
	}
	require.NoError(t, db.Create(group).Error)

	adminToken := loginToken(t, service, "admin", "Admin-pass1!")

	resp := doJSON(t, service, http.MethodPost, "/api/admin/users/"+itoa(target.ID)+"/groups", adminToken,
		map[string]any{"group_ids": []uint{group.ID}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var memberships []models.UserGroup
	require.NoError(t, db.Where("user_id = ?", target.ID).Find(&memberships).Error)
	require.Len(t, memberships, 1)
	assert.Equal(t, group.ID, memberships[0].GroupID)
}

func TestAdminImport(t *testing.T) {
	service, db, fake := setupService(t)
	createAdmin(t, db, "admin", "Admin-pass1!")

	settings := directorysettings.Defaults()
	settings.Enabled = true
	settings.Host = "dc1.example.com"
	settings.BaseDN = "DC=example,DC=com"
	settings.BindDN = "CN=svc,DC=example,DC=com"
	settings.BindPassword = "svc-secret"
	require.NoError(t, db.Create(settings).Error)

	fake.SetSecret(settings.BindDN, settings.BindPassword)
	fake.AddSearchResult(directory.UserFilter(settings, "alice"), &directory.Entry{
		DN: "CN=alice,OU=People,DC=example,DC=com",
		Attributes: map[string][]string{
			settings.UsernameAttr:    {"alice"},
			settings.EmailAttr:       {"alice@example.com"},
			settings.DisplayNameAttr: {"Alice"},
			"objectClass":            {"top", "person", "user"},
		},
	})

	adminToken := loginToken(t, service, "admin", "Admin-pass1!")

	resp := doJSON(t, service, http.MethodPost, "/api/admin/users/import", adminToken,
		map[string]any{"usernames": []string{"alice"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, []any{"alice"}, body["imported"])

	var user models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
	assert.Equal(t, models.AuthSourceDirectory, user.AuthSource)
}

func TestDirectorySettingsEndpoints(t *testing.T) {
	service, db, fake := setupService(t)
	createAdmin(t, db, "admin", "Admin-pass1!")

	adminToken := loginToken(t, service, "admin", "Admin-pass1!")

	// enabling without a host is rejected
	resp := doJSON(t, service, http.MethodPut, "/api/admin/settings/directory", adminToken,
		map[string]any{"Enabled": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, service, http.MethodPut, "/api/admin/settings/directory", adminToken,
		map[string]any{
			"Enabled":      true,
			"Host":         "dc1.example.com",
			"BaseDN":       "DC=example,DC=com",
			"BindDN":       "CN=svc,DC=example,DC=com",
			"BindPassword": "svc-secret",
		})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// stored bind password never leaves the server
	resp = doJSON(t, service, http.MethodGet, "/api/admin/settings/directory", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Empty(t, body["BindPassword"])

	// connection test succeeds against the fake once the service bind works
	fake.SetSecret("CN=svc,DC=example,DC=com", "svc-secret")

	resp = doJSON(t, service, http.MethodPost, "/api/admin/settings/directory/test", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}
