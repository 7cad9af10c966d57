package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionMapGrants(t *testing.T) {
	m := PermissionMap{
		"devices": {"view", "edit"},
		"users":   {"manage"},
	}

	assert.True(t, m.Grants("devices", "view"))
	assert.True(t, m.Grants("devices", "edit"))
	assert.False(t, m.Grants("devices", "delete"))
	assert.False(t, m.Grants("audit", "view"))
}

func TestPermissionMapMerge(t *testing.T) {
	a := PermissionMap{"devices": {"view"}}
	b := PermissionMap{"devices": {"view", "edit"}, "users": {"manage"}}

	merged := a.Merge(b)

	assert.True(t, merged.Grants("devices", "view"))
	assert.True(t, merged.Grants("devices", "edit"))
	assert.True(t, merged.Grants("users", "manage"))

	// no duplicate verbs after merging overlapping maps
	assert.Len(t, merged["devices"], 2)

	// inputs stay untouched
	assert.False(t, a.Grants("devices", "edit"))
}

func TestPermissionMapValidate(t *testing.T) {
	testCases := []struct {
		name    string
		m       PermissionMap
		wantErr bool
	}{
		{name: "valid", m: PermissionMap{"devices": {"view"}}},
		{name: "empty map", m: PermissionMap{}},
		{name: "empty resource", m: PermissionMap{"": {"view"}}, wantErr: true},
		{name: "no actions", m: PermissionMap{"devices": {}}, wantErr: true},
		{name: "empty action", m: PermissionMap{"devices": {""}}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.m.Validate()
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidPermissionMap)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPermissionMapValueScanRoundTrip(t *testing.T) {
	m := PermissionMap{"devices": {"view", "edit"}}

	v, err := m.Value()
	require.NoError(t, err)

	var decoded PermissionMap
	require.NoError(t, decoded.Scan(v))

	assert.True(t, decoded.Grants("devices", "edit"))
}

func TestPermissionMapScanRejectsInvalid(t *testing.T) {
	var m PermissionMap

	require.ErrorIs(t, m.Scan(`{"devices":[]}`), ErrInvalidPermissionMap)
	require.ErrorIs(t, m.Scan(`not json`), ErrInvalidPermissionMap)
	require.ErrorIs(t, m.Scan(42), ErrInvalidPermissionMap)
}

func TestPermissionMapScanNil(t *testing.T) {
	var m PermissionMap

	require.NoError(t, m.Scan(nil))
	assert.NotNil(t, m)
	assert.False(t, m.Grants("devices", "view"))
}

func TestPermissionMapValueRejectsInvalid(t *testing.T) {
	m := PermissionMap{"devices": {}}

	_, err := m.Value()
	require.ErrorIs(t, err, ErrInvalidPermissionMap)
}
