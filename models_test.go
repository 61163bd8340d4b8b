package iamkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestParseUserStatus tests status normalization
func TestParseUserStatus(t *testing.T) {
	status, err := ParseUserStatus("active")
	assert.NoError(t, err)
	assert.Equal(t, StatusActive, status)

	status, err = ParseUserStatus("  VPENDING ")
	assert.NoError(t, err)
	assert.Equal(t, StatusPending, status)

	_, err = ParseUserStatus("frozen")
	assert.Error(t, err)
	assert.True(t, IsBadRequest(err))
}

// TestParseRoleType tests role type normalization
func TestParseRoleType(t *testing.T) {
	rt, err := ParseRoleType("manual")
	assert.NoError(t, err)
	assert.Equal(t, RoleTypeManual, rt)

	rt, err = ParseRoleType("DEFAULT")
	assert.NoError(t, err)
	assert.Equal(t, RoleTypeDefault, rt)

	_, err = ParseRoleType("custom")
	assert.Error(t, err)
	assert.True(t, IsBadRequest(err))
}

// TestTombstone tests the soft-delete accessors
func TestTombstone(t *testing.T) {
	user := &User{ID: 7}
	assert.False(t, user.Deleted())
	_, ok := user.Tombstone()
	assert.False(t, ok)

	at := time.Now()
	by := int64(1)
	user.DeletedAt = &at
	user.DeletedBy = &by

	assert.True(t, user.Deleted())
	ts, ok := user.Tombstone()
	assert.True(t, ok)
	assert.Equal(t, at, ts.At)
	assert.Equal(t, by, ts.By)

	// DeletedBy may be missing on legacy rows
	role := &Role{DeletedAt: &at}
	assert.True(t, role.Deleted())
	ts, ok = role.Tombstone()
	assert.True(t, ok)
	assert.Zero(t, ts.By)

	company := &Company{DeletedAt: &at, DeletedBy: &by}
	ts, ok = company.Tombstone()
	assert.True(t, ok)
	assert.Equal(t, by, ts.By)
}
