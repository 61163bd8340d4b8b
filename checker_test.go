package iamkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCheckerNewChecker tests the checker constructor
func TestCheckerNewChecker(t *testing.T) {
	actor := Actor{UserID: 7, CompanyID: 3, Permissions: NewPermissionSet(PermAdmin)}
	checker := NewChecker(actor)

	assert.Equal(t, int64(7), checker.UserID())
	assert.Equal(t, int64(3), checker.CompanyID())
	assert.Equal(t, actor, checker.Actor())
}

// TestCheckerCan tests policy evaluation through the checker
func TestCheckerCan(t *testing.T) {
	checker := NewChecker(adminActor(3))

	assert.True(t, checker.Can(OpUpdate, Target{Kind: KindUser, CompanyID: 3, UserID: 20}))
	assert.False(t, checker.Can(OpUpdate, Target{Kind: KindUser, CompanyID: 4, UserID: 20}))

	d := checker.Check(OpUpdate, Target{Kind: KindUser, CompanyID: 4, UserID: 20})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonCrossCompany, d.Reason)
}

// TestCheckerHasPermission tests raw set lookups
func TestCheckerHasPermission(t *testing.T) {
	checker := NewChecker(Actor{UserID: 7, Permissions: NewPermissionSet(PermAdmin, PermCreateRole)})

	assert.True(t, checker.HasPermission(PermAdmin))
	assert.False(t, checker.HasPermission(PermSuperAdmin))

	assert.True(t, checker.HasAnyPermission(PermSuperAdmin, PermAdmin))
	assert.False(t, checker.HasAnyPermission(PermSuperAdmin, PermUser))
	assert.False(t, checker.HasAnyPermission())

	assert.True(t, checker.HasAllPermissions(PermAdmin, PermCreateRole))
	assert.False(t, checker.HasAllPermissions(PermAdmin, PermSuperAdmin))
	assert.True(t, checker.HasAllPermissions())
}

// TestCheckerTiers tests the tier convenience accessors
func TestCheckerTiers(t *testing.T) {
	assert.True(t, NewChecker(superActor()).IsSuperAdmin())
	assert.False(t, NewChecker(superActor()).IsAdmin())
	assert.True(t, NewChecker(adminActor(3)).IsAdmin())

	empty := NewChecker(Actor{UserID: 7})
	assert.True(t, empty.IsEmpty())
	assert.Empty(t, empty.Permissions())

	checker := NewChecker(Actor{Permissions: NewPermissionSet(PermUser, PermAdmin)})
	assert.False(t, checker.IsEmpty())
	assert.Equal(t, []string{PermAdmin, PermUser}, checker.Permissions())
}
