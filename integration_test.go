package iamkit

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIntegration(t *testing.T) (context.Context, *Service, *TestFixture) {
	if !RequireDatabase(t) {
		return nil, nil, nil
	}

	ctx := context.Background()
	service, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	fixture, err := SeedFixture(ctx, service)
	require.NoError(t, err)

	return ctx, service, fixture
}

// TestIntegrationResolvePermissions tests resolution against seeded data
func TestIntegrationResolvePermissions(t *testing.T) {
	ctx, service, f := setupIntegration(t)
	if service == nil {
		return
	}

	perms, err := service.ResolvePermissions(ctx, f.SuperAdmin.ID)
	require.NoError(t, err)
	assert.True(t, perms.SuperAdmin())

	perms, err = service.ResolvePermissions(ctx, f.Member.ID)
	require.NoError(t, err)
	assert.True(t, perms.User())
	assert.False(t, perms.Admin())

	_, err = service.ResolvePermissions(ctx, 99999999)
	assert.True(t, IsNotFound(err))

	actor, err := service.ActorFor(ctx, f.Admin.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Admin.ID, actor.UserID)
	assert.Equal(t, f.Company.ID, actor.CompanyID)
	assert.True(t, actor.Permissions.Admin())
}

// TestIntegrationAssignPermissionsIdempotent tests repeated assignment of the same set
func TestIntegrationAssignPermissionsIdempotent(t *testing.T) {
	ctx, service, f := setupIntegration(t)
	if service == nil {
		return
	}

	role, err := service.CreateRole(ctx, f.SuperAdmin.ID, "auditor-"+f.Company.Domain, RoleTypeManual)
	require.NoError(t, err)

	perm, err := service.GetPermissionByName(ctx, f.SuperAdmin.ID, PermUser)
	require.NoError(t, err)

	require.NoError(t, service.AssignPermissions(ctx, f.SuperAdmin.ID, role.ID, []int64{perm.ID}))
	// Assigning again is a silent no-op
	require.NoError(t, service.AssignPermissions(ctx, f.SuperAdmin.ID, role.ID, []int64{perm.ID}))

	perms, err := service.GetRolePermissions(ctx, f.SuperAdmin.ID, role.ID)
	require.NoError(t, err)
	assert.Len(t, perms, 1)
	assert.Equal(t, PermUser, perms[0].Name)
}

// TestIntegrationConcurrentAssignSamePair tests racing assigns of one pair
func TestIntegrationConcurrentAssignSamePair(t *testing.T) {
	ctx, service, f := setupIntegration(t)
	if service == nil {
		return
	}

	role, err := service.CreateRole(ctx, f.SuperAdmin.ID, "raced-"+f.Company.Domain, RoleTypeManual)
	require.NoError(t, err)

	perm, err := service.GetPermissionByName(ctx, f.SuperAdmin.ID, PermUser)
	require.NoError(t, err)

	// Every writer may see the pair absent before any insert commits; the
	// conflict target must turn the losers into no-ops, not errors.
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = service.AssignPermissions(ctx, f.SuperAdmin.ID, role.ID, []int64{perm.ID})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	perms, err := service.GetRolePermissions(ctx, f.SuperAdmin.ID, role.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, PermUser, perms[0].Name)

	// The audit trail records the one insert that actually landed
	logs, err := service.GetAuditLog(ctx, NewAuditLogFilter().WithRole(role.ID))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

// TestIntegrationRemovePermissionsNoOp tests removal of an unassigned permission
func TestIntegrationRemovePermissionsNoOp(t *testing.T) {
	ctx, service, f := setupIntegration(t)
	if service == nil {
		return
	}

	role, err := service.CreateRole(ctx, f.SuperAdmin.ID, "scratch-"+f.Company.Domain, RoleTypeManual)
	require.NoError(t, err)

	perm, err := service.GetPermissionByName(ctx, f.SuperAdmin.ID, PermCreateRole)
	require.NoError(t, err)

	// Nothing assigned yet; removal succeeds and changes nothing
	require.NoError(t, service.RemovePermissions(ctx, f.SuperAdmin.ID, role.ID, []int64{perm.ID}))

	perms, err := service.GetRolePermissions(ctx, f.SuperAdmin.ID, role.ID)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

// TestIntegrationAssignmentGating tests that only the global tier touches assignments
func TestIntegrationAssignmentGating(t *testing.T) {
	ctx, service, f := setupIntegration(t)
	if service == nil {
		return
	}

	perm, err := service.GetPermissionByName(ctx, f.SuperAdmin.ID, PermUser)
	require.NoError(t, err)

	err = service.AssignPermissions(ctx, f.Admin.ID, f.UserRole.ID, []int64{perm.ID})
	assert.True(t, IsUnauthorized(err))

	err = service.AssignPermissions(ctx, f.SuperAdmin.ID, f.UserRole.ID, []int64{})
	assert.True(t, IsBadRequest(err))

	err = service.AssignPermissions(ctx, f.SuperAdmin.ID, f.UserRole.ID, []int64{99999999})
	assert.True(t, IsNotFound(err))
}

// TestIntegrationUserLifecycle tests creation, activation and role change
func TestIntegrationUserLifecycle(t *testing.T) {
	ctx, service, f := setupIntegration(t)
	if service == nil {
		return
	}

	role, err := service.CreateRole(ctx, f.SuperAdmin.ID, "support-"+f.Company.Domain, RoleTypeManual)
	require.NoError(t, err)

	user, err := service.CreateUser(ctx, f.SuperAdmin.ID, CreateUserInput{
		Name:      "New Hire",
		Email:     "hire-" + f.Company.Domain + "@acme.test",
		RoleID:    role.ID,
		CompanyID: f.Company.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, user.Status)
	assert.NotEmpty(t, user.AuthToken)

	// Duplicate email among active users is rejected
	_, err = service.CreateUser(ctx, f.SuperAdmin.ID, CreateUserInput{
		Name:      "Clone",
		Email:     user.Email,
		RoleID:    role.ID,
		CompanyID: f.Company.ID,
	})
	assert.True(t, IsDuplicate(err))

	// Activation consumes the token
	activated, err := service.ActivateUser(ctx, user.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, activated.Status)
	assert.Empty(t, activated.AuthToken)

	_, err = service.VerifyToken(ctx, user.AuthToken)
	assert.Error(t, err)

	// Admin can hand out MANUAL roles inside the company
	changed, err := service.ChangeUserRole(ctx, f.Admin.ID, activated.ID, role.ID)
	require.NoError(t, err)
	assert.Equal(t, role.ID, changed.RoleID)

	// But never DEFAULT roles
	_, err = service.ChangeUserRole(ctx, f.Admin.ID, activated.ID, f.UserRole.ID)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, ReasonDefaultRoleRestricted, DenialReason(err))
}

// TestIntegrationCompanyGating tests company operations per tier
func TestIntegrationCompanyGating(t *testing.T) {
	ctx, service, f := setupIntegration(t)
	if service == nil {
		return
	}

	_, err := service.CreateCompany(ctx, f.Admin.ID, CompanyInput{
		Name: "Rogue Tenant", Domain: "rogue-" + f.Company.Domain,
	})
	assert.True(t, IsUnauthorized(err))

	// An admin may read and update their own company
	got, err := service.GetCompany(ctx, f.Admin.ID, f.Company.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Company.ID, got.ID)

	updated, err := service.UpdateCompany(ctx, f.Admin.ID, f.Company.ID, CompanyInput{Industry: "logistics"})
	require.NoError(t, err)
	assert.Equal(t, "logistics", updated.Industry)

	// A member may read it but not change it
	_, err = service.GetCompany(ctx, f.Member.ID, f.Company.ID)
	require.NoError(t, err)
	_, err = service.UpdateCompany(ctx, f.Member.ID, f.Company.ID, CompanyInput{Industry: "retail"})
	assert.True(t, IsUnauthorized(err))
}

// TestIntegrationListScoping tests that listings hide other tenants and super-admins
func TestIntegrationListScoping(t *testing.T) {
	ctx, service, f := setupIntegration(t)
	if service == nil {
		return
	}

	page, err := service.ListUsers(ctx, f.Admin.ID, NewListFilter().WithSize(MaxPageSize))
	require.NoError(t, err)

	for _, u := range page.Items {
		assert.Equal(t, f.Company.ID, u.CompanyID)
		assert.NotEqual(t, f.SuperAdmin.ID, u.ID, "super-admin must not appear in company listings")
	}

	companies, err := service.ListCompanies(ctx, f.Admin.ID, NewListFilter())
	require.NoError(t, err)
	assert.Len(t, companies.Items, 1)
	assert.Equal(t, f.Company.ID, companies.Items[0].ID)
}

// TestIntegrationRoleDeleteInUse tests that held roles cannot be deleted
func TestIntegrationRoleDeleteInUse(t *testing.T) {
	ctx, service, f := setupIntegration(t)
	if service == nil {
		return
	}

	err := service.DeleteRole(ctx, f.SuperAdmin.ID, f.UserRole.ID)
	assert.True(t, IsBadRequest(err))

	role, err := service.CreateRole(ctx, f.SuperAdmin.ID, "ephemeral-"+f.Company.Domain, RoleTypeManual)
	require.NoError(t, err)
	require.NoError(t, service.DeleteRole(ctx, f.SuperAdmin.ID, role.ID))

	_, err = service.GetRole(ctx, f.SuperAdmin.ID, role.ID)
	assert.True(t, IsNotFound(err))
}

// TestIntegrationAuditTrail tests that assignment changes leave audit entries
func TestIntegrationAuditTrail(t *testing.T) {
	ctx, service, f := setupIntegration(t)
	if service == nil {
		return
	}

	role, err := service.CreateRole(ctx, f.SuperAdmin.ID, "audited-"+f.Company.Domain, RoleTypeManual)
	require.NoError(t, err)

	perm, err := service.GetPermissionByName(ctx, f.SuperAdmin.ID, PermUser)
	require.NoError(t, err)

	actx := WithAuditContext(ctx, AuditContext{
		ActorID:   f.SuperAdmin.ID,
		IPAddress: "10.0.0.1",
		RequestID: "req-audit",
	})
	require.NoError(t, service.AssignPermissions(actx, f.SuperAdmin.ID, role.ID, []int64{perm.ID}))
	require.NoError(t, service.RemovePermissions(actx, f.SuperAdmin.ID, role.ID, []int64{perm.ID}))

	logs, err := service.GetAuditLog(ctx, NewAuditLogFilter().WithRole(role.ID))
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// Newest first
	assert.Equal(t, string(AuditActionRemoved), logs[0].Action)
	assert.Equal(t, string(AuditActionAssigned), logs[1].Action)
	assert.Equal(t, f.SuperAdmin.ID, logs[0].ActorID)
	assert.Equal(t, "req-audit", logs[1].RequestID)
}

// TestIntegrationCacheInvalidation tests that assignment writes refresh resolution
func TestIntegrationCacheInvalidation(t *testing.T) {
	ctx, service, f := setupIntegration(t)
	if service == nil {
		return
	}

	role, err := service.CreateRole(ctx, f.SuperAdmin.ID, "cached-"+f.Company.Domain, RoleTypeManual)
	require.NoError(t, err)

	user, err := service.CreateUser(ctx, f.SuperAdmin.ID, CreateUserInput{
		Name:      "Cache Subject",
		Email:     "subject-" + f.Company.Domain + "@acme.test",
		RoleID:    role.ID,
		CompanyID: f.Company.ID,
	})
	require.NoError(t, err)

	perms, err := service.ResolvePermissions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, perms.Len())

	perm, err := service.GetPermissionByName(ctx, f.SuperAdmin.ID, PermUser)
	require.NoError(t, err)
	require.NoError(t, service.AssignPermissions(ctx, f.SuperAdmin.ID, role.ID, []int64{perm.ID}))

	perms, err = service.ResolvePermissions(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, perms.User())
}
