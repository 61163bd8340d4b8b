package iamkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
)

// ============================================================================
// INTERNAL DATA ACCESS
// ============================================================================
//
// All fetchers exclude tombstoned rows. A tombstoned record does not exist as
// far as the rest of the package is concerned, so every lookup miss surfaces
// as ErrNotFound regardless of whether the row is absent or soft-deleted.

func (s *Service) fetchUser(ctx context.Context, id int64) (*User, error) {
	if id <= 0 {
		return nil, NewError(ErrBadRequest, "user id must be positive").WithUser(id)
	}
	var user User
	err := dbkit.WithErr1(s.db.NewSelect().Model(&user).
		Where("u.id = ?", id).
		Where("u.deleted_at IS NULL").
		Limit(1).Scan(ctx), "FetchUser").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "user not found").WithUser(id)
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) fetchUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := dbkit.WithErr1(s.db.NewSelect().Model(&user).
		Where("lower(u.email) = lower(?)", email).
		Where("u.deleted_at IS NULL").
		Limit(1).Scan(ctx), "FetchUserByEmail").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "user not found: "+email)
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) fetchUserByToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, NewError(ErrBadRequest, "auth token cannot be empty")
	}
	var user User
	err := dbkit.WithErr1(s.db.NewSelect().Model(&user).
		Where("u.auth_token = ?", token).
		Where("u.deleted_at IS NULL").
		Limit(1).Scan(ctx), "FetchUserByToken").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "no user matches token")
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) fetchCompany(ctx context.Context, id int64) (*Company, error) {
	if id <= 0 {
		return nil, NewError(ErrBadRequest, "company id must be positive").WithCompany(id)
	}
	var company Company
	err := dbkit.WithErr1(s.db.NewSelect().Model(&company).
		Where("c.id = ?", id).
		Where("c.deleted_at IS NULL").
		Limit(1).Scan(ctx), "FetchCompany").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "company not found").WithCompany(id)
		}
		return nil, err
	}
	return &company, nil
}

func (s *Service) fetchRole(ctx context.Context, id int64) (*Role, error) {
	if id <= 0 {
		return nil, NewError(ErrBadRequest, "role id must be positive")
	}
	var role Role
	err := dbkit.WithErr1(s.db.NewSelect().Model(&role).
		Where("r.id = ?", id).
		Where("r.deleted_at IS NULL").
		Limit(1).Scan(ctx), "FetchRole").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "role not found")
		}
		return nil, err
	}
	return &role, nil
}

func (s *Service) fetchPermission(ctx context.Context, id int64) (*Permission, error) {
	if id <= 0 {
		return nil, NewError(ErrBadRequest, "permission id must be positive")
	}
	var perm Permission
	err := dbkit.WithErr1(s.db.NewSelect().Model(&perm).
		Where("p.id = ?", id).
		Limit(1).Scan(ctx), "FetchPermission").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "permission not found")
		}
		return nil, err
	}
	return &perm, nil
}

// fetchRolePermissionNames loads the permission names attached to a role.
// A role with no assignments yields an empty, non-nil slice.
func (s *Service) fetchRolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	names := []string{}
	err := dbkit.WithErr1(s.db.NewRaw(
		"SELECT p.name FROM permissions p JOIN role_permissions rp ON rp.permission_id = p.id WHERE rp.role_id = ? ORDER BY p.name",
		roleID).Scan(ctx, &names), "FetchRolePermissionNames").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return names, nil
}

// fetchRolePermissionIDs loads the permission ids currently attached to a role.
func (s *Service) fetchRolePermissionIDs(ctx context.Context, db dbkit.IDB, roleID int64) (map[int64]struct{}, error) {
	ids := []int64{}
	err := dbkit.WithErr1(db.NewRaw(
		"SELECT permission_id FROM role_permissions WHERE role_id = ?",
		roleID).Scan(ctx, &ids), "FetchRolePermissionIDs").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// existsCompanyDomain reports whether an active company already uses a domain,
// excluding one company id (0 to exclude nothing).
func (s *Service) existsCompanyDomain(ctx context.Context, domain string, excludeID int64) (bool, error) {
	return dbkit.Exists[Company](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("lower(domain) = lower(?)", domain).Where("deleted_at IS NULL")
		if excludeID > 0 {
			q = q.Where("id != ?", excludeID)
		}
		return q
	})
}

// existsUserEmail reports whether an active user already uses an email,
// excluding one user id (0 to exclude nothing).
func (s *Service) existsUserEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return dbkit.Exists[User](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("lower(email) = lower(?)", email).Where("deleted_at IS NULL")
		if excludeID > 0 {
			q = q.Where("id != ?", excludeID)
		}
		return q
	})
}

// existsRoleName reports whether an active role already uses a name,
// excluding one role id (0 to exclude nothing).
func (s *Service) existsRoleName(ctx context.Context, name string, excludeID int64) (bool, error) {
	return dbkit.Exists[Role](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("lower(name) = lower(?)", name).Where("deleted_at IS NULL")
		if excludeID > 0 {
			q = q.Where("id != ?", excludeID)
		}
		return q
	})
}

// countActiveUsersWithRole counts non-tombstoned users still holding a role.
func (s *Service) countActiveUsersWithRole(ctx context.Context, roleID int64) (int, error) {
	return dbkit.Count[User](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("role_id = ?", roleID).Where("deleted_at IS NULL")
	})
}

func (s *Service) listCompanies(ctx context.Context) ([]*Company, error) {
	var companies []*Company
	err := dbkit.WithErr1(s.db.NewSelect().Model(&companies).
		Where("c.deleted_at IS NULL").
		Order("c.id ASC").Scan(ctx), "ListCompanies").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, err
	}
	return companies, nil
}

func (s *Service) listUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	err := dbkit.WithErr1(s.db.NewSelect().Model(&users).
		Where("u.deleted_at IS NULL").
		Order("u.id ASC").Scan(ctx), "ListUsers").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, err
	}
	return users, nil
}

func (s *Service) listRoles(ctx context.Context) ([]*Role, error) {
	var roles []*Role
	err := dbkit.WithErr1(s.db.NewSelect().Model(&roles).
		Where("r.deleted_at IS NULL").
		Order("r.id ASC").Scan(ctx), "ListRoles").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, err
	}
	return roles, nil
}

func (s *Service) listPermissions(ctx context.Context) ([]*Permission, error) {
	var perms []*Permission
	err := dbkit.WithErr1(s.db.NewSelect().Model(&perms).
		Order("p.name ASC").Scan(ctx), "ListPermissions").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, err
	}
	return perms, nil
}

// superAdminRoleIDs returns the set of role ids whose permission set grants
// the global tier. Used to keep super-admin users and roles out of
// company-scoped listings.
func (s *Service) superAdminRoleIDs(ctx context.Context) (map[int64]struct{}, error) {
	ids := []int64{}
	err := dbkit.WithErr1(s.db.NewRaw(
		"SELECT rp.role_id FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id WHERE p.name = ?",
		PermSuperAdmin).Scan(ctx, &ids), "SuperAdminRoleIDs").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
