package iamkit

import (
	"context"
	"strings"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/sirupsen/logrus"
)

// ============================================================================
// ROLES
// ============================================================================

// CreateRole creates a role of the given type. DEFAULT roles are reserved to
// the global tier; MANUAL roles additionally require the create_role
// capability below it.
func (s *Service) CreateRole(ctx context.Context, actorID int64, name string, roleType RoleType) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewError(ErrBadRequest, "role name cannot be empty")
	}
	roleType, err := ParseRoleType(string(roleType))
	if err != nil {
		return nil, err
	}

	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if d := Authorize(actor, OpCreate, Target{Kind: KindRole, RoleType: roleType}); !d.Allowed {
		return nil, denied(d, OpCreate, actorID)
	}

	if taken, err := s.existsRoleName(ctx, name, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, NewError(ErrDuplicate, "role name already in use: "+name)
	}

	now := time.Now().UTC()
	role := &Role{
		Name:      name,
		Type:      roleType,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actorID,
		UpdatedBy: actorID,
	}

	_, err = s.db.NewInsert().Model(role).Exec(ctx)
	if err = dbkit.WithErr1(err, "CreateRole").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrDuplicate, "role name already in use: "+name)
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"actor_id":  actorID,
		"role_id":   role.ID,
		"role_type": role.Type,
	}).Info("role created")
	return role, nil
}

// GetRole returns a role if the actor may read it. Roles whose permission
// set grants the global tier are invisible below it.
func (s *Service) GetRole(ctx context.Context, actorID, roleID int64) (*Role, error) {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	role, err := s.fetchRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	tier, err := s.resolveRolePermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}

	if d := Authorize(actor, OpRead, RoleTarget(role).WithTier(tier)); !d.Allowed {
		return nil, denied(d, OpRead, actorID)
	}
	return role, nil
}

// RenameRole renames a role. DEFAULT roles only change under the global
// tier.
func (s *Service) RenameRole(ctx context.Context, actorID, roleID int64, name string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewError(ErrBadRequest, "role name cannot be empty")
	}

	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	role, err := s.fetchRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	tier, err := s.resolveRolePermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}

	if d := Authorize(actor, OpUpdate, RoleTarget(role).WithTier(tier)); !d.Allowed {
		return nil, denied(d, OpUpdate, actorID)
	}

	if taken, err := s.existsRoleName(ctx, name, role.ID); err != nil {
		return nil, err
	} else if taken {
		return nil, NewError(ErrDuplicate, "role name already in use: "+name)
	}

	role.Name = name
	role.UpdatedAt = time.Now().UTC()
	role.UpdatedBy = actorID

	result, err := s.db.NewUpdate().Model(role).
		Column("name", "updated_at", "updated_by").
		WherePK().
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "RenameRole").Err(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"role_id":  role.ID,
	}).Info("role renamed")
	return role, nil
}

// DeleteRole tombstones a role. A role still held by active users cannot be
// deleted; reassign those users first.
func (s *Service) DeleteRole(ctx context.Context, actorID, roleID int64) error {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return err
	}
	role, err := s.fetchRole(ctx, roleID)
	if err != nil {
		return err
	}
	tier, err := s.resolveRolePermissions(ctx, role.ID)
	if err != nil {
		return err
	}

	if d := Authorize(actor, OpDelete, RoleTarget(role).WithTier(tier)); !d.Allowed {
		return denied(d, OpDelete, actorID)
	}

	holders, err := s.countActiveUsersWithRole(ctx, role.ID)
	if err != nil {
		return err
	}
	if holders > 0 {
		return NewError(ErrBadRequest, "role is still assigned to active users")
	}

	now := time.Now().UTC()
	result, err := s.db.NewUpdate().Model((*Role)(nil)).
		Set("deleted_at = ?", now).
		Set("deleted_by = ?", actorID).
		Set("updated_at = ?", now).
		Set("updated_by = ?", actorID).
		Where("id = ?", role.ID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteRole").Err(); err != nil {
		return err
	}

	s.cache.invalidate(role.ID)
	s.log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"role_id":  role.ID,
	}).Info("role deleted")
	return nil
}

// ListRoles returns the page of roles the actor may see. Roles granting the
// global tier never appear below it.
func (s *Service) ListRoles(ctx context.Context, actorID int64, filter ListFilter) (Page[*Role], error) {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return Page[*Role]{}, err
	}
	if d := Authorize(actor, OpList, Target{Kind: KindRole}); !d.Allowed {
		return Page[*Role]{}, denied(d, OpList, actorID)
	}

	roles, err := s.listRoles(ctx)
	if err != nil {
		return Page[*Role]{}, err
	}
	superRoles, err := s.superAdminRoleIDs(ctx)
	if err != nil {
		return Page[*Role]{}, err
	}

	candidates := make([]ScopedRole, 0, len(roles))
	for _, r := range roles {
		_, super := superRoles[r.ID]
		candidates = append(candidates, ScopedRole{Role: r, SuperAdmin: super})
	}

	scoped := ScopeCandidates(actor, candidates)
	scoped = SearchCandidates(scoped, filter.Query)

	page := Paginate(scoped, filter.Page, filter.Size)
	items := make([]*Role, len(page.Items))
	for i, c := range page.Items {
		items[i] = c.Role
	}
	return Page[*Role]{
		Items:      items,
		Page:       page.Page,
		Size:       page.Size,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}, nil
}

// GetRolePermissions returns the permissions currently attached to a role,
// sorted by name.
func (s *Service) GetRolePermissions(ctx context.Context, actorID, roleID int64) ([]Permission, error) {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	role, err := s.fetchRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	tier, err := s.resolveRolePermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}

	if d := Authorize(actor, OpRead, RoleTarget(role).WithTier(tier)); !d.Allowed {
		return nil, denied(d, OpRead, actorID)
	}

	perms := []Permission{}
	err = dbkit.WithErr1(s.db.NewSelect().Model(&perms).
		Join("JOIN role_permissions AS rp ON rp.permission_id = p.id").
		Where("rp.role_id = ?", role.ID).
		Order("p.name ASC").Scan(ctx), "GetRolePermissions").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, err
	}
	return perms, nil
}
