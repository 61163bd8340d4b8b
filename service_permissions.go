package iamkit

import (
	"context"
)

// ============================================================================
// PERMISSIONS
// ============================================================================
//
// Permissions are flat reference data. They are seeded by migration and read
// by admin tooling; nothing here mutates them. Changing which permissions a
// role holds is the assignment manager's job.

// GetPermission returns a permission by id. Reads require the company tier
// or above.
func (s *Service) GetPermission(ctx context.Context, actorID, permissionID int64) (*Permission, error) {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if d := Authorize(actor, OpRead, PermissionTarget()); !d.Allowed {
		return nil, denied(d, OpRead, actorID)
	}
	return s.fetchPermission(ctx, permissionID)
}

// GetPermissionByName returns a permission by its unique name.
func (s *Service) GetPermissionByName(ctx context.Context, actorID int64, name string) (*Permission, error) {
	if err := ValidatePermissionName(name); err != nil {
		return nil, err
	}
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if d := Authorize(actor, OpRead, PermissionTarget()); !d.Allowed {
		return nil, denied(d, OpRead, actorID)
	}

	perms, err := s.listPermissions(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range perms {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, NewError(ErrNotFound, "permission not found: "+name)
}

// ListPermissions returns all permissions sorted by name. Reads require the
// company tier or above; the set is small and global, so it is not paginated.
// The global tier permission itself is only visible to actors who hold it.
func (s *Service) ListPermissions(ctx context.Context, actorID int64) ([]*Permission, error) {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if d := Authorize(actor, OpList, PermissionTarget()); !d.Allowed {
		return nil, denied(d, OpList, actorID)
	}

	perms, err := s.listPermissions(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Permissions.SuperAdmin() {
		return perms, nil
	}
	visible := make([]*Permission, 0, len(perms))
	for _, p := range perms {
		if p.Name == PermSuperAdmin {
			continue
		}
		visible = append(visible, p)
	}
	return visible, nil
}
