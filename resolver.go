package iamkit

import (
	"context"

	"github.com/sirupsen/logrus"
)

// ResolvePermissions resolves a user's effective permission set: the names
// attached to the user's single role. The result is a snapshot; later
// assignment changes do not mutate returned sets.
//
// A user whose role is tombstoned resolves to the empty set, not an error.
// A missing or tombstoned user resolves to ErrNotFound.
//
// Example:
//
//	perms, err := service.ResolvePermissions(ctx, userID)
//	if err != nil {
//	    return err
//	}
//	if perms.SuperAdmin() { ... }
func (s *Service) ResolvePermissions(ctx context.Context, userID int64) (PermissionSet, error) {
	user, err := s.fetchUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolveRolePermissions(ctx, user.RoleID)
}

// resolveRolePermissions resolves a role id to its permission set, consulting
// the cache first. Unresolvable roles (missing or tombstoned) yield the empty
// set so that a dangling role reference degrades to no access.
func (s *Service) resolveRolePermissions(ctx context.Context, roleID int64) (PermissionSet, error) {
	if roleID <= 0 {
		return NewPermissionSet(), nil
	}

	if ps, ok := s.cache.get(roleID); ok {
		return ps, nil
	}

	role, err := s.fetchRole(ctx, roleID)
	if err != nil {
		if IsNotFound(err) {
			s.log.WithFields(logrus.Fields{
				"role_id": roleID,
			}).Warn("user references missing or deleted role, resolving to empty set")
			return NewPermissionSet(), nil
		}
		return nil, err
	}

	names, err := s.fetchRolePermissionNames(ctx, role.ID)
	if err != nil {
		return nil, err
	}

	ps := NewPermissionSet(names...)
	s.cache.put(role.ID, ps)
	return ps, nil
}

// ActorFor resolves a user id into the Actor snapshot the evaluator consumes.
//
// Example:
//
//	actor, err := service.ActorFor(ctx, actorID)
//	if err != nil {
//	    return err
//	}
//	d := iamkit.Authorize(actor, iamkit.OpDelete, iamkit.UserTarget(target))
func (s *Service) ActorFor(ctx context.Context, userID int64) (Actor, error) {
	user, err := s.fetchUser(ctx, userID)
	if err != nil {
		return Actor{}, err
	}

	perms, err := s.resolveRolePermissions(ctx, user.RoleID)
	if err != nil {
		return Actor{}, err
	}

	return Actor{
		UserID:      user.ID,
		CompanyID:   user.CompanyID,
		Permissions: perms,
	}, nil
}

// userTier resolves a target user's tier for peer-admin and visibility rules.
func (s *Service) userTier(ctx context.Context, u *User) (PermissionSet, error) {
	return s.resolveRolePermissions(ctx, u.RoleID)
}
