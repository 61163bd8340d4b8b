package iamkit

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
)

// ============================================================================
// ROLE-PERMISSION ASSIGNMENTS
// ============================================================================

// AssignPermissions adds permissions to a role's set. Only the global tier
// may change the permission graph.
//
// The operation is idempotent set union: pairs already present, including
// ones a concurrent writer lands first, are skipped by the conflict target,
// never duplicated and never an error. Either every requested change lands
// or none does.
//
// Example:
//
//	err := service.AssignPermissions(ctx, actorID, roleID, []int64{permA, permB})
//	if iamkit.IsUnauthorized(err) {
//	    // actor is not super-admin
//	}
func (s *Service) AssignPermissions(ctx context.Context, actorID, roleID int64, permissionIDs []int64) error {
	ids, err := normalizePermissionIDs(permissionIDs)
	if err != nil {
		return err
	}

	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return err
	}
	if d := Authorize(actor, OpUpdate, PermissionTarget()); !d.Allowed {
		return denied(d, OpUpdate, actorID)
	}

	role, err := s.fetchRole(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.verifyPermissionsExist(ctx, ids); err != nil {
		return err
	}

	audit := GetAuditContext(ctx)

	err = s.Transaction(ctx, func(ctx context.Context) error {
		rows := make([]*RolePermission, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, &RolePermission{
				RoleID:       role.ID,
				PermissionID: id,
				CreatedBy:    actorID,
			})
		}

		// Single set-valued insert with conflict resolution: the database
		// decides membership against the live row set, so two writers racing
		// on the same pair both succeed and only one row exists. RETURNING
		// reports which pairs actually landed, which is exactly the set the
		// audit log needs.
		var inserted []int64
		result, err := s.db.NewInsert().
			Model(&rows).
			On("CONFLICT (role_id, permission_id) DO NOTHING").
			Returning("permission_id").
			Exec(ctx, &inserted)
		if err = dbkit.WithErr(result, err, "AssignPermissions").Err(); err != nil {
			return err
		}

		for _, id := range inserted {
			_ = s.logAudit(ctx, &AuditEntry{
				ActorID:      actorID,
				Action:       AuditActionAssigned,
				RoleID:       role.ID,
				PermissionID: id,
				IPAddress:    audit.IPAddress,
				UserAgent:    audit.UserAgent,
				RequestID:    audit.RequestID,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.invalidate(role.ID)
	s.log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"role_id":  role.ID,
		"count":    len(ids),
	}).Info("permissions assigned to role")
	return nil
}

// RemovePermissions removes permissions from a role's set. Only the global
// tier may change the permission graph.
//
// The operation is idempotent set difference: permissions not currently on
// the role are ignored. Removing the last permission is allowed; the role
// simply grants nothing until repopulated.
func (s *Service) RemovePermissions(ctx context.Context, actorID, roleID int64, permissionIDs []int64) error {
	ids, err := normalizePermissionIDs(permissionIDs)
	if err != nil {
		return err
	}

	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return err
	}
	if d := Authorize(actor, OpUpdate, PermissionTarget()); !d.Allowed {
		return denied(d, OpUpdate, actorID)
	}

	role, err := s.fetchRole(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.verifyPermissionsExist(ctx, ids); err != nil {
		return err
	}

	audit := GetAuditContext(ctx)

	err = s.Transaction(ctx, func(ctx context.Context) error {
		current, err := s.fetchRolePermissionIDs(ctx, s.db, role.ID)
		if err != nil {
			return err
		}

		var present []int64
		for _, id := range ids {
			if _, ok := current[id]; ok {
				present = append(present, id)
			}
		}
		if len(present) == 0 {
			return nil
		}

		result, err := s.db.NewDelete().Model((*RolePermission)(nil)).
			Where("role_id = ?", role.ID).
			Where("permission_id IN (?)", bun.In(present)).
			Exec(ctx)
		if err = dbkit.WithErr(result, err, "RemovePermissions").Err(); err != nil {
			return err
		}

		for _, id := range present {
			_ = s.logAudit(ctx, &AuditEntry{
				ActorID:      actorID,
				Action:       AuditActionRemoved,
				RoleID:       role.ID,
				PermissionID: id,
				IPAddress:    audit.IPAddress,
				UserAgent:    audit.UserAgent,
				RequestID:    audit.RequestID,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.invalidate(role.ID)
	s.log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"role_id":  role.ID,
		"count":    len(ids),
	}).Info("permissions removed from role")
	return nil
}

// normalizePermissionIDs validates and deduplicates the requested ids,
// preserving first-seen order.
func normalizePermissionIDs(ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, NewError(ErrBadRequest, "permission id list cannot be empty")
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, NewError(ErrBadRequest, "permission id must be positive")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// verifyPermissionsExist fails with ErrNotFound if any id does not resolve.
func (s *Service) verifyPermissionsExist(ctx context.Context, ids []int64) error {
	count, err := dbkit.Count[Permission](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id IN (?)", bun.In(ids))
	})
	if err != nil {
		return err
	}
	if count != len(ids) {
		return NewError(ErrNotFound, "one or more permission ids do not exist")
	}
	return nil
}

// ============================================================================
// RETRY HELPERS
// ============================================================================

// AssignPermissionsWithRetry assigns permissions with automatic retry for
// transient errors.
func (s *Service) AssignPermissionsWithRetry(ctx context.Context, actorID, roleID int64, permissionIDs []int64) error {
	return s.withRetry(ctx, 3, func() error {
		return s.AssignPermissions(ctx, actorID, roleID, permissionIDs)
	})
}

// RemovePermissionsWithRetry removes permissions with automatic retry for
// transient errors.
func (s *Service) RemovePermissionsWithRetry(ctx context.Context, actorID, roleID int64, permissionIDs []int64) error {
	return s.withRetry(ctx, 3, func() error {
		return s.RemovePermissions(ctx, actorID, roleID, permissionIDs)
	})
}

// withRetry runs fn with exponential backoff and jitter on transient errors.
func (s *Service) withRetry(ctx context.Context, maxAttempts int, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		// Don't retry on non-transient errors
		if !isTransientError(err) {
			return err
		}

		// If this is the last attempt, don't wait
		if attempt == maxAttempts-1 {
			break
		}

		// Exponential backoff with jitter
		backoff := time.Duration(1<<uint(attempt)) * time.Second
		jitter := time.Duration(float64(backoff) * 0.1 * (0.5 + rand.Float64()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff + jitter):
		}
	}

	return lastErr
}

// isTransientError checks if an error is transient and can be retried
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	// Policy and validation outcomes are never transient
	if IsUnauthorized(err) || IsBadRequest(err) || IsNotFound(err) || IsDuplicate(err) {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// PostgreSQL transient errors
	transientErrors := []string{
		"connection",
		"timeout",
		"deadlock",
		"lock wait timeout",
		"connection refused",
		"connection reset",
		"broken pipe",
		"temporary failure",
		"try again",
		"resource temporarily unavailable",
	}

	for _, transientErr := range transientErrors {
		if strings.Contains(errStr, transientErr) {
			return true
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	return false
}
