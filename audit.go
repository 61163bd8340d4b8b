package iamkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
)

// AuditAction is the kind of assignment change recorded.
type AuditAction string

const (
	AuditActionAssigned AuditAction = "assigned"
	AuditActionRemoved  AuditAction = "removed"
)

// PermissionAuditLog is the persisted record of a role-permission change.
type PermissionAuditLog struct {
	bun.BaseModel `bun:"table:permission_audit_log,alias:al"`

	ID           int64     `bun:"id,pk,autoincrement"`
	ActorID      int64     `bun:"actor_id,notnull"`
	Action       string    `bun:"action,notnull"`
	RoleID       int64     `bun:"role_id,notnull"`
	PermissionID int64     `bun:"permission_id,notnull"`
	TargetUserID int64     `bun:"target_user_id"`
	IPAddress    string    `bun:"ip_address"`
	UserAgent    string    `bun:"user_agent"`
	RequestID    string    `bun:"request_id"`
	Timestamp    time.Time `bun:"timestamp,notnull,default:current_timestamp"`
}

// AuditEntry is the in-memory form of an audit record before persistence.
type AuditEntry struct {
	ActorID      int64
	Action       AuditAction
	RoleID       int64
	PermissionID int64
	TargetUserID int64
	IPAddress    string
	UserAgent    string
	RequestID    string
}

// ToModel converts the entry to its persisted form.
func (e *AuditEntry) ToModel() *PermissionAuditLog {
	return &PermissionAuditLog{
		ActorID:      e.ActorID,
		Action:       string(e.Action),
		RoleID:       e.RoleID,
		PermissionID: e.PermissionID,
		TargetUserID: e.TargetUserID,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		RequestID:    e.RequestID,
		Timestamp:    time.Now().UTC(),
	}
}

func (s *Service) logAudit(ctx context.Context, entry *AuditEntry) error {
	_, err := s.db.NewInsert().Model(entry.ToModel()).Exec(ctx)
	err = dbkit.WithErr1(err, "LogAudit").Err()
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"actor_id": entry.ActorID,
			"action":   entry.Action,
			"role_id":  entry.RoleID,
		}).WithError(err).Error("failed to write audit entry")
	}
	return err
}

// GetAuditLog retrieves audit log entries with optional filters.
func (s *Service) GetAuditLog(ctx context.Context, filter AuditLogFilter) ([]PermissionAuditLog, error) {
	var logs []PermissionAuditLog
	q := s.db.NewSelect().Model(&logs)
	if filter.ActorID != 0 {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.RoleID != 0 {
		q = q.Where("role_id = ?", filter.RoleID)
	}
	if filter.TargetUserID != 0 {
		q = q.Where("target_user_id = ?", filter.TargetUserID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("timestamp DESC")
	err := dbkit.WithErr1(q.Scan(ctx), "GetAuditLog").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return []PermissionAuditLog{}, nil
		}
		return nil, err
	}

	return logs, nil
}
