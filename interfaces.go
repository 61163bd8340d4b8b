package iamkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection
type Database interface {
	dbkit.IDB
}

// PermissionResolver defines the actor resolution interface
type PermissionResolver interface {
	ResolvePermissions(ctx context.Context, userID int64) (PermissionSet, error)
	ActorFor(ctx context.Context, userID int64) (Actor, error)
}

// AssignmentManager defines the role-permission assignment interface
type AssignmentManager interface {
	AssignPermissions(ctx context.Context, actorID, roleID int64, permissionIDs []int64) error
	RemovePermissions(ctx context.Context, actorID, roleID int64, permissionIDs []int64) error
	GetRolePermissions(ctx context.Context, actorID, roleID int64) ([]Permission, error)
}

// TransactionManager defines the transaction management interface
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context) error) error
	ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MigrationManager defines the migration management interface
type MigrationManager interface {
	Migrations() []dbkit.Migration
	RunMigrations(ctx context.Context) (*MigrationStatus, error)
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// AuditLogger defines the audit logging interface
type AuditLogger interface {
	logAudit(ctx context.Context, entry *AuditEntry) error
}

// TransactionMonitor defines the transaction monitoring interface
type TransactionMonitor interface {
	GetTransactionMetrics() TransactionMetrics
	ResetTransactionMetrics()
	IsTransactionHealthy() bool
}
