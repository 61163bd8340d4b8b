package iamkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// MigrationStatus summarizes a migration run.
type MigrationStatus struct {
	Applied []string `json:"applied"`
	Total   int      `json:"total"`
}

// Migrations returns all database migrations required for iamkit.
// Use service.RunMigrations(ctx) or dbkit's Migrate directly.
func (s *Service) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "iamkit-001",
			Description: "Create companies table",
			SQL: `
                CREATE TABLE IF NOT EXISTS companies (
                    id BIGSERIAL PRIMARY KEY,
                    name TEXT NOT NULL,
                    domain TEXT NOT NULL,
                    industry TEXT,
                    country TEXT,
                    timezone TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    created_by BIGINT,
                    updated_by BIGINT,
                    deleted_at TIMESTAMPTZ,
                    deleted_by BIGINT
                )`,
		},
		{
			ID:          "iamkit-002",
			Description: "Create roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS roles (
                    id BIGSERIAL PRIMARY KEY,
                    name TEXT NOT NULL,
                    type TEXT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    created_by BIGINT,
                    updated_by BIGINT,
                    deleted_at TIMESTAMPTZ,
                    deleted_by BIGINT
                )`,
		},
		{
			ID:          "iamkit-003",
			Description: "Create permissions table",
			SQL: `
                CREATE TABLE IF NOT EXISTS permissions (
                    id BIGSERIAL PRIMARY KEY,
                    name TEXT NOT NULL UNIQUE,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "iamkit-004",
			Description: "Create users table",
			SQL: `
                CREATE TABLE IF NOT EXISTS users (
                    id BIGSERIAL PRIMARY KEY,
                    name TEXT NOT NULL,
                    email TEXT NOT NULL,
                    role_id BIGINT NOT NULL REFERENCES roles(id),
                    company_id BIGINT NOT NULL REFERENCES companies(id),
                    status TEXT NOT NULL,
                    auth_token TEXT,
                    password_changed BOOLEAN NOT NULL DEFAULT false,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    created_by BIGINT,
                    updated_by BIGINT,
                    deleted_at TIMESTAMPTZ,
                    deleted_by BIGINT
                )`,
		},
		{
			ID:          "iamkit-005",
			Description: "Create role_permissions table",
			SQL: `
                CREATE TABLE IF NOT EXISTS role_permissions (
                    id BIGSERIAL PRIMARY KEY,
                    role_id BIGINT NOT NULL REFERENCES roles(id),
                    permission_id BIGINT NOT NULL REFERENCES permissions(id),
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    created_by BIGINT,
                    UNIQUE (role_id, permission_id)
                )`,
		},
		{
			ID:          "iamkit-006",
			Description: "Create permission_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS permission_audit_log (
                    id BIGSERIAL PRIMARY KEY,
                    actor_id BIGINT NOT NULL,
                    action TEXT NOT NULL,
                    role_id BIGINT NOT NULL,
                    permission_id BIGINT NOT NULL,
                    target_user_id BIGINT,
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT,
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "iamkit-007",
			Description: "Uniqueness among active records",
			SQL: `
                CREATE UNIQUE INDEX IF NOT EXISTS ux_companies_domain_active
                    ON companies (lower(domain)) WHERE deleted_at IS NULL;
                CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email_active
                    ON users (lower(email)) WHERE deleted_at IS NULL;
                CREATE UNIQUE INDEX IF NOT EXISTS ux_roles_name_active
                    ON roles (lower(name)) WHERE deleted_at IS NULL;
                CREATE INDEX IF NOT EXISTS ix_users_company ON users (company_id) WHERE deleted_at IS NULL;
                CREATE INDEX IF NOT EXISTS ix_role_permissions_role ON role_permissions (role_id)`,
		},
		{
			ID:          "iamkit-008",
			Description: "Seed tier permissions",
			SQL: `
                INSERT INTO permissions (name) VALUES
                    ('super_admin_access'),
                    ('admin_access'),
                    ('user_access'),
                    ('create_role')
                ON CONFLICT (name) DO NOTHING`,
		},
	}
}

// RunMigrations applies all pending migrations and reports what was applied.
func (s *Service) RunMigrations(ctx context.Context) (*MigrationStatus, error) {
	db, ok := s.db.(*dbkit.DBKit)
	if !ok {
		return nil, NewError(ErrInternal, "migrations require a dbkit.DBKit instance")
	}

	migrations := s.Migrations()
	result, err := db.Migrate(ctx, migrations)
	if err != nil {
		return nil, dbkit.WithErr1(err, "RunMigrations").Err()
	}

	status := &MigrationStatus{Total: len(migrations)}
	for _, m := range result.Applied {
		status.Applied = append(status.Applied, m.ID)
	}
	return status, nil
}
