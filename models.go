package iamkit

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// UserStatus is the lifecycle status of a user account.
type UserStatus string

const (
	StatusActive    UserStatus = "ACTIVE"
	StatusNonActive UserStatus = "NON_ACTIVE"
	StatusDeleted   UserStatus = "DELETED"
	// StatusPending marks a user created but not yet activated; the opaque
	// auth token is set only while in this status.
	StatusPending UserStatus = "VPENDING"
)

// ParseUserStatus normalizes and validates a status value.
func ParseUserStatus(s string) (UserStatus, error) {
	switch UserStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive, nil
	case StatusNonActive:
		return StatusNonActive, nil
	case StatusDeleted:
		return StatusDeleted, nil
	case StatusPending:
		return StatusPending, nil
	}
	return "", NewError(ErrBadRequest, "invalid status value: "+s)
}

// RoleType distinguishes system roles from company-created ones.
type RoleType string

const (
	// RoleTypeDefault denotes system-level roles that only super-admin tier
	// may create, delete or re-type.
	RoleTypeDefault RoleType = "DEFAULT"
	// RoleTypeManual denotes custom roles creatable with the create_role
	// capability.
	RoleTypeManual RoleType = "MANUAL"
)

// ParseRoleType normalizes and validates a role type value.
func ParseRoleType(s string) (RoleType, error) {
	switch RoleType(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleTypeDefault:
		return RoleTypeDefault, nil
	case RoleTypeManual:
		return RoleTypeManual, nil
	}
	return "", NewError(ErrBadRequest, "invalid role type: "+s)
}

// Tombstone is the explicit deleted state of a soft-deleted record.
// A record with a tombstone does not exist as far as the core is concerned.
type Tombstone struct {
	At time.Time
	By int64
}

// Company is a tenant. It owns zero or more users.
type Company struct {
	bun.BaseModel `bun:"table:companies,alias:c"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Name     string `bun:"name,notnull"`
	Domain   string `bun:"domain,notnull"` // unique among active companies
	Industry string `bun:"industry"`
	Country  string `bun:"country"`
	Timezone string `bun:"timezone"`

	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	CreatedBy int64      `bun:"created_by"`
	UpdatedBy int64      `bun:"updated_by"`
	DeletedAt *time.Time `bun:"deleted_at"`
	DeletedBy *int64     `bun:"deleted_by"`
}

// Deleted reports whether the company is tombstoned.
func (c *Company) Deleted() bool { return c.DeletedAt != nil }

// Tombstone returns the deleted state, if any.
func (c *Company) Tombstone() (Tombstone, bool) {
	if c.DeletedAt == nil {
		return Tombstone{}, false
	}
	var by int64
	if c.DeletedBy != nil {
		by = *c.DeletedBy
	}
	return Tombstone{At: *c.DeletedAt, By: by}, true
}

// User is a member of exactly one company holding exactly one role.
// Role and company references are replaced on reassignment, never removed.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64      `bun:"id,pk,autoincrement"`
	Name      string     `bun:"name,notnull"`
	Email     string     `bun:"email,notnull"` // unique among active users
	RoleID    int64      `bun:"role_id,notnull"`
	CompanyID int64      `bun:"company_id,notnull"`
	Status    UserStatus `bun:"status,notnull"`

	// AuthToken is an opaque activation token, set only while VPENDING and
	// cleared on activation. It is not a credential the core interprets.
	AuthToken       string `bun:"auth_token"`
	PasswordChanged bool   `bun:"password_changed,notnull,default:false"`

	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	CreatedBy int64      `bun:"created_by"`
	UpdatedBy int64      `bun:"updated_by"`
	DeletedAt *time.Time `bun:"deleted_at"`
	DeletedBy *int64     `bun:"deleted_by"`
}

// Deleted reports whether the user is tombstoned.
func (u *User) Deleted() bool { return u.DeletedAt != nil }

// Tombstone returns the deleted state, if any.
func (u *User) Tombstone() (Tombstone, bool) {
	if u.DeletedAt == nil {
		return Tombstone{}, false
	}
	var by int64
	if u.DeletedBy != nil {
		by = *u.DeletedBy
	}
	return Tombstone{At: *u.DeletedAt, By: by}, true
}

// Role is a named permission holder. Its permissions live in the
// role_permissions association, maintained as a set.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID   int64    `bun:"id,pk,autoincrement"`
	Name string   `bun:"name,notnull"` // unique among active roles
	Type RoleType `bun:"type,notnull"`

	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	CreatedBy int64      `bun:"created_by"`
	UpdatedBy int64      `bun:"updated_by"`
	DeletedAt *time.Time `bun:"deleted_at"`
	DeletedBy *int64     `bun:"deleted_by"`
}

// Deleted reports whether the role is tombstoned.
func (r *Role) Deleted() bool { return r.DeletedAt != nil }

// Tombstone returns the deleted state, if any.
func (r *Role) Tombstone() (Tombstone, bool) {
	if r.DeletedAt == nil {
		return Tombstone{}, false
	}
	var by int64
	if r.DeletedBy != nil {
		by = *r.DeletedBy
	}
	return Tombstone{At: *r.DeletedAt, By: by}, true
}

// Permission is flat, immutable reference data. The evaluator never walks a
// permission hierarchy; only the name matters.
type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:p"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// RolePermission is the role↔permission association row. The pair is unique;
// the core treats the association as a set.
type RolePermission struct {
	bun.BaseModel `bun:"table:role_permissions,alias:rp"`

	ID           int64 `bun:"id,pk,autoincrement"`
	RoleID       int64 `bun:"role_id,notnull"`
	PermissionID int64 `bun:"permission_id,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	CreatedBy int64     `bun:"created_by"`
}
