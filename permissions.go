package iamkit

import "sort"

// Tier permission names. The evaluator checks these in priority order;
// super-admin implies everything, admin is company-scoped, user is
// self-scoped. All other permission names are additive capabilities consulted
// only when no tier check has already decided.
const (
	PermSuperAdmin = "super_admin_access"
	PermAdmin      = "admin_access"
	PermUser       = "user_access"

	// PermCreateRole allows creating MANUAL roles.
	PermCreateRole = "create_role"
)

// PermissionSet is an actor's effective permission names.
// The zero value is a valid empty set.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from permission names.
func NewPermissionSet(names ...string) PermissionSet {
	ps := make(PermissionSet, len(names))
	for _, n := range names {
		if n != "" {
			ps[n] = struct{}{}
		}
	}
	return ps
}

// Has reports whether the set contains a permission name.
func (ps PermissionSet) Has(name string) bool {
	_, ok := ps[name]
	return ok
}

// SuperAdmin reports whether the set grants the global tier.
func (ps PermissionSet) SuperAdmin() bool { return ps.Has(PermSuperAdmin) }

// Admin reports whether the set grants the company tier.
func (ps PermissionSet) Admin() bool { return ps.Has(PermAdmin) }

// User reports whether the set grants the self tier.
func (ps PermissionSet) User() bool { return ps.Has(PermUser) }

// Names returns the permission names in sorted order.
func (ps PermissionSet) Names() []string {
	names := make([]string, 0, len(ps))
	for n := range ps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of permissions in the set.
func (ps PermissionSet) Len() int { return len(ps) }

// ValidatePermissionName checks that a permission name is a non-empty
// snake_case identifier.
func ValidatePermissionName(name string) error {
	if name == "" {
		return NewError(ErrBadRequest, "permission name cannot be empty")
	}
	for _, c := range name {
		if !isPermissionChar(c) {
			return NewError(ErrBadRequest, "permission name contains invalid character: "+name)
		}
	}
	return nil
}

func isPermissionChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}
