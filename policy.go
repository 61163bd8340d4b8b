package iamkit

// Operation classifies what the actor is attempting.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpList   Operation = "list"
	// OpAssignRole assigns a role to a user (role attributes in the target).
	OpAssignRole Operation = "assign_role"
	// OpChangeRole changes an existing user's role (both user and role
	// attributes in the target).
	OpChangeRole Operation = "change_role"
)

// writes reports whether the operation mutates state.
func (op Operation) writes() bool {
	switch op {
	case OpRead, OpList:
		return false
	}
	return true
}

// ResourceKind is the type of resource a Target describes.
type ResourceKind string

const (
	KindCompany    ResourceKind = "company"
	KindUser       ResourceKind = "user"
	KindRole       ResourceKind = "role"
	KindPermission ResourceKind = "permission"
)

// Reason is a machine-readable explanation attached to every Decision.
type Reason string

const (
	// Allow reasons.
	ReasonSuperAdmin  Reason = "super_admin"
	ReasonSameCompany Reason = "same_company"
	ReasonSelf        Reason = "self"
	ReasonCapability  Reason = "capability_granted"

	// Deny reasons.
	ReasonCrossCompany           Reason = "cross_company"
	ReasonCompanyRestricted      Reason = "company_restricted"
	ReasonDefaultRoleRestricted  Reason = "default_role_restricted"
	ReasonPeerAdmin              Reason = "peer_admin"
	ReasonWriteDenied            Reason = "write_denied"
	ReasonInsufficientPermission Reason = "insufficient_permission"
)

// Actor is the acting user reduced to what the evaluator needs.
type Actor struct {
	UserID      int64
	CompanyID   int64
	Permissions PermissionSet
}

// Target carries the ownership and type attributes of the resource being
// acted on. Build one with CompanyTarget, UserTarget, RoleTarget or
// PermissionTarget; the evaluator never loads data itself.
type Target struct {
	Kind      ResourceKind
	CompanyID int64
	UserID    int64
	RoleType  RoleType

	// TargetAdmin and TargetSuperAdmin describe the target user's resolved
	// tier, needed for the peer-admin and listing-visibility rules.
	TargetAdmin      bool
	TargetSuperAdmin bool
}

// CompanyTarget builds a Target for a company resource.
func CompanyTarget(c *Company) Target {
	return Target{Kind: KindCompany, CompanyID: c.ID}
}

// UserTarget builds a Target for a user resource. The target user's tier, if
// relevant to the operation, is supplied with WithTier.
func UserTarget(u *User) Target {
	return Target{Kind: KindUser, CompanyID: u.CompanyID, UserID: u.ID}
}

// RoleTarget builds a Target for a role resource. Role rows are global, so the
// company boundary does not apply; type restrictions do.
func RoleTarget(r *Role) Target {
	return Target{Kind: KindRole, RoleType: r.Type}
}

// PermissionTarget builds a Target for permission reference data.
func PermissionTarget() Target {
	return Target{Kind: KindPermission}
}

// WithTier records the target user's resolved tier on the target.
func (t Target) WithTier(perms PermissionSet) Target {
	t.TargetAdmin = perms.Admin()
	t.TargetSuperAdmin = perms.SuperAdmin()
	return t
}

// WithRole records the role being assigned on a user target.
func (t Target) WithRole(r *Role) Target {
	t.RoleType = r.Type
	return t
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow(r Reason) Decision { return Decision{Allowed: true, Reason: r} }
func deny(r Reason) Decision  { return Decision{Allowed: false, Reason: r} }

// Authorize is the single rule table every resource type consults. It is a
// pure function over already-loaded snapshots: no I/O, no mutation, safe for
// concurrent use. Rules are evaluated top to bottom; the first match wins.
//
// Example:
//
//	d := iamkit.Authorize(actor, iamkit.OpDelete, iamkit.UserTarget(target))
//	if !d.Allowed {
//	    return fmt.Errorf("denied: %s", d.Reason)
//	}
func Authorize(actor Actor, op Operation, target Target) Decision {
	// Rule 1: the global tier may do anything to anything.
	if actor.Permissions.SuperAdmin() {
		return allow(ReasonSuperAdmin)
	}

	// Rule 2: company resources are super-admin territory, except that a
	// same-company admin may update or read their own company.
	if target.Kind == KindCompany {
		return authorizeCompany(actor, op, target)
	}

	// Rule 3: the company tier manages users and roles inside its own
	// company boundary.
	if actor.Permissions.Admin() {
		return authorizeAdmin(actor, op, target)
	}

	// Capability: MANUAL role creation is grantable below the admin tier.
	if op == OpCreate && target.Kind == KindRole &&
		target.RoleType == RoleTypeManual && actor.Permissions.Has(PermCreateRole) {
		return allow(ReasonCapability)
	}

	// Rule 4: the self tier reads itself, nothing else.
	if actor.Permissions.User() {
		return authorizeSelf(actor, op, target)
	}

	// Rule 5: no tier at all.
	return deny(ReasonInsufficientPermission)
}

func authorizeCompany(actor Actor, op Operation, target Target) Decision {
	switch op {
	case OpUpdate, OpRead, OpList:
		if actor.Permissions.Admin() {
			if actor.CompanyID == target.CompanyID {
				return allow(ReasonSameCompany)
			}
			return deny(ReasonCrossCompany)
		}
		// Self-tier users may read their own company; scoping mirrors this.
		if op != OpUpdate && actor.Permissions.User() {
			if actor.CompanyID == target.CompanyID {
				return allow(ReasonSameCompany)
			}
			return deny(ReasonCrossCompany)
		}
	}
	return deny(ReasonCompanyRestricted)
}

func authorizeAdmin(actor Actor, op Operation, target Target) Decision {
	switch target.Kind {
	case KindUser:
		// Cross-company access is denied unconditionally, even reads.
		if actor.CompanyID != target.CompanyID {
			return deny(ReasonCrossCompany)
		}
		// Super-admins are invisible to company-scoped actors.
		if target.TargetSuperAdmin {
			return deny(ReasonCrossCompany)
		}
		if op == OpAssignRole || op == OpChangeRole {
			// DEFAULT roles are reserved to the global tier.
			if target.RoleType == RoleTypeDefault {
				return deny(ReasonDefaultRoleRestricted)
			}
			// An admin never changes another admin's role.
			if target.TargetAdmin && actor.UserID != target.UserID {
				return deny(ReasonPeerAdmin)
			}
		}
		return allow(ReasonSameCompany)

	case KindRole:
		if op.writes() {
			// DEFAULT roles may only be created, deleted or re-typed by the
			// global tier.
			if target.RoleType == RoleTypeDefault {
				return deny(ReasonDefaultRoleRestricted)
			}
			if op == OpCreate && !actor.Permissions.Has(PermCreateRole) {
				return deny(ReasonInsufficientPermission)
			}
		}
		if target.TargetSuperAdmin {
			return deny(ReasonCrossCompany)
		}
		return allow(ReasonSameCompany)

	case KindPermission:
		if op.writes() {
			// The permission graph belongs to the global tier.
			return deny(ReasonInsufficientPermission)
		}
		return allow(ReasonSameCompany)
	}

	return deny(ReasonInsufficientPermission)
}

func authorizeSelf(actor Actor, op Operation, target Target) Decision {
	if op.writes() {
		return deny(ReasonWriteDenied)
	}
	if target.Kind != KindUser {
		return deny(ReasonInsufficientPermission)
	}
	if actor.CompanyID != target.CompanyID {
		return deny(ReasonCrossCompany)
	}
	if actor.UserID != target.UserID {
		return deny(ReasonInsufficientPermission)
	}
	return allow(ReasonSelf)
}
