package iamkit

// Checker is an actor-bound view over the policy evaluator. It is typically
// created by the Service and stored in context for use in handlers.
type Checker struct {
	actor Actor
}

// NewChecker creates a Checker for an already-resolved actor.
func NewChecker(actor Actor) *Checker {
	return &Checker{actor: actor}
}

// Actor returns the resolved actor this checker is bound to.
func (c *Checker) Actor() Actor {
	return c.actor
}

// UserID returns the acting user's id.
func (c *Checker) UserID() int64 {
	return c.actor.UserID
}

// CompanyID returns the acting user's company id.
func (c *Checker) CompanyID() int64 {
	return c.actor.CompanyID
}

// Can evaluates an operation against a target and reports the outcome.
//
// Example:
//
//	if checker.Can(iamkit.OpUpdate, iamkit.UserTarget(target)) {
//	    // actor may update this user
//	}
func (c *Checker) Can(op Operation, target Target) bool {
	return Authorize(c.actor, op, target).Allowed
}

// Check evaluates an operation against a target and returns the full
// Decision, including the reason code.
func (c *Checker) Check(op Operation, target Target) Decision {
	return Authorize(c.actor, op, target)
}

// HasPermission checks if the actor's effective permission set contains a
// permission name. This is a raw set lookup, not a policy evaluation.
//
// Example:
//
//	if checker.HasPermission(iamkit.PermCreateRole) {
//	    // actor may create MANUAL roles
//	}
func (c *Checker) HasPermission(name string) bool {
	return c.actor.Permissions.Has(name)
}

// HasAnyPermission checks if the actor holds any of the specified permissions.
func (c *Checker) HasAnyPermission(names ...string) bool {
	for _, n := range names {
		if c.actor.Permissions.Has(n) {
			return true
		}
	}
	return false
}

// HasAllPermissions checks if the actor holds all of the specified permissions.
func (c *Checker) HasAllPermissions(names ...string) bool {
	for _, n := range names {
		if !c.actor.Permissions.Has(n) {
			return false
		}
	}
	return true
}

// IsSuperAdmin reports whether the actor holds the global tier.
func (c *Checker) IsSuperAdmin() bool {
	return c.actor.Permissions.SuperAdmin()
}

// IsAdmin reports whether the actor holds the company tier.
func (c *Checker) IsAdmin() bool {
	return c.actor.Permissions.Admin()
}

// Permissions returns the actor's permission names in sorted order.
func (c *Checker) Permissions() []string {
	return c.actor.Permissions.Names()
}

// IsEmpty returns true if the actor has no permissions at all.
func (c *Checker) IsEmpty() bool {
	return c.actor.Permissions.Len() == 0
}
