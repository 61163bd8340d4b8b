// Package iamkit implements the authorization core of a multi-tenant
// administrative backend: companies own users, users hold exactly one role,
// and roles hold a set of permissions.
//
// Every mutating or read operation funnels through a single rule table, the
// policy evaluator, instead of per-service inline permission checks.
//
// # Core Concepts
//
// Tier: a coarse permission bucket derived from permission names.
// "super_admin_access" grants everything globally, "admin_access" grants
// company-scoped management, "user_access" grants self-scoped reads. All other
// permission names ("create_role", ...) are additive capabilities.
//
// Actor: the acting user reduced to the user id, company id and resolved
// permission set the evaluator needs.
//
// Target: the resource kind, owning company, target user id and role type
// of the resource being acted on.
//
// Decision: allow or deny plus a machine-readable reason code.
//
// # Key Features
//
//   - One shared rule table (Authorize) for companies, users, roles and
//     permissions
//   - Company-boundary and self-scope enforcement by exact id equality
//   - Soft-delete aware entity store: tombstoned rows are invisible
//   - Order-preserving collection scoping with search and pagination
//   - Idempotent role-permission assignment with audit logging
//   - Memoized permission resolution with write-through invalidation
//   - DBKit integration: uses your existing database connection
//
// # Basic Usage
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := iamkit.New(db)
//
//	// Run migrations
//	if _, err := service.RunMigrations(ctx); err != nil { ... }
//
//	// Resolve the actor once per request
//	actor, err := service.ActorFor(ctx, requesterID)
//
//	// Single-resource decision
//	target := iamkit.UserTarget(targetUser)
//	if d := iamkit.Authorize(actor, iamkit.OpUpdate, target); !d.Allowed {
//	    // d.Reason explains the denial
//	}
//
//	// Collection scoping
//	visible := iamkit.ScopeCandidates(actor, users)
//	page := iamkit.Paginate(iamkit.SearchCandidates(visible, "smith"), 0, 20)
//
// # Permission Assignment
//
// The role-permission graph is maintained as a set. Assigning an
// already-present pair or removing an absent one is a no-op:
//
//	err := service.AssignPermissions(ctx, actorID, roleID, []int64{p1, p2})
//	err = service.RemovePermissions(ctx, actorID, roleID, []int64{p3})
//
// Both require super_admin_access and invalidate cached permission
// resolutions for the role.
//
// # Middleware Usage
//
//	mw := iamkit.NewMiddleware(service)
//	router.Handle("/companies", mw.RequireTier(iamkit.PermSuperAdmin)(createCompanyHandler))
//	router.Handle("/users", mw.RequireActor()(listUsersHandler))
package iamkit
