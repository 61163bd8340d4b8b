package iamkit

import "time"

// ListFilter provides search and pagination options for listing operations.
type ListFilter struct {
	// Case-insensitive substring search over the entity's searchable fields
	Query string

	// Zero-based page index
	Page int

	// Page size; non-positive falls back to DefaultPageSize, values above
	// MaxPageSize are clamped
	Size int
}

// NewListFilter creates a ListFilter with default pagination.
func NewListFilter() ListFilter {
	return ListFilter{Size: DefaultPageSize}
}

// WithQuery sets the search query.
func (f ListFilter) WithQuery(query string) ListFilter {
	f.Query = query
	return f
}

// WithPage sets the zero-based page index.
func (f ListFilter) WithPage(page int) ListFilter {
	f.Page = page
	return f
}

// WithSize sets the page size.
func (f ListFilter) WithSize(size int) ListFilter {
	f.Size = size
	return f
}

// WithPagination sets both page and size.
func (f ListFilter) WithPagination(page, size int) ListFilter {
	f.Page = page
	f.Size = size
	return f
}

// AuditLogFilter provides options for filtering audit log queries.
type AuditLogFilter struct {
	// Filter by actor who performed the action
	ActorID int64

	// Filter by role affected by the action
	RoleID int64

	// Filter by target user of the action
	TargetUserID int64

	// Filter by action type ("assigned" or "removed")
	Action string

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewAuditLogFilter creates a new AuditLogFilter with default values.
func NewAuditLogFilter() AuditLogFilter {
	return AuditLogFilter{
		Limit: 100,
	}
}

// WithActor sets the actor ID filter.
func (f AuditLogFilter) WithActor(actorID int64) AuditLogFilter {
	f.ActorID = actorID
	return f
}

// WithRole sets the role ID filter.
func (f AuditLogFilter) WithRole(roleID int64) AuditLogFilter {
	f.RoleID = roleID
	return f
}

// WithTargetUser sets the target user ID filter.
func (f AuditLogFilter) WithTargetUser(userID int64) AuditLogFilter {
	f.TargetUserID = userID
	return f
}

// WithAction sets the action filter.
func (f AuditLogFilter) WithAction(action AuditAction) AuditLogFilter {
	f.Action = string(action)
	return f
}

// WithTimeRange sets the time range filter.
func (f AuditLogFilter) WithTimeRange(since, until time.Time) AuditLogFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithSince sets the start time filter.
func (f AuditLogFilter) WithSince(since time.Time) AuditLogFilter {
	f.Since = since
	return f
}

// WithUntil sets the end time filter.
func (f AuditLogFilter) WithUntil(until time.Time) AuditLogFilter {
	f.Until = until
	return f
}

// WithLimit sets the limit for results.
func (f AuditLogFilter) WithLimit(limit int) AuditLogFilter {
	f.Limit = limit
	return f
}

// WithOffset sets the offset for pagination.
func (f AuditLogFilter) WithOffset(offset int) AuditLogFilter {
	f.Offset = offset
	return f
}

// WithPagination sets both limit and offset.
func (f AuditLogFilter) WithPagination(limit, offset int) AuditLogFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}
