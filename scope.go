package iamkit

import "strings"

// Pagination bounds. Sizes above MaxPageSize are clamped, non-positive sizes
// fall back to DefaultPageSize.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Candidate is a listable resource snapshot the scope filter can evaluate.
// Companies implement it directly; users and roles are wrapped with their
// resolved tier (ScopedUser, ScopedRole) because visibility depends on it.
type Candidate interface {
	// ScopeCompanyID returns the owning company and whether the resource is
	// company-bound at all. Roles are global and return bound=false.
	ScopeCompanyID() (id int64, bound bool)
	// ScopeHidden reports whether the resource is invisible to
	// non-super-admin actors (super-admin users and roles).
	ScopeHidden() bool
	// ScopeDeleted reports whether the resource is tombstoned.
	ScopeDeleted() bool
	// ScopeSearchFields returns the fields matched by the search predicate.
	ScopeSearchFields() []string
}

// ScopeCompanyID implements Candidate.
func (c *Company) ScopeCompanyID() (int64, bool) { return c.ID, true }

// ScopeHidden implements Candidate.
func (c *Company) ScopeHidden() bool { return false }

// ScopeDeleted implements Candidate.
func (c *Company) ScopeDeleted() bool { return c.Deleted() }

// ScopeSearchFields implements Candidate. Companies match on name and domain.
func (c *Company) ScopeSearchFields() []string { return []string{c.Name, c.Domain} }

// ScopedUser is a user candidate together with its role's resolved tier.
type ScopedUser struct {
	*User
	SuperAdmin bool
}

// ScopeCompanyID implements Candidate.
func (s ScopedUser) ScopeCompanyID() (int64, bool) { return s.CompanyID, true }

// ScopeHidden implements Candidate. Super-admins never appear in
// company-scoped listings.
func (s ScopedUser) ScopeHidden() bool { return s.SuperAdmin }

// ScopeDeleted implements Candidate.
func (s ScopedUser) ScopeDeleted() bool { return s.Deleted() }

// ScopeSearchFields implements Candidate. Users match on name and email.
func (s ScopedUser) ScopeSearchFields() []string { return []string{s.Name, s.Email} }

// ScopedRole is a role candidate together with its resolved tier.
type ScopedRole struct {
	*Role
	SuperAdmin bool
}

// ScopeCompanyID implements Candidate. Roles are global.
func (s ScopedRole) ScopeCompanyID() (int64, bool) { return 0, false }

// ScopeHidden implements Candidate.
func (s ScopedRole) ScopeHidden() bool { return s.SuperAdmin }

// ScopeDeleted implements Candidate.
func (s ScopedRole) ScopeDeleted() bool { return s.Deleted() }

// ScopeSearchFields implements Candidate.
func (s ScopedRole) ScopeSearchFields() []string { return []string{s.Name} }

// ScopeCandidates narrows candidates to the subsequence the actor may list,
// preserving input order. It applies the same company-boundary rule as
// Authorize: super-admins see every active candidate, company-scoped actors
// see only their own company, and super-admin users/roles are invisible to
// them. Tombstoned candidates never appear. Denial of an individual candidate
// is omission, never an error.
//
// The filter is a pure function: calling it twice with the same inputs yields
// the same output, and the result is never longer than the input.
func ScopeCandidates[T Candidate](actor Actor, candidates []T) []T {
	scoped := make([]T, 0, len(candidates))
	super := actor.Permissions.SuperAdmin()

	for _, c := range candidates {
		if c.ScopeDeleted() {
			continue
		}
		if super {
			scoped = append(scoped, c)
			continue
		}
		if c.ScopeHidden() {
			continue
		}
		if id, bound := c.ScopeCompanyID(); bound && id != actor.CompanyID {
			continue
		}
		scoped = append(scoped, c)
	}

	return scoped
}

// SearchCandidates applies a case-insensitive substring match against each
// candidate's search fields, preserving order. A blank query matches
// everything.
func SearchCandidates[T Candidate](candidates []T, query string) []T {
	query = strings.TrimSpace(query)
	if query == "" {
		return candidates
	}
	lower := strings.ToLower(query)

	matched := make([]T, 0, len(candidates))
	for _, c := range candidates {
		for _, field := range c.ScopeSearchFields() {
			if strings.Contains(strings.ToLower(field), lower) {
				matched = append(matched, c)
				break
			}
		}
	}
	return matched
}

// Page is one stable slice of a filtered candidate list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Paginate slices items to [page*size, min(page*size+size, total)).
// Negative pages are treated as 0, non-positive sizes as DefaultPageSize, and
// sizes above MaxPageSize are clamped. An empty page is a valid result, not
// an error: concatenating all pages reconstructs the input exactly once, in
// order.
func Paginate[T any](items []T, page, size int) Page[T] {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	total := len(items)
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + size - 1) / size
	}

	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
	}
}
