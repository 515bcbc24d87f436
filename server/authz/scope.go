// Package authz implements the hierarchy-based access policy for memory
// tiers. It resolves a principal's hierarchy level and the requested tier to
// a visibility scope, and turns that scope into declarative query filters.
package authz

import "github.com/usestratum/stratum/store"

// VisibilityScope is the breadth of records a principal may see for a tier,
// from narrowest to widest.
type VisibilityScope string

const (
	// ScopeNone is the explicit no-access marker in the policy table.
	ScopeNone VisibilityScope = "none"
	// ScopeSession restricts to the principal's current session.
	ScopeSession VisibilityScope = "session"
	// ScopeOwn restricts to records owned by the principal.
	ScopeOwn VisibilityScope = "own"
	// ScopeProject restricts to the principal's projects.
	ScopeProject VisibilityScope = "project"
	// ScopeDepartment restricts to the principal's department.
	ScopeDepartment VisibilityScope = "department"
	// ScopeOrganization imposes no restriction.
	ScopeOrganization VisibilityScope = "organization"
)

func (s VisibilityScope) String() string {
	return string(s)
}

// Width ranks scopes by breadth. A wider scope never sees fewer records than
// a narrower one.
func (s VisibilityScope) Width() int {
	switch s {
	case ScopeSession:
		return 1
	case ScopeOwn:
		return 2
	case ScopeProject:
		return 3
	case ScopeDepartment:
		return 4
	case ScopeOrganization:
		return 5
	}
	return 0
}

// Principal is the authenticated actor making a request. It is constructed
// once per request from externally resolved identity and never mutated.
type Principal struct {
	ID             string
	Username       string
	Email          string
	HierarchyLevel int
	DepartmentID   *string
	ProjectIDs     []string
	Roles          []string
	SessionID      *string
	Classification store.Classification
}

// HasRole reports whether the principal carries the given role label.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Action is the operation being authorized. The current policy table does
// not vary by action; the parameter exists for action-sensitive rules later.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)
