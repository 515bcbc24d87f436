package authz

import (
	"github.com/pkg/errors"

	"github.com/usestratum/stratum/store"
)

// PolicyTable maps hierarchy level -> tier -> visibility scope. ScopeNone is
// the explicit no-access marker. Changing authorization rules means changing
// this data, not code.
type PolicyTable map[int]map[store.MemoryTier]VisibilityScope

// DefaultPolicyTable returns the built-in five-level access matrix.
func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		// Executive: organization-wide access to everything.
		1: {
			store.TierShortTerm: ScopeOrganization,
			store.TierMidTerm:   ScopeOrganization,
			store.TierLongTerm:  ScopeOrganization,
		},
		// Department head: department-wide access.
		2: {
			store.TierShortTerm: ScopeDepartment,
			store.TierMidTerm:   ScopeDepartment,
			store.TierLongTerm:  ScopeDepartment,
		},
		// Team lead: project-wide access.
		3: {
			store.TierShortTerm: ScopeProject,
			store.TierMidTerm:   ScopeProject,
			store.TierLongTerm:  ScopeProject,
		},
		// Employee: project access, but only own long-term documents.
		4: {
			store.TierShortTerm: ScopeProject,
			store.TierMidTerm:   ScopeProject,
			store.TierLongTerm:  ScopeOwn,
		},
		// Intern: own sessions only, no mid/long-term access.
		5: {
			store.TierShortTerm: ScopeOwn,
			store.TierMidTerm:   ScopeNone,
			store.TierLongTerm:  ScopeNone,
		},
	}
}

// Validate checks the table for completeness: every declared hierarchy level
// must carry an entry for every tier, ScopeNone included.
func (t PolicyTable) Validate() error {
	if len(t) == 0 {
		return errors.New("policy table is empty")
	}
	for level, row := range t {
		if level < 1 {
			return errors.Errorf("invalid hierarchy level %d in policy table", level)
		}
		for _, tier := range store.Tiers() {
			scope, ok := row[tier]
			if !ok {
				return errors.Errorf("policy table level %d is missing an entry for tier %s", level, tier)
			}
			switch scope {
			case ScopeNone, ScopeSession, ScopeOwn, ScopeProject, ScopeDepartment, ScopeOrganization:
			default:
				return errors.Errorf("policy table level %d tier %s has unknown scope %q", level, tier, scope)
			}
		}
	}
	return nil
}
