package authz

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/usestratum/stratum/store"
)

// AccessDecision is the outcome of an authorization check. Decisions are
// produced fresh on every call and must not be cached across requests.
type AccessDecision struct {
	Granted bool
	Scope   VisibilityScope
	Filters FilterDescriptor
	Reason  string
}

// Engine resolves access decisions against a validated policy table. The
// table is read-only after construction, so Engine is safe for concurrent
// use without locking.
type Engine struct {
	table PolicyTable
}

// NewEngine creates an engine from the given table, validating it for
// completeness at startup.
func NewEngine(table PolicyTable) (*Engine, error) {
	if table == nil {
		table = DefaultPolicyTable()
	}
	if err := table.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid policy table")
	}
	return &Engine{table: table}, nil
}

// Authorize decides whether the principal may perform action on the given
// tier. An unknown hierarchy level or a ScopeNone entry yields a denial, not
// an error; denials are normal outcomes.
//
// The action parameter does not affect the current scope table; it is part
// of the contract for forward compatibility with action-sensitive rules.
func (e *Engine) Authorize(principal *Principal, tier store.MemoryTier, action Action) AccessDecision {
	_ = action

	row, ok := e.table[principal.HierarchyLevel]
	if !ok {
		return AccessDecision{
			Granted: false,
			Reason:  fmt.Sprintf("hierarchy level %d not found in access matrix", principal.HierarchyLevel),
		}
	}

	scope := row[tier]
	if scope == ScopeNone || scope == "" {
		return AccessDecision{
			Granted: false,
			Reason:  fmt.Sprintf("no access to %s for hierarchy level %d", tier, principal.HierarchyLevel),
		}
	}

	return AccessDecision{
		Granted: true,
		Scope:   scope,
		Filters: BuildFilters(principal, scope),
		Reason:  fmt.Sprintf("access granted with scope: %s", scope),
	}
}

// AccessibleTiers returns the tiers the principal may read, in fan-out order.
func (e *Engine) AccessibleTiers(principal *Principal) []store.MemoryTier {
	tiers := []store.MemoryTier{}
	for _, tier := range store.Tiers() {
		if e.Authorize(principal, tier, ActionRead).Granted {
			tiers = append(tiers, tier)
		}
	}
	return tiers
}
