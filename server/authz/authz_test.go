package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestratum/stratum/store"
)

func strPtr(s string) *string {
	return &s
}

func TestDefaultPolicyTableIsValid(t *testing.T) {
	assert.NoError(t, DefaultPolicyTable().Validate())
}

func TestPolicyTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   PolicyTable
		wantErr bool
	}{
		{
			name:    "empty table",
			table:   PolicyTable{},
			wantErr: true,
		},
		{
			name: "missing tier entry",
			table: PolicyTable{
				1: {store.TierShortTerm: ScopeOwn},
			},
			wantErr: true,
		},
		{
			name: "invalid level",
			table: PolicyTable{
				0: {
					store.TierShortTerm: ScopeOwn,
					store.TierMidTerm:   ScopeOwn,
					store.TierLongTerm:  ScopeOwn,
				},
			},
			wantErr: true,
		},
		{
			name: "unknown scope",
			table: PolicyTable{
				1: {
					store.TierShortTerm: VisibilityScope("galaxy"),
					store.TierMidTerm:   ScopeOwn,
					store.TierLongTerm:  ScopeOwn,
				},
			},
			wantErr: true,
		},
		{
			name: "explicit none is valid",
			table: PolicyTable{
				1: {
					store.TierShortTerm: ScopeOwn,
					store.TierMidTerm:   ScopeNone,
					store.TierLongTerm:  ScopeNone,
				},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScopeWidthIsMonotonic(t *testing.T) {
	// Higher hierarchy levels must never see less than lower ones within a tier.
	table := DefaultPolicyTable()
	for _, tier := range store.Tiers() {
		for level := 1; level < 5; level++ {
			upper := table[level][tier].Width()
			lower := table[level+1][tier].Width()
			assert.GreaterOrEqual(t, upper, lower, "level %d should not be narrower than level %d for %s", level, level+1, tier)
		}
	}
}

func TestAuthorizeLevelScenarios(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	tests := []struct {
		name      string
		level     int
		tier      store.MemoryTier
		granted   bool
		wantScope VisibilityScope
	}{
		{"executive short_term", 1, store.TierShortTerm, true, ScopeOrganization},
		{"executive long_term", 1, store.TierLongTerm, true, ScopeOrganization},
		{"department head mid_term", 2, store.TierMidTerm, true, ScopeDepartment},
		{"team lead long_term", 3, store.TierLongTerm, true, ScopeProject},
		{"employee short_term", 4, store.TierShortTerm, true, ScopeProject},
		{"employee long_term is own only", 4, store.TierLongTerm, true, ScopeOwn},
		{"intern short_term", 5, store.TierShortTerm, true, ScopeOwn},
		{"intern mid_term denied", 5, store.TierMidTerm, false, ""},
		{"intern long_term denied", 5, store.TierLongTerm, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal := &Principal{ID: "u1", Username: "user", HierarchyLevel: tt.level}
			decision := engine.Authorize(principal, tt.tier, ActionRead)
			assert.Equal(t, tt.granted, decision.Granted)
			if tt.granted {
				assert.Equal(t, tt.wantScope, decision.Scope)
				assert.Contains(t, decision.Reason, "access granted")
			} else {
				assert.Contains(t, decision.Reason, "no access")
			}
		})
	}
}

func TestAuthorizeUnknownLevelIsDenialNotError(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	principal := &Principal{ID: "u1", HierarchyLevel: 42}
	decision := engine.Authorize(principal, store.TierShortTerm, ActionRead)
	assert.False(t, decision.Granted)
	assert.Contains(t, decision.Reason, "hierarchy level 42 not found")
}

func TestAccessibleTiers(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	intern := &Principal{ID: "u1", HierarchyLevel: 5}
	assert.Equal(t, []store.MemoryTier{store.TierShortTerm}, engine.AccessibleTiers(intern))

	executive := &Principal{ID: "u2", HierarchyLevel: 1}
	assert.Equal(t, store.Tiers(), engine.AccessibleTiers(executive))
}

func TestBuildFilters(t *testing.T) {
	t.Run("own scope", func(t *testing.T) {
		principal := &Principal{ID: "u1"}
		filters := BuildFilters(principal, ScopeOwn)
		owner, ok := filters.Equal(FieldOwnerID)
		require.True(t, ok)
		assert.Equal(t, "u1", owner)
	})

	t.Run("project scope", func(t *testing.T) {
		principal := &Principal{ID: "u1", ProjectIDs: []string{"p1", "p2"}}
		filters := BuildFilters(principal, ScopeProject)
		projects, ok := filters.In(FieldProjectID)
		require.True(t, ok)
		assert.Equal(t, []string{"p1", "p2"}, projects)
	})

	t.Run("project scope with no projects matches nothing", func(t *testing.T) {
		principal := &Principal{ID: "u1"}
		filters := BuildFilters(principal, ScopeProject)
		projects, ok := filters.In(FieldProjectID)
		require.True(t, ok)
		assert.Empty(t, projects)
	})

	t.Run("department scope", func(t *testing.T) {
		principal := &Principal{ID: "u1", DepartmentID: strPtr("d1")}
		filters := BuildFilters(principal, ScopeDepartment)
		department, ok := filters.Equal(FieldDepartmentID)
		require.True(t, ok)
		assert.Equal(t, "d1", department)
	})

	t.Run("organization scope is unrestricted", func(t *testing.T) {
		principal := &Principal{ID: "u1"}
		assert.True(t, BuildFilters(principal, ScopeOrganization).IsEmpty())
	})

	t.Run("session scope prefers session id", func(t *testing.T) {
		principal := &Principal{ID: "u1", SessionID: strPtr("s1")}
		filters := BuildFilters(principal, ScopeSession)
		session, ok := filters.Equal(FieldSessionID)
		require.True(t, ok)
		assert.Equal(t, "s1", session)
	})

	t.Run("session scope falls back to owner", func(t *testing.T) {
		principal := &Principal{ID: "u1"}
		filters := BuildFilters(principal, ScopeSession)
		owner, ok := filters.Equal(FieldOwnerID)
		require.True(t, ok)
		assert.Equal(t, "u1", owner)
	})
}

func TestHasRole(t *testing.T) {
	principal := &Principal{Roles: []string{"Manager", "Engineer"}}
	assert.True(t, principal.HasRole("Manager"))
	assert.False(t, principal.HasRole("Admin"))
}
