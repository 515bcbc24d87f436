package authz

// Filter field names shared with the tier stores.
const (
	FieldOwnerID      = "owner_id"
	FieldProjectID    = "project_id"
	FieldDepartmentID = "department_id"
	FieldSessionID    = "session_id"
)

// Op is a filter match operator.
type Op string

const (
	// OpEqual matches a single value.
	OpEqual Op = "eq"
	// OpIn matches any of a value set. An empty set matches nothing.
	OpIn Op = "in"
)

// Condition is one declarative match condition. Value is set for OpEqual,
// Values for OpIn.
type Condition struct {
	Field  string
	Op     Op
	Value  string
	Values []string
}

// FilterDescriptor is the set of conditions a tier store must apply to every
// query issued on behalf of a principal. The core never builds query strings;
// stores translate these conditions with their own typed query builders.
type FilterDescriptor struct {
	Conditions []Condition
}

// IsEmpty reports whether the descriptor imposes no restriction.
func (f FilterDescriptor) IsEmpty() bool {
	return len(f.Conditions) == 0
}

// Equal returns the value of an OpEqual condition on field, if present.
func (f FilterDescriptor) Equal(field string) (string, bool) {
	for _, c := range f.Conditions {
		if c.Field == field && c.Op == OpEqual {
			return c.Value, true
		}
	}
	return "", false
}

// In returns the value set of an OpIn condition on field. The second return
// distinguishes "no condition" (nil, false) from "empty set" ([], true); the
// latter must match nothing.
func (f FilterDescriptor) In(field string) ([]string, bool) {
	for _, c := range f.Conditions {
		if c.Field == field && c.Op == OpIn {
			if c.Values == nil {
				return []string{}, true
			}
			return c.Values, true
		}
	}
	return nil, false
}

// BuildFilters derives the filter descriptor for a principal under a scope.
// It is total over all scopes:
//
//	own          -> owner_id = principal.ID
//	project      -> project_id IN principal.ProjectIDs (empty set matches nothing)
//	department   -> department_id = principal.DepartmentID
//	organization -> no conditions
//	session      -> session_id = principal.SessionID when set, else owner_id
func BuildFilters(principal *Principal, scope VisibilityScope) FilterDescriptor {
	switch scope {
	case ScopeOwn:
		return FilterDescriptor{Conditions: []Condition{
			{Field: FieldOwnerID, Op: OpEqual, Value: principal.ID},
		}}
	case ScopeProject:
		projects := principal.ProjectIDs
		if projects == nil {
			projects = []string{}
		}
		return FilterDescriptor{Conditions: []Condition{
			{Field: FieldProjectID, Op: OpIn, Values: projects},
		}}
	case ScopeDepartment:
		department := ""
		if principal.DepartmentID != nil {
			department = *principal.DepartmentID
		}
		return FilterDescriptor{Conditions: []Condition{
			{Field: FieldDepartmentID, Op: OpEqual, Value: department},
		}}
	case ScopeSession:
		if principal.SessionID != nil {
			return FilterDescriptor{Conditions: []Condition{
				{Field: FieldSessionID, Op: OpEqual, Value: *principal.SessionID},
			}}
		}
		return FilterDescriptor{Conditions: []Condition{
			{Field: FieldOwnerID, Op: OpEqual, Value: principal.ID},
		}}
	}
	// organization and any unknown scope impose no restriction only for
	// organization; unknown scopes cannot come out of a validated table.
	return FilterDescriptor{}
}
