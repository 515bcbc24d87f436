package memory

import (
	"github.com/usestratum/stratum/server/authz"
	"github.com/usestratum/stratum/store"
)

// The helpers below translate an authz.FilterDescriptor into the typed Find
// descriptors the store drivers understand. The core never assembles query
// strings.

func applySessionFilters(find *store.FindSession, filters authz.FilterDescriptor) {
	if owner, ok := filters.Equal(authz.FieldOwnerID); ok {
		find.OwnerID = &owner
	}
	if projects, ok := filters.In(authz.FieldProjectID); ok {
		find.ProjectIn = projects
	}
	if department, ok := filters.Equal(authz.FieldDepartmentID); ok {
		find.DepartmentID = &department
	}
	// Session-scoped access pins the query to the session record itself.
	if sessionID, ok := filters.Equal(authz.FieldSessionID); ok {
		find.ID = &sessionID
	}
}

func applySummaryFilters(find *store.FindSummary, filters authz.FilterDescriptor) {
	if owner, ok := filters.Equal(authz.FieldOwnerID); ok {
		find.OwnerID = &owner
	}
	if projects, ok := filters.In(authz.FieldProjectID); ok {
		find.ProjectIn = projects
	}
	if department, ok := filters.Equal(authz.FieldDepartmentID); ok {
		find.DepartmentID = &department
	}
}

func applyDocumentFilters(find *store.FindDocument, filters authz.FilterDescriptor) {
	if owner, ok := filters.Equal(authz.FieldOwnerID); ok {
		find.OwnerID = &owner
	}
	if projects, ok := filters.In(authz.FieldProjectID); ok {
		find.ProjectIn = projects
	}
	if department, ok := filters.Equal(authz.FieldDepartmentID); ok {
		find.DepartmentID = &department
	}
}

func firstProject(principal *authz.Principal) *string {
	if len(principal.ProjectIDs) == 0 {
		return nil
	}
	project := principal.ProjectIDs[0]
	return &project
}
