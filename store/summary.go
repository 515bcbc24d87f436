package store

// Summary is a mid-term memory record: a distilled summary of one or more
// conversations, with tags and extracted entities.
type Summary struct {
	ID              string
	OwnerID         string
	Text            string
	ConversationIDs []string
	Tags            []string
	Entities        map[string]any
	ProjectID       *string
	DepartmentID    *string
	Classification  Classification
	CreatedTs       int64
}

// FindSummary specifies the conditions for finding summaries.
// ProjectIn follows the same three-state convention as FindSession.ProjectIn.
type FindSummary struct {
	ID            *string
	OwnerID       *string
	ProjectIn     []string
	DepartmentID  *string
	TagsAny       []string
	ContentSearch *string
	CreatedAfter  *int64
	CreatedBefore *int64
	Limit         int
	Offset        int
}
