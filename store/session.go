package store

// Session is a short-term memory record: one conversation session with an
// agent, kept as a raw message list.
type Session struct {
	ID             string
	OwnerID        string
	Messages       []Message
	ContextData    map[string]any
	AgentName      string
	ProjectID      *string
	DepartmentID   *string
	Classification Classification
	CreatedTs      int64
}

// FindSession specifies the conditions for finding sessions.
//
// ProjectIn is a three-state filter: nil means no project restriction, an
// empty non-nil slice matches nothing. Drivers must honor the distinction.
type FindSession struct {
	ID           *string
	OwnerID      *string
	ProjectIn    []string
	DepartmentID *string
	CreatedAfter *int64
	Limit        int
	Offset       int
}
