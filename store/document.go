package store

// Document is a long-term memory record: durable knowledge with a vector
// embedding, keywords and a version counter. Documents are archived via
// RowStatus, never physically deleted.
type Document struct {
	ID             string
	Title          string
	Content        string
	ContentHash    string
	Embedding      []float32
	Metadata       map[string]any
	MemoryType     string
	SourceType     string
	SourceURL      string
	Keywords       []string
	WordCount      int
	Version        int
	OwnerID        string
	LastModifiedBy *string
	ProjectID      *string
	DepartmentID   *string
	Classification Classification
	RowStatus      RowStatus
	CreatedTs      int64
	UpdatedTs      int64
}

// FindDocument specifies the conditions for finding documents.
// ProjectIn follows the same three-state convention as FindSession.ProjectIn.
type FindDocument struct {
	ID             *string
	OwnerID        *string
	ProjectIn      []string
	DepartmentID   *string
	ContentHash    *string
	MemoryType     *string
	KeywordsAny    []string
	ContentSearch  *string
	Classification *Classification
	CreatedAfter   *int64
	CreatedBefore  *int64
	MinWordCount   *int
	MaxWordCount   *int
	RowStatus      *RowStatus
	// WithEmbedding loads the embedding column, which is skipped by default
	// to keep list queries light.
	WithEmbedding bool
	// MissingEmbedding restricts to documents stored without a vector, the
	// work set of the re-embedding runner.
	MissingEmbedding bool
	Limit            int
	Offset           int
}

// UpdateDocument specifies a partial update. Nil fields are left untouched.
// BumpVersion increments the version counter, used when content changes.
type UpdateDocument struct {
	ID             string
	Title          *string
	Content        *string
	ContentHash    *string
	Embedding      []float32
	Metadata       map[string]any
	Keywords       []string
	WordCount      *int
	LastModifiedBy *string
	BumpVersion    bool
	RowStatus      *RowStatus
}

// TypeCount is one entry of a per-type document breakdown.
type TypeCount struct {
	MemoryType string
	Count      int64
}

// DocumentStats aggregates the documents visible under a filter.
type DocumentStats struct {
	TotalDocuments int64
	DocumentTypes  int64
	AvgWordCount   float64
	TotalWords     int64
	Contributors   int64
	LatestTs       int64
	EarliestTs     int64
	TypeBreakdown  []TypeCount
}
