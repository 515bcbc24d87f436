package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/usestratum/stratum/plugin/embedding"
	"github.com/usestratum/stratum/server/authz"
	"github.com/usestratum/stratum/store"
)

// DocumentStore is the filtered record store for the long-term tier. It is
// the only tier store with update and archive paths.
type DocumentStore interface {
	CreateDocument(ctx context.Context, create *store.Document) (*store.Document, error)
	ListDocuments(ctx context.Context, find *store.FindDocument) ([]*store.Document, error)
	CountDocuments(ctx context.Context, find *store.FindDocument) (int64, error)
	UpdateDocument(ctx context.Context, update *store.UpdateDocument) (*store.Document, error)
	GetDocumentStats(ctx context.Context, find *store.FindDocument) (*store.DocumentStats, error)
}

const (
	minDocumentLength = 10
	maxTitleLength    = 100

	// Candidate pool bound for in-process similarity scoring.
	semanticCandidateLimit = 200

	// Relevance label bands. Placeholder values carried from the hash-based
	// embedding stand-in; recalibrate against a real embedding backend.
	highRelevanceThreshold   = 0.8
	mediumRelevanceThreshold = 0.6
)

// Principals at this hierarchy level or above may modify or archive
// documents they do not own.
const moderatorHierarchyLevel = 2

// DocumentUpdate is a partial document update requested by a caller.
type DocumentUpdate struct {
	Title    *string
	Content  *string
	Metadata map[string]any
}

// DocumentFindOptions are caller-supplied filters layered on top of the
// principal's access filters.
type DocumentFindOptions struct {
	MemoryType     string
	KeywordsAny    []string
	ContentSearch  string
	Classification *store.Classification
	DateFrom       *time.Time
	DateTo         *time.Time
	MinWordCount   *int
	MaxWordCount   *int
}

// StoreDocumentResult reports the stored document and whether it was a
// content-hash duplicate of an existing one.
type StoreDocumentResult struct {
	Document  *store.Document
	Duplicate bool
}

// LongTermController handles long-term memory operations: the durable
// knowledge base with embeddings, versioning and soft delete.
type LongTermController struct {
	store    DocumentStore
	authz    *authz.Engine
	embedder embedding.Embedder
	tier     store.MemoryTier
}

func NewLongTermController(documentStore DocumentStore, engine *authz.Engine, embedder embedding.Embedder) *LongTermController {
	return &LongTermController{
		store:    documentStore,
		authz:    engine,
		embedder: embedder,
		tier:     store.TierLongTerm,
	}
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// StoreDocument stores a knowledge document. Identical content (by SHA-256
// hash) short-circuits to the existing record with Duplicate set.
func (c *LongTermController) StoreDocument(ctx context.Context, principal *authz.Principal, content *Content) (*StoreDocumentResult, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionWrite)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	if content == nil {
		return nil, invalidf("document content is required")
	}
	body := strings.TrimSpace(content.Text)
	if body == "" {
		return nil, invalidf("document content is required")
	}
	if len(body) < minDocumentLength {
		return nil, invalidf("document content too short (minimum %d characters)", minDocumentLength)
	}

	hash := contentHash(body)
	existing, err := c.store.ListDocuments(ctx, &store.FindDocument{ContentHash: &hash, Limit: 1})
	if err != nil {
		return nil, errors.Wrap(err, "failed to check for duplicate document")
	}
	if len(existing) > 0 {
		return &StoreDocumentResult{Document: existing[0], Duplicate: true}, nil
	}

	title := content.Title
	if title == "" {
		title = snippet(body, maxTitleLength)
	}

	// An embedding failure does not block the write; the document is stored
	// without a vector and the re-embedding runner picks it up later.
	vector, err := c.embedder.Embed(ctx, body)
	if err != nil {
		slog.WarnContext(ctx, "failed to embed document, deferring to runner", "error", err)
		vector = nil
	}

	memoryType := content.MemoryType
	if memoryType == "" {
		memoryType = "document"
	}
	sourceType := content.SourceType
	if sourceType == "" {
		sourceType = "user_input"
	}

	now := time.Now().Unix()
	document := &store.Document{
		ID:             uuid.NewString(),
		Title:          title,
		Content:        body,
		ContentHash:    hash,
		Embedding:      vector,
		Metadata:       content.Metadata,
		MemoryType:     memoryType,
		SourceType:     sourceType,
		SourceURL:      content.SourceURL,
		Keywords:       extractKeywords(body),
		WordCount:      len(strings.Fields(body)),
		Version:        1,
		OwnerID:        principal.ID,
		ProjectID:      firstProject(principal),
		DepartmentID:   principal.DepartmentID,
		Classification: principal.Classification,
		RowStatus:      store.Normal,
		CreatedTs:      now,
		UpdatedTs:      now,
	}

	created, err := c.store.CreateDocument(ctx, document)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create document")
	}
	return &StoreDocumentResult{Document: created}, nil
}

// ListDocuments returns visible, non-archived documents, newest first.
func (c *LongTermController) ListDocuments(ctx context.Context, principal *authz.Principal, opts *DocumentFindOptions, limit int) ([]*store.Document, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	find := c.visibleFind(decision)
	find.Limit = limit
	if opts != nil {
		if opts.MemoryType != "" {
			memoryType := opts.MemoryType
			find.MemoryType = &memoryType
		}
		find.KeywordsAny = opts.KeywordsAny
		if opts.ContentSearch != "" {
			search := opts.ContentSearch
			find.ContentSearch = &search
		}
		find.Classification = opts.Classification
		if opts.DateFrom != nil {
			from := opts.DateFrom.Unix()
			find.CreatedAfter = &from
		}
		if opts.DateTo != nil {
			to := opts.DateTo.Unix()
			find.CreatedBefore = &to
		}
		find.MinWordCount = opts.MinWordCount
		find.MaxWordCount = opts.MaxWordCount
	}

	documents, err := c.store.ListDocuments(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list documents")
	}
	return documents, nil
}

// GetDocument returns one non-archived document by id, subject to the
// principal's filters.
func (c *LongTermController) GetDocument(ctx context.Context, principal *authz.Principal, id string) (*store.Document, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	find := c.visibleFind(decision)
	find.ID = &id
	find.Limit = 1

	documents, err := c.store.ListDocuments(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get document")
	}
	if len(documents) == 0 {
		return nil, notFoundf("document %s", id)
	}
	return documents[0], nil
}

// UpdateDocument applies a partial update, creating a new version when the
// content changes. Non-owners need moderator hierarchy.
func (c *LongTermController) UpdateDocument(ctx context.Context, principal *authz.Principal, id string, update *DocumentUpdate) (*store.Document, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionWrite)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}
	if update == nil {
		return nil, invalidf("no document updates provided")
	}

	existing, err := c.GetDocument(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != principal.ID && principal.HierarchyLevel > moderatorHierarchyLevel {
		return nil, deniedf("cannot modify documents created by others")
	}

	storeUpdate := &store.UpdateDocument{
		ID:             id,
		Title:          update.Title,
		Metadata:       update.Metadata,
		LastModifiedBy: &principal.ID,
	}

	if update.Content != nil && *update.Content != existing.Content {
		body := strings.TrimSpace(*update.Content)
		if len(body) < minDocumentLength {
			return nil, invalidf("document content too short (minimum %d characters)", minDocumentLength)
		}

		vector, err := c.embedder.Embed(ctx, body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to embed updated document")
		}

		hash := contentHash(body)
		wordCount := len(strings.Fields(body))
		storeUpdate.Content = &body
		storeUpdate.ContentHash = &hash
		storeUpdate.Embedding = vector
		storeUpdate.Keywords = extractKeywords(body)
		storeUpdate.WordCount = &wordCount
		storeUpdate.BumpVersion = true
	}

	updated, err := c.store.UpdateDocument(ctx, storeUpdate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update document")
	}
	return updated, nil
}

// ArchiveDocument soft-deletes a document. The record stays in the store
// with RowStatus Archived.
func (c *LongTermController) ArchiveDocument(ctx context.Context, principal *authz.Principal, id string) error {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionDelete)
	if !decision.Granted {
		return deniedf("%s", decision.Reason)
	}

	existing, err := c.GetDocument(ctx, principal, id)
	if err != nil {
		return err
	}
	if existing.OwnerID != principal.ID && principal.HierarchyLevel > moderatorHierarchyLevel {
		return deniedf("cannot delete documents created by others")
	}

	archived := store.Archived
	if _, err := c.store.UpdateDocument(ctx, &store.UpdateDocument{
		ID:        id,
		RowStatus: &archived,
	}); err != nil {
		return errors.Wrap(err, "failed to archive document")
	}
	return nil
}

// Search performs semantic search over visible documents: the query is
// embedded, a bounded candidate pool is scored in process by cosine
// similarity, and results come back highest similarity first.
func (c *LongTermController) Search(ctx context.Context, principal *authz.Principal, query string, limit int) ([]*SearchResult, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	queryVector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}

	find := c.visibleFind(decision)
	find.WithEmbedding = true
	find.Limit = semanticCandidateLimit

	documents, err := c.store.ListDocuments(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search documents")
	}

	results := make([]*SearchResult, 0, len(documents))
	for _, document := range documents {
		similarity := embedding.CosineSimilarity(queryVector, document.Embedding)
		results = append(results, &SearchResult{
			ID:             document.ID,
			Tier:           store.TierLongTerm,
			Title:          document.Title,
			Snippet:        snippet(document.Content, 500),
			Keywords:       document.Keywords,
			Relevance:      similarity,
			RelevanceLabel: relevanceLabel(similarity),
			WordCount:      document.WordCount,
			CreatedTs:      document.CreatedTs,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func relevanceLabel(similarity float64) string {
	switch {
	case similarity > highRelevanceThreshold:
		return "high"
	case similarity > mediumRelevanceThreshold:
		return "medium"
	default:
		return "low"
	}
}

// Stats aggregates the documents visible to the principal.
func (c *LongTermController) Stats(ctx context.Context, principal *authz.Principal) (*TierStats, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	stats, err := c.store.GetDocumentStats(ctx, c.visibleFind(decision))
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate document stats")
	}

	return &TierStats{
		Accessible:   true,
		Total:        stats.TotalDocuments,
		MostRecentTs: stats.LatestTs,
		Documents:    stats,
	}, nil
}

// CountSince counts visible documents created after the given time.
func (c *LongTermController) CountSince(ctx context.Context, principal *authz.Principal, since time.Time) (int64, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return 0, deniedf("%s", decision.Reason)
	}

	find := c.visibleFind(decision)
	ts := since.Unix()
	find.CreatedAfter = &ts
	return c.store.CountDocuments(ctx, find)
}

// visibleFind is the base descriptor for reads: the principal's access
// filters plus the non-archived restriction.
func (c *LongTermController) visibleFind(decision authz.AccessDecision) *store.FindDocument {
	normal := store.Normal
	find := &store.FindDocument{RowStatus: &normal}
	applyDocumentFilters(find, decision.Filters)
	return find
}
