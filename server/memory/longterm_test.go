package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestratum/stratum/plugin/embedding"
	"github.com/usestratum/stratum/store"
)

func newLongTermController(t *testing.T, documentStore DocumentStore) *LongTermController {
	t.Helper()
	return NewLongTermController(documentStore, newEngine(t), embedding.NewHashEmbedder(64))
}

func TestStoreDocument(t *testing.T) {
	documentStore := &fakeDocumentStore{}
	controller := newLongTermController(t, documentStore)
	principal := testPrincipal(3)
	principal.ProjectIDs = []string{"p1"}

	result, err := controller.StoreDocument(context.Background(), principal, &Content{
		Title: "Deployment guide",
		Text:  "The deployment pipeline promotes builds from staging to production after the smoke tests pass.",
	})
	require.NoError(t, err)
	require.False(t, result.Duplicate)

	document := result.Document
	assert.NotEmpty(t, document.ID)
	assert.Equal(t, "Deployment guide", document.Title)
	assert.NotEmpty(t, document.ContentHash)
	assert.NotEmpty(t, document.Embedding)
	assert.Contains(t, document.Keywords, "deployment")
	assert.Equal(t, 1, document.Version)
	assert.Equal(t, "document", document.MemoryType)
	assert.Equal(t, "user_input", document.SourceType)
	assert.Equal(t, store.Normal, document.RowStatus)
}

func TestStoreDocumentDeduplicates(t *testing.T) {
	documentStore := &fakeDocumentStore{}
	controller := newLongTermController(t, documentStore)
	principal := testPrincipal(1)

	text := "Identical knowledge body stored twice should collapse to one record."
	first, err := controller.StoreDocument(context.Background(), principal, &Content{Text: text})
	require.NoError(t, err)

	second, err := controller.StoreDocument(context.Background(), principal, &Content{Text: text})
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Document.ID, second.Document.ID)
	assert.Len(t, documentStore.documents, 1)
}

type unavailableEmbedder struct{}

func (unavailableEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider unavailable")
}
func (unavailableEmbedder) Dimensions() int { return 0 }
func (unavailableEmbedder) Model() string   { return "unavailable" }

func TestStoreDocumentDefersEmbeddingOnProviderFailure(t *testing.T) {
	documentStore := &fakeDocumentStore{}
	controller := NewLongTermController(documentStore, newEngine(t), unavailableEmbedder{})

	result, err := controller.StoreDocument(context.Background(), testPrincipal(1), &Content{
		Text: "Stored without a vector until the runner catches up.",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Document.Embedding)
}

func TestStoreDocumentRejectsShortContent(t *testing.T) {
	controller := newLongTermController(t, &fakeDocumentStore{})

	_, err := controller.StoreDocument(context.Background(), testPrincipal(1), &Content{Text: "too short"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStoreDocumentDefaultsTitleFromContent(t *testing.T) {
	controller := newLongTermController(t, &fakeDocumentStore{})

	long := strings.Repeat("knowledge ", 30)
	result, err := controller.StoreDocument(context.Background(), testPrincipal(1), &Content{Text: long})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.Document.Title, "..."))
	assert.LessOrEqual(t, len(result.Document.Title), maxTitleLength+3)
}

func TestUpdateDocumentBumpsVersionOnContentChange(t *testing.T) {
	documentStore := &fakeDocumentStore{}
	controller := newLongTermController(t, documentStore)
	principal := testPrincipal(1)

	result, err := controller.StoreDocument(context.Background(), principal, &Content{
		Text: "Original body of the runbook, first edition.",
	})
	require.NoError(t, err)
	originalHash := result.Document.ContentHash

	updatedText := "Revised body of the runbook, second edition with new steps."
	updated, err := controller.UpdateDocument(context.Background(), principal, result.Document.ID, &DocumentUpdate{
		Content: &updatedText,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, updated.Version)
	assert.NotEqual(t, originalHash, updated.ContentHash)
	require.NotNil(t, updated.LastModifiedBy)
	assert.Equal(t, principal.ID, *updated.LastModifiedBy)
}

func TestUpdateDocumentTitleOnlyKeepsVersion(t *testing.T) {
	documentStore := &fakeDocumentStore{}
	controller := newLongTermController(t, documentStore)
	principal := testPrincipal(1)

	result, err := controller.StoreDocument(context.Background(), principal, &Content{
		Text: "Stable body that does not change across the update.",
	})
	require.NoError(t, err)

	title := "Renamed"
	updated, err := controller.UpdateDocument(context.Background(), principal, result.Document.ID, &DocumentUpdate{
		Title: &title,
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 1, updated.Version)
}

func TestUpdateDocumentOwnershipRule(t *testing.T) {
	owner := testPrincipal(1)
	documentStore := &fakeDocumentStore{}
	controller := newLongTermController(t, documentStore)

	result, err := controller.StoreDocument(context.Background(), owner, &Content{
		Text: "A document owned by the executive, visible org-wide.",
	})
	require.NoError(t, err)

	title := "hijacked"

	// A level-3 non-owner cannot modify it even though they can read it...
	outsider := testPrincipal(3)
	outsider.ID = "u9"
	outsider.ProjectIDs = []string{"p1"}
	// make the document visible to the outsider's project scope
	p1 := "p1"
	result.Document.ProjectID = &p1

	_, err = controller.UpdateDocument(context.Background(), outsider, result.Document.ID, &DocumentUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrAccessDenied)

	// ...but a level-2 moderator can.
	d1 := "d1"
	result.Document.DepartmentID = &d1
	moderator := testPrincipal(2)
	moderator.ID = "u8"
	moderator.DepartmentID = &d1

	updated, err := controller.UpdateDocument(context.Background(), moderator, result.Document.ID, &DocumentUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "hijacked", updated.Title)
}

func TestListDocumentsNewestFirst(t *testing.T) {
	// An edit must not move an old document ahead of newer ones.
	documentStore := &fakeDocumentStore{documents: []*store.Document{
		{ID: "old", OwnerID: "u1", CreatedTs: 100, UpdatedTs: 900, RowStatus: store.Normal},
		{ID: "new", OwnerID: "u1", CreatedTs: 200, UpdatedTs: 200, RowStatus: store.Normal},
	}}
	controller := newLongTermController(t, documentStore)

	documents, err := controller.ListDocuments(context.Background(), testPrincipal(1), nil, 10)
	require.NoError(t, err)
	require.Len(t, documents, 2)
	assert.Equal(t, "new", documents[0].ID)
	assert.Equal(t, "old", documents[1].ID)
}

func TestArchiveDocumentSoftDeletes(t *testing.T) {
	documentStore := &fakeDocumentStore{}
	controller := newLongTermController(t, documentStore)
	principal := testPrincipal(1)

	result, err := controller.StoreDocument(context.Background(), principal, &Content{
		Text: "Document that is about to be archived, not deleted.",
	})
	require.NoError(t, err)

	require.NoError(t, controller.ArchiveDocument(context.Background(), principal, result.Document.ID))

	// The record is still in the store, but invisible to reads.
	assert.Len(t, documentStore.documents, 1)
	assert.Equal(t, store.Archived, documentStore.documents[0].RowStatus)

	_, err = controller.GetDocument(context.Background(), principal, result.Document.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLongTermSearchOrdersBySimilarity(t *testing.T) {
	documentStore := &fakeDocumentStore{}
	controller := newLongTermController(t, documentStore)
	principal := testPrincipal(1)

	_, err := controller.StoreDocument(context.Background(), principal, &Content{
		Title: "Kubernetes operations",
		Text:  "Kubernetes cluster upgrade procedure with node pools and draining.",
	})
	require.NoError(t, err)
	_, err = controller.StoreDocument(context.Background(), principal, &Content{
		Title: "Catering",
		Text:  "Office catering menu preferences for the quarterly offsite event.",
	})
	require.NoError(t, err)

	results, err := controller.Search(context.Background(), principal, "kubernetes upgrade", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.GreaterOrEqual(t, results[0].Relevance, results[1].Relevance)
	for _, result := range results {
		assert.Equal(t, store.TierLongTerm, result.Tier)
		assert.NotEmpty(t, result.RelevanceLabel)
	}
}

func TestLongTermStats(t *testing.T) {
	documentStore := &fakeDocumentStore{}
	controller := newLongTermController(t, documentStore)
	principal := testPrincipal(1)

	_, err := controller.StoreDocument(context.Background(), principal, &Content{
		Text:       "First knowledge document with enough words to count.",
		MemoryType: "runbook",
	})
	require.NoError(t, err)
	_, err = controller.StoreDocument(context.Background(), principal, &Content{
		Text: "Second knowledge document, default type this time around.",
	})
	require.NoError(t, err)

	stats, err := controller.Stats(context.Background(), principal)
	require.NoError(t, err)
	assert.True(t, stats.Accessible)
	assert.Equal(t, int64(2), stats.Total)
	require.NotNil(t, stats.Documents)
	assert.Equal(t, int64(2), stats.Documents.DocumentTypes)
	assert.Equal(t, int64(1), stats.Documents.Contributors)
}

func TestRelevanceLabel(t *testing.T) {
	assert.Equal(t, "high", relevanceLabel(0.9))
	assert.Equal(t, "medium", relevanceLabel(0.7))
	assert.Equal(t, "low", relevanceLabel(0.5))
	assert.Equal(t, "low", relevanceLabel(0.6))
}
