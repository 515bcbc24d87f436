package memory

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestratum/stratum/store"
)

func TestStoreSummary(t *testing.T) {
	summaryStore := &fakeSummaryStore{}
	controller := NewMidTermController(summaryStore, newEngine(t))
	principal := testPrincipal(4)
	principal.ProjectIDs = []string{"p1"}

	summary, err := controller.StoreSummary(context.Background(), principal, &Content{
		Text:            "Decision: ship the migration next sprint.",
		Tags:            []string{"decision", "migration"},
		ConversationIDs: []string{"conv-1"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, principal.ID, summary.OwnerID)
	require.NotNil(t, summary.ProjectID)
	assert.Equal(t, "p1", *summary.ProjectID)
	assert.Equal(t, []string{"decision", "migration"}, summary.Tags)
}

func TestStoreSummaryRequiresText(t *testing.T) {
	controller := NewMidTermController(&fakeSummaryStore{}, newEngine(t))

	_, err := controller.StoreSummary(context.Background(), testPrincipal(4), &Content{Text: "   "})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStoreSummaryDeniedForIntern(t *testing.T) {
	controller := NewMidTermController(&fakeSummaryStore{}, newEngine(t))

	_, err := controller.StoreSummary(context.Background(), testPrincipal(5), &Content{Text: "summary text"})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestSearchByTags(t *testing.T) {
	summaryStore := &fakeSummaryStore{summaries: []*store.Summary{
		{ID: "a", OwnerID: "u1", Text: "sprint recap", Tags: []string{"sprint", "recap"}},
		{ID: "b", OwnerID: "u1", Text: "incident recap", Tags: []string{"incident"}},
	}}
	controller := NewMidTermController(summaryStore, newEngine(t))
	principal := testPrincipal(1)

	summaries, err := controller.SearchByTags(context.Background(), principal, []string{"incident"}, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "b", summaries[0].ID)
}

func TestMidTermSearchDeduplicatesTagAndContentHits(t *testing.T) {
	// "incident" matches summary b by content AND by tag; it must appear once.
	summaryStore := &fakeSummaryStore{summaries: []*store.Summary{
		{ID: "a", OwnerID: "u1", Text: "sprint recap", Tags: []string{"sprint"}},
		{ID: "b", OwnerID: "u1", Text: "incident postmortem", Tags: []string{"incident"}},
	}}
	controller := NewMidTermController(summaryStore, newEngine(t))

	results, err := controller.Search(context.Background(), testPrincipal(1), "incident", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
	assert.Equal(t, midTermMatchRelevance, results[0].Relevance)
	assert.Contains(t, results[0].Title, "Summary:")
}

func TestMidTermSearchSurvivesTagQueryFailure(t *testing.T) {
	summaryStore := &fakeSummaryStore{
		summaries: []*store.Summary{
			{ID: "s1", OwnerID: "u1", Text: "incident postmortem for the outage"},
		},
		tagErr: errors.New("tag index offline"),
	}
	controller := NewMidTermController(summaryStore, newEngine(t))

	results, err := controller.Search(context.Background(), testPrincipal(1), "incident", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s1", results[0].ID)
}

func TestListSummariesDepartmentScope(t *testing.T) {
	d1, d2 := "d1", "d2"
	summaryStore := &fakeSummaryStore{summaries: []*store.Summary{
		{ID: "a", OwnerID: "u2", DepartmentID: &d1, Text: "ours"},
		{ID: "b", OwnerID: "u3", DepartmentID: &d2, Text: "theirs"},
	}}
	controller := NewMidTermController(summaryStore, newEngine(t))

	head := testPrincipal(2)
	head.DepartmentID = &d1

	summaries, err := controller.ListSummaries(context.Background(), head, nil, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "a", summaries[0].ID)
}
