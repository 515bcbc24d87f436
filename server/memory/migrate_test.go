package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestratum/stratum/plugin/embedding"
	"github.com/usestratum/stratum/store"
)

type migrationFixture struct {
	engine    *MigrationEngine
	sessions  *fakeSessionStore
	summaries *fakeSummaryStore
	documents *fakeDocumentStore
}

func newMigrationFixture(t *testing.T) *migrationFixture {
	t.Helper()
	authzEngine := newEngine(t)
	sessions := &fakeSessionStore{}
	summaries := &fakeSummaryStore{}
	documents := &fakeDocumentStore{}

	short := NewShortTermController(sessions, authzEngine)
	mid := NewMidTermController(summaries, authzEngine)
	long := NewLongTermController(documents, authzEngine, embedding.NewHashEmbedder(64))

	return &migrationFixture{
		engine:    NewMigrationEngine(authzEngine, short, mid, long),
		sessions:  sessions,
		summaries: summaries,
		documents: documents,
	}
}

func TestMigrateRejectsInvalidTierPairs(t *testing.T) {
	fixture := newMigrationFixture(t)
	principal := testPrincipal(1)

	invalid := []struct {
		source store.MemoryTier
		target store.MemoryTier
	}{
		{store.TierLongTerm, store.TierShortTerm},
		{store.TierLongTerm, store.TierMidTerm},
		{store.TierMidTerm, store.TierShortTerm},
		{store.TierShortTerm, store.TierShortTerm},
		{store.TierMidTerm, store.TierMidTerm},
	}
	for _, pair := range invalid {
		_, err := fixture.engine.Migrate(context.Background(), principal, pair.source, pair.target, "any-id")
		assert.ErrorIs(t, err, ErrInvalidArgument, "%s -> %s", pair.source, pair.target)
	}

	// Rejection happens before any lookup, so a bogus id never reaches the store.
	assert.Empty(t, fixture.sessions.sessions)
}

func TestMigrateShortToMid(t *testing.T) {
	fixture := newMigrationFixture(t)
	principal := testPrincipal(1)

	session, err := fixture.engine.short.StoreSession(context.Background(), principal, &Content{
		Messages: []store.Message{
			{Role: "user", Content: "we agreed to ship the billing change friday"},
			{Role: "assistant", Content: "noted, friday it is"},
		},
	})
	require.NoError(t, err)

	result, err := fixture.engine.Migrate(context.Background(), principal, store.TierShortTerm, store.TierMidTerm, session.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, result.MigrationID)
	assert.Equal(t, session.ID, result.SourceID)
	assert.NotEmpty(t, result.TargetID)
	assert.Contains(t, result.Message, "short_term")
	assert.Contains(t, result.Message, "mid_term")

	require.Len(t, fixture.summaries.summaries, 1)
	summary := fixture.summaries.summaries[0]
	assert.True(t, strings.HasPrefix(summary.Text, "Session summary: "))
	assert.Contains(t, summary.Text, "billing change")
	assert.Equal(t, []string{"migrated", "session"}, summary.Tags)
	assert.Equal(t, []string{session.ID}, summary.ConversationIDs)
	assert.Equal(t, "short_term_migration", summary.Entities["source"])

	// Additive: the source session is untouched.
	require.Len(t, fixture.sessions.sessions, 1)
	assert.Equal(t, session.ID, fixture.sessions.sessions[0].ID)
}

func TestMigrateShortToLong(t *testing.T) {
	fixture := newMigrationFixture(t)
	principal := testPrincipal(1)

	session, err := fixture.engine.short.StoreSession(context.Background(), principal, &Content{
		Messages: []store.Message{
			{Role: "user", Content: "capture the incident timeline for the knowledge base"},
		},
	})
	require.NoError(t, err)

	result, err := fixture.engine.Migrate(context.Background(), principal, store.TierShortTerm, store.TierLongTerm, session.ID)
	require.NoError(t, err)
	assert.Equal(t, store.TierLongTerm, result.TargetTier)

	require.Len(t, fixture.documents.documents, 1)
	document := fixture.documents.documents[0]
	assert.True(t, strings.HasPrefix(document.Title, "Session Document: "))
	assert.Equal(t, "migrated_session", document.MemoryType)
	assert.Equal(t, "migration", document.SourceType)
	assert.Equal(t, "short_term_migration", document.Metadata["source"])
	assert.NotEmpty(t, document.Embedding)
}

func TestMigrateMidToLong(t *testing.T) {
	fixture := newMigrationFixture(t)
	principal := testPrincipal(1)

	summary, err := fixture.engine.mid.StoreSummary(context.Background(), principal, &Content{
		Text: "Quarterly retrospective: latency regressions traced to the cache eviction change.",
		Tags: []string{"retro", "latency"},
	})
	require.NoError(t, err)

	result, err := fixture.engine.Migrate(context.Background(), principal, store.TierMidTerm, store.TierLongTerm, summary.ID)
	require.NoError(t, err)
	assert.Equal(t, summary.ID, result.SourceID)

	require.Len(t, fixture.documents.documents, 1)
	document := fixture.documents.documents[0]
	assert.True(t, strings.HasPrefix(document.Title, "Summary Document: "))
	assert.Equal(t, summary.Text, document.Content)
	assert.Equal(t, "migrated_summary", document.MemoryType)
	assert.Equal(t, []string{"retro", "latency"}, document.Metadata["original_tags"])
	assert.Equal(t, "mid_term_migration", document.Metadata["source"])

	require.Len(t, fixture.summaries.summaries, 1)
}

func TestMigrateSourceNotVisible(t *testing.T) {
	fixture := newMigrationFixture(t)

	owner := testPrincipal(1)
	session, err := fixture.engine.short.StoreSession(context.Background(), owner, &Content{
		Messages: []store.Message{{Role: "user", Content: "private planning notes"}},
	})
	require.NoError(t, err)

	stranger := testPrincipal(5)
	stranger.ID = "u2"
	_, err = fixture.engine.Migrate(context.Background(), stranger, store.TierShortTerm, store.TierMidTerm, session.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMigrateEnforcesTargetWrite(t *testing.T) {
	fixture := newMigrationFixture(t)

	// Level 5 can read and write its own short-term sessions but has no
	// mid-term write scope at all.
	intern := testPrincipal(5)
	session, err := fixture.engine.short.StoreSession(context.Background(), intern, &Content{
		Messages: []store.Message{{Role: "user", Content: "summarize my onboarding chat"}},
	})
	require.NoError(t, err)

	_, err = fixture.engine.Migrate(context.Background(), intern, store.TierShortTerm, store.TierMidTerm, session.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, fixture.summaries.summaries)
}
