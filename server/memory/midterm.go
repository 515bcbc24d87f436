package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/usestratum/stratum/server/authz"
	"github.com/usestratum/stratum/store"
)

// SummaryStore is the filtered record store for the mid-term tier.
type SummaryStore interface {
	CreateSummary(ctx context.Context, create *store.Summary) (*store.Summary, error)
	ListSummaries(ctx context.Context, find *store.FindSummary) ([]*store.Summary, error)
	CountSummaries(ctx context.Context, find *store.FindSummary) (int64, error)
}

// Relevance assigned to a summary content or tag match.
const midTermMatchRelevance = 0.8

// SummaryFindOptions are the caller-supplied filters layered on top of the
// principal's access filters.
type SummaryFindOptions struct {
	TagsAny       []string
	ContentSearch string
	DateFrom      *time.Time
	DateTo        *time.Time
}

// MidTermController handles mid-term memory operations: summaries, decisions
// and insights distilled from conversations.
type MidTermController struct {
	store SummaryStore
	authz *authz.Engine
	tier  store.MemoryTier
}

func NewMidTermController(summaryStore SummaryStore, engine *authz.Engine) *MidTermController {
	return &MidTermController{
		store: summaryStore,
		authz: engine,
		tier:  store.TierMidTerm,
	}
}

// StoreSummary stores a summary for the principal.
func (c *MidTermController) StoreSummary(ctx context.Context, principal *authz.Principal, content *Content) (*store.Summary, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionWrite)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	if content == nil || strings.TrimSpace(content.Text) == "" {
		return nil, invalidf("no summary text provided")
	}

	summary := &store.Summary{
		ID:              uuid.NewString(),
		OwnerID:         principal.ID,
		Text:            content.Text,
		ConversationIDs: content.ConversationIDs,
		Tags:            content.Tags,
		Entities:        content.Entities,
		ProjectID:       firstProject(principal),
		DepartmentID:    principal.DepartmentID,
		Classification:  principal.Classification,
		CreatedTs:       time.Now().Unix(),
	}

	created, err := c.store.CreateSummary(ctx, summary)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create summary")
	}
	return created, nil
}

// ListSummaries returns visible summaries, newest first, with optional
// caller filters on top of the access filters.
func (c *MidTermController) ListSummaries(ctx context.Context, principal *authz.Principal, opts *SummaryFindOptions, limit int) ([]*store.Summary, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	find := &store.FindSummary{Limit: limit}
	applySummaryFilters(find, decision.Filters)
	if opts != nil {
		find.TagsAny = opts.TagsAny
		if opts.ContentSearch != "" {
			search := opts.ContentSearch
			find.ContentSearch = &search
		}
		if opts.DateFrom != nil {
			from := opts.DateFrom.Unix()
			find.CreatedAfter = &from
		}
		if opts.DateTo != nil {
			to := opts.DateTo.Unix()
			find.CreatedBefore = &to
		}
	}

	summaries, err := c.store.ListSummaries(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list summaries")
	}
	return summaries, nil
}

// GetSummary returns one summary by id, subject to the principal's filters.
func (c *MidTermController) GetSummary(ctx context.Context, principal *authz.Principal, id string) (*store.Summary, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	find := &store.FindSummary{ID: &id, Limit: 1}
	applySummaryFilters(find, decision.Filters)

	summaries, err := c.store.ListSummaries(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get summary")
	}
	if len(summaries) == 0 {
		return nil, notFoundf("summary %s", id)
	}
	return summaries[0], nil
}

// SearchByTags is a convenience wrapper over ListSummaries.
func (c *MidTermController) SearchByTags(ctx context.Context, principal *authz.Principal, tags []string, limit int) ([]*store.Summary, error) {
	return c.ListSummaries(ctx, principal, &SummaryFindOptions{TagsAny: tags}, limit)
}

// Search matches summaries by content, and by tag when the query is a single
// word. Tag hits are deduplicated against content hits.
func (c *MidTermController) Search(ctx context.Context, principal *authz.Principal, query string, limit int) ([]*SearchResult, error) {
	contentMatches, err := c.ListSummaries(ctx, principal, &SummaryFindOptions{ContentSearch: query}, limit)
	if err != nil {
		return nil, err
	}

	matches := contentMatches
	if len(strings.Fields(query)) == 1 {
		tagMatches, err := c.SearchByTags(ctx, principal, []string{strings.ToLower(query)}, limit)
		if err != nil {
			slog.WarnContext(ctx, "tag search failed, content matches only",
				"user", principal.Username,
				"error", err,
			)
		} else {
			matches = append(matches, tagMatches...)
		}
	}

	seen := make(map[string]bool, len(matches))
	results := make([]*SearchResult, 0, len(matches))
	for _, summary := range matches {
		if seen[summary.ID] {
			continue
		}
		seen[summary.ID] = true

		results = append(results, &SearchResult{
			ID:        summary.ID,
			Tier:      store.TierMidTerm,
			Title:     fmt.Sprintf("Summary: %s", snippet(summary.Text, 50)),
			Snippet:   summary.Text,
			Tags:      summary.Tags,
			Relevance: midTermMatchRelevance,
			WordCount: len(strings.Fields(summary.Text)),
			CreatedTs: summary.CreatedTs,
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Stats summarizes the summaries visible to the principal.
func (c *MidTermController) Stats(ctx context.Context, principal *authz.Principal) (*TierStats, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return nil, deniedf("%s", decision.Reason)
	}

	find := &store.FindSummary{}
	applySummaryFilters(find, decision.Filters)

	total, err := c.store.CountSummaries(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count summaries")
	}

	stats := &TierStats{Accessible: true, Total: total}
	latest := &store.FindSummary{Limit: 1}
	applySummaryFilters(latest, decision.Filters)
	if recent, err := c.store.ListSummaries(ctx, latest); err == nil && len(recent) > 0 {
		stats.MostRecentTs = recent[0].CreatedTs
	}
	return stats, nil
}

// CountSince counts visible summaries created after the given time.
func (c *MidTermController) CountSince(ctx context.Context, principal *authz.Principal, since time.Time) (int64, error) {
	decision := c.authz.Authorize(principal, c.tier, authz.ActionRead)
	if !decision.Granted {
		return 0, deniedf("%s", decision.Reason)
	}

	ts := since.Unix()
	find := &store.FindSummary{CreatedAfter: &ts}
	applySummaryFilters(find, decision.Filters)
	return c.store.CountSummaries(ctx, find)
}
