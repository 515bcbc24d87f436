package memory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/usestratum/stratum/server/authz"
	"github.com/usestratum/stratum/store"
)

// SearchResult is the common shape every tier's candidates are normalized
// into before unified ranking.
type SearchResult struct {
	ID      string
	Tier    store.MemoryTier
	Title   string
	Snippet string

	Tags     []string
	Keywords []string

	// Relevance is the tier-local raw relevance component: lexical match for
	// short_term, summary match for mid_term, cosine similarity for
	// long_term.
	Relevance      float64
	RelevanceLabel string

	WordCount int
	CreatedTs int64

	// Score is the unified cross-tier score, filled in by ranking.
	Score float64
}

// TierSearcher is one tier's search entry point. Implementations authorize
// internally and return ErrAccessDenied when the principal cannot read the
// tier.
type TierSearcher interface {
	Search(ctx context.Context, principal *authz.Principal, query string, limit int) ([]*SearchResult, error)
}

// SearchResponse is the aggregated outcome of a cross-tier search. Per-tier
// failures are data, not errors: the call succeeds as long as at least one
// searched tier does.
type SearchResponse struct {
	Query         string
	Results       []*SearchResult
	TotalResults  int
	TiersSearched []store.MemoryTier
	SearchErrors  map[store.MemoryTier]string
	Breakdown     map[store.MemoryTier]int
}

const (
	defaultSearchLimit = 30
	defaultTierTimeout = 5 * time.Second
)

// SearchOrchestrator fans a query out to all tiers concurrently and merges
// the results under the unified ranking.
type SearchOrchestrator struct {
	searchers map[store.MemoryTier]TierSearcher
	timeout   time.Duration
	now       func() time.Time
}

// NewSearchOrchestrator wires the three tier searchers. A non-positive
// timeout falls back to the default per-tier bound.
func NewSearchOrchestrator(short, mid, long TierSearcher, timeout time.Duration) *SearchOrchestrator {
	if timeout <= 0 {
		timeout = defaultTierTimeout
	}
	return &SearchOrchestrator{
		searchers: map[store.MemoryTier]TierSearcher{
			store.TierShortTerm: short,
			store.TierMidTerm:   mid,
			store.TierLongTerm:  long,
		},
		timeout: timeout,
		now:     time.Now,
	}
}

// Search queries every tier concurrently. A denied tier is silently
// excluded; a failed tier contributes an error entry and zero results. The
// call fails only for an invalid query or when every searched tier fails.
func (o *SearchOrchestrator) Search(ctx context.Context, principal *authz.Principal, query string, limit int) (*SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, invalidf("search query cannot be empty")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	// Per-tier pre-quota to bound work; the global limit is applied after
	// ranking.
	perTier := limit / len(o.searchers)
	if perTier < 1 {
		perTier = 1
	}

	tiers := store.Tiers()
	tierResults := make([][]*SearchResult, len(tiers))
	tierErrors := make([]error, len(tiers))

	// Each branch records its own outcome and never fails the group, so one
	// slow or broken tier cannot cancel its siblings.
	group, groupCtx := errgroup.WithContext(ctx)
	for i, tier := range tiers {
		i, tier := i, tier
		group.Go(func() error {
			tierCtx, cancel := context.WithTimeout(groupCtx, o.timeout)
			defer cancel()
			tierResults[i], tierErrors[i] = o.searchers[tier].Search(tierCtx, principal, query, perTier)
			return nil
		})
	}
	_ = group.Wait()

	response := &SearchResponse{
		Query:         query,
		TiersSearched: tiers,
		SearchErrors:  map[store.MemoryTier]string{},
		Breakdown:     map[store.MemoryTier]int{},
	}

	merged := []*SearchResult{}
	searched, failed := 0, 0
	for i, tier := range tiers {
		if err := tierErrors[i]; err != nil {
			if errors.Is(err, ErrAccessDenied) {
				// Not an error: the tier is simply out of scope.
				continue
			}
			slog.WarnContext(ctx, "tier search failed",
				"tier", tier,
				"user", principal.Username,
				"error", err,
			)
			response.SearchErrors[tier] = err.Error()
			searched++
			failed++
			continue
		}
		searched++
		merged = append(merged, tierResults[i]...)
	}

	if searched > 0 && failed == searched {
		return nil, errors.New("search failed on all accessible tiers")
	}

	rankResults(merged, o.now())
	if len(merged) > limit {
		merged = merged[:limit]
	}

	response.Results = merged
	response.TotalResults = len(merged)
	for _, result := range merged {
		response.Breakdown[result.Tier]++
	}

	slog.InfoContext(ctx, "universal search completed",
		"user", principal.Username,
		"query", query,
		"results", len(merged),
		"errors", len(response.SearchErrors),
	)
	return response, nil
}
