package memory

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/usestratum/stratum/server/authz"
	"github.com/usestratum/stratum/store"
)

// TierStats summarizes one tier for a principal. A tier the principal
// cannot reach, or whose store failed, reports Accessible=false with the
// reason in Error instead of failing the whole overview.
type TierStats struct {
	Accessible   bool
	Error        string
	Total        int64
	MostRecentTs int64

	// Documents carries the long-term tier's extended aggregates.
	Documents *store.DocumentStats
}

// UserInfo is the identity block of an overview.
type UserInfo struct {
	Username        string
	HierarchyLevel  int
	Roles           []string
	AccessScope     authz.VisibilityScope
	AccessibleTiers []store.MemoryTier
}

// RecentActivity is the trailing-window activity summary.
type RecentActivity struct {
	WindowDays     int
	Counts         map[store.MemoryTier]int64
	MostActiveTier store.MemoryTier
}

// Overview is the aggregated memory overview across all tiers.
type Overview struct {
	UserInfo        UserInfo
	TotalItems      int64
	Tiers           map[store.MemoryTier]*TierStats
	RecentActivity  RecentActivity
	Recommendations []string
	GeneratedAt     time.Time
}

// Trailing window for recent activity.
const recentActivityDays = 7

// tierCounter is the slice of a tier controller the aggregator needs.
type tierCounter interface {
	Stats(ctx context.Context, principal *authz.Principal) (*TierStats, error)
	CountSince(ctx context.Context, principal *authz.Principal, since time.Time) (int64, error)
}

// StatsAggregator fans read-only summary queries out to all tiers and
// derives overview and recommendation data, tolerating partial failure.
type StatsAggregator struct {
	authz    *authz.Engine
	counters map[store.MemoryTier]tierCounter
	timeout  time.Duration
	now      func() time.Time
}

func NewStatsAggregator(engine *authz.Engine, short *ShortTermController, mid *MidTermController, long *LongTermController, timeout time.Duration) *StatsAggregator {
	if timeout <= 0 {
		timeout = defaultTierTimeout
	}
	return &StatsAggregator{
		authz: engine,
		counters: map[store.MemoryTier]tierCounter{
			store.TierShortTerm: short,
			store.TierMidTerm:   mid,
			store.TierLongTerm:  long,
		},
		timeout: timeout,
		now:     time.Now,
	}
}

// Overview gathers per-tier stats and recent activity concurrently. A tier
// failure or denial never aborts the call: the principal still sees every
// tier they can reach.
func (a *StatsAggregator) Overview(ctx context.Context, principal *authz.Principal) (*Overview, error) {
	now := a.now()
	since := now.AddDate(0, 0, -recentActivityDays)
	tiers := store.Tiers()

	stats := make([]*TierStats, len(tiers))
	statErrors := make([]error, len(tiers))
	recent := make([]int64, len(tiers))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, tier := range tiers {
		i, tier := i, tier
		group.Go(func() error {
			tierCtx, cancel := context.WithTimeout(groupCtx, a.timeout)
			defer cancel()
			stats[i], statErrors[i] = a.counters[tier].Stats(tierCtx, principal)
			if statErrors[i] == nil {
				recent[i], _ = a.counters[tier].CountSince(tierCtx, principal, since)
			}
			return nil
		})
	}
	_ = group.Wait()

	overview := &Overview{
		Tiers:       map[store.MemoryTier]*TierStats{},
		GeneratedAt: now,
	}

	counts := map[store.MemoryTier]int64{}
	for i, tier := range tiers {
		if err := statErrors[i]; err != nil {
			slog.WarnContext(ctx, "tier stats unavailable",
				"tier", tier,
				"user", principal.Username,
				"error", err,
			)
			overview.Tiers[tier] = &TierStats{Accessible: false, Error: err.Error()}
			counts[tier] = 0
			continue
		}
		overview.Tiers[tier] = stats[i]
		overview.TotalItems += stats[i].Total
		counts[tier] = recent[i]
	}

	overview.UserInfo = UserInfo{
		Username:        principal.Username,
		HierarchyLevel:  principal.HierarchyLevel,
		Roles:           principal.Roles,
		AccessScope:     effectiveScope(principal),
		AccessibleTiers: a.authz.AccessibleTiers(principal),
	}
	overview.RecentActivity = RecentActivity{
		WindowDays:     recentActivityDays,
		Counts:         counts,
		MostActiveTier: mostActiveTier(counts),
	}
	overview.Recommendations = recommendations(principal, overview.Tiers)
	return overview, nil
}

// effectiveScope is the coarse user-facing scope label for the overview.
func effectiveScope(principal *authz.Principal) authz.VisibilityScope {
	switch {
	case principal.HierarchyLevel <= 1:
		return authz.ScopeOrganization
	case principal.HierarchyLevel <= 2:
		return authz.ScopeDepartment
	case principal.HierarchyLevel <= 3:
		return authz.ScopeProject
	default:
		return authz.ScopeOwn
	}
}

// Tie-break priority for the most active tier.
var tierPriority = []store.MemoryTier{store.TierLongTerm, store.TierMidTerm, store.TierShortTerm}

// mostActiveTier is the argmax of the window counts, ties broken by tier
// priority for determinism.
func mostActiveTier(counts map[store.MemoryTier]int64) store.MemoryTier {
	best := tierPriority[0]
	for _, tier := range tierPriority {
		if counts[tier] > counts[best] {
			best = tier
		}
	}
	return best
}

// Advisory-only recommendation rules over the aggregated counts.
func recommendations(principal *authz.Principal, tiers map[store.MemoryTier]*TierStats) []string {
	result := []string{}

	shortStats := tiers[store.TierShortTerm]
	midStats := tiers[store.TierMidTerm]
	longStats := tiers[store.TierLongTerm]

	if shortStats != nil && midStats != nil &&
		shortStats.Total > 50 && midStats.Total < 5 {
		result = append(result, "Consider creating summaries from your recent sessions to build mid-term memory")
	}
	if longStats != nil && longStats.Accessible && longStats.Total == 0 && principal.HierarchyLevel <= 3 {
		result = append(result, "You have access to long-term memory - consider storing important documents and knowledge")
	}
	if principal.HasRole("Manager") {
		result = append(result, "As a manager, consider using mid-term memory to track team decisions and outcomes")
	}
	if principal.HierarchyLevel <= 2 {
		result = append(result, "You have organization-wide access - use long-term memory to store company policies and procedures")
	}
	return result
}
