package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/usestratum/stratum/plugin/embedding"
	"github.com/usestratum/stratum/server/authz"
	"github.com/usestratum/stratum/store"
)

// StoreMemoryResult reports where routed content ended up.
type StoreMemoryResult struct {
	Tier       store.MemoryTier
	TierReason string
	RecordID   string
	Duplicate  bool
}

// Human-readable routing reasons per tier.
var tierReasons = map[store.MemoryTier]string{
	store.TierShortTerm: "Conversation/session data",
	store.TierMidTerm:   "Summary/insight data",
	store.TierLongTerm:  "Document/knowledge data",
}

// Service is the unified entry point over all memory tiers: classification,
// per-tier controllers, cross-tier search, statistics and migration.
type Service struct {
	ShortTerm *ShortTermController
	MidTerm   *MidTermController
	LongTerm  *LongTermController

	search    *SearchOrchestrator
	stats     *StatsAggregator
	migration *MigrationEngine
}

// NewService wires the full orchestration layer over a record store and
// policy engine. tierTimeout bounds each fanned-out tier call; pass 0 for
// the default.
func NewService(recordStore *store.Store, engine *authz.Engine, embedder embedding.Embedder, tierTimeout time.Duration) *Service {
	short := NewShortTermController(recordStore, engine)
	mid := NewMidTermController(recordStore, engine)
	long := NewLongTermController(recordStore, engine, embedder)

	return &Service{
		ShortTerm: short,
		MidTerm:   mid,
		LongTerm:  long,
		search:    NewSearchOrchestrator(short, mid, long, tierTimeout),
		stats:     NewStatsAggregator(engine, short, mid, long, tierTimeout),
		migration: NewMigrationEngine(engine, short, mid, long),
	}
}

// StoreMemory classifies content and routes it to the matching tier.
func (s *Service) StoreMemory(ctx context.Context, principal *authz.Principal, content *Content) (*StoreMemoryResult, error) {
	tier := ClassifyContent(content)

	slog.InfoContext(ctx, "routing content",
		"user", principal.Username,
		"tier", tier,
	)

	result := &StoreMemoryResult{Tier: tier, TierReason: tierReasons[tier]}
	switch tier {
	case store.TierShortTerm:
		session, err := s.ShortTerm.StoreSession(ctx, principal, content)
		if err != nil {
			return nil, err
		}
		result.RecordID = session.ID
	case store.TierMidTerm:
		summary, err := s.MidTerm.StoreSummary(ctx, principal, content)
		if err != nil {
			return nil, err
		}
		result.RecordID = summary.ID
	case store.TierLongTerm:
		stored, err := s.LongTerm.StoreDocument(ctx, principal, content)
		if err != nil {
			return nil, err
		}
		result.RecordID = stored.Document.ID
		result.Duplicate = stored.Duplicate
	default:
		return nil, invalidf("invalid memory tier: %s", tier)
	}
	return result, nil
}

// Search fans the query out across all tiers.
func (s *Service) Search(ctx context.Context, principal *authz.Principal, query string, limit int) (*SearchResponse, error) {
	return s.search.Search(ctx, principal, query, limit)
}

// Overview aggregates per-tier statistics for the principal.
func (s *Service) Overview(ctx context.Context, principal *authz.Principal) (*Overview, error) {
	return s.stats.Overview(ctx, principal)
}

// Migrate copies a record from one tier into another.
func (s *Service) Migrate(ctx context.Context, principal *authz.Principal, source, target store.MemoryTier, recordID string) (*MigrationResult, error) {
	return s.migration.Migrate(ctx, principal, source, target, recordID)
}
