package memory

import (
	"sort"
	"time"

	"github.com/usestratum/stratum/store"
)

// Unified ranking weights, applied identically to every tier's results.
const (
	relevanceWeight = 0.4
	recencyWeight   = 0.3
	qualityBonus    = 0.1

	// Records above this word count earn the quality bonus.
	qualityWordThreshold = 100

	// Recency decays linearly to zero over this horizon.
	recencyHorizonDays = 365
)

// Per-tier authority weights: curated knowledge outranks raw conversation.
var tierWeights = map[store.MemoryTier]float64{
	store.TierLongTerm:  0.3,
	store.TierMidTerm:   0.2,
	store.TierShortTerm: 0.1,
}

// recencyFactor maps a creation time to [0, 1]: 1 for now (or future
// timestamps), linearly down to 0 at the horizon.
func recencyFactor(createdTs int64, now time.Time) float64 {
	ageDays := now.Sub(time.Unix(createdTs, 0)).Hours() / 24
	if ageDays <= 0 {
		return 1
	}
	factor := 1 - ageDays/recencyHorizonDays
	if factor < 0 {
		return 0
	}
	return factor
}

func unifiedScore(result *SearchResult, now time.Time) float64 {
	score := relevanceWeight*result.Relevance + recencyWeight*recencyFactor(result.CreatedTs, now)
	score += tierWeights[result.Tier]
	if result.WordCount > qualityWordThreshold {
		score += qualityBonus
	}
	return score
}

// rankResults fills in unified scores and orders results best first. The
// sort is stable: ties keep the stores' relative insertion order, so ranking
// is deterministic across identical calls.
func rankResults(results []*SearchResult, now time.Time) {
	for _, result := range results {
		result.Score = unifiedScore(result, now)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
