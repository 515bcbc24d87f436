package memory

import (
	"strings"

	"github.com/usestratum/stratum/store"
)

// Content is arbitrary incoming memory content before it is routed to a
// tier. Exactly one of Messages or Text usually carries the body; the rest
// are tier-specific extras passed through to the matching controller.
type Content struct {
	// Tier is an optional explicit tier hint. When set it wins over every
	// heuristic.
	Tier store.MemoryTier

	Title    string
	Text     string
	Messages []store.Message

	Tags            []string
	ConversationIDs []string
	Entities        map[string]any
	Metadata        map[string]any
	MemoryType      string
	SourceType      string
	SourceURL       string
	AgentName       string
	ContextData     map[string]any
}

// Lexical cues for the classifier. Structural shape outranks these, and they
// outrank the length heuristic.
var (
	summaryIndicators  = []string{"summary", "decision", "meeting", "conclusion", "key points"}
	documentIndicators = []string{"policy", "procedure", "documentation", "guide", "manual"}
)

// Word-count cutoffs for the length heuristic.
const (
	shortTermWordLimit = 50
	midTermWordLimit   = 500
)

// ClassifyContent assigns content to a tier. It is deterministic, pure and
// total: every input maps to exactly one tier, with short_term as the fixed
// default for empty or shapeless content.
//
// Rules, first match wins:
//  1. explicit tier hint
//  2. message list -> short_term
//  3. summary indicator phrase -> mid_term
//  4. document indicator phrase -> long_term
//  5. word count: <50 short_term, <500 mid_term, else long_term
//  6. default short_term
func ClassifyContent(content *Content) store.MemoryTier {
	if content == nil {
		return store.TierShortTerm
	}

	if content.Tier != "" {
		return content.Tier
	}

	if len(content.Messages) > 0 {
		return store.TierShortTerm
	}

	text := content.Text
	if text != "" {
		lowered := strings.ToLower(text)

		for _, indicator := range summaryIndicators {
			if strings.Contains(lowered, indicator) {
				return store.TierMidTerm
			}
		}
		for _, indicator := range documentIndicators {
			if strings.Contains(lowered, indicator) {
				return store.TierLongTerm
			}
		}

		switch wordCount := len(strings.Fields(text)); {
		case wordCount < shortTermWordLimit:
			return store.TierShortTerm
		case wordCount < midTermWordLimit:
			return store.TierMidTerm
		default:
			return store.TierLongTerm
		}
	}

	return store.TierShortTerm
}
