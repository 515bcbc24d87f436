package store

// RowStatus is the status of a row. Records are archived, never physically
// deleted.
type RowStatus string

const (
	Normal   RowStatus = "NORMAL"
	Archived RowStatus = "ARCHIVED"
)

func (s RowStatus) String() string {
	return string(s)
}

// MemoryTier is the retention class of a stored record. The set is closed.
type MemoryTier string

const (
	TierShortTerm MemoryTier = "short_term"
	TierMidTerm   MemoryTier = "mid_term"
	TierLongTerm  MemoryTier = "long_term"
)

// Tiers lists all tiers in fan-out order.
func Tiers() []MemoryTier {
	return []MemoryTier{TierShortTerm, TierMidTerm, TierLongTerm}
}

// ParseMemoryTier converts a wire string into a MemoryTier.
func ParseMemoryTier(s string) (MemoryTier, bool) {
	switch MemoryTier(s) {
	case TierShortTerm, TierMidTerm, TierLongTerm:
		return MemoryTier(s), true
	}
	return "", false
}

func (t MemoryTier) String() string {
	return string(t)
}

// Classification is the confidentiality label attached to a record.
type Classification string

const (
	ClassificationPublic       Classification = "public"
	ClassificationInternal     Classification = "internal"
	ClassificationConfidential Classification = "confidential"
	ClassificationSecret       Classification = "secret"
)

// Message is a single conversation turn inside a short-term session.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
