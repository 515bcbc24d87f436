package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/usestratum/stratum/store"
)

func TestClassifyContent(t *testing.T) {
	tests := []struct {
		name    string
		content *Content
		want    store.MemoryTier
	}{
		{
			name:    "nil content defaults to short_term",
			content: nil,
			want:    store.TierShortTerm,
		},
		{
			name:    "empty content defaults to short_term",
			content: &Content{},
			want:    store.TierShortTerm,
		},
		{
			name:    "explicit hint wins over everything",
			content: &Content{Tier: store.TierLongTerm, Messages: []store.Message{{Role: "user", Content: "hi"}}},
			want:    store.TierLongTerm,
		},
		{
			name:    "message list routes to short_term",
			content: &Content{Messages: []store.Message{{Role: "user", Content: "hello"}}},
			want:    store.TierShortTerm,
		},
		{
			name:    "summary indicator routes to mid_term",
			content: &Content{Text: "Meeting notes: we reached a decision on the rollout."},
			want:    store.TierMidTerm,
		},
		{
			name:    "document indicator routes to long_term",
			content: &Content{Text: "This policy document outlines the procedure for expense reports."},
			want:    store.TierLongTerm,
		},
		{
			name:    "indicator match is case-insensitive",
			content: &Content{Text: "KEY POINTS from today"},
			want:    store.TierMidTerm,
		},
		{
			name:    "short note lands in short_term",
			content: &Content{Text: "remember to ping the infra team about the staging outage tomorrow morning"},
			want:    store.TierShortTerm,
		},
		{
			name:    "medium text lands in mid_term",
			content: &Content{Text: strings.Repeat("word ", 120)},
			want:    store.TierMidTerm,
		},
		{
			name:    "long text lands in long_term",
			content: &Content{Text: strings.Repeat("word ", 600)},
			want:    store.TierLongTerm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyContent(tt.content))
		})
	}
}

func TestClassifyContentIsDeterministic(t *testing.T) {
	content := &Content{Text: strings.Repeat("fact ", 80)}
	first := ClassifyContent(content)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ClassifyContent(content))
	}
}

func TestClassifyContentIndicatorOutranksLength(t *testing.T) {
	// A 600-word text would be long_term by length, but the summary cue wins.
	text := "summary of everything: " + strings.Repeat("detail ", 600)
	assert.Equal(t, store.TierMidTerm, ClassifyContent(&Content{Text: text}))
}
