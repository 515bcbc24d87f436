package memory

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	t.Run("frequency ordering", func(t *testing.T) {
		content := "kubernetes kubernetes kubernetes deployment deployment rollout"
		keywords := extractKeywords(content)
		assert.Equal(t, []string{"kubernetes", "deployment", "rollout"}, keywords)
	})

	t.Run("stop words are dropped", func(t *testing.T) {
		keywords := extractKeywords("the deployment and the rollout of the cluster")
		assert.NotContains(t, keywords, "the")
		assert.NotContains(t, keywords, "and")
		assert.Contains(t, keywords, "deployment")
	})

	t.Run("short tokens are dropped", func(t *testing.T) {
		keywords := extractKeywords("go is ok but kubernetes wins")
		assert.NotContains(t, keywords, "go")
		assert.NotContains(t, keywords, "ok")
	})

	t.Run("case folding", func(t *testing.T) {
		keywords := extractKeywords("Kubernetes KUBERNETES kubernetes")
		assert.Equal(t, []string{"kubernetes"}, keywords)
	})

	t.Run("alphabetical tie-break", func(t *testing.T) {
		keywords := extractKeywords("zebra apple mango")
		assert.Equal(t, []string{"apple", "mango", "zebra"}, keywords)
	})

	t.Run("at most ten keywords", func(t *testing.T) {
		parts := []string{
			"alpha", "bravo", "charlie", "delta", "echo", "foxtrot",
			"golf", "hotel", "india", "juliet", "kilo", "lima",
		}
		keywords := extractKeywords(strings.Join(parts, " "))
		assert.Len(t, keywords, 10)
	})

	t.Run("empty content", func(t *testing.T) {
		assert.Empty(t, extractKeywords(""))
	})
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short", 10))
	assert.Equal(t, "exactly ten", snippet("exactly ten", 11))
	assert.Equal(t, "truncated ...", snippet("truncated text here", 10))
}

func TestSnippetKeepsRunesIntact(t *testing.T) {
	// "né" is three bytes; a cut at byte 2 would split the é.
	got := snippet("némo and friends", 2)
	assert.Equal(t, "n...", got)
	assert.True(t, utf8.ValidString(got))

	got = snippet("été du café", 4)
	assert.True(t, utf8.ValidString(got))
}
