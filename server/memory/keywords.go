package memory

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const maxKeywords = 10

var wordPattern = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "can": true, "this": true, "that": true, "these": true,
	"those": true,
}

// extractKeywords returns the most frequent non-stop-words of the content,
// at most maxKeywords, ordered by descending frequency with alphabetical
// tie-break for determinism.
func extractKeywords(content string) []string {
	words := wordPattern.FindAllString(strings.ToLower(content), -1)

	freq := make(map[string]int)
	for _, word := range words {
		if !stopWords[word] {
			freq[word]++
		}
	}

	keywords := make([]string, 0, len(freq))
	for word := range freq {
		keywords = append(keywords, word)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if freq[keywords[i]] != freq[keywords[j]] {
			return freq[keywords[i]] > freq[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

// snippet truncates s to at most n bytes, appending an ellipsis when cut.
// The cut backs off to the previous rune boundary so multi-byte characters
// are never split.
func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

const snippetLength = 200
