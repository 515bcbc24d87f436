package embedding

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"
)

const (
	// DefaultDimensions matches common embedding model output so the stand-in
	// can be swapped for a real provider without a schema change.
	DefaultDimensions = 1536

	floatsPerHash = 16
)

// HashEmbedder is a deterministic hash-based embedding stand-in. The vectors
// carry no semantic signal; it exists so the pipeline runs end to end without
// an embedding backend. Production deployments must use a real provider.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder creates a hash embedder with the given dimensionality.
// Non-positive dimensions fall back to DefaultDimensions.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed derives a vector from repeated salted MD5 digests of the normalized
// text. Identical input always produces an identical vector.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))

	rounds := (e.dimensions + floatsPerHash - 1) / floatsPerHash
	vector := make([]float32, 0, rounds*floatsPerHash)
	for i := 0; i < rounds; i++ {
		digest := md5.Sum([]byte(fmt.Sprintf("%s_%d", normalized, i)))
		// Each byte maps to a float in [-1, 1].
		for _, b := range digest {
			vector = append(vector, float32(b)/255.0*2-1)
		}
	}
	return vector[:e.dimensions], nil
}

func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *HashEmbedder) Model() string {
	return "hash-placeholder"
}
