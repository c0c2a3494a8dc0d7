package llm

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
)

// ErrNoCompletion is returned by the stub generator when no GenerateFunc is
// configured. Callers treat it like any other provider fault and degrade.
var ErrNoCompletion = errors.New("llm: stub has no completion configured")

// stubDimensions is the vector length the stub embedder produces.
const stubDimensions = 64

// Stub is a deterministic offline implementation of Generator and Embedder.
// Embeddings are derived from token hashes, so identical texts always embed
// identically and overlapping texts score higher than disjoint ones. It is
// the composition-time replacement for a live provider in tests and in
// degraded deployments.
type Stub struct {
	// GenerateFunc overrides Generate when set (test hook, in the style
	// of a function-field mock).
	GenerateFunc func(ctx context.Context, prompt, system string) (string, error)
}

// NewStub creates a deterministic stub provider.
func NewStub() *Stub { return &Stub{} }

// Name returns the provider name.
func (s *Stub) Name() string { return "stub" }

// Generate delegates to GenerateFunc when set, otherwise reports
// ErrNoCompletion so callers fall back to their deterministic path.
func (s *Stub) Generate(ctx context.Context, prompt, system string) (string, error) {
	if s.GenerateFunc != nil {
		return s.GenerateFunc(ctx, prompt, system)
	}
	return "", ErrNoCompletion
}

// Embed maps each whitespace token into a fixed bucket by hash and
// normalizes the resulting vector to unit length.
func (s *Stub) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, stubDimensions)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%stubDimensions]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// Dimensions returns the stub vector length.
func (s *Stub) Dimensions() int { return stubDimensions }
