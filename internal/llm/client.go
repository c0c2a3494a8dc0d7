// Package llm defines the generative-text and embedding capability
// interfaces consumed by the conversation engine.
//
// Concrete providers are selected once at composition time. Business logic
// never branches on provider identity: offline or degraded operation is a
// different implementation of the same interface (see Stub), not a mock flag
// threaded through call sites.
package llm

import "context"

// Generator produces free text from a prompt.
type Generator interface {
	// Generate returns the model's completion for prompt. system may be
	// empty. Implementations fail fast with an error the caller can catch.
	Generate(ctx context.Context, prompt, system string) (string, error)

	// Name returns the provider name (e.g. "ollama", "stub").
	Name() string
}

// Embedder turns text into a fixed-length numeric vector.
type Embedder interface {
	// Embed returns the embedding vector for text. The dimensionality is
	// fixed per provider.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector length this provider produces, or 0
	// if unknown before the first call.
	Dimensions() int
}
