// Package knowledge provides the in-process vector-similarity index used
// to answer open-ended customer questions.
//
// The index is process-local and held entirely in memory; rebuilding it
// from the catalog source-of-truth on restart is the caller's job.
package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/soyeahso/rxflow/internal/domain"
	"github.com/soyeahso/rxflow/internal/llm"
	"github.com/soyeahso/rxflow/internal/logging"
)

// DefaultThreshold is the similarity floor applied when the index is
// configured with a non-positive threshold.
const DefaultThreshold = 0.3

// Index is an in-memory store of (content, metadata, vector) entries with
// cosine-similarity search. All operations are mutually exclusive per
// instance: a concurrent search never observes a half-applied mutation.
type Index struct {
	embedder  llm.Embedder
	threshold float64
	log       *logging.Logger

	mu      sync.RWMutex
	entries []*domain.KnowledgeEntry // insertion order, for stable tie-breaks
	byID    map[string]*domain.KnowledgeEntry
}

// NewIndex creates an empty index backed by the given embedder.
func NewIndex(embedder llm.Embedder, threshold float64, log *logging.Logger) *Index {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Index{
		embedder:  embedder,
		threshold: threshold,
		log:       log.Sub("knowledge"),
		byID:      make(map[string]*domain.KnowledgeEntry),
	}
}

// Add embeds content and stores a new entry. The whole operation fails if
// embedding fails; no partial state is left behind.
func (ix *Index) Add(ctx context.Context, id, content string, meta domain.EntryMetadata) error {
	if content == "" {
		return fmt.Errorf("knowledge: empty content for entry %q", id)
	}

	vector, err := ix.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embedding entry %q: %w", id, err)
	}

	entry := &domain.KnowledgeEntry{ID: id, Content: content, Metadata: meta, Vector: vector}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, exists := ix.byID[id]; exists {
		ix.removeLocked(id)
	}
	ix.entries = append(ix.entries, entry)
	ix.byID[id] = entry
	ix.log.Debug().Str("id", id).Int("dims", len(vector)).Msg("entry indexed")
	return nil
}

// Update replaces the entry wholesale: remove-then-add of the same id. The
// old and new entries are never both present, and embedding failure leaves
// the old entry intact.
func (ix *Index) Update(ctx context.Context, id, content string, meta domain.EntryMetadata) error {
	return ix.Add(ctx, id, content, meta)
}

// Remove deletes an entry. Removing a non-existent id is a no-op.
func (ix *Index) Remove(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(id)
}

func (ix *Index) removeLocked(id string) {
	if _, ok := ix.byID[id]; !ok {
		return
	}
	delete(ix.byID, id)
	for i, e := range ix.entries {
		if e.ID == id {
			ix.entries = append(ix.entries[:i], ix.entries[i+1:]...)
			break
		}
	}
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Search embeds the query once, scores every retained entry by cosine
// similarity, applies the optional metadata filters and the similarity
// threshold, and returns the top limit results by descending score. Ties
// break by insertion order. Scoring is O(n·d); fine at catalog scale.
func (ix *Index) Search(ctx context.Context, query string, limit int, filters *domain.SearchFilters) ([]domain.SearchResult, error) {
	if limit <= 0 {
		limit = 3
	}

	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	results := make([]domain.SearchResult, 0, len(ix.entries))
	for _, e := range ix.entries {
		if !filters.Match(e.Metadata) {
			continue
		}
		score := cosineSimilarity(queryVec, e.Vector)
		if score < ix.threshold {
			continue
		}
		results = append(results, domain.SearchResult{
			ID:       e.ID,
			Content:  e.Content,
			Metadata: e.Metadata,
			Score:    score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// cosineSimilarity is dot(a,b)/(‖a‖·‖b‖). Zero vectors and mismatched
// lengths (a provider change left stale entries behind) score 0 rather
// than erroring, so stale entries starve out of results instead of
// crashing searches.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
