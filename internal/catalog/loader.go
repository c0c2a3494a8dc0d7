// Package catalog keeps the in-memory knowledge index in sync with the
// product table, which is the durable source of truth.
package catalog

import (
	"context"
	"fmt"

	"github.com/soyeahso/rxflow/internal/domain"
	"github.com/soyeahso/rxflow/internal/knowledge"
	"github.com/soyeahso/rxflow/internal/logging"
	"github.com/soyeahso/rxflow/internal/store"
)

// Loader rebuilds the knowledge index from the catalog and applies
// incremental product changes.
type Loader struct {
	products *store.ProductStore
	index    *knowledge.Index
	log      *logging.Logger
}

// NewLoader creates a catalog loader.
func NewLoader(products *store.ProductStore, index *knowledge.Index, log *logging.Logger) *Loader {
	return &Loader{products: products, index: index, log: log.Sub("catalog")}
}

// Rebuild indexes every catalog product. The index only lives in memory,
// so this runs on every startup. Products that fail to embed are skipped
// and counted rather than aborting the whole rebuild.
func (l *Loader) Rebuild(ctx context.Context) error {
	products, err := l.products.List(ctx)
	if err != nil {
		return fmt.Errorf("listing products: %w", err)
	}

	var failed int
	for _, p := range products {
		if err := l.index.Add(ctx, p.ID, entryContent(p), entryMetadata(p)); err != nil {
			l.log.Warn().Err(err).Str("product", p.ID).Msg("indexing product failed")
			failed++
		}
	}

	l.log.Info().
		Int("products", len(products)).
		Int("failed", failed).
		Msg("knowledge index rebuilt from catalog")
	return nil
}

// Upsert writes the product to the catalog table and refreshes its index
// entry in the same call.
func (l *Loader) Upsert(ctx context.Context, p store.Product) error {
	if err := l.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("storing product %s: %w", p.ID, err)
	}
	if err := l.index.Update(ctx, p.ID, entryContent(p), entryMetadata(p)); err != nil {
		return fmt.Errorf("indexing product %s: %w", p.ID, err)
	}
	return nil
}

// Remove deletes the product from the catalog and the index.
func (l *Loader) Remove(ctx context.Context, id string) error {
	if err := l.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting product %s: %w", id, err)
	}
	l.index.Remove(id)
	return nil
}

func entryContent(p store.Product) string {
	if p.Description == "" {
		return p.Name
	}
	return p.Name + "\n" + p.Description
}

func entryMetadata(p store.Product) domain.EntryMetadata {
	return domain.EntryMetadata{
		Category:             p.Category,
		InStock:              p.InStock,
		RequiresPrescription: p.RequiresPrescription,
		Price:                p.Price,
		Source:               "catalog",
		Type:                 domain.EntryTypeProduct,
	}
}
