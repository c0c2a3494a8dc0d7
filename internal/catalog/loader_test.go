package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/rxflow/internal/domain"
	"github.com/soyeahso/rxflow/internal/knowledge"
	"github.com/soyeahso/rxflow/internal/logging"
	"github.com/soyeahso/rxflow/internal/store"
)

type flakyEmbedder struct {
	failOn map[string]bool
}

func (f *flakyEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.failOn[text] {
		return nil, errors.New("embed failed")
	}
	return []float32{1, 0, 0}, nil
}

func (f *flakyEmbedder) Dimensions() int { return 3 }

func testLoader(t *testing.T, emb *flakyEmbedder) (*Loader, *store.ProductStore, *knowledge.Index) {
	t.Helper()
	log := logging.New(nil, "silent", "json")
	db, err := store.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	products := store.NewProductStore(db)
	index := knowledge.NewIndex(emb, 0.1, log)
	return NewLoader(products, index, log), products, index
}

func TestRebuild_IndexesAllProducts(t *testing.T) {
	loader, products, index := testLoader(t, &flakyEmbedder{})
	ctx := context.Background()

	require.NoError(t, products.Upsert(ctx, store.Product{ID: "p1", Name: "Aspirin", Price: 4.5, InStock: true}))
	require.NoError(t, products.Upsert(ctx, store.Product{ID: "p2", Name: "Bandage", Price: 2, InStock: true}))

	require.NoError(t, loader.Rebuild(ctx))
	assert.Equal(t, 2, index.Len())
}

func TestRebuild_SkipsFailedEmbeds(t *testing.T) {
	emb := &flakyEmbedder{failOn: map[string]bool{"Bandage": true}}
	loader, products, index := testLoader(t, emb)
	ctx := context.Background()

	require.NoError(t, products.Upsert(ctx, store.Product{ID: "p1", Name: "Aspirin"}))
	require.NoError(t, products.Upsert(ctx, store.Product{ID: "p2", Name: "Bandage"}))

	require.NoError(t, loader.Rebuild(ctx))
	assert.Equal(t, 1, index.Len())
}

func TestUpsert_WritesTableAndIndex(t *testing.T) {
	loader, products, index := testLoader(t, &flakyEmbedder{})
	ctx := context.Background()

	p := store.Product{ID: "p1", Name: "Aspirin", Description: "Pain relief", Category: "painkillers", Price: 4.5, InStock: true}
	require.NoError(t, loader.Upsert(ctx, p))

	got, err := products.Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Aspirin", got.Name)

	results, err := index.Search(ctx, "aspirin", 5, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Aspirin\nPain relief", results[0].Content)
	assert.Equal(t, "catalog", results[0].Metadata.Source)
	assert.Equal(t, domain.EntryTypeProduct, results[0].Metadata.Type)
	assert.Equal(t, 4.5, results[0].Metadata.Price)
}

func TestUpsert_EmbedFailureKeepsTableRow(t *testing.T) {
	emb := &flakyEmbedder{failOn: map[string]bool{"Aspirin": true}}
	loader, products, _ := testLoader(t, emb)
	ctx := context.Background()

	err := loader.Upsert(ctx, store.Product{ID: "p1", Name: "Aspirin"})
	assert.Error(t, err)

	// The durable row still exists; the index entry shows up on the next
	// successful rebuild.
	got, getErr := products.Get(ctx, "p1")
	require.NoError(t, getErr)
	assert.NotNil(t, got)
}

func TestRemove_DeletesBoth(t *testing.T) {
	loader, products, index := testLoader(t, &flakyEmbedder{})
	ctx := context.Background()

	require.NoError(t, loader.Upsert(ctx, store.Product{ID: "p1", Name: "Aspirin"}))
	require.NoError(t, loader.Remove(ctx, "p1"))

	got, err := products.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, index.Len())
}
