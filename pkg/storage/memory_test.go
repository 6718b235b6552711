package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wakamono/shokuhi/pkg/catalog"
)

func TestMemoryMatchesDBSemantics(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.ReadAll(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	in := sampleProducts()
	require.NoError(t, m.ReplaceAll(ctx, in, catalog.ProvenanceUser))
	out, ok, err := m.ReadAll(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, in, out)

	// Mutating the returned slice must not leak into the store.
	out[0].Items[0].Name = "changed"
	again, _, _ := m.ReadAll(ctx)
	require.Equal(t, "apple", again[0].Items[0].Name)

	require.NoError(t, m.Clear(ctx))
	_, ok, err = m.ReadAll(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	in := []catalog.Product{
		{ID: "x", Name: "First", Category: "A", Items: []catalog.ProductItem{{Name: "1"}}},
		{ID: "y", Name: "Y", Category: "B", Items: []catalog.ProductItem{}},
		{ID: "x", Name: "Second", Category: "C", Items: []catalog.ProductItem{{Name: "2"}}},
	}
	require.NoError(t, m.ReplaceAll(ctx, in, catalog.ProvenanceUser))

	out, _, err := m.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "y", out[0].ID)
	require.Equal(t, "Second", out[1].Name)

	counts, err := m.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, &catalog.Counts{Products: 2, Items: 2}, counts)

	items, err := m.ItemsFor(ctx, "x")
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestMemoryFavorites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.AddFavorite(ctx, "a"))
	require.NoError(t, m.AddFavorite(ctx, "a"))
	require.NoError(t, m.AddFavorite(ctx, "b"))
	require.NoError(t, m.RemoveFavorite(ctx, "a"))
	favs, err := m.LoadFavorites(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, favs)
}
