package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

func TestStrategyStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStrategyStore(pool)

	rec := &domain.StrategyRecord{
		Name:        "early_momentum",
		Description: "Early momentum detector",
		Format:      "yaml",
		Document:    "name: early_momentum\nconditions:\n  volume:\n    enabled: true\n",
		CreatedAtMs: 1_700_000_000_000,
	}

	err := store.Insert(ctx, rec)
	require.NoError(t, err)

	got, err := store.GetByName(ctx, "early_momentum")
	require.NoError(t, err)

	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.Description, got.Description)
	assert.Equal(t, rec.Format, got.Format)
	assert.Equal(t, rec.Document, got.Document)
	assert.Equal(t, rec.CreatedAtMs, got.CreatedAtMs)
}

func TestStrategyStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStrategyStore(pool)

	rec := &domain.StrategyRecord{
		Name:        "dup_strategy",
		Format:      "yaml",
		Document:    "name: dup_strategy\n",
		CreatedAtMs: 1_700_000_000_000,
	}

	err := store.Insert(ctx, rec)
	require.NoError(t, err)

	err = store.Insert(ctx, rec)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestStrategyStore_ListSorted(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStrategyStore(pool)

	names := []string{"zeta", "alpha", "mid"}
	for _, name := range names {
		err := store.Insert(ctx, &domain.StrategyRecord{
			Name:        name,
			Format:      "yaml",
			Document:    "name: " + name + "\n",
			CreatedAtMs: 1_700_000_000_000,
		})
		require.NoError(t, err)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)

	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "mid", list[1].Name)
	assert.Equal(t, "zeta", list[2].Name)
}

func TestStrategyStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStrategyStore(pool)

	_, err := store.GetByName(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
