package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-strategy-lab/internal/domain"
	"solana-strategy-lab/internal/storage"
)

func TestTokenMetadataStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenMetadataStore(pool)

	meta := &domain.TokenMetadata{
		TokenAddress:       "MetaToken1",
		Name:               ptr("Test Token"),
		Symbol:             ptr("TEST"),
		Decimals:           6,
		CreatedAtMs:        1_700_000_000_000,
		FirstPoolCreatedMs: ptr(int64(1_700_000_060_000)),
		TotalSupply:        ptr(1_000_000_000.0),
	}

	err := store.Insert(ctx, meta)
	require.NoError(t, err)

	got, err := store.GetByToken(ctx, "MetaToken1")
	require.NoError(t, err)

	assert.Equal(t, meta.TokenAddress, got.TokenAddress)
	assert.Equal(t, *meta.Name, *got.Name)
	assert.Equal(t, *meta.Symbol, *got.Symbol)
	assert.Equal(t, meta.Decimals, got.Decimals)
	assert.Equal(t, meta.CreatedAtMs, got.CreatedAtMs)
	assert.Equal(t, *meta.FirstPoolCreatedMs, *got.FirstPoolCreatedMs)
	assert.InDelta(t, *meta.TotalSupply, *got.TotalSupply, 0.0001)
}

func TestTokenMetadataStore_NullableFields(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenMetadataStore(pool)

	meta := &domain.TokenMetadata{
		TokenAddress: "MetaTokenNull",
		Decimals:     9,
		CreatedAtMs:  1_700_000_000_000,
	}

	err := store.Insert(ctx, meta)
	require.NoError(t, err)

	got, err := store.GetByToken(ctx, "MetaTokenNull")
	require.NoError(t, err)

	assert.Nil(t, got.Name)
	assert.Nil(t, got.Symbol)
	assert.Nil(t, got.FirstPoolCreatedMs)
	assert.Nil(t, got.TotalSupply)
}

func TestTokenMetadataStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenMetadataStore(pool)

	meta := &domain.TokenMetadata{
		TokenAddress: "MetaTokenDup",
		Decimals:     6,
		CreatedAtMs:  1_700_000_000_000,
	}

	err := store.Insert(ctx, meta)
	require.NoError(t, err)

	err = store.Insert(ctx, meta)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTokenMetadataStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenMetadataStore(pool)

	_, err := store.GetByToken(ctx, "NonexistentToken")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
