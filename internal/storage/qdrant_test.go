//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStorage creates a test storage instance and ensures collections
// exist. Skips if Qdrant is not running.
func setupTestStorage(t *testing.T) *QdrantStorage {
	storage, err := NewQdrantStorage("localhost", 6334)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	err = storage.EnsureCollections(context.Background())
	require.NoError(t, err, "Failed to ensure collections")

	return storage
}

func zeroVector() []float32 {
	return make([]float32, VectorDimension)
}

func TestFilingRoundTrip(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	filing := &Filing{
		ID:        uuid.New().String(),
		Ticker:    "ZZTEST",
		Year:      "2024",
		FilePath:  "processed_data/ZZTEST_2024.md",
		Content:   "Item 1. Business\n\nTest filing content.",
		Summary:   "A test filing for roundtrip coverage",
		Outline:   []string{"Business", "Risk Factors"},
		IndexedAt: now,
	}

	require.NoError(t, storage.UpsertFiling(ctx, filing))

	retrieved, err := storage.GetFiling(ctx, "ZZTEST")
	require.NoError(t, err)
	assert.Equal(t, filing.Ticker, retrieved.Ticker)
	assert.Equal(t, filing.Year, retrieved.Year)
	assert.Equal(t, filing.Content, retrieved.Content)
	assert.Equal(t, filing.Summary, retrieved.Summary)
	assert.Equal(t, filing.Outline, retrieved.Outline)
	assert.Equal(t, now, retrieved.IndexedAt.UTC())

	require.NoError(t, storage.DeleteTicker(ctx, "ZZTEST"))
	_, err = storage.GetFiling(ctx, "ZZTEST")
	assert.ErrorIs(t, err, ErrFilingNotFound)
}

func TestSectionUpsertAndSearch(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()
	defer storage.DeleteTicker(ctx, "ZZTEST")

	chunks := []*SectionChunk{
		{
			ID:          uuid.New().String(),
			Ticker:      "ZZTEST",
			Section:     "MD&A",
			Text:        "Revenue grew twelve percent year over year.",
			StartLine:   10,
			EndLine:     42,
			Year:        "2024",
			FilePath:    "processed_data/ZZTEST_2024.md",
			ChunkLength: 43,
			TablesCount: 1,
			Embedding:   zeroVector(),
		},
	}

	require.NoError(t, storage.UpsertSections(ctx, chunks))

	results, err := storage.SearchSections(ctx, zeroVector(), "ZZTEST", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	chunk := results[0].Chunk
	assert.Equal(t, "MD&A", chunk.Section)
	assert.Equal(t, 10, chunk.StartLine)
	assert.Equal(t, 42, chunk.EndLine)
	assert.Equal(t, 1, chunk.TablesCount)

	scrolled, err := storage.SectionsByTicker(ctx, "ZZTEST")
	require.NoError(t, err)
	assert.Len(t, scrolled, 1)
	assert.Equal(t, chunks[0].Text, scrolled[0].Text)
}

func TestUpsertSections_DimensionMismatch(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	chunks := []*SectionChunk{{
		ID:        uuid.New().String(),
		Ticker:    "ZZTEST",
		Embedding: make([]float32, 8),
	}}

	err := storage.UpsertSections(context.Background(), chunks)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
