package dense

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

func embeddedChunk(id string, vector ...float32) domain.Chunk {
	return domain.Chunk{ID: id, Content: "content " + id, Embedding: vector}
}

func TestNew(t *testing.T) {
	idx := New(3)
	require.NotNil(t, idx)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.ChunkIDs())
}

func TestIndex_Add_Success(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	err := idx.Add(ctx, []domain.Chunk{
		embeddedChunk("chunk-1", 1, 0),
		embeddedChunk("chunk-2", 0, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"chunk-1", "chunk-2"}, idx.ChunkIDs())
}

func TestIndex_Add_IncrementalBatches(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{embeddedChunk("chunk-1", 1, 0)}))
	require.NoError(t, idx.Add(ctx, []domain.Chunk{embeddedChunk("chunk-2", 0, 1)}))
	require.NoError(t, idx.Add(ctx, []domain.Chunk{embeddedChunk("chunk-3", 1, 1)}))

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []string{"chunk-1", "chunk-2", "chunk-3"}, idx.ChunkIDs())
}

func TestIndex_Add_EmptyBatch(t *testing.T) {
	idx := New(2)

	require.NoError(t, idx.Add(context.Background(), nil))
	require.NoError(t, idx.Add(context.Background(), []domain.Chunk{}))
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_Add_AdoptsDimension(t *testing.T) {
	idx := New(0)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{embeddedChunk("chunk-1", 1, 2, 3)}))

	// Later batches must match the adopted dimension.
	err := idx.Add(ctx, []domain.Chunk{embeddedChunk("chunk-2", 1, 2)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndex_Add_DimensionMismatch(t *testing.T) {
	idx := New(3)

	err := idx.Add(context.Background(), []domain.Chunk{embeddedChunk("chunk-1", 1, 0)})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "chunk-1")
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_Add_MissingEmbedding(t *testing.T) {
	idx := New(2)

	err := idx.Add(context.Background(), []domain.Chunk{{ID: "chunk-1", Content: "no vector"}})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_Add_MissingID(t *testing.T) {
	idx := New(2)

	err := idx.Add(context.Background(), []domain.Chunk{{Content: "no id", Embedding: []float32{1, 0}}})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_Add_DuplicateID(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{embeddedChunk("chunk-1", 1, 0)}))

	err := idx.Add(ctx, []domain.Chunk{embeddedChunk("chunk-1", 0, 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_Search_Empty(t *testing.T) {
	idx := New(2)

	hits, err := idx.Search(context.Background(), []float32{1, 0}, 5)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Search_RanksBySimilarity(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		embeddedChunk("orthogonal", 0, 1),
		embeddedChunk("exact", 1, 0),
		embeddedChunk("diagonal", 1, 1),
	}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 3)

	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "exact", hits[0].ChunkID)
	assert.Equal(t, "diagonal", hits[1].ChunkID)
	assert.Equal(t, "orthogonal", hits[2].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Greater(t, hits[1].Score, hits[2].Score)
}

func TestIndex_Search_TiesKeepInsertionOrder(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	// All three vectors are identical, so every score ties.
	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		embeddedChunk("first", 1, 1),
		embeddedChunk("second", 1, 1),
		embeddedChunk("third", 1, 1),
	}))

	hits, err := idx.Search(ctx, []float32{1, 1}, 3)

	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "first", hits[0].ChunkID)
	assert.Equal(t, "second", hits[1].ChunkID)
	assert.Equal(t, "third", hits[2].ChunkID)
}

func TestIndex_Search_TruncatesToK(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, idx.Add(ctx, []domain.Chunk{
			embeddedChunk(fmt.Sprintf("chunk-%d", i), float32(i), 1),
		}))
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, 4)

	require.NoError(t, err)
	assert.Len(t, hits, 4)
}

func TestIndex_Search_KLargerThanIndex(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{embeddedChunk("chunk-1", 1, 0)}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 10)

	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestIndex_Search_ZeroK(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{embeddedChunk("chunk-1", 1, 0)}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 0)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Search_QueryDimensionMismatch(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{embeddedChunk("chunk-1", 1, 0)}))

	_, err := idx.Search(ctx, []float32{1, 0, 0}, 5)

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndex_Search_Deterministic(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		embeddedChunk("a", 1, 0),
		embeddedChunk("b", 0.9, 0.1),
		embeddedChunk("c", 0.9, 0.1),
		embeddedChunk("d", 0, 1),
	}))

	first, err := idx.Search(ctx, []float32{1, 0}, 4)
	require.NoError(t, err)

	second, err := idx.Search(ctx, []float32{1, 0}, 4)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestIndex_Delete_Success(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		embeddedChunk("chunk-1", 1, 0),
		embeddedChunk("chunk-2", 0, 1),
		embeddedChunk("chunk-3", 1, 1),
	}))

	err := idx.Delete(ctx, "chunk-2")
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"chunk-1", "chunk-3"}, idx.ChunkIDs())

	hits, err := idx.Search(ctx, []float32{0, 1}, 5)
	require.NoError(t, err)
	for _, hit := range hits {
		assert.NotEqual(t, "chunk-2", hit.ChunkID)
	}
}

func TestIndex_Delete_NonExistent(t *testing.T) {
	idx := New(2)

	err := idx.Delete(context.Background(), "nonexistent")
	assert.NoError(t, err)
}

func TestIndex_Delete_PreservesInsertionOrderForTies(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		embeddedChunk("first", 1, 1),
		embeddedChunk("second", 1, 1),
		embeddedChunk("third", 1, 1),
	}))
	require.NoError(t, idx.Delete(ctx, "first"))

	hits, err := idx.Search(ctx, []float32{1, 1}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "second", hits[0].ChunkID)
	assert.Equal(t, "third", hits[1].ChunkID)
}

func TestIndex_Close(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{embeddedChunk("chunk-1", 1, 0)}))
	require.NoError(t, idx.Close())

	assert.Equal(t, 0, idx.Len())

	hits, err := idx.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Concurrency_SearchWhileReading(t *testing.T) {
	idx := New(2)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, idx.Add(ctx, []domain.Chunk{
			embeddedChunk(fmt.Sprintf("chunk-%d", i), float32(i%5), 1),
		}))
	}

	var wg sync.WaitGroup
	numGoroutines := 50

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			_, _ = idx.Search(ctx, []float32{1, 0}, 5)
			_ = idx.Len()
			_ = idx.ChunkIDs()
		}()
	}
	wg.Wait()
}
