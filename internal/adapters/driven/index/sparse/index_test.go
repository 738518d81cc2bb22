package sparse

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

func textChunk(id, content string) domain.Chunk {
	return domain.Chunk{ID: id, Content: content}
}

func TestNew(t *testing.T) {
	idx := New()
	require.NotNil(t, idx)
	assert.Equal(t, DefaultK1, idx.k1)
	assert.Equal(t, DefaultB, idx.b)
	assert.Equal(t, 0, idx.Len())
}

func TestNew_WithOptions(t *testing.T) {
	idx := New(WithK1(2.0), WithB(0.5))
	assert.Equal(t, 2.0, idx.k1)
	assert.Equal(t, 0.5, idx.b)
}

func TestNew_InvalidOptionsIgnored(t *testing.T) {
	idx := New(WithK1(-1), WithB(1.5))
	assert.Equal(t, DefaultK1, idx.k1)
	assert.Equal(t, DefaultB, idx.b)
}

func TestIndex_Add_Success(t *testing.T) {
	idx := New()
	ctx := context.Background()

	err := idx.Add(ctx, []domain.Chunk{
		textChunk("chunk-1", "Transformers process sequences with attention."),
		textChunk("chunk-2", "Recurrent networks process sequences step by step."),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"chunk-1", "chunk-2"}, idx.ChunkIDs())
}

func TestIndex_Add_IncrementalBatches(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{textChunk("chunk-1", "first batch")}))
	require.NoError(t, idx.Add(ctx, []domain.Chunk{textChunk("chunk-2", "second batch")}))

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"chunk-1", "chunk-2"}, idx.ChunkIDs())
}

func TestIndex_Add_EmptyBatch(t *testing.T) {
	idx := New()

	require.NoError(t, idx.Add(context.Background(), nil))
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_Add_MissingID(t *testing.T) {
	idx := New()

	err := idx.Add(context.Background(), []domain.Chunk{{Content: "no id"}})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_Add_DuplicateID(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{textChunk("chunk-1", "original")}))

	err := idx.Add(ctx, []domain.Chunk{textChunk("chunk-1", "duplicate")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_Search_Empty(t *testing.T) {
	idx := New()

	hits, err := idx.Search(context.Background(), "anything", 5)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Search_ExactKeywordMatch(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		textChunk("chunk-1", "The Mixtral model uses sparse routing between experts."),
		textChunk("chunk-2", "Dense layers connect every neuron to every input."),
		textChunk("chunk-3", "Cooking pasta requires salted boiling water."),
	}))

	hits, err := idx.Search(ctx, "Mixtral routing", 3)

	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "chunk-1", hits[0].ChunkID)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestIndex_Search_NoMatchingTerms(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		textChunk("chunk-1", "Completely unrelated content."),
	}))

	hits, err := idx.Search(ctx, "zebra quantum", 5)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Search_StopwordOnlyQuery(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		textChunk("chunk-1", "Some indexed content here."),
	}))

	hits, err := idx.Search(ctx, "the of and", 5)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Search_RareTermOutranksCommon(t *testing.T) {
	idx := New()
	ctx := context.Background()

	// "model" appears everywhere; "hyperparameter" only in chunk-3.
	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		textChunk("chunk-1", "model training model evaluation"),
		textChunk("chunk-2", "model deployment model serving"),
		textChunk("chunk-3", "hyperparameter tuning guides model quality"),
	}))

	hits, err := idx.Search(ctx, "hyperparameter model", 3)

	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "chunk-3", hits[0].ChunkID)
}

func TestIndex_Search_TruncatesToK(t *testing.T) {
	idx := New()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, idx.Add(ctx, []domain.Chunk{
			textChunk(fmt.Sprintf("chunk-%d", i), fmt.Sprintf("shared keyword plus unique%d", i)),
		}))
	}

	hits, err := idx.Search(ctx, "keyword", 4)

	require.NoError(t, err)
	assert.Len(t, hits, 4)
}

func TestIndex_Search_ZeroK(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{textChunk("chunk-1", "content")}))

	hits, err := idx.Search(ctx, "content", 0)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Search_TiesKeepInsertionOrder(t *testing.T) {
	idx := New()
	ctx := context.Background()

	// Identical content scores identically.
	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		textChunk("first", "identical keyword content"),
		textChunk("second", "identical keyword content"),
		textChunk("third", "identical keyword content"),
	}))

	hits, err := idx.Search(ctx, "keyword", 3)

	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "first", hits[0].ChunkID)
	assert.Equal(t, "second", hits[1].ChunkID)
	assert.Equal(t, "third", hits[2].ChunkID)
}

func TestIndex_Search_Deterministic(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		textChunk("a", "retrieval systems rank documents"),
		textChunk("b", "ranking functions score documents"),
		textChunk("c", "documents hold ranked passages"),
	}))

	first, err := idx.Search(ctx, "documents ranking", 3)
	require.NoError(t, err)

	second, err := idx.Search(ctx, "documents ranking", 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestIndex_Delete_Success(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		textChunk("chunk-1", "alpha keyword"),
		textChunk("chunk-2", "beta keyword"),
	}))

	require.NoError(t, idx.Delete(ctx, "chunk-1"))

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, []string{"chunk-2"}, idx.ChunkIDs())

	hits, err := idx.Search(ctx, "keyword", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "chunk-2", hits[0].ChunkID)
}

func TestIndex_Delete_NonExistent(t *testing.T) {
	idx := New()

	err := idx.Delete(context.Background(), "nonexistent")
	assert.NoError(t, err)
}

func TestIndex_Delete_CleansPostings(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{textChunk("chunk-1", "singular keyword")}))
	require.NoError(t, idx.Delete(ctx, "chunk-1"))

	assert.Empty(t, idx.postings)
	assert.Equal(t, 0, idx.totalTokens)
}

func TestIndex_Close(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{textChunk("chunk-1", "content")}))
	require.NoError(t, idx.Close())

	assert.Equal(t, 0, idx.Len())

	hits, err := idx.Search(ctx, "content", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Concurrency_Reads(t *testing.T) {
	idx := New()
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, idx.Add(ctx, []domain.Chunk{
			textChunk(fmt.Sprintf("chunk-%d", i), fmt.Sprintf("shared term plus unique%d", i)),
		}))
	}

	var wg sync.WaitGroup
	numGoroutines := 50

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			_, _ = idx.Search(ctx, "shared term", 5)
			_ = idx.Len()
			_ = idx.ChunkIDs()
		}()
	}
	wg.Wait()
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases and filters stopwords", "The Quick Brown Fox", []string{"quick", "brown", "fox"}},
		{"drops single characters", "a I x yz", []string{"yz"}},
		{"splits on punctuation", "attention-is_all you.need", []string{"attention", "is_all", "need"}},
		{"keeps digits", "llama 31 8b variant", []string{"llama", "31", "8b", "variant"}},
		{"empty text", "", nil},
		{"only stopwords", "the of and", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.text)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
