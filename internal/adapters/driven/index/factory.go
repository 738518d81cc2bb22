// Package index provides the in-memory retrieval index adapters and their
// per-session factory.
package index

import (
	"github.com/custodia-labs/paperchat-cli/internal/adapters/driven/index/dense"
	"github.com/custodia-labs/paperchat-cli/internal/adapters/driven/index/sparse"
	"github.com/custodia-labs/paperchat-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.IndexFactory = (*Factory)(nil)

// Factory creates one session's dense index, sparse index and corpus store.
// Every session gets fresh instances; nothing is shared between sessions.
type Factory struct {
	dimension int
}

// NewFactory creates an index factory. dimension fixes the dense index's
// expected embedding size; pass 0 to adopt the first added embedding's.
func NewFactory(dimension int) *Factory {
	return &Factory{dimension: dimension}
}

// NewDenseIndex creates an empty vector index.
func (f *Factory) NewDenseIndex() driven.DenseIndex {
	return dense.New(f.dimension)
}

// NewSparseIndex creates an empty lexical index.
func (f *Factory) NewSparseIndex() driven.SparseIndex {
	return sparse.New()
}

// NewCorpusStore creates an empty corpus store.
func (f *Factory) NewCorpusStore() driven.CorpusStore {
	return memory.NewCorpusStore()
}
