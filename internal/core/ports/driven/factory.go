package driven

// IndexFactory builds the per-session retrieval structures.
// Every session owns a fresh dense index, sparse index and corpus store,
// created together and destroyed together; the factory keeps adapter
// constructors out of the core.
type IndexFactory interface {
	// NewDenseIndex creates an empty vector index.
	NewDenseIndex() DenseIndex

	// NewSparseIndex creates an empty lexical index.
	NewSparseIndex() SparseIndex

	// NewCorpusStore creates an empty document/chunk corpus.
	NewCorpusStore() CorpusStore
}
