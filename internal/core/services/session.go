package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperchat-cli/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// defaultAnswerPrompt is the fallback system prompt when no PromptStore is
// configured. The %s placeholder receives the retrieved context block.
const defaultAnswerPrompt = `You are a careful assistant answering questions about the user's documents.
Answer using only the context below. If the context does not contain the
answer, say you don't know instead of guessing. Mention the source file and
page when citing.

Context:
%s`

// emptySessionAnswer is returned when a question arrives before any
// document has been added.
const emptySessionAnswer = "No documents are loaded in this session yet. Add a document before asking questions."

// session holds one conversation's private state. All mutating operations
// take the session mutex, giving the at-most-one-in-flight guarantee.
type session struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time

	corpus    driven.CorpusStore
	dense     driven.DenseIndex
	sparse    driven.SparseIndex
	retriever *RetrievalService

	history   []domain.ChatTurn
	sources   []string
	sourceSet map[string]struct{}

	closed   bool
	desynced bool
}

// chunkedDocument is the output of the parallel chunk+embed stage for one
// document, before the synchronized index append.
type chunkedDocument struct {
	doc    domain.Document
	chunks []domain.Chunk
	stage  string
	err    error
}

// SessionService implements driving.SessionService. Each session owns a
// fresh dense index, sparse index and corpus created through the factory;
// the two indices always hold an identical chunk population or the session
// is marked desynchronised.
type SessionService struct {
	factory    driven.IndexFactory
	registry   driven.NormaliserRegistry
	pipeline   driven.PostProcessorPipeline
	embedder   driven.EmbeddingService
	llm        driven.LLMService
	prompts    driven.PromptStore
	transcript driven.TranscriptStore
	refiner    *RefinerService
	settings   domain.AppSettings

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionService creates a session service.
// The embedder is required for ingestion; llm, prompts and transcript are
// optional: without an LLM, Ask is disabled but Retrieve still works, and
// without a transcript store turns simply are not archived.
func NewSessionService(
	factory driven.IndexFactory,
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	transcript driven.TranscriptStore,
	settings domain.AppSettings,
) *SessionService {
	return &SessionService{
		factory:    factory,
		registry:   registry,
		pipeline:   pipeline,
		embedder:   embedder,
		llm:        llm,
		prompts:    prompts,
		transcript: transcript,
		refiner:    NewRefinerService(llm, settings.Refiner.HistoryWindow, settings.Timeouts.Refine()),
		settings:   settings,
		sessions:   make(map[string]*session),
	}
}

// Create starts a new empty session.
func (s *SessionService) Create(ctx context.Context) (*domain.SessionInfo, error) {
	if s.factory == nil {
		return nil, fmt.Errorf("create session: index factory not configured")
	}

	sess := &session{
		id:        uuid.New().String(),
		createdAt: time.Now(),
		corpus:    s.factory.NewCorpusStore(),
		dense:     s.factory.NewDenseIndex(),
		sparse:    s.factory.NewSparseIndex(),
		sourceSet: make(map[string]struct{}),
	}
	sess.retriever = NewRetrievalService(sess.corpus, sess.dense, sess.sparse, s.embedder)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	logger.Debug("Created session %s", sess.id)

	info := &domain.SessionInfo{ID: sess.id, CreatedAt: sess.createdAt}
	if s.transcript != nil {
		if err := s.transcript.SaveSession(ctx, *info); err != nil {
			logger.Warn("Failed to archive session %s: %v", sess.id, err)
		}
	}
	return info, nil
}

// AddFiles reads and normalises local files, then indexes the resulting
// page documents. Unreadable or unsupported files are reported in the
// IngestReport, not fatal to the batch.
func (s *SessionService) AddFiles(ctx context.Context, sessionID string, paths []string) (*domain.IngestReport, error) {
	var docs []domain.Document
	var skipped []domain.SkippedDocument

	for _, path := range paths {
		pages, stage, err := s.normaliseFile(ctx, path)
		if err != nil {
			logger.Debug("Skipping %s: %v", path, err)
			skipped = append(skipped, domain.SkippedDocument{
				Source: filepath.Base(path),
				Stage:  stage,
				Reason: err.Error(),
			})
			continue
		}
		docs = append(docs, pages...)
	}

	report, err := s.AddDocuments(ctx, sessionID, docs)
	if err != nil {
		return nil, err
	}
	report.Skipped = append(skipped, report.Skipped...)
	return report, nil
}

// normaliseFile turns one local file into page documents. The returned
// stage classifies a failure for the ingest report.
func (s *SessionService) normaliseFile(ctx context.Context, path string) ([]domain.Document, string, error) {
	if s.registry == nil {
		return nil, "read", fmt.Errorf("read %s: normaliser registry not configured", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, "read", fmt.Errorf("read %s: %w", path, err)
	}
	if info.Size() > domain.DefaultMaxUploadBytes {
		return nil, "read", fmt.Errorf("read %s: %d bytes: %w", path, info.Size(), domain.ErrFileTooLarge)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "read", fmt.Errorf("read %s: %w", path, err)
	}

	raw := &domain.RawDocument{
		URI:      path,
		Name:     filepath.Base(path),
		MIMEType: mime.TypeByExtension(filepath.Ext(path)),
		Content:  content,
	}

	result, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, "normalise", fmt.Errorf("normalise %s: %w", raw.Name, err)
	}
	return result.Documents, "", nil
}

// AddDocuments chunks, embeds and indexes page documents into a session.
// Chunking and embedding run per-document in parallel; the index append is
// one critical section so the dense and sparse populations move together.
func (s *SessionService) AddDocuments(ctx context.Context, sessionID string, docs []domain.Document) (*domain.IngestReport, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return nil, domain.ErrSessionClosed
	}
	if sess.desynced {
		return nil, domain.ErrIndexDesync
	}

	report := &domain.IngestReport{}

	// Validation rejects per document without touching session state.
	valid := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if err := doc.Validate(); err != nil {
			report.Skipped = append(report.Skipped, domain.SkippedDocument{
				Source: doc.Source,
				Page:   doc.Page,
				Stage:  "validate",
				Reason: err.Error(),
			})
			continue
		}
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = time.Now()
		}
		valid = append(valid, doc)
	}

	// Chunk and embed every document in parallel; documents are independent
	// until the append.
	results := make([]chunkedDocument, len(valid))
	var wg sync.WaitGroup
	for i := range valid {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chunks, stage, err := s.chunkAndEmbed(ctx, &valid[i])
			results[i] = chunkedDocument{doc: valid[i], chunks: chunks, stage: stage, err: err}
		}(i)
	}
	wg.Wait()

	// Append in input order, one document at a time.
	for _, result := range results {
		if result.err != nil {
			logger.Debug("Skipping %q page %d: %v", result.doc.Source, result.doc.Page, result.err)
			report.Skipped = append(report.Skipped, domain.SkippedDocument{
				Source: result.doc.Source,
				Page:   result.doc.Page,
				Stage:  result.stage,
				Reason: result.err.Error(),
			})
			continue
		}

		if err := s.appendDocument(ctx, sess, &result.doc, result.chunks); err != nil {
			if errors.Is(err, domain.ErrIndexDesync) {
				return nil, err
			}
			report.Skipped = append(report.Skipped, domain.SkippedDocument{
				Source: result.doc.Source,
				Page:   result.doc.Page,
				Stage:  "index",
				Reason: err.Error(),
			})
			continue
		}

		if _, seen := sess.sourceSet[result.doc.Source]; !seen {
			sess.sourceSet[result.doc.Source] = struct{}{}
			sess.sources = append(sess.sources, result.doc.Source)
		}
		report.DocumentsAdded++
		report.ChunksAdded += len(result.chunks)
	}

	logger.Debug("Session %s: added %d documents, %d chunks, skipped %d",
		sessionID, report.DocumentsAdded, report.ChunksAdded, len(report.Skipped))

	return report, nil
}

// chunkAndEmbed runs one document through the chunking pipeline and embeds
// the resulting chunks. The embed timeout bounds the whole stage since both
// halves call the embedding service.
func (s *SessionService) chunkAndEmbed(ctx context.Context, doc *domain.Document) ([]domain.Chunk, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.settings.Timeouts.Embed())
	defer cancel()

	if s.pipeline == nil {
		return nil, "chunk", fmt.Errorf("post-processor pipeline not configured")
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, "chunk", err
	}
	if len(chunks) == 0 {
		return nil, "", nil
	}

	if s.embedder == nil {
		return nil, "embed", domain.ErrEmbeddingUnavailable
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, "embed", err
	}
	if len(vectors) != len(chunks) {
		return nil, "embed", fmt.Errorf("got %d vectors for %d chunks: %w",
			len(vectors), len(chunks), domain.ErrEmbeddingUnavailable)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	return chunks, "", nil
}

// appendDocument applies one document's chunks to the corpus and both
// indices. The document row is saved last, after both index adds, so a
// skipped document is invisible everywhere: Info never counts a document
// whose chunks failed to index. A failure after the dense append rolls the
// dense index back so the two populations stay identical; if the rollback
// itself fails the session is marked desynchronised and the error wraps
// ErrIndexDesync.
func (s *SessionService) appendDocument(ctx context.Context, sess *session, doc *domain.Document, chunks []domain.Chunk) error {
	if len(chunks) > 0 {
		if err := sess.corpus.SaveChunks(ctx, chunks); err != nil {
			return fmt.Errorf("save chunks: %w", err)
		}

		if err := sess.dense.Add(ctx, chunks); err != nil {
			// A mid-batch failure may have applied earlier chunks; Delete
			// is a no-op for IDs never added.
			if rbErr := rollbackChunks(ctx, sess.dense, sess.corpus, chunks); rbErr != nil {
				sess.desynced = true
				logger.Error("Session %s desynchronised: dense rollback failed: %v", sess.id, rbErr)
				return fmt.Errorf("dense add: %v, rollback: %v: %w", err, rbErr, domain.ErrIndexDesync)
			}
			return fmt.Errorf("dense add: %w", err)
		}

		if err := sess.sparse.Add(ctx, chunks); err != nil {
			if rbErr := errors.Join(
				rollbackChunks(ctx, sess.sparse, sess.corpus, chunks),
				rollbackChunks(ctx, sess.dense, sess.corpus, chunks),
			); rbErr != nil {
				sess.desynced = true
				logger.Error("Session %s desynchronised: rollback failed: %v", sess.id, rbErr)
				return fmt.Errorf("sparse add: %v, rollback: %v: %w", err, rbErr, domain.ErrIndexDesync)
			}
			return fmt.Errorf("sparse add: %w", err)
		}
	}

	if err := sess.corpus.SaveDocument(ctx, doc); err != nil {
		if rbErr := errors.Join(
			rollbackChunks(ctx, sess.sparse, sess.corpus, chunks),
			rollbackChunks(ctx, sess.dense, sess.corpus, chunks),
		); rbErr != nil {
			sess.desynced = true
			logger.Error("Session %s desynchronised: rollback failed: %v", sess.id, rbErr)
			return fmt.Errorf("save document: %v, rollback: %v: %w", err, rbErr, domain.ErrIndexDesync)
		}
		return fmt.Errorf("save document: %w", err)
	}

	return nil
}

// chunkDeleter is the rollback surface shared by both index ports.
type chunkDeleter interface {
	Delete(ctx context.Context, chunkID string) error
}

// rollbackChunks removes a batch from an index and the corpus.
func rollbackChunks(ctx context.Context, index chunkDeleter, corpus driven.CorpusStore, chunks []domain.Chunk) error {
	var errs []error
	for _, chunk := range chunks {
		if err := index.Delete(ctx, chunk.ID); err != nil {
			errs = append(errs, fmt.Errorf("delete chunk %s: %w", chunk.ID, err))
			continue
		}
		if err := corpus.DeleteChunk(ctx, chunk.ID); err != nil {
			logger.Debug("Failed to remove chunk %s from corpus: %v", chunk.ID, err)
		}
	}
	return errors.Join(errs...)
}

// Ask answers a question against the session's documents.
func (s *SessionService) Ask(ctx context.Context, sessionID string, question string) (*domain.Answer, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return nil, domain.ErrSessionClosed
	}
	if sess.desynced {
		return nil, domain.ErrIndexDesync
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}

	docCount, err := sess.corpus.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if docCount == 0 {
		return &domain.Answer{Text: emptySessionAnswer, RefinedQuery: question}, nil
	}

	if s.llm == nil {
		return nil, fmt.Errorf("answer question: %w", domain.ErrLLMUnavailable)
	}

	refined := s.refiner.Refine(ctx, question, sess.history)

	passages, err := s.retrieve(ctx, sess, refined)
	if err != nil {
		return nil, err
	}

	answerCtx, cancel := context.WithTimeout(ctx, s.settings.Timeouts.Answer())
	defer cancel()

	messages := []driven.ChatMessage{
		{Role: "system", Content: fmt.Sprintf(s.answerPrompt(), buildContext(passages))},
		{Role: "user", Content: refined},
	}
	text, err := s.llm.Chat(answerCtx, messages, driven.ChatOptions{})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", timeoutErr(err))
	}

	turn := domain.ChatTurn{Question: question, Answer: text}
	sess.history = append(sess.history, turn)

	sources := domain.SourceRefs(passages)
	if s.transcript != nil {
		if err := s.transcript.SaveTurn(ctx, sess.id, turn, sources); err != nil {
			logger.Warn("Failed to archive turn for session %s: %v", sess.id, err)
		}
	}

	return &domain.Answer{
		Text:         text,
		RefinedQuery: refined,
		Sources:      sources,
		Passages:     passages,
	}, nil
}

// Retrieve runs refinement and hybrid retrieval without generation.
func (s *SessionService) Retrieve(ctx context.Context, sessionID string, query string) ([]domain.ScoredChunk, string, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, "", err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return nil, "", domain.ErrSessionClosed
	}
	if sess.desynced {
		return nil, "", domain.ErrIndexDesync
	}

	refined := s.refiner.Refine(ctx, query, sess.history)

	passages, err := s.retrieve(ctx, sess, refined)
	if err != nil {
		return nil, "", err
	}
	return passages, refined, nil
}

// retrieve runs one bounded hybrid retrieval. Callers hold the session lock.
func (s *SessionService) retrieve(ctx context.Context, sess *session, query string) ([]domain.ScoredChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, s.settings.Timeouts.Retrieve())
	defer cancel()

	passages, err := sess.retriever.Retrieve(ctx, query, s.settings.Retrieval.Options())
	if err != nil {
		return nil, fmt.Errorf("retrieve passages: %w", timeoutErr(err))
	}
	return passages, nil
}

// timeoutErr marks a deadline expiry with the domain timeout sentinel so
// callers can match it without knowing which stage timed out.
func timeoutErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}

// History returns a copy of the session's completed turns.
func (s *SessionService) History(_ context.Context, sessionID string) ([]domain.ChatTurn, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return nil, domain.ErrSessionClosed
	}

	history := make([]domain.ChatTurn, len(sess.history))
	copy(history, sess.history)
	return history, nil
}

// Info returns a snapshot of the session's state.
func (s *SessionService) Info(ctx context.Context, sessionID string) (*domain.SessionInfo, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return nil, domain.ErrSessionClosed
	}

	docCount, err := sess.corpus.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	chunkCount, err := sess.corpus.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}

	sources := make([]string, len(sess.sources))
	copy(sources, sess.sources)

	return &domain.SessionInfo{
		ID:            sess.id,
		CreatedAt:     sess.createdAt,
		DocumentCount: docCount,
		ChunkCount:    chunkCount,
		TurnCount:     len(sess.history),
		Sources:       sources,
	}, nil
}

// Destroy releases the session's indices and corpus. Destroying an already
// destroyed session is a no-op; any other operation on the ID fails with
// ErrSessionClosed afterwards.
func (s *SessionService) Destroy(_ context.Context, sessionID string) error {
	sess, err := s.get(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return nil
	}
	sess.closed = true

	errs := []error{
		sess.dense.Close(),
		sess.sparse.Close(),
		sess.corpus.Close(),
	}
	sess.history = nil

	logger.Debug("Destroyed session %s", sessionID)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("destroy session %s: %w", sessionID, err)
	}
	return nil
}

// get looks a session up by ID.
func (s *SessionService) get(sessionID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	return sess, nil
}

// answerPrompt loads the answer system prompt, falling back to the
// hardcoded default.
func (s *SessionService) answerPrompt() string {
	if s.prompts == nil {
		return defaultAnswerPrompt
	}
	prompt, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil || strings.TrimSpace(prompt) == "" {
		logger.Debug("Using default answer prompt: %v", err)
		return defaultAnswerPrompt
	}
	return prompt
}

// buildContext renders retrieved passages into the prompt context block,
// each headed by its source file and page.
func buildContext(passages []domain.ScoredChunk) string {
	if len(passages) == 0 {
		return "(no relevant passages found)"
	}
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s p.%d]\n%s", p.Chunk.Source, p.Chunk.Page, p.Chunk.Content)
	}
	return b.String()
}
