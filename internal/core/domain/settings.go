package domain

import "time"

const unknownDescription = "Unknown"

// Default configuration values for the retrieval pipeline.
const (
	// DefaultKPerIndex is how many results each index is asked for.
	DefaultKPerIndex = 5

	// DefaultKCombined caps the fused result list.
	DefaultKCombined = 6

	// DefaultHistoryWindow is how many past turns the refiner sees.
	DefaultHistoryWindow = 3

	// DefaultBreakpointPercentile is the semantic chunker's breakpoint
	// threshold percentile over each document's own distance distribution.
	DefaultBreakpointPercentile = 95.0

	// DefaultMaxUploadBytes caps a single uploaded file at 50 MB.
	DefaultMaxUploadBytes = 50 << 20

	// DefaultEmbedTimeout bounds one embedding call.
	DefaultEmbedTimeout = 60 * time.Second

	// DefaultRefineTimeout bounds one refinement call; on expiry the
	// refiner falls back to the raw message.
	DefaultRefineTimeout = 30 * time.Second

	// DefaultRetrieveTimeout bounds one hybrid retrieval call.
	DefaultRetrieveTimeout = 30 * time.Second

	// DefaultAnswerTimeout bounds one answer-generation call.
	DefaultAnswerTimeout = 120 * time.Second
)

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API, or any endpoint that
	// speaks the same protocol (many hosted inference services do).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// RequestsPerSecond throttles outbound embedding calls.
	// Zero means no throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings holds hybrid retrieval configuration.
type RetrievalSettings struct {
	// KPerIndex is how many results each index is asked for.
	KPerIndex int

	// KCombined caps the fused result list.
	KCombined int

	// Fusion is the merge strategy for the two ranked lists.
	Fusion FusionMethod
}

// Options converts the settings into per-call retrieval options.
func (r RetrievalSettings) Options() RetrievalOptions {
	return RetrievalOptions{
		KPerIndex: r.KPerIndex,
		KCombined: r.KCombined,
		Fusion:    r.Fusion,
	}
}

// ChunkerSettings holds semantic chunker configuration.
type ChunkerSettings struct {
	// BreakpointPercentile is the percentile of a document's adjacent
	// sentence distance distribution above which a breakpoint is declared.
	BreakpointPercentile float64

	// BufferSize is how many neighbour sentences are joined to each side
	// of a sentence before embedding it.
	BufferSize int
}

// RefinerSettings holds query refiner configuration.
type RefinerSettings struct {
	// HistoryWindow is how many past (question, answer) pairs the
	// refiner may use.
	HistoryWindow int
}

// TimeoutSettings bounds the externally-blocking calls.
// All values are in seconds; zero falls back to the default.
type TimeoutSettings struct {
	EmbedSeconds    int
	RefineSeconds   int
	RetrieveSeconds int
	AnswerSeconds   int
}

func secondsOr(s int, def time.Duration) time.Duration {
	if s <= 0 {
		return def
	}
	return time.Duration(s) * time.Second
}

// Embed returns the embedding call timeout.
func (t TimeoutSettings) Embed() time.Duration { return secondsOr(t.EmbedSeconds, DefaultEmbedTimeout) }

// Refine returns the refinement call timeout.
func (t TimeoutSettings) Refine() time.Duration {
	return secondsOr(t.RefineSeconds, DefaultRefineTimeout)
}

// Retrieve returns the retrieval call timeout.
func (t TimeoutSettings) Retrieve() time.Duration {
	return secondsOr(t.RetrieveSeconds, DefaultRetrieveTimeout)
}

// Answer returns the answer-generation call timeout.
func (t TimeoutSettings) Answer() time.Duration {
	return secondsOr(t.AnswerSeconds, DefaultAnswerTimeout)
}

// HistorySettings holds transcript archive configuration.
// The archive is an append-only log of completed turns; it is not index
// persistence and plays no part in retrieval.
type HistorySettings struct {
	// Enabled turns transcript archiving on.
	Enabled bool

	// Path is the sqlite database location. Empty means the default
	// under the user data directory.
	Path string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Retrieval holds hybrid retrieval settings.
	Retrieval RetrievalSettings

	// Chunker holds semantic chunker settings.
	Chunker ChunkerSettings

	// Refiner holds query refiner settings.
	Refiner RefinerSettings

	// Timeouts bounds external calls.
	Timeouts TimeoutSettings

	// History holds transcript archive settings.
	History HistorySettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers (Embedding, LLM) are left unconfigured by default;
// users set them up via `paperchat settings`.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
		Retrieval: RetrievalSettings{
			KPerIndex: DefaultKPerIndex,
			KCombined: DefaultKCombined,
			Fusion:    FusionInterleave,
		},
		Chunker: ChunkerSettings{
			BreakpointPercentile: DefaultBreakpointPercentile,
			BufferSize:           1,
		},
		Refiner: RefinerSettings{
			HistoryWindow: DefaultHistoryWindow,
		},
		Timeouts: TimeoutSettings{},
		History:  HistorySettings{},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// AllFusionMethods returns all available fusion methods.
func AllFusionMethods() []FusionMethod {
	return []FusionMethod{
		FusionInterleave,
		FusionRRF,
	}
}
