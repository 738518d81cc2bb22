package services

import (
	"fmt"
	"os"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedRPS       = "embedding.requests_per_second"
	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyKPerIndex      = "retrieval.k_per_index"
	keyKCombined      = "retrieval.k_combined"
	keyFusion         = "retrieval.fusion"
	keyChunkerPerc    = "chunker.breakpoint_percentile"
	keyChunkerBuffer  = "chunker.buffer_size"
	keyRefinerWindow  = "refiner.history_window"
	keyEmbedTimeout   = "timeouts.embed_seconds"
	keyRefineTimeout  = "timeouts.refine_seconds"
	keyRetrTimeout    = "timeouts.retrieve_seconds"
	keyAnswerTimeout  = "timeouts.answer_seconds"
	keyHistoryEnabled = "history.enabled"
	keyHistoryPath    = "history.path"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			RequestsPerSecond: s.configStore.GetFloat64(keyEmbedRPS),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			KPerIndex: s.getInt(keyKPerIndex, defaults.Retrieval.KPerIndex),
			KCombined: s.getInt(keyKCombined, defaults.Retrieval.KCombined),
			Fusion:    s.getFusion(defaults.Retrieval.Fusion),
		},
		Chunker: domain.ChunkerSettings{
			BreakpointPercentile: s.getFloat(keyChunkerPerc, defaults.Chunker.BreakpointPercentile),
			BufferSize:           s.getIntAllowZero(keyChunkerBuffer, defaults.Chunker.BufferSize),
		},
		Refiner: domain.RefinerSettings{
			HistoryWindow: s.getInt(keyRefinerWindow, defaults.Refiner.HistoryWindow),
		},
		Timeouts: domain.TimeoutSettings{
			EmbedSeconds:    s.configStore.GetInt(keyEmbedTimeout),
			RefineSeconds:   s.configStore.GetInt(keyRefineTimeout),
			RetrieveSeconds: s.configStore.GetInt(keyRetrTimeout),
			AnswerSeconds:   s.configStore.GetInt(keyAnswerTimeout),
		},
		History: domain.HistorySettings{
			Enabled: s.getBool(keyHistoryEnabled, defaults.History.Enabled),
			Path:    s.configStore.GetString(keyHistoryPath),
		},
	}

	// Environment variables (including any .env loaded at startup) back
	// the stored config, so cloud keys never have to land on disk.
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = envAPIKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = envAPIKey(settings.LLM.Provider)
	}
	if settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = envBaseURL(settings.Embedding.Provider)
	}
	if settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = envBaseURL(settings.LLM.Provider)
	}

	return settings, nil
}

// envAPIKey returns the conventional API key variable for a provider.
func envAPIKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case domain.AIProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}

// envBaseURL returns the conventional endpoint variable for a provider.
// Anthropic has a fixed endpoint and no override.
func envBaseURL(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return os.Getenv("OPENAI_BASE_URL")
	case domain.AIProviderOllama:
		return os.Getenv("OLLAMA_HOST")
	default:
		return ""
	}
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save embedding settings
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.Embedding.RequestsPerSecond > 0 {
		if err := s.configStore.Set(keyEmbedRPS, settings.Embedding.RequestsPerSecond); err != nil {
			return fmt.Errorf("save embedding requests_per_second: %w", err)
		}
	}

	// Save LLM settings
	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	// Save retrieval settings
	if err := s.configStore.Set(keyKPerIndex, settings.Retrieval.KPerIndex); err != nil {
		return fmt.Errorf("save retrieval k_per_index: %w", err)
	}
	if err := s.configStore.Set(keyKCombined, settings.Retrieval.KCombined); err != nil {
		return fmt.Errorf("save retrieval k_combined: %w", err)
	}
	if err := s.configStore.Set(keyFusion, settings.Retrieval.Fusion.String()); err != nil {
		return fmt.Errorf("save retrieval fusion: %w", err)
	}

	// Save chunker settings
	if err := s.configStore.Set(keyChunkerPerc, settings.Chunker.BreakpointPercentile); err != nil {
		return fmt.Errorf("save chunker breakpoint_percentile: %w", err)
	}
	if err := s.configStore.Set(keyChunkerBuffer, settings.Chunker.BufferSize); err != nil {
		return fmt.Errorf("save chunker buffer_size: %w", err)
	}

	// Save refiner settings
	if err := s.configStore.Set(keyRefinerWindow, settings.Refiner.HistoryWindow); err != nil {
		return fmt.Errorf("save refiner history_window: %w", err)
	}

	// Save timeouts (only explicit overrides; zero means default)
	timeouts := map[string]int{
		keyEmbedTimeout:  settings.Timeouts.EmbedSeconds,
		keyRefineTimeout: settings.Timeouts.RefineSeconds,
		keyRetrTimeout:   settings.Timeouts.RetrieveSeconds,
		keyAnswerTimeout: settings.Timeouts.AnswerSeconds,
	}
	for key, seconds := range timeouts {
		if seconds <= 0 {
			continue
		}
		if err := s.configStore.Set(key, seconds); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	// Save history settings
	if err := s.configStore.Set(keyHistoryEnabled, settings.History.Enabled); err != nil {
		return fmt.Errorf("save history enabled: %w", err)
	}
	if settings.History.Path != "" {
		if err := s.configStore.Set(keyHistoryPath, settings.History.Path); err != nil {
			return fmt.Errorf("save history path: %w", err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate provider supports embeddings
	validProviders := domain.AllEmbeddingProviders()
	valid := false
	for _, p := range validProviders {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		defaults := domain.DefaultEmbeddingModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.Embedding.Model = defaultModel
		}
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		// Local providers need a base URL
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.Embedding.BaseURL = ""
	}

	// Set API key
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else {
		defaults := domain.DefaultLLMModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.LLM.Model = defaultModel
		}
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		// Local providers need a base URL
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.LLM.BaseURL = ""
	}

	// Set API key
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that current settings can run the retrieval pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	// Ingestion embeds chunks; without an embedding provider nothing can
	// be added to a session.
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider is not configured (run `paperchat settings`)")
	}

	if settings.Retrieval.KPerIndex < 1 {
		return fmt.Errorf("retrieval.k_per_index must be at least 1, got %d", settings.Retrieval.KPerIndex)
	}
	if settings.Retrieval.KCombined < 1 {
		return fmt.Errorf("retrieval.k_combined must be at least 1, got %d", settings.Retrieval.KCombined)
	}
	if !settings.Retrieval.Fusion.IsValid() {
		return fmt.Errorf("invalid retrieval.fusion: %s", settings.Retrieval.Fusion)
	}

	if p := settings.Chunker.BreakpointPercentile; p <= 0 || p > 100 {
		return fmt.Errorf("chunker.breakpoint_percentile must be in (0, 100], got %v", p)
	}
	if settings.Chunker.BufferSize < 0 {
		return fmt.Errorf("chunker.buffer_size must be >= 0, got %d", settings.Chunker.BufferSize)
	}

	if settings.Refiner.HistoryWindow < 1 {
		return fmt.Errorf("refiner.history_window must be at least 1, got %d", settings.Refiner.HistoryWindow)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero treats an explicitly stored zero as a value, not an
// absence; the chunker's buffer_size legitimately takes zero.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat64(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getFusion(defaultVal domain.FusionMethod) domain.FusionMethod {
	val := s.configStore.GetString(keyFusion)
	if val == "" {
		return defaultVal
	}
	method := domain.FusionMethod(val)
	if !method.IsValid() {
		return defaultVal
	}
	return method
}

// ChunkerConfig renders the chunker settings as the post-processor
// pipeline's per-processor config map.
func (s *SettingsService) ChunkerConfig() map[string]any {
	settings, err := s.Get()
	if err != nil {
		return nil
	}
	return map[string]any{
		"breakpoint_percentile": settings.Chunker.BreakpointPercentile,
		"buffer_size":           settings.Chunker.BufferSize,
	}
}
