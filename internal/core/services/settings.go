package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDimensions = "embedding.dimensions"
	keyEmbedRPS        = "embedding.requests_per_second"
	keyEmbedCache      = "embedding.cache"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMMaxTokens    = "llm.max_tokens"
	keyTopK            = "retrieval.top_k"
	keyThreshold       = "retrieval.similarity_threshold"
	keyDocFilter       = "retrieval.filter_by_document_index"
	keyExtendedSearch  = "retrieval.extended_search"
	keyChunkWindow     = "chunking.window"
	keyChunkOverlap    = "chunking.overlap"
	keyWorkers         = "ingestion.workers"
	keyMaxRetries      = "ingestion.max_retries"
	keyBaseBackoff     = "ingestion.base_backoff"
	keyMaxBackoff      = "ingestion.max_backoff"
	keyRescanSchedule  = "ingestion.rescan_schedule"
	keyIndexDir        = "storage.index_dir"
	keyDataDir         = "storage.data_dir"
)

// apiKeyEnv maps cloud providers to the environment variable consulted
// when no API key is configured.
var apiKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
	domain.AIProviderGemini:    "GEMINI_API_KEY",
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	validate    *validator.Validate
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	llmProvider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          embedProvider,
			Model:             s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[embedProvider]),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // empty is valid for cloud providers
			APIKey:            s.apiKey(keyEmbedAPIKey, embedProvider),
			Dimensions:        s.configStore.GetInt(keyEmbedDimensions),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
			CacheEnabled:      s.getBool(keyEmbedCache, defaults.Embedding.CacheEnabled),
		},
		LLM: domain.LLMSettings{
			Provider:  llmProvider,
			Model:     s.getString(keyLLMModel, domain.DefaultLLMModels()[llmProvider]),
			BaseURL:   s.configStore.GetString(keyLLMBaseURL),
			APIKey:    s.apiKey(keyLLMAPIKey, llmProvider),
			MaxTokens: s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:                  s.getInt(keyTopK, defaults.Retrieval.TopK),
			SimilarityThreshold:   s.getFloat(keyThreshold, defaults.Retrieval.SimilarityThreshold),
			FilterByDocumentIndex: s.getBool(keyDocFilter, defaults.Retrieval.FilterByDocumentIndex),
			ExtendedSearch:        s.getBool(keyExtendedSearch, defaults.Retrieval.ExtendedSearch),
		},
		Chunking: domain.ChunkSettings{
			Window:  s.getInt(keyChunkWindow, defaults.Chunking.Window),
			Overlap: s.getCount(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Ingestion: domain.IngestionSettings{
			Workers:        s.getInt(keyWorkers, defaults.Ingestion.Workers),
			MaxRetries:     s.getCount(keyMaxRetries, defaults.Ingestion.MaxRetries),
			BaseBackoff:    s.getDuration(keyBaseBackoff, defaults.Ingestion.BaseBackoff),
			MaxBackoff:     s.getDuration(keyMaxBackoff, defaults.Ingestion.MaxBackoff),
			RescanSchedule: s.getString(keyRescanSchedule, defaults.Ingestion.RescanSchedule),
		},
		Storage: domain.StorageSettings{
			IndexDir: s.getString(keyIndexDir, s.defaultDir("indexes")),
			DataDir:  s.getString(keyDataDir, s.defaultDir("data")),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyEmbedCache, settings.Embedding.CacheEnabled},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyTopK, settings.Retrieval.TopK},
		{keyThreshold, settings.Retrieval.SimilarityThreshold},
		{keyDocFilter, settings.Retrieval.FilterByDocumentIndex},
		{keyExtendedSearch, settings.Retrieval.ExtendedSearch},
		{keyChunkWindow, settings.Chunking.Window},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyWorkers, settings.Ingestion.Workers},
		{keyMaxRetries, settings.Ingestion.MaxRetries},
		{keyBaseBackoff, settings.Ingestion.BaseBackoff.String()},
		{keyMaxBackoff, settings.Ingestion.MaxBackoff.String()},
		{keyRescanSchedule, settings.Ingestion.RescanSchedule},
		{keyIndexDir, settings.Storage.IndexDir},
		{keyDataDir, settings.Storage.DataDir},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are only written when set, so env-provided keys never land on disk.
	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != s.envKey(settings.Embedding.Provider) {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.APIKey != "" && settings.LLM.APIKey != s.envKey(settings.LLM.Provider) {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// Set updates one setting by its dot-notation key.
// The value is parsed for the key's type and the resulting settings
// must still validate before anything is stored.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	stored, err := applySetting(settings, key, value)
	if err != nil {
		return err
	}
	if err := s.check(settings); err != nil {
		return err
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every key accepted by Set, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrUnsupportedType, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if apiKey == "" {
		apiKey = s.envKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	// A model change invalidates an explicit dimension override.
	settings.Embedding.Dimensions = 0
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if apiKey == "" {
		apiKey = s.envKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks the current settings for consistency.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := s.check(settings); err != nil {
		return err
	}

	if settings.Embedding.Provider != "" && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s is not fully configured",
			domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %s is not fully configured",
			domain.ErrInvalidInput, settings.LLM.Provider)
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

// check runs the struct tag rules and the chunk window rule.
func (s *SettingsService) check(settings *domain.AppSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("%w: %s fails %q", domain.ErrInvalidInput, f.Namespace(), f.Tag())
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := settings.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking: %w", err)
	}
	return nil
}

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindProvider
)

var settingKinds = map[string]settingKind{
	keyEmbedProvider:   kindProvider,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindString,
	keyEmbedDimensions: kindInt,
	keyEmbedRPS:        kindFloat,
	keyEmbedCache:      kindBool,
	keyLLMProvider:     kindProvider,
	keyLLMModel:        kindString,
	keyLLMBaseURL:      kindString,
	keyLLMAPIKey:       kindString,
	keyLLMMaxTokens:    kindInt,
	keyTopK:            kindInt,
	keyThreshold:       kindFloat,
	keyDocFilter:       kindBool,
	keyExtendedSearch:  kindBool,
	keyChunkWindow:     kindInt,
	keyChunkOverlap:    kindInt,
	keyWorkers:         kindInt,
	keyMaxRetries:      kindInt,
	keyBaseBackoff:     kindDuration,
	keyMaxBackoff:      kindDuration,
	keyRescanSchedule:  kindString,
	keyIndexDir:        kindString,
	keyDataDir:         kindString,
}

// applySetting parses value for key, applies it to settings and returns
// the value to store.
func applySetting(settings *domain.AppSettings, key, value string) (any, error) {
	kind, ok := settingKinds[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var (
		i   int
		f   float64
		b   bool
		d   time.Duration
		err error
	)
	switch kind {
	case kindInt:
		i, err = strconv.Atoi(value)
	case kindFloat:
		f, err = strconv.ParseFloat(value, 64)
	case kindBool:
		b, err = strconv.ParseBool(value)
	case kindDuration:
		d, err = time.ParseDuration(value)
	case kindProvider:
		if value != "" && !domain.AIProvider(value).IsValid() {
			err = errors.New("unknown provider")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q: %v", domain.ErrInvalidInput, key, value, err)
	}

	switch key {
	case keyEmbedProvider:
		settings.Embedding.Provider = domain.AIProvider(value)
	case keyEmbedModel:
		settings.Embedding.Model = value
	case keyEmbedBaseURL:
		settings.Embedding.BaseURL = value
	case keyEmbedAPIKey:
		settings.Embedding.APIKey = value
	case keyEmbedDimensions:
		settings.Embedding.Dimensions = i
	case keyEmbedRPS:
		settings.Embedding.RequestsPerSecond = f
	case keyEmbedCache:
		settings.Embedding.CacheEnabled = b
	case keyLLMProvider:
		settings.LLM.Provider = domain.AIProvider(value)
	case keyLLMModel:
		settings.LLM.Model = value
	case keyLLMBaseURL:
		settings.LLM.BaseURL = value
	case keyLLMAPIKey:
		settings.LLM.APIKey = value
	case keyLLMMaxTokens:
		settings.LLM.MaxTokens = i
	case keyTopK:
		settings.Retrieval.TopK = i
	case keyThreshold:
		settings.Retrieval.SimilarityThreshold = f
	case keyDocFilter:
		settings.Retrieval.FilterByDocumentIndex = b
	case keyExtendedSearch:
		settings.Retrieval.ExtendedSearch = b
	case keyChunkWindow:
		settings.Chunking.Window = i
	case keyChunkOverlap:
		settings.Chunking.Overlap = i
	case keyWorkers:
		settings.Ingestion.Workers = i
	case keyMaxRetries:
		settings.Ingestion.MaxRetries = i
	case keyBaseBackoff:
		settings.Ingestion.BaseBackoff = d
	case keyMaxBackoff:
		settings.Ingestion.MaxBackoff = d
	case keyRescanSchedule:
		settings.Ingestion.RescanSchedule = value
	case keyIndexDir:
		settings.Storage.IndexDir = value
	case keyDataDir:
		settings.Storage.DataDir = value
	}

	switch kind {
	case kindInt:
		return i, nil
	case kindFloat:
		return f, nil
	case kindBool:
		return b, nil
	case kindDuration:
		return d.String(), nil
	default:
		return value, nil
	}
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a configured endpoint for Ollama and clears it for
// providers that talk to a fixed cloud API.
func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		return ""
	}
	if current == "" {
		return "http://localhost:11434"
	}
	return current
}

func (s *SettingsService) envKey(provider domain.AIProvider) string {
	name, ok := apiKeyEnv[provider]
	if !ok || s.getenv == nil {
		return ""
	}
	return s.getenv(name)
}

// apiKey returns the configured key, falling back to the provider's
// environment variable.
func (s *SettingsService) apiKey(key string, provider domain.AIProvider) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return s.envKey(provider)
}

// defaultDir places storage next to the config file.
func (s *SettingsService) defaultDir(name string) string {
	path := s.configStore.Path()
	if path == "" || path == ":memory:" {
		return ""
	}
	return filepath.Join(filepath.Dir(path), name)
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

// getCount is getInt for settings where zero is a meaningful value.
func (s *SettingsService) getCount(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetDuration(key)
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
