package domain

import "time"

const unknownDescription = "Unknown"

// Retrieval and chunking policy defaults.
const (
	// DefaultTopK is the number of chunks returned per surviving document.
	DefaultTopK = 5

	// DefaultSimilarityThreshold is the minimum document-level cosine score.
	// Scores equal to the threshold are kept.
	DefaultSimilarityThreshold = 0.7

	// DefaultChunkWindow is the number of paragraphs per text chunk.
	DefaultChunkWindow = 3

	// DefaultChunkOverlap is the number of paragraphs shared by adjacent chunks.
	DefaultChunkOverlap = 1
)

// Ingestion defaults.
const (
	DefaultIngestionWorkers = 2
	DefaultMaxRetries       = 5
	DefaultBaseBackoff      = time.Second
	DefaultMaxBackoff       = 30 * time.Second
)

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderStatic is a deterministic offline provider.
	AIProviderStatic AIProvider = "static"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini, AIProviderStatic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs without a network account.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderStatic
}

// SupportsEmbeddings returns true if the provider can produce vectors.
func (p AIProvider) SupportsEmbeddings() bool {
	return p != AIProviderAnthropic && p.IsValid()
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
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	case AIProviderStatic:
		return "Static (offline, deterministic)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `validate:"omitempty,oneof=ollama openai gemini static"`

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string `validate:"omitempty,url"`

	// APIKey is the API key (for cloud providers).
	APIKey string

	// Dimensions overrides the model's default vector size.
	Dimensions int `validate:"gte=0"`

	// RequestsPerSecond throttles embedding calls. Zero disables throttling.
	RequestsPerSecond float64 `validate:"gte=0"`

	// CacheEnabled stores vectors keyed by model and text.
	CacheEnabled bool
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
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
	Provider AIProvider `validate:"omitempty,oneof=ollama openai anthropic gemini static"`

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string `validate:"omitempty,url"`

	// APIKey is the API key (for cloud providers).
	APIKey string

	// MaxTokens bounds generated answers; it also scales confidence.
	MaxTokens int `validate:"gte=0"`
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

// RetrievalSettings holds the retrieval policy.
type RetrievalSettings struct {
	TopK                  int     `validate:"gte=1"`
	SimilarityThreshold   float64 `validate:"gte=-1,lte=1"`
	FilterByDocumentIndex bool
	ExtendedSearch        bool
}

// ChunkSettings holds the paragraph window used for text chunks.
type ChunkSettings struct {
	Window  int `validate:"gte=1,gtfield=Overlap"`
	Overlap int `validate:"gte=0"`
}

// Validate checks window > overlap >= 0.
func (c ChunkSettings) Validate() error {
	if c.Overlap < 0 || c.Window <= c.Overlap {
		return ErrInvalidChunkConfig
	}
	return nil
}

// IngestionSettings holds the ingestion queue policy.
type IngestionSettings struct {
	Workers     int           `validate:"gte=1"`
	MaxRetries  int           `validate:"gte=0"`
	BaseBackoff time.Duration `validate:"gte=0"`
	MaxBackoff  time.Duration `validate:"gtefield=BaseBackoff"`
	// RescanSchedule is a cron spec for the watch command's inbox rescan.
	RescanSchedule string
}

// StorageSettings holds on-disk locations.
type StorageSettings struct {
	// IndexDir holds the content-hash named index artifacts.
	IndexDir string
	// DataDir holds the record database and embedding cache.
	DataDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Chunking  ChunkSettings
	Ingestion IngestionSettings
	Storage   StorageSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; storage paths are resolved by the caller.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM: LLMSettings{
			MaxTokens: 256,
		},
		Retrieval: RetrievalSettings{
			TopK:                  DefaultTopK,
			SimilarityThreshold:   DefaultSimilarityThreshold,
			FilterByDocumentIndex: true,
			ExtendedSearch:        true,
		},
		Chunking: ChunkSettings{
			Window:  DefaultChunkWindow,
			Overlap: DefaultChunkOverlap,
		},
		Ingestion: IngestionSettings{
			Workers:        DefaultIngestionWorkers,
			MaxRetries:     DefaultMaxRetries,
			BaseBackoff:    DefaultBaseBackoff,
			MaxBackoff:     DefaultMaxBackoff,
			RescanSchedule: "@every 5m",
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
		AIProviderStatic,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
		AIProviderStatic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
		AIProviderStatic: "static-hash",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
		AIProviderGemini:    "gemini-2.0-flash",
		AIProviderStatic:    "static",
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
		// Gemini models
		"text-embedding-004": 768,
		// Offline
		"static-hash": 64,
	}
}
