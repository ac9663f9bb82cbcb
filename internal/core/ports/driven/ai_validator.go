package driven

import "github.com/custodia-labs/reportrag/internal/core/domain"

// AIConfigValidator validates AI provider configurations before they are saved.
// Implementations build the provider and ping it.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider described by config.
	// Returns nil if configuration is valid or not configured.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the generative provider described by config.
	// Returns nil if configuration is valid or not configured.
	ValidateLLM(config *domain.LLMSettings) error
}
