// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	embedcache "github.com/custodia-labs/reportrag/internal/adapters/driven/embedding/cache"
	geminiembed "github.com/custodia-labs/reportrag/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/reportrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/reportrag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/reportrag/internal/adapters/driven/embedding/ratelimit"
	staticembed "github.com/custodia-labs/reportrag/internal/adapters/driven/embedding/static"
	anthropicllm "github.com/custodia-labs/reportrag/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/reportrag/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/reportrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/reportrag/internal/adapters/driven/llm/openai"
	staticllm "github.com/custodia-labs/reportrag/internal/adapters/driven/llm/static"
	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
	"github.com/custodia-labs/reportrag/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// cacheDirName is the badger directory under the data dir.
const cacheDirName = "embedding-cache"

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService  driven.EmbeddingService
	GenerativeService driven.GenerativeService // nil when unconfigured or unreachable.
	Warnings          []string                 // Non-fatal issues that dropped the generative step.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.GenerativeService != nil {
		_ = r.GenerativeService.Close()
	}
}

// Init builds both capabilities from settings. The embedding capability is
// required; a generative provider that cannot be reached is dropped with a
// warning, which makes year inference rely on metadata and patterns only.
func Init(ctx context.Context, settings domain.AppSettings) (*InitResult, error) {
	if !settings.Embedding.IsConfigured() {
		return nil, fmt.Errorf("%w: no embedding provider configured. Run 'reportrag settings set embedding.provider static' for offline use",
			domain.ErrEmbeddingUnavailable)
	}

	embedder, err := CreateEmbeddingService(ctx, &settings.Embedding, settings.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	result := &InitResult{EmbeddingService: embedder}

	llm, err := CreateAndValidateGenerativeService(ctx, &settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("generative service disabled: %v", err)
	}
	result.GenerativeService = llm

	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(ctx, settings, "")
	if err != nil || svc == nil {
		return nil, err
	}

	if err := ping(ctx, svc.Ping); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateGenerativeService creates a generative service and validates connectivity.
func CreateAndValidateGenerativeService(ctx context.Context, settings *domain.LLMSettings) (driven.GenerativeService, error) {
	svc, err := CreateGenerativeService(ctx, settings)
	if err != nil || svc == nil {
		return nil, err
	}

	if err := ping(ctx, svc.Ping); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbeddingService(ctx, settings)
	if svc != nil {
		_ = svc.Close()
	}
	return err
}

// ValidateLLMConfig creates a generative service and pings it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateAndValidateGenerativeService(ctx, settings)
	if svc != nil {
		_ = svc.Close()
	}
	return err
}

// CreateEmbeddingService creates the embedding service named by settings.
// Returns nil when no provider is set. When dataDir is non-empty and the
// cache is enabled, vectors are cached under dataDir.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings, dataDir string) (driven.EmbeddingService, error) {
	if settings == nil || settings.Provider == "" {
		return nil, nil
	}
	if !settings.Provider.IsValid() || !settings.Provider.SupportsEmbeddings() {
		return nil, fmt.Errorf("%w: %s does not provide embeddings", domain.ErrUnsupportedType, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires an API key", domain.ErrEmbeddingUnavailable, settings.Provider)
	}

	var svc driven.EmbeddingService
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: embeddingDimensions(settings, ollamaembed.DefaultDimensions),
		})

	case domain.AIProviderOpenAI:
		openaiSvc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		svc = openaiSvc

	case domain.AIProviderGemini:
		geminiSvc, err := geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		svc = geminiSvc

	case domain.AIProviderStatic:
		svc = staticembed.NewEmbeddingService(settings.Dimensions)
	}

	svc = ratelimit.New(svc, settings.RequestsPerSecond)

	if settings.CacheEnabled && dataDir != "" {
		cached, err := embedcache.Open(svc, filepath.Join(dataDir, cacheDirName))
		if err != nil {
			// the cache is an optimisation; run uncached
			logger.Warn("embedding cache unavailable: %v", err)
			return svc, nil
		}
		return cached, nil
	}
	return svc, nil
}

// CreateGenerativeService creates the generative service named by settings.
// Returns nil when no provider is set.
func CreateGenerativeService(ctx context.Context, settings *domain.LLMSettings) (driven.GenerativeService, error) {
	if settings == nil || settings.Provider == "" {
		return nil, nil
	}
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires an API key", domain.ErrLLMUnavailable, settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewGenerativeService(ollamallm.Config{
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewGenerativeService(openaillm.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewGenerativeService(anthropicllm.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
		})

	case domain.AIProviderGemini:
		return geminillm.NewGenerativeService(ctx, geminillm.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
		})

	case domain.AIProviderStatic:
		// an empty answer makes year inference fall through to patterns
		return staticllm.NewGenerativeService(""), nil
	}
	return nil, errors.New("unreachable provider switch")
}

func embeddingDimensions(settings *domain.EmbeddingSettings, fallback int) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	if dims := domain.EmbeddingDimensions()[settings.Model]; dims > 0 {
		return dims
	}
	return fallback
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}
