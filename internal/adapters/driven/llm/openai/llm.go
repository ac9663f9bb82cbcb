// Package openai provides a generative service adapter using the OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// Ensure GenerativeService implements the interface.
var _ driven.GenerativeService = (*GenerativeService)(nil)

// Default configuration values.
const (
	DefaultModel     = openai.GPT4oMini
	DefaultMaxTokens = 256

	providerName = "openai"
)

// Config holds configuration for the OpenAI generative service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API endpoint for compatible servers.
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// MaxTokens caps the completion length (default: 256).
	MaxTokens int
}

// GenerativeService produces completions using OpenAI chat models.
type GenerativeService struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewGenerativeService creates a new OpenAI generative service.
func NewGenerativeService(cfg Config) (*GenerativeService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &GenerativeService{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Generate sends prompt as a single user message.
func (s *GenerativeService) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return domain.Generation{}, fmt.Errorf("%w: openai: %w", domain.ErrGenerativeCapability, err)
	}
	if len(resp.Choices) == 0 {
		return domain.Generation{}, fmt.Errorf("%w: openai returned no choices", domain.ErrGenerativeCapability)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	return domain.Generation{
		Text:       text,
		Confidence: domain.GenerationConfidence(text, s.maxTokens),
		Provider:   providerName,
	}, nil
}

// ModelName returns the name of the model being used.
func (s *GenerativeService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models.
func (s *GenerativeService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *GenerativeService) Close() error {
	return nil
}
