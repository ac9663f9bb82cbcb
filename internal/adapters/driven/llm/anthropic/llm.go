// Package anthropic provides a generative service adapter using the Anthropic API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// Ensure GenerativeService implements the interface.
var _ driven.GenerativeService = (*GenerativeService)(nil)

// Default configuration values.
const (
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultMaxTokens = 256

	providerName = "anthropic"
)

// Config holds configuration for the Anthropic generative service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the model to use (default: claude-3-5-haiku-latest).
	Model string

	// MaxTokens caps the completion length (default: 256).
	MaxTokens int

	// MaxRetries overrides the client's retry count when positive.
	MaxRetries int
}

// GenerativeService produces completions using Claude models.
type GenerativeService struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewGenerativeService creates a new Anthropic generative service.
func NewGenerativeService(cfg Config) (*GenerativeService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	return &GenerativeService{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Generate sends prompt as a single user message and joins the text blocks
// of the reply.
func (s *GenerativeService) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return domain.Generation{}, fmt.Errorf("%w: anthropic: %w", domain.ErrGenerativeCapability, err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return domain.Generation{}, fmt.Errorf("%w: anthropic returned no text", domain.ErrGenerativeCapability)
	}

	text := strings.TrimSpace(b.String())
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
	if _, err := s.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *GenerativeService) Close() error {
	return nil
}
