// Package gemini provides a generative service adapter using the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// Ensure GenerativeService implements the interface.
var _ driven.GenerativeService = (*GenerativeService)(nil)

// Default configuration values.
const (
	DefaultModel     = "gemini-2.0-flash"
	DefaultMaxTokens = 256

	providerName = "gemini"
)

// Config holds configuration for the Gemini generative service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the model to use (default: gemini-2.0-flash).
	Model string

	// MaxTokens caps the completion length (default: 256).
	MaxTokens int
}

// GenerativeService produces completions using Gemini models.
type GenerativeService struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGenerativeService creates a new Gemini generative service.
func NewGenerativeService(ctx context.Context, cfg Config) (*GenerativeService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &GenerativeService{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Generate sends prompt as a single user turn.
func (s *GenerativeService) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: int32(s.maxTokens),
	})
	if err != nil {
		return domain.Generation{}, fmt.Errorf("%w: gemini: %w", domain.ErrGenerativeCapability, err)
	}

	text := strings.TrimSpace(resp.Text())
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

// Ping validates the key by fetching the model description.
func (s *GenerativeService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model, nil); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *GenerativeService) Close() error {
	return nil
}
