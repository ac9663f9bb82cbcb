// Package ollama provides a generative service adapter using Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// Ensure GenerativeService implements the interface.
var _ driven.GenerativeService = (*GenerativeService)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "http://localhost:11434"
	DefaultModel     = "llama3.2"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 256

	providerName = "ollama"
)

// Config holds configuration for the Ollama generative service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// MaxTokens caps the completion length (default: 256).
	MaxTokens int

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// GenerativeService produces completions using Ollama.
type GenerativeService struct {
	client    *http.Client
	baseURL   string
	model     string
	maxTokens int
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options options `json:"options"`
}

type options struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewGenerativeService creates a new Ollama generative service.
func NewGenerativeService(cfg Config) *GenerativeService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &GenerativeService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Generate produces a completion for prompt.
func (s *GenerativeService) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	jsonBody, err := json.Marshal(generateRequest{
		Model:   s.model,
		Prompt:  prompt,
		Options: options{NumPredict: s.maxTokens},
	})
	if err != nil {
		return domain.Generation{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return domain.Generation{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.Generation{}, fmt.Errorf("%w: ollama: send request: %w", domain.ErrGenerativeCapability, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Generation{}, fmt.Errorf("%w: ollama error (status %d): %s",
			domain.ErrGenerativeCapability, resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return domain.Generation{}, fmt.Errorf("%w: ollama: decode response: %w", domain.ErrGenerativeCapability, err)
	}

	text := strings.TrimSpace(genResp.Response)
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

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (s *GenerativeService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *GenerativeService) Close() error {
	return nil
}
