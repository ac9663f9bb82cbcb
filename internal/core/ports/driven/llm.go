package driven

import (
	"context"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

// GenerativeService produces text from a prompt.
// It is optional - when nil, year inference skips the model step.
//
// Implementations may include:
//   - OpenAI (GPT-4o)
//   - Anthropic (Claude)
//   - Gemini
//   - Ollama (local models)
//   - Static (fixed answer, confidence 0.5)
//
// Upstream failures are wrapped with domain.ErrGenerativeCapability.
type GenerativeService interface {
	// Generate returns the completion text, a confidence in [0,1] and
	// the provider identifier.
	Generate(ctx context.Context, prompt string) (domain.Generation, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
