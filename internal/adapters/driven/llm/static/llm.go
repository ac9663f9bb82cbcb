// Package static provides an offline generative service with a fixed answer.
package static

import (
	"context"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// Ensure GenerativeService implements the interface.
var _ driven.GenerativeService = (*GenerativeService)(nil)

// ProviderName is reported on every generation.
const ProviderName = "static"

// GenerativeService answers every prompt with the same text.
type GenerativeService struct {
	answer string
}

// NewGenerativeService creates a static service answering with answer.
// An empty answer makes year inference fall through to the next source.
func NewGenerativeService(answer string) *GenerativeService {
	return &GenerativeService{answer: answer}
}

// Generate returns the fixed answer with confidence 0.5.
func (s *GenerativeService) Generate(ctx context.Context, _ string) (domain.Generation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Generation{}, err
	}
	return domain.Generation{
		Text:       s.answer,
		Confidence: domain.StaticConfidence,
		Provider:   ProviderName,
	}, nil
}

// ModelName returns the model identifier.
func (s *GenerativeService) ModelName() string {
	return ProviderName
}

// Ping always succeeds.
func (s *GenerativeService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *GenerativeService) Close() error {
	return nil
}
