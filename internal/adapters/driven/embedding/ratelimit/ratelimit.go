// Package ratelimit throttles calls to an embedding provider.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService waits on a token bucket before each upstream call.
// A batch counts as one request.
type EmbeddingService struct {
	inner  driven.EmbeddingService
	bucket *rate.Limiter
}

// New wraps inner with a limiter of requestsPerSecond and a burst of one.
// A non-positive rate disables throttling and returns inner unchanged.
func New(inner driven.EmbeddingService, requestsPerSecond float64) driven.EmbeddingService {
	if requestsPerSecond <= 0 {
		return inner
	}
	return &EmbeddingService{
		inner:  inner,
		bucket: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Embed waits for a token and embeds text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Embed(ctx, text)
}

// EmbedBatch waits for a token and embeds texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the inner service's vector size.
func (s *EmbeddingService) Dimensions() int { return s.inner.Dimensions() }

// ModelName returns the inner service's model name.
func (s *EmbeddingService) ModelName() string { return s.inner.ModelName() }

// Ping is not throttled.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes the inner service.
func (s *EmbeddingService) Close() error { return s.inner.Close() }

func (s *EmbeddingService) wait(ctx context.Context) error {
	if err := s.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("embedding rate limit: %w", err)
	}
	return nil
}
