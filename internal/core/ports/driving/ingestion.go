package driving

import (
	"context"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

// IngestionService is the asynchronous ingestion entry point.
// Delivery is at-least-once; duplicate submissions are safe.
type IngestionService interface {
	// Submit queues the document bytes for ingestion and returns a task ID.
	Submit(ctx context.Context, documentID string, data []byte) (string, error)

	// Wait blocks until every submitted task reached a terminal status
	// or ctx is done.
	Wait(ctx context.Context) error

	// Close stops accepting submissions and drains running work.
	Close() error
}

// IngestionRunner is the synchronous, re-entrant unit of ingestion work.
type IngestionRunner interface {
	// Ingest parses, embeds and indexes one document. It has no retry logic.
	Ingest(ctx context.Context, documentID string, data []byte) (*domain.IngestionResult, error)
}
