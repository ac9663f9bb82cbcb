package driving

import (
	"context"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

// RetrievalService runs the two-stage retrieval for one query.
type RetrievalService interface {
	// Retrieve returns data points ordered by document, then ascending distance.
	// An empty result is not an error.
	Retrieve(ctx context.Context, req domain.RetrievalRequest) ([]domain.RetrievalDataPoint, error)
}

// EvaluationService is the synchronous query entry point.
type EvaluationService interface {
	// Evaluate retrieves data points for the request, persists them and
	// returns the result envelope.
	Evaluate(ctx context.Context, req domain.EvaluationRequest) (*domain.EvaluationResult, error)

	// EvaluateAll runs every active query against every active company.
	// Failures of one pair are logged and skipped.
	EvaluateAll(ctx context.Context, user string) ([]domain.EvaluationResult, error)

	// History returns stored records for a company and query.
	History(ctx context.Context, companyID, queryID string) ([]domain.EvaluationRecord, error)
}
