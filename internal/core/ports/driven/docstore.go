package driven

import (
	"context"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

// DocumentStore persists document records.
// It supplies retrieval candidates and records ingestion outcomes.
type DocumentStore interface {
	// Save stores or updates a document record.
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByHash returns documents whose bytes hash to fileHash.
	GetByHash(ctx context.Context, fileHash string) ([]domain.Document, error)

	// List returns documents matching the filter, oldest first.
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)

	// UpdateStatus records an ingestion attempt outcome.
	UpdateStatus(ctx context.Context, id string, status domain.ProcessingStatus, attempts int, lastErr string) error

	// UpdateIndex records index artifact paths and the report year.
	// A nil reportYear leaves the stored year unchanged.
	UpdateIndex(ctx context.Context, id, chunkIndexPath, documentIndexPath string, reportYear *int) error

	// SetActive toggles whether the document takes part in evaluations.
	SetActive(ctx context.Context, id string, active bool) error

	// Delete removes a document record.
	Delete(ctx context.Context, id string) error
}

// CompanyStore persists companies.
type CompanyStore interface {
	Save(ctx context.Context, company *domain.Company) error
	Get(ctx context.Context, id string) (*domain.Company, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Company, error)
}

// QueryStore persists evaluation queries.
type QueryStore interface {
	Save(ctx context.Context, query *domain.Query) error
	Get(ctx context.Context, id string) (*domain.Query, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Query, error)
}

// EvaluationStore persists evaluation records.
type EvaluationStore interface {
	// SaveAll stores all records in one transaction.
	SaveAll(ctx context.Context, records []domain.EvaluationRecord) error

	// ListByQuery returns records of one query and company, newest first.
	ListByQuery(ctx context.Context, companyID, queryID string) ([]domain.EvaluationRecord, error)
}
