package driving

import (
	"context"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

// RegisterRequest describes a PDF to add to the corpus.
type RegisterRequest struct {
	CompanyID  string
	FileName   string
	Source     domain.DocumentSource
	ReportYear *int
	Data       []byte
}

// DocumentService manages document records.
type DocumentService interface {
	// Register stores a pending document record for the bytes and submits
	// it for ingestion. Re-registering identical bytes for the same company
	// returns the existing record.
	Register(ctx context.Context, req RegisterRequest) (*domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns documents matching the filter.
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)

	// SetActive toggles whether the document is an evaluation candidate.
	SetActive(ctx context.Context, id string, active bool) error

	// Retry resubmits a failed document.
	Retry(ctx context.Context, id string) error
}

// CatalogService manages companies and queries.
type CatalogService interface {
	AddCompany(ctx context.Context, name string) (*domain.Company, error)
	ListCompanies(ctx context.Context) ([]domain.Company, error)
	AddQuery(ctx context.Context, name, question string) (*domain.Query, error)
	ListQueries(ctx context.Context) ([]domain.Query, error)
}
