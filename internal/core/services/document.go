package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
	"github.com/custodia-labs/reportrag/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService registers report PDFs and hands them to ingestion.
type DocumentService struct {
	docs      driven.DocumentStore
	companies driven.CompanyStore
	blobs     driven.BlobStore
	ingestion driving.IngestionService
	now       func() time.Time
}

// NewDocumentService creates a new document service.
// The companies store is optional; when set, registrations are checked against it.
func NewDocumentService(
	docs driven.DocumentStore,
	companies driven.CompanyStore,
	blobs driven.BlobStore,
	ingestion driving.IngestionService,
) *DocumentService {
	return &DocumentService{
		docs:      docs,
		companies: companies,
		blobs:     blobs,
		ingestion: ingestion,
		now:       time.Now,
	}
}

// Register stores a pending record for the PDF and queues it for ingestion.
// Identical bytes already registered for the company return the existing
// record. Identical bytes already indexed for another record reuse its
// artifacts without ingesting again.
func (s *DocumentService) Register(ctx context.Context, req driving.RegisterRequest) (*domain.Document, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	hash := ContentHash(req.Data)
	existing, err := s.docs.GetByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("find by hash: %w", err)
	}
	var indexed *domain.Document
	for i := range existing {
		if existing[i].CompanyID == req.CompanyID {
			logger.Debug("Document %s already registered as %s", req.FileName, existing[i].ID)
			return &existing[i], nil
		}
		if indexed == nil && existing[i].IsIndexed() {
			indexed = &existing[i]
		}
	}

	if err := s.blobs.Put(ctx, hash, req.Data); err != nil {
		return nil, fmt.Errorf("store pdf: %w", err)
	}

	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}
	now := s.now()
	doc := &domain.Document{
		ID:         uuid.NewString(),
		CompanyID:  req.CompanyID,
		FileName:   filepath.Base(req.FileName),
		FileHash:   hash,
		FileSize:   int64(len(req.Data)),
		Source:     source,
		ReportYear: req.ReportYear,
		Active:     true,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.docs.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	if indexed != nil {
		return s.repoint(ctx, doc, indexed)
	}

	if _, err := s.ingestion.Submit(ctx, doc.ID, req.Data); err != nil {
		return nil, fmt.Errorf("submit ingestion: %w", err)
	}
	return doc, nil
}

// repoint shares the artifacts of an indexed twin with doc.
func (s *DocumentService) repoint(ctx context.Context, doc, twin *domain.Document) (*domain.Document, error) {
	year := doc.ReportYear
	if year == nil {
		year = twin.ReportYear
	}
	if err := s.docs.UpdateIndex(ctx, doc.ID, twin.ChunkIndexPath, twin.DocumentIndexPath, year); err != nil {
		return nil, fmt.Errorf("update index: %w", err)
	}
	if err := s.docs.UpdateStatus(ctx, doc.ID, domain.StatusSuccess, 0, ""); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	logger.Info("Document %s reuses the index of %s", doc.ID, twin.ID)
	return s.docs.Get(ctx, doc.ID)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.docs.Get(ctx, id)
}

// List returns documents matching the filter.
func (s *DocumentService) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	return s.docs.List(ctx, filter)
}

// SetActive toggles whether the document is an evaluation candidate.
func (s *DocumentService) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := s.docs.Get(ctx, id); err != nil {
		return err
	}
	return s.docs.SetActive(ctx, id, active)
}

// Retry resubmits a document that is not indexed.
func (s *DocumentService) Retry(ctx context.Context, id string) error {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status == domain.StatusSuccess {
		return fmt.Errorf("document %s is already indexed: %w", id, domain.ErrInvalidInput)
	}

	data, err := s.blobs.Get(ctx, doc.FileHash)
	if err != nil {
		return fmt.Errorf("load pdf: %w", err)
	}
	if err := s.docs.UpdateStatus(ctx, id, domain.StatusPending, 0, ""); err != nil {
		return fmt.Errorf("reset status: %w", err)
	}
	if _, err := s.ingestion.Submit(ctx, id, data); err != nil {
		return fmt.Errorf("submit ingestion: %w", err)
	}
	return nil
}

func (s *DocumentService) validate(ctx context.Context, req driving.RegisterRequest) error {
	if strings.TrimSpace(req.CompanyID) == "" {
		return fmt.Errorf("company is required: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.FileName) == "" {
		return fmt.Errorf("file name is required: %w", domain.ErrInvalidInput)
	}
	if len(req.Data) == 0 {
		return fmt.Errorf("document is empty: %w", domain.ErrInvalidInput)
	}
	if req.Source != "" && !req.Source.IsValid() {
		return fmt.Errorf("unknown source %q: %w", req.Source, domain.ErrInvalidInput)
	}
	if req.ReportYear != nil && validYear(*req.ReportYear) == nil {
		return fmt.Errorf("report year %d out of range: %w", *req.ReportYear, domain.ErrInvalidInput)
	}

	if s.companies != nil {
		if _, err := s.companies.Get(ctx, req.CompanyID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("company %s: %w", req.CompanyID, domain.ErrNotFound)
			}
			return fmt.Errorf("get company: %w", err)
		}
	}
	return nil
}
