package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService manages companies and the queries evaluated against them.
type CatalogService struct {
	companies driven.CompanyStore
	queries   driven.QueryStore
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(companies driven.CompanyStore, queries driven.QueryStore) *CatalogService {
	return &CatalogService{companies: companies, queries: queries}
}

// AddCompany creates an active company.
func (s *CatalogService) AddCompany(ctx context.Context, name string) (*domain.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("company name is required: %w", domain.ErrInvalidInput)
	}

	company := &domain.Company{
		ID:        uuid.NewString(),
		Name:      name,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := s.companies.Save(ctx, company); err != nil {
		return nil, fmt.Errorf("save company: %w", err)
	}
	return company, nil
}

// ListCompanies returns all companies.
func (s *CatalogService) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	return s.companies.List(ctx, false)
}

// AddQuery creates an active query. An empty name defaults to the question.
func (s *CatalogService) AddQuery(ctx context.Context, name, question string) (*domain.Query, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required: %w", domain.ErrInvalidInput)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = question
	}

	query := &domain.Query{
		ID:        uuid.NewString(),
		Name:      name,
		Question:  question,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := s.queries.Save(ctx, query); err != nil {
		return nil, fmt.Errorf("save query: %w", err)
	}
	return query, nil
}

// ListQueries returns all queries.
func (s *CatalogService) ListQueries(ctx context.Context) ([]domain.Query, error) {
	return s.queries.List(ctx, false)
}
