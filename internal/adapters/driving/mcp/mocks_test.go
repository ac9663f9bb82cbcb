package mcp

import (
	"context"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
)

// mockEvaluationService is a mock implementation of driving.EvaluationService.
type mockEvaluationService struct {
	result *domain.EvaluationResult
	err    error
	last   domain.EvaluationRequest
}

func (m *mockEvaluationService) Evaluate(_ context.Context, req domain.EvaluationRequest) (*domain.EvaluationResult, error) {
	m.last = req
	return m.result, m.err
}

func (m *mockEvaluationService) EvaluateAll(_ context.Context, _ string) ([]domain.EvaluationResult, error) {
	return nil, m.err
}

func (m *mockEvaluationService) History(_ context.Context, _, _ string) ([]domain.EvaluationRecord, error) {
	return nil, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents  []domain.Document
	document   *domain.Document
	err        error
	registered driving.RegisterRequest
	filter     domain.DocumentFilter
}

func (m *mockDocumentService) Register(_ context.Context, req driving.RegisterRequest) (*domain.Document, error) {
	m.registered = req
	return m.document, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	m.filter = filter
	return m.documents, m.err
}

func (m *mockDocumentService) SetActive(_ context.Context, _ string, _ bool) error {
	return m.err
}

func (m *mockDocumentService) Retry(_ context.Context, _ string) error {
	return m.err
}

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	companies []domain.Company
	err       error
}

func (m *mockCatalogService) AddCompany(_ context.Context, name string) (*domain.Company, error) {
	return &domain.Company{ID: name, Name: name, Active: true}, m.err
}

func (m *mockCatalogService) ListCompanies(_ context.Context) ([]domain.Company, error) {
	return m.companies, m.err
}

func (m *mockCatalogService) AddQuery(_ context.Context, name, question string) (*domain.Query, error) {
	return &domain.Query{ID: name, Name: name, Question: question, Active: true}, m.err
}

func (m *mockCatalogService) ListQueries(_ context.Context) ([]domain.Query, error) {
	return nil, m.err
}
