package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
)

// mockEvaluationService implements driving.EvaluationService for testing.
type mockEvaluationService struct {
	result *domain.EvaluationResult
	err    error
	last   domain.EvaluationRequest
}

func (m *mockEvaluationService) Evaluate(_ context.Context, req domain.EvaluationRequest) (*domain.EvaluationResult, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.EvaluationResult{ID: "eval-1", CompanyID: req.CompanyID}, nil
}

func (m *mockEvaluationService) EvaluateAll(context.Context, string) ([]domain.EvaluationResult, error) {
	return nil, nil
}

func (m *mockEvaluationService) History(context.Context, string, string) ([]domain.EvaluationRecord, error) {
	return nil, nil
}

// mockDocumentService implements driving.DocumentService for testing.
type mockDocumentService struct {
	docs []domain.Document
}

func (m *mockDocumentService) Register(context.Context, driving.RegisterRequest) (*domain.Document, error) {
	return nil, domain.ErrInvalidInput
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			d := m.docs[i]
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) List(context.Context, domain.DocumentFilter) ([]domain.Document, error) {
	return m.docs, nil
}

func (m *mockDocumentService) SetActive(context.Context, string, bool) error { return nil }
func (m *mockDocumentService) Retry(context.Context, string) error            { return nil }

// mockCatalogService implements driving.CatalogService for testing.
type mockCatalogService struct {
	companies []domain.Company
}

func (m *mockCatalogService) AddCompany(_ context.Context, name string) (*domain.Company, error) {
	return &domain.Company{ID: name, Name: name, Active: true}, nil
}

func (m *mockCatalogService) ListCompanies(context.Context) ([]domain.Company, error) {
	return m.companies, nil
}

func (m *mockCatalogService) AddQuery(_ context.Context, name, question string) (*domain.Query, error) {
	return &domain.Query{ID: name, Name: name, Question: question}, nil
}

func (m *mockCatalogService) ListQueries(context.Context) ([]domain.Query, error) {
	return nil, nil
}

func newTestPorts() *Ports {
	return NewPorts(
		&mockEvaluationService{},
		&mockDocumentService{},
		&mockCatalogService{companies: []domain.Company{{ID: "acme", Name: "Acme", Active: true}}},
	)
}

func TestNewPorts(t *testing.T) {
	ports := newTestPorts()

	assert.NotNil(t, ports.Evaluation)
	assert.NotNil(t, ports.Document)
	assert.NotNil(t, ports.Catalog)
	assert.NoError(t, ports.Validate())
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Ports)
		wantErr error
	}{
		{"missing evaluation", func(p *Ports) { p.Evaluation = nil }, ErrMissingEvaluationService},
		{"missing document", func(p *Ports) { p.Document = nil }, ErrMissingDocumentService},
		{"missing catalog", func(p *Ports) { p.Catalog = nil }, ErrMissingCatalogService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ports := newTestPorts()
			tt.mutate(ports)
			assert.ErrorIs(t, ports.Validate(), tt.wantErr)
		})
	}
}
