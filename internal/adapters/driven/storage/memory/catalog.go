package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// Ensure the catalog stores implement their interfaces.
var (
	_ driven.CompanyStore    = (*CompanyStore)(nil)
	_ driven.QueryStore      = (*QueryStore)(nil)
	_ driven.EvaluationStore = (*EvaluationStore)(nil)
)

// CompanyStore is an in-memory implementation of driven.CompanyStore.
type CompanyStore struct {
	mu        sync.RWMutex
	companies map[string]domain.Company
}

// NewCompanyStore creates a new in-memory company store.
func NewCompanyStore() *CompanyStore {
	return &CompanyStore{companies: make(map[string]domain.Company)}
}

// Save stores or updates a company.
func (s *CompanyStore) Save(_ context.Context, company *domain.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[company.ID] = *company
	return nil
}

// Get retrieves a company by ID.
func (s *CompanyStore) Get(_ context.Context, id string) (*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// List returns companies ordered by name.
func (s *CompanyStore) List(_ context.Context, activeOnly bool) ([]domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []domain.Company{}
	for _, c := range s.companies {
		if activeOnly && !c.Active {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// QueryStore is an in-memory implementation of driven.QueryStore.
type QueryStore struct {
	mu      sync.RWMutex
	queries map[string]domain.Query
}

// NewQueryStore creates a new in-memory query store.
func NewQueryStore() *QueryStore {
	return &QueryStore{queries: make(map[string]domain.Query)}
}

// Save stores or updates a query.
func (s *QueryStore) Save(_ context.Context, query *domain.Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries[query.ID] = *query
	return nil
}

// Get retrieves a query by ID.
func (s *QueryStore) Get(_ context.Context, id string) (*domain.Query, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.queries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &q, nil
}

// List returns queries ordered by name.
func (s *QueryStore) List(_ context.Context, activeOnly bool) ([]domain.Query, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []domain.Query{}
	for _, q := range s.queries {
		if activeOnly && !q.Active {
			continue
		}
		result = append(result, q)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// EvaluationStore is an in-memory implementation of driven.EvaluationStore.
type EvaluationStore struct {
	mu      sync.RWMutex
	records []domain.EvaluationRecord
}

// NewEvaluationStore creates a new in-memory evaluation store.
func NewEvaluationStore() *EvaluationStore {
	return &EvaluationStore{}
}

// SaveAll appends records.
func (s *EvaluationStore) SaveAll(_ context.Context, records []domain.EvaluationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// ListByQuery returns the records of one query and company, newest first.
func (s *EvaluationStore) ListByQuery(_ context.Context, companyID, queryID string) ([]domain.EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []domain.EvaluationRecord{}
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if r.CompanyID == companyID && r.QueryID == queryID {
			result = append(result, r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}
