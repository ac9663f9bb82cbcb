package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	now       func() time.Time
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		now:       time.Now,
	}
}

// Save stores or updates a document.
func (s *DocumentStore) Save(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = copyDocument(*doc)
	return nil
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc = copyDocument(doc)
	return &doc, nil
}

// GetByHash returns documents with the given content hash, oldest first.
func (s *DocumentStore) GetByHash(_ context.Context, fileHash string) ([]domain.Document, error) {
	return s.collect(func(d *domain.Document) bool { return d.FileHash == fileHash }), nil
}

// List returns documents matching the filter, oldest first.
func (s *DocumentStore) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	return s.collect(func(d *domain.Document) bool {
		if filter.CompanyID != "" && d.CompanyID != filter.CompanyID {
			return false
		}
		if filter.Status != "" && d.Status != filter.Status {
			return false
		}
		return !filter.ActiveOnly || d.Active
	}), nil
}

// UpdateStatus records an ingestion attempt outcome.
func (s *DocumentStore) UpdateStatus(_ context.Context, id string, status domain.ProcessingStatus, attempts int, lastErr string) error {
	return s.update(id, func(d *domain.Document) {
		d.Status = status
		d.Attempts = attempts
		d.LastError = lastErr
	})
}

// UpdateIndex records index artifact paths and, when non-nil, the report year.
func (s *DocumentStore) UpdateIndex(_ context.Context, id, chunkIndexPath, documentIndexPath string, reportYear *int) error {
	return s.update(id, func(d *domain.Document) {
		d.ChunkIndexPath = chunkIndexPath
		d.DocumentIndexPath = documentIndexPath
		if reportYear != nil {
			d.ReportYear = domain.IntPtr(*reportYear)
		}
	})
}

// SetActive toggles the active flag.
func (s *DocumentStore) SetActive(_ context.Context, id string, active bool) error {
	return s.update(id, func(d *domain.Document) {
		d.Active = active
	})
}

// Delete removes a document.
func (s *DocumentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	return nil
}

func (s *DocumentStore) update(id string, fn func(d *domain.Document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&doc)
	doc.UpdatedAt = s.now()
	s.documents[id] = doc
	return nil
}

func (s *DocumentStore) collect(match func(d *domain.Document) bool) []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []domain.Document{}
	for id := range s.documents {
		doc := s.documents[id]
		if match(&doc) {
			result = append(result, copyDocument(doc))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// copyDocument detaches the report year pointer from the caller.
func copyDocument(doc domain.Document) domain.Document {
	if doc.ReportYear != nil {
		doc.ReportYear = domain.IntPtr(*doc.ReportYear)
	}
	return doc
}
