package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
	"github.com/custodia-labs/reportrag/internal/logger"
)

// Ensure EvaluationService implements the interface.
var _ driving.EvaluationService = (*EvaluationService)(nil)

// EvaluationService runs queries against a company's documents and records the results.
type EvaluationService struct {
	retriever    driving.RetrievalService
	docs         driven.DocumentStore
	companies    driven.CompanyStore
	queries      driven.QueryStore
	results      driven.EvaluationStore
	retrieval    domain.RetrievalSettings
	modelVersion string
	now          func() time.Time
}

// EvaluationOption configures an EvaluationService.
type EvaluationOption func(*EvaluationService)

// WithModelVersion records the model identifier on every result.
func WithModelVersion(version string) EvaluationOption {
	return func(s *EvaluationService) {
		s.modelVersion = version
	}
}

// WithRetrievalSettings sets the flags EvaluateAll uses and the default TopK.
func WithRetrievalSettings(cfg domain.RetrievalSettings) EvaluationOption {
	return func(s *EvaluationService) {
		s.retrieval = cfg
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) EvaluationOption {
	return func(s *EvaluationService) {
		s.now = now
	}
}

// NewEvaluationService creates an evaluation service.
// The results store is optional; without it nothing is persisted.
func NewEvaluationService(
	retriever driving.RetrievalService,
	docs driven.DocumentStore,
	companies driven.CompanyStore,
	queries driven.QueryStore,
	results driven.EvaluationStore,
	opts ...EvaluationOption,
) *EvaluationService {
	s := &EvaluationService{
		retriever: retriever,
		docs:      docs,
		companies: companies,
		queries:   queries,
		results:   results,
		retrieval: domain.DefaultAppSettings().Retrieval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate retrieves data points for the request and records them.
// Without explicit candidates, the company's active indexed documents are used.
func (s *EvaluationService) Evaluate(ctx context.Context, req domain.EvaluationRequest) (*domain.EvaluationResult, error) {
	start := s.now()

	if strings.TrimSpace(req.CompanyID) == "" {
		return nil, fmt.Errorf("company is required: %w", domain.ErrInvalidInput)
	}
	if err := s.resolveQuestion(ctx, &req); err != nil {
		return nil, err
	}

	candidates := req.Candidates
	if candidates == nil {
		loaded, err := s.activeCandidates(ctx, req.CompanyID)
		if err != nil {
			return nil, err
		}
		candidates = loaded
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.retrieval.TopK
	}

	points, err := s.retriever.Retrieve(ctx, domain.RetrievalRequest{
		CompanyID:             req.CompanyID,
		QueryID:               req.QueryID,
		QueryText:             req.QueryText,
		Candidates:            candidates,
		TopK:                  topK,
		FilterByDocumentIndex: req.FilterByDocumentIndex,
		ExtendedSearch:        req.ExtendedSearch,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	result := &domain.EvaluationResult{
		ID:             uuid.NewString(),
		QueryID:        req.QueryID,
		CompanyID:      req.CompanyID,
		Timestamp:      start.UTC(),
		DataPoints:     points,
		User:           req.User,
		ModelVersion:   s.modelVersion,
		ProcessingTime: s.now().Sub(start),
	}

	if err := s.record(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// EvaluateAll runs every active query against every active company.
// A failing pair is logged and skipped.
func (s *EvaluationService) EvaluateAll(ctx context.Context, user string) ([]domain.EvaluationResult, error) {
	if s.companies == nil || s.queries == nil {
		return nil, errors.New("company and query stores are required")
	}
	companies, err := s.companies.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	queries, err := s.queries.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}

	var results []domain.EvaluationResult
	for _, company := range companies {
		for _, query := range queries {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			req := domain.EvaluationRequest{
				CompanyID:             company.ID,
				QueryID:               query.ID,
				QueryText:             query.Question,
				TopK:                  s.retrieval.TopK,
				FilterByDocumentIndex: s.retrieval.FilterByDocumentIndex,
				ExtendedSearch:        s.retrieval.ExtendedSearch,
				User:                  user,
			}
			result, err := s.Evaluate(ctx, req)
			if err != nil {
				logger.Warn("Evaluation of query %s for company %s failed: %v", query.ID, company.ID, err)
				continue
			}
			results = append(results, *result)
		}
	}
	return results, nil
}

// History returns stored records for a company and query, newest first.
func (s *EvaluationService) History(ctx context.Context, companyID, queryID string) ([]domain.EvaluationRecord, error) {
	if s.results == nil {
		return nil, nil
	}
	return s.results.ListByQuery(ctx, companyID, queryID)
}

// resolveQuestion fills the query text from the query store when only an ID is given.
func (s *EvaluationService) resolveQuestion(ctx context.Context, req *domain.EvaluationRequest) error {
	if strings.TrimSpace(req.QueryText) != "" {
		return nil
	}
	if req.QueryID == "" || s.queries == nil {
		return fmt.Errorf("query text is required: %w", domain.ErrInvalidInput)
	}
	q, err := s.queries.Get(ctx, req.QueryID)
	if err != nil {
		return fmt.Errorf("get query %s: %w", req.QueryID, err)
	}
	req.QueryText = q.Question
	return nil
}

func (s *EvaluationService) activeCandidates(ctx context.Context, companyID string) ([]domain.CandidateDocument, error) {
	docs, err := s.docs.List(ctx, domain.DocumentFilter{
		CompanyID:  companyID,
		Status:     domain.StatusSuccess,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	candidates := make([]domain.CandidateDocument, 0, len(docs))
	for i := range docs {
		if !docs[i].IsIndexed() {
			continue
		}
		candidates = append(candidates, domain.CandidateFromDocument(&docs[i]))
	}
	logger.Debug("Candidates for company %s: %d", companyID, len(candidates))
	return candidates, nil
}

// record persists one EvaluationRecord per data point.
func (s *EvaluationService) record(ctx context.Context, result *domain.EvaluationResult) error {
	if s.results == nil || len(result.DataPoints) == 0 {
		return nil
	}

	records := make([]domain.EvaluationRecord, 0, len(result.DataPoints))
	for _, p := range result.DataPoints {
		records = append(records, domain.EvaluationRecord{
			ID:               uuid.NewString(),
			EvaluationID:     result.ID,
			QueryID:          result.QueryID,
			CompanyID:        result.CompanyID,
			DocumentID:       p.DocumentID,
			ChunkID:          p.ChunkID,
			ChunkType:        p.ChunkType,
			Answer:           p.Answer,
			ReportYear:       p.ReportYear,
			Confidence:       p.Confidence,
			SimilarityScore:  p.SimilarityScore,
			References:       p.References,
			ModelVersion:     result.ModelVersion,
			ProcessingTimeMS: result.ProcessingTime.Milliseconds(),
			Timestamp:        result.Timestamp,
		})
	}
	if err := s.results.SaveAll(ctx, records); err != nil {
		return fmt.Errorf("save evaluation records: %w", err)
	}
	return nil
}
