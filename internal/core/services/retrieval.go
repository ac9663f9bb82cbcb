package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
	"github.com/custodia-labs/reportrag/internal/logger"
)

// Ensure RetrievalProcessor implements the interface.
var _ driving.RetrievalService = (*RetrievalProcessor)(nil)

// unknownProvider names the provider when no generative model is configured.
const unknownProvider = "unknown"

// RetrievalProcessor answers a query against the indexes of candidate documents.
// It filters documents with their corpus-level vector, searches the chunk
// index of each survivor and annotates every hit with a report year.
type RetrievalProcessor struct {
	embedder  driven.EmbeddingService
	indexes   driven.IndexStore
	years     *YearInferer
	threshold float64
	provider  string
}

// RetrievalOption configures a RetrievalProcessor.
type RetrievalOption func(*RetrievalProcessor)

// WithSimilarityThreshold sets the minimum document score; the bound is inclusive.
func WithSimilarityThreshold(threshold float64) RetrievalOption {
	return func(r *RetrievalProcessor) {
		r.threshold = threshold
	}
}

// WithProviderName sets the provider recorded on every data point.
func WithProviderName(name string) RetrievalOption {
	return func(r *RetrievalProcessor) {
		if name != "" {
			r.provider = name
		}
	}
}

// NewRetrievalProcessor creates a retrieval processor.
// The years parameter is optional; without it chunks fall back to their
// own year, then the document year.
func NewRetrievalProcessor(
	embedder driven.EmbeddingService,
	indexes driven.IndexStore,
	years *YearInferer,
	opts ...RetrievalOption,
) *RetrievalProcessor {
	if years == nil {
		years = NewYearInferer(nil, nil, nil)
	}
	r := &RetrievalProcessor{
		embedder:  embedder,
		indexes:   indexes,
		years:     years,
		threshold: domain.DefaultSimilarityThreshold,
		provider:  unknownProvider,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns one data point per surviving chunk, grouped by document
// in candidate order and by ascending distance within a document.
// A document whose index cannot be loaded is skipped.
func (r *RetrievalProcessor) Retrieve(ctx context.Context, req domain.RetrievalRequest) ([]domain.RetrievalDataPoint, error) {
	logger.Section("Retrieval")
	defer logger.Timed("retrieval")()
	logger.Debug("Company %s, query %s: %q", req.CompanyID, req.QueryID, req.QueryText)

	candidates := make([]domain.CandidateDocument, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		if c.CompanyID == req.CompanyID {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		logger.Debug("No candidate documents for company %s", req.CompanyID)
		return []domain.RetrievalDataPoint{}, nil
	}
	if r.embedder == nil {
		return nil, fmt.Errorf("retrieve: %w", domain.ErrEmbeddingUnavailable)
	}

	query, err := r.embedder.Embed(ctx, req.QueryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if req.FilterByDocumentIndex {
		candidates = r.filterDocuments(ctx, candidates, query)
		logger.Debug("Documents above threshold %.2f: %d", r.threshold, len(candidates))
	}

	topK := req.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	points := []domain.RetrievalDataPoint{}
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hits, err := r.searchChunks(c, query, topK)
		if err != nil {
			logger.Warn("Skipping document %s: %v", c.DocumentID, err)
			continue
		}

		for i := range hits {
			hit := &hits[i]
			if !req.ExtendedSearch && hit.Chunk.Type != domain.ChunkTypeTableColumn {
				continue
			}
			points = append(points, r.dataPoint(ctx, req, c, hit))
		}
	}

	logger.Info("Data points: %d", len(points))
	return points, nil
}

// filterDocuments keeps candidates whose document vector scores at least
// the threshold against the query.
func (r *RetrievalProcessor) filterDocuments(
	ctx context.Context, candidates []domain.CandidateDocument, query []float32,
) []domain.CandidateDocument {
	kept := make([]domain.CandidateDocument, 0, len(candidates))
	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		idx, err := r.indexes.LoadDocumentIndex(c.DocumentIndexPath)
		if err != nil {
			logger.Warn("Skipping document %s: load document index: %v", c.DocumentID, err)
			continue
		}
		hits, err := idx.Search(query, 1)
		if err != nil {
			logger.Warn("Skipping document %s: search document index: %v", c.DocumentID, err)
			continue
		}
		if len(hits) == 0 || !meetsThreshold(hits[0].Score, r.threshold) {
			logger.Debug("Document %s below threshold", c.DocumentID)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// meetsThreshold compares at float32, the precision document vectors are
// stored in, so a cosine of exactly the threshold is kept.
func meetsThreshold(score, threshold float64) bool {
	return float32(score) >= float32(threshold)
}

func (r *RetrievalProcessor) searchChunks(c domain.CandidateDocument, query []float32, topK int) ([]driven.ChunkHit, error) {
	idx, err := r.indexes.LoadChunkIndex(c.ChunkIndexPath)
	if err != nil {
		return nil, fmt.Errorf("load chunk index: %w", err)
	}
	hits, err := idx.Search(query, topK)
	if err != nil {
		return nil, fmt.Errorf("search chunk index: %w", err)
	}
	return hits, nil
}

func (r *RetrievalProcessor) dataPoint(
	ctx context.Context, req domain.RetrievalRequest, c domain.CandidateDocument, hit *driven.ChunkHit,
) domain.RetrievalDataPoint {
	similarity := SimilarityFromDistance(hit.Distance)
	return domain.RetrievalDataPoint{
		CompanyID:       req.CompanyID,
		DocumentID:      c.DocumentID,
		QueryID:         req.QueryID,
		ReportYear:      r.years.ChunkYear(ctx, &hit.Chunk, c.ReportYear),
		Source:          c.Source,
		ChunkID:         hit.Chunk.ID,
		ChunkType:       hit.Chunk.Type,
		Distance:        hit.Distance,
		SimilarityScore: similarity,
		Answer:          hit.Chunk.Text,
		Confidence:      similarity,
		Provider:        r.provider,
		References:      domain.ReferencesFromChunk(&hit.Chunk),
	}
}

// SimilarityFromDistance maps a Euclidean distance into (0, 1].
func SimilarityFromDistance(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}
