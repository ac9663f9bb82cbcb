package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
	"github.com/custodia-labs/reportrag/internal/logger"
)

// Ensure IngestionPipeline implements the interface.
var _ driving.IngestionRunner = (*IngestionPipeline)(nil)

// Index artifact suffixes. Each has a ".meta" sidecar next to it.
const (
	chunkIndexSuffix    = ".index"
	documentIndexSuffix = ".doc.index"
)

// ContentHash returns the hex sha256 of data.
// It names every index artifact of the document.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IndexPaths returns the chunk and document index paths for a content hash.
func IndexPaths(indexDir, hash string) (chunkIndexPath, documentIndexPath string) {
	return filepath.Join(indexDir, hash+chunkIndexSuffix),
		filepath.Join(indexDir, hash+documentIndexSuffix)
}

// IngestionPipeline parses, embeds and indexes one PDF.
// It has no retry logic; IngestionQueue owns retries.
type IngestionPipeline struct {
	parser   driven.DocumentParser
	chunker  driven.Chunker
	embedder driven.EmbeddingService
	indexes  driven.IndexStore
	years    *YearInferer
	indexDir string
	chunking domain.ChunkSettings
}

// PipelineOption configures an IngestionPipeline.
type PipelineOption func(*IngestionPipeline)

// WithChunkSettings sets the paragraph window for text chunks.
func WithChunkSettings(cfg domain.ChunkSettings) PipelineOption {
	return func(p *IngestionPipeline) {
		p.chunking = cfg
	}
}

// WithYearInferer sets the report-year inferer. Without one no year is inferred.
func WithYearInferer(y *YearInferer) PipelineOption {
	return func(p *IngestionPipeline) {
		p.years = y
	}
}

// NewIngestionPipeline creates an ingestion pipeline writing to indexDir.
func NewIngestionPipeline(
	parser driven.DocumentParser,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	indexes driven.IndexStore,
	indexDir string,
	opts ...PipelineOption,
) *IngestionPipeline {
	p := &IngestionPipeline{
		parser:   parser,
		chunker:  chunker,
		embedder: embedder,
		indexes:  indexes,
		indexDir: indexDir,
		chunking: domain.ChunkSettings{
			Window:  domain.DefaultChunkWindow,
			Overlap: domain.DefaultChunkOverlap,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest indexes data and returns the artifact paths and inferred year.
// Identical bytes always produce byte-identical artifacts.
func (p *IngestionPipeline) Ingest(ctx context.Context, documentID string, data []byte) (*domain.IngestionResult, error) {
	logger.Section("Ingestion")
	defer logger.Timed("ingest " + documentID)()
	if p.embedder == nil {
		return nil, fmt.Errorf("ingest %s: %w", documentID, domain.ErrEmbeddingUnavailable)
	}

	hash := ContentHash(data)
	logger.Debug("Document %s, content hash %s, %d bytes", documentID, hash, len(data))

	paragraphs, err := p.parser.ExtractParagraphs(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extract paragraphs: %w", err)
	}
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("ingest %s: %w", documentID, domain.ErrEmptyDocument)
	}
	logger.Debug("Paragraphs: %d", len(paragraphs))

	textChunks, err := p.chunker.ChunkText(paragraphs, p.chunking.Window, p.chunking.Overlap, hash)
	if err != nil {
		return nil, fmt.Errorf("chunk text: %w", err)
	}
	tableChunks, err := p.parser.ExtractTableChunks(ctx, data, paragraphs, hash)
	if err != nil {
		return nil, fmt.Errorf("extract tables: %w", err)
	}
	chunks := append(textChunks, tableChunks...)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("ingest %s: %w", documentID, domain.ErrEmptyDocument)
	}
	logger.Debug("Chunks: %d text, %d table", len(textChunks), len(tableChunks))

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embed chunks: %d vectors for %d chunks: %w",
			len(vectors), len(chunks), domain.ErrArityMismatch)
	}
	dim := len(vectors[0])

	chunkPath, docPath := IndexPaths(p.indexDir, hash)

	chunkIndex := p.indexes.NewChunkIndex(dim)
	if err := chunkIndex.Add(vectors, chunks); err != nil {
		return nil, fmt.Errorf("build chunk index: %w", err)
	}
	if err := chunkIndex.Persist(chunkPath); err != nil {
		return nil, fmt.Errorf("persist chunk index: %w", err)
	}

	docIndex := p.indexes.NewDocumentIndex(dim)
	mean := meanVector(vectors, dim)
	if err := docIndex.Add([][]float32{mean}, []domain.DocumentMeta{{DocumentID: hash}}); err != nil {
		return nil, fmt.Errorf("build document index: %w", err)
	}
	if err := docIndex.Persist(docPath); err != nil {
		return nil, fmt.Errorf("persist document index: %w", err)
	}
	logger.Info("Indexed %s: %d chunks, dimension %d", documentID, len(chunks), dim)

	var year *int
	if p.years != nil {
		year = p.years.InferYear(ctx, data)
	}

	return &domain.IngestionResult{
		ContentHash:       hash,
		ChunkIndexPath:    chunkPath,
		DocumentIndexPath: docPath,
		ReportYear:        year,
		ChunkCount:        len(chunks),
	}, nil
}

// meanVector averages vectors component-wise in float64.
func meanVector(vectors [][]float32, dim int) []float32 {
	sum := make([]float64, dim)
	for _, vec := range vectors {
		for i := 0; i < dim && i < len(vec); i++ {
			sum[i] += float64(vec[i])
		}
	}
	mean := make([]float32, dim)
	n := float64(len(vectors))
	for i := range sum {
		mean[i] = float32(sum[i] / n)
	}
	return mean
}
