package flat

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// Ensure ChunkIndex implements the interface.
var _ driven.ChunkIndex = (*ChunkIndex)(nil)

// ChunkIndex is an exact L2 index over chunk embeddings.
type ChunkIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	chunks    []domain.Chunk
}

// NewChunkIndex creates an empty index with a fixed dimension.
func NewChunkIndex(dimension int) *ChunkIndex {
	return &ChunkIndex{dimension: dimension}
}

// LoadChunkIndex restores an index persisted at path.
func LoadChunkIndex(path string) (*ChunkIndex, error) {
	var chunks []domain.Chunk
	vectors, dim, err := load(path, metricL2, &chunks, func() int { return len(chunks) })
	if err != nil {
		return nil, err
	}
	return &ChunkIndex{dimension: dim, vectors: vectors, chunks: chunks}, nil
}

// Dimension returns the vector size.
func (idx *ChunkIndex) Dimension() int {
	return idx.dimension
}

// Len returns the number of entries.
func (idx *ChunkIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Add appends vectors with their chunks.
func (idx *ChunkIndex) Add(vectors [][]float32, chunks []domain.Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%d vectors for %d chunks: %w", len(vectors), len(chunks), domain.ErrArityMismatch)
	}
	if err := checkDims(idx.dimension, vectors); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i := range vectors {
		idx.vectors = append(idx.vectors, slices.Clone(vectors[i]))
		idx.chunks = append(idx.chunks, chunks[i])
	}
	return nil
}

// Search returns up to topK chunks by ascending Euclidean distance.
// Equal distances keep insertion order.
func (idx *ChunkIndex) Search(query []float32, topK int) ([]driven.ChunkHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(query), idx.dimension, domain.ErrDimensionMismatch)
	}
	if topK <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]driven.ChunkHit, len(idx.vectors))
	for i, vec := range idx.vectors {
		hits[i] = driven.ChunkHit{Chunk: idx.chunks[i], Distance: l2(query, vec)}
	}
	slices.SortStableFunc(hits, func(a, b driven.ChunkHit) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Persist writes the index to path and its sidecar.
func (idx *ChunkIndex) Persist(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	chunks := idx.chunks
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	if err := persist(path, metricL2, idx.dimension, idx.vectors, chunks); err != nil {
		return fmt.Errorf("persist chunk index: %w", err)
	}
	return nil
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
