package flat

import (
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// Ensure DocumentIndex implements the interface.
var _ driven.DocumentIndex = (*DocumentIndex)(nil)

// DocumentIndex is an exact cosine index with one vector per document.
type DocumentIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	metas     []domain.DocumentMeta
}

// NewDocumentIndex creates an empty index with a fixed dimension.
func NewDocumentIndex(dimension int) *DocumentIndex {
	return &DocumentIndex{dimension: dimension}
}

// LoadDocumentIndex restores an index persisted at path.
func LoadDocumentIndex(path string) (*DocumentIndex, error) {
	var metas []domain.DocumentMeta
	vectors, dim, err := load(path, metricInnerProduct, &metas, func() int { return len(metas) })
	if err != nil {
		return nil, err
	}
	return &DocumentIndex{dimension: dim, vectors: vectors, metas: metas}, nil
}

// Dimension returns the vector size.
func (idx *DocumentIndex) Dimension() int {
	return idx.dimension
}

// Len returns the number of entries.
func (idx *DocumentIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Add normalises and appends vectors with their metadata.
func (idx *DocumentIndex) Add(vectors [][]float32, metas []domain.DocumentMeta) error {
	if len(vectors) != len(metas) {
		return fmt.Errorf("%d vectors for %d documents: %w", len(vectors), len(metas), domain.ErrArityMismatch)
	}
	if err := checkDims(idx.dimension, vectors); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i := range vectors {
		vec := slices.Clone(vectors[i])
		normalize(vec)
		idx.vectors = append(idx.vectors, vec)
		idx.metas = append(idx.metas, metas[i])
	}
	return nil
}

// Search returns up to topK documents by descending cosine score.
// A zero query vector scores every document 0.
func (idx *DocumentIndex) Search(query []float32, topK int) ([]driven.DocumentHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(query), idx.dimension, domain.ErrDimensionMismatch)
	}
	if topK <= 0 {
		return nil, nil
	}

	q := slices.Clone(query)
	normalize(q)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]driven.DocumentHit, len(idx.vectors))
	for i, vec := range idx.vectors {
		hits[i] = driven.DocumentHit{Meta: idx.metas[i], Score: dot(q, vec)}
	}
	slices.SortStableFunc(hits, func(a, b driven.DocumentHit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
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
func (idx *DocumentIndex) Persist(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	metas := idx.metas
	if metas == nil {
		metas = []domain.DocumentMeta{}
	}
	if err := persist(path, metricInnerProduct, idx.dimension, idx.vectors, metas); err != nil {
		return fmt.Errorf("persist document index: %w", err)
	}
	return nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
