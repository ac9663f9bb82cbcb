package driven

import "github.com/custodia-labs/reportrag/internal/core/domain"

// ChunkHit is one chunk index search result.
type ChunkHit struct {
	Chunk domain.Chunk
	// Distance is the Euclidean distance to the query; lower is closer.
	Distance float64
}

// DocumentHit is one document index search result.
type DocumentHit struct {
	Meta domain.DocumentMeta
	// Score is the cosine similarity to the query; higher is closer.
	Score float64
}

// ChunkIndex is a per-document vector index over chunk embeddings.
// A loaded index is read-only; writers build a fresh one and persist it.
type ChunkIndex interface {
	Dimension() int
	Len() int
	Add(vectors [][]float32, chunks []domain.Chunk) error
	Search(query []float32, topK int) ([]ChunkHit, error)
	// Persist writes the vector file at path and its ".meta" sidecar,
	// replacing both atomically.
	Persist(path string) error
}

// DocumentIndex is a corpus-level vector index over one vector per document.
type DocumentIndex interface {
	Dimension() int
	Len() int
	Add(vectors [][]float32, metas []domain.DocumentMeta) error
	Search(query []float32, topK int) ([]DocumentHit, error)
	// Persist writes the vector file at path and its ".meta" sidecar,
	// replacing both atomically.
	Persist(path string) error
}

// IndexStore creates and loads index handles.
// Load functions are pure: callers own the returned handle.
type IndexStore interface {
	NewChunkIndex(dimension int) ChunkIndex
	NewDocumentIndex(dimension int) DocumentIndex

	// LoadChunkIndex fails with domain.ErrIndexNotFound or domain.ErrIndexCorrupt.
	LoadChunkIndex(path string) (ChunkIndex, error)

	// LoadDocumentIndex fails with domain.ErrIndexNotFound or domain.ErrIndexCorrupt.
	LoadDocumentIndex(path string) (DocumentIndex, error)
}
