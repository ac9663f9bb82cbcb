package flat

import "github.com/custodia-labs/reportrag/internal/core/ports/driven"

// Ensure Store implements the interface.
var _ driven.IndexStore = Store{}

// Store creates and loads flat indexes.
type Store struct{}

// NewChunkIndex creates an empty chunk index.
func (Store) NewChunkIndex(dimension int) driven.ChunkIndex {
	return NewChunkIndex(dimension)
}

// NewDocumentIndex creates an empty document index.
func (Store) NewDocumentIndex(dimension int) driven.DocumentIndex {
	return NewDocumentIndex(dimension)
}

// LoadChunkIndex restores a chunk index.
func (Store) LoadChunkIndex(path string) (driven.ChunkIndex, error) {
	idx, err := LoadChunkIndex(path)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// LoadDocumentIndex restores a document index.
func (Store) LoadDocumentIndex(path string) (driven.DocumentIndex, error) {
	idx, err := LoadDocumentIndex(path)
	if err != nil {
		return nil, err
	}
	return idx, nil
}
