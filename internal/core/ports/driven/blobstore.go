package driven

import "context"

// BlobStore keeps the original PDF bytes, addressed by content hash.
// Retries and re-ingestion read the bytes back from here.
type BlobStore interface {
	// Put stores data under hash. Storing the same hash twice is a no-op.
	Put(ctx context.Context, hash string, data []byte) error

	// Get returns the bytes stored under hash.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, hash string) ([]byte, error)
}
