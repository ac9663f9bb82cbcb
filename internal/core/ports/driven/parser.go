package driven

import (
	"context"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

// DocumentParser turns raw PDF bytes into structured units.
// Identical bytes must always yield identical output.
type DocumentParser interface {
	// ExtractParagraphs returns paragraphs in page order.
	// Fails with domain.ErrUnreadableDocument when no page yields text.
	ExtractParagraphs(ctx context.Context, data []byte) ([]domain.Paragraph, error)

	// ExtractTableChunks returns one chunk per year column of every detected table.
	// sourceDocumentID is recorded on every chunk and feeds its id.
	ExtractTableChunks(ctx context.Context, data []byte, paragraphs []domain.Paragraph,
		sourceDocumentID string) ([]domain.Chunk, error)

	// Metadata returns the document information dictionary values the
	// year inference reads. Missing fields are empty strings.
	Metadata(ctx context.Context, data []byte) (DocumentMetadata, error)

	// FirstPageText returns the plain text of page 1.
	FirstPageText(ctx context.Context, data []byte) (string, error)
}

// DocumentMetadata holds raw PDF information dictionary dates.
type DocumentMetadata struct {
	// CreationDate is the raw "D:YYYYMMDD..." creation timestamp.
	CreationDate string

	// ModDate is the raw "D:YYYYMMDD..." modification timestamp.
	ModDate string
}

// Chunker groups paragraphs into text chunks.
type Chunker interface {
	// ChunkText slides a window of paragraphs with the given overlap.
	// Fails with domain.ErrInvalidChunkConfig unless window > overlap >= 0.
	ChunkText(paragraphs []domain.Paragraph, window, overlap int, sourceDocumentID string) ([]domain.Chunk, error)
}
