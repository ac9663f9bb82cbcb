// Package chunker groups page paragraphs into overlapping text chunks.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultWindow is the default number of paragraphs per chunk.
const DefaultWindow = domain.DefaultChunkWindow

// DefaultOverlap is the default number of paragraphs shared by adjacent chunks.
const DefaultOverlap = domain.DefaultChunkOverlap

// Separator joins paragraph texts inside a chunk.
const Separator = "\n\n"

// Processor splits a paragraph sequence into sliding windows.
type Processor struct {
	window  int
	overlap int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithWindow sets the number of paragraphs per chunk.
func WithWindow(window int) Option {
	return func(p *Processor) {
		if window > 0 {
			p.window = window
		}
	}
}

// WithOverlap sets the number of paragraphs repeated between chunks.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		window:  DefaultWindow,
		overlap: DefaultOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Chunk splits paragraphs using the configured window and overlap.
func (p *Processor) Chunk(paragraphs []domain.Paragraph, sourceDocumentID string) ([]domain.Chunk, error) {
	return p.ChunkText(paragraphs, p.window, p.overlap, sourceDocumentID)
}

// ChunkText slides a window of paragraphs advancing by window-overlap.
// The tail window is emitted even when shorter than window, unless the
// previous window already reached the last paragraph, so N paragraphs
// yield ceil(max(N-overlap, 1) / (window-overlap)) chunks. A tail made
// only of overlap paragraphs would repeat text already indexed.
func (p *Processor) ChunkText(
	paragraphs []domain.Paragraph,
	window, overlap int,
	sourceDocumentID string,
) ([]domain.Chunk, error) {
	if overlap < 0 || window <= overlap {
		return nil, fmt.Errorf("window %d, overlap %d: %w", window, overlap, domain.ErrInvalidChunkConfig)
	}
	if len(paragraphs) == 0 {
		return nil, nil
	}

	step := window - overlap
	chunks := make([]domain.Chunk, 0, len(paragraphs)/step+1)

	for start := 0; start < len(paragraphs); start += step {
		end := min(start+window, len(paragraphs))
		chunks = append(chunks, buildChunk(paragraphs[start:end], sourceDocumentID))
		if end == len(paragraphs) {
			break
		}
	}

	return chunks, nil
}

// buildChunk joins one window of paragraphs.
func buildChunk(window []domain.Paragraph, sourceDocumentID string) domain.Chunk {
	texts := make([]string, len(window))
	indices := make([]int, len(window))
	boxes := make([]domain.Rect, len(window))
	var pages []int

	for i, para := range window {
		texts[i] = para.Text
		indices[i] = para.Index
		boxes[i] = para.BBox
		if len(pages) == 0 || pages[len(pages)-1] != para.PageNumber {
			pages = append(pages, para.PageNumber)
		}
	}

	text := strings.Join(texts, Separator)
	firstPage := 0
	if len(pages) > 0 {
		firstPage = pages[0]
	}

	return domain.Chunk{
		ID:               domain.ChunkID(sourceDocumentID, domain.ChunkTypeText, firstPage, text),
		SourceDocumentID: sourceDocumentID,
		Type:             domain.ChunkTypeText,
		PageNumbers:      pages,
		BBoxes:           boxes,
		Text:             text,
		ParagraphIndices: indices,
	}
}
