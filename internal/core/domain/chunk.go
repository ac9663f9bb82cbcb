package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// ChunkIDLength is the number of hex characters kept from the chunk digest.
const ChunkIDLength = 16

// ChunkType distinguishes narrative text windows from table year-columns.
type ChunkType string

// Available chunk types.
const (
	// ChunkTypeText is a window of consecutive paragraphs.
	ChunkTypeText ChunkType = "text"

	// ChunkTypeTableColumn is one year column of a detected table.
	ChunkTypeTableColumn ChunkType = "table_column"
)

// IsValid returns true if the chunk type is recognised.
func (t ChunkType) IsValid() bool {
	return t == ChunkTypeText || t == ChunkTypeTableColumn
}

// String returns the string representation.
func (t ChunkType) String() string {
	return string(t)
}

// Rect is an axis-aligned box in PDF user space (points, origin bottom-left).
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// IsZero reports whether r has no extent and sits at the origin.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Union returns the smallest rectangle containing both r and o.
// A zero rectangle is treated as empty.
func (r Rect) Union(o Rect) Rect {
	if r.IsZero() {
		return o
	}
	if o.IsZero() {
		return r
	}
	return Rect{
		X0: min(r.X0, o.X0),
		Y0: min(r.Y0, o.Y0),
		X1: max(r.X1, o.X1),
		Y1: max(r.Y1, o.Y1),
	}
}

// Paragraph is a block of text from a single page.
// Paragraphs only live between parsing and chunking.
type Paragraph struct {
	Text       string
	PageNumber int
	BBox       Rect
	// Index is the paragraph position within its page, starting at 0.
	Index int
}

// Chunk is a retrievable unit of document content.
// Text chunks fill ParagraphIndices; table column chunks fill
// Year, RowLabels, Values and the context fields.
type Chunk struct {
	ID               string    `json:"chunk_id"`
	SourceDocumentID string    `json:"source_document_id,omitempty"`
	Type             ChunkType `json:"chunk_type"`
	PageNumbers      []int     `json:"page_numbers"`
	BBoxes           []Rect    `json:"bounding_boxes"`
	Text             string    `json:"text"`

	ParagraphIndices []int `json:"paragraph_indices,omitempty"`

	Year          *int     `json:"year,omitempty"`
	RowLabels     []string `json:"row_labels,omitempty"`
	Values        []string `json:"values,omitempty"`
	ContextBefore *string  `json:"context_before,omitempty"`
	ContextAfter  *string  `json:"context_after,omitempty"`
}

// FirstPage returns the lowest page number covered, or 0 when unknown.
func (c *Chunk) FirstPage() int {
	if len(c.PageNumbers) == 0 {
		return 0
	}
	return c.PageNumbers[0]
}

// ChunkID derives the stable identity of a chunk.
// Identical inputs always produce the same id; the digest is truncated
// to ChunkIDLength hex characters, so ids are collision tolerant rather
// than unique.
func ChunkID(sourceDocumentID string, chunkType ChunkType, firstPage int, text string) string {
	h := sha256.New()
	h.Write([]byte(sourceDocumentID))
	h.Write([]byte{0})
	h.Write([]byte(chunkType))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(firstPage)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))[:ChunkIDLength]
}
