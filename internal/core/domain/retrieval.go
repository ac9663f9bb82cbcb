package domain

import "math"

// CandidateDocument is a document offered to retrieval, with the
// record fields retrieval needs.
type CandidateDocument struct {
	DocumentID        string
	CompanyID         string
	ReportYear        *int
	Source            string
	ChunkIndexPath    string
	DocumentIndexPath string
}

// CandidateFromDocument builds a retrieval candidate from a stored record.
func CandidateFromDocument(doc *Document) CandidateDocument {
	return CandidateDocument{
		DocumentID:        doc.ID,
		CompanyID:         doc.CompanyID,
		ReportYear:        doc.ReportYear,
		Source:            doc.FileName,
		ChunkIndexPath:    doc.ChunkIndexPath,
		DocumentIndexPath: doc.DocumentIndexPath,
	}
}

// RetrievalRequest is the input of one retrieval call.
type RetrievalRequest struct {
	CompanyID  string
	QueryID    string
	QueryText  string
	Candidates []CandidateDocument
	// TopK caps the chunks returned per surviving document.
	TopK int
	// FilterByDocumentIndex enables the document-level similarity pre-filter.
	FilterByDocumentIndex bool
	// ExtendedSearch lets text chunks participate; otherwise only table columns do.
	ExtendedSearch bool
}

// References mirrors the source chunk of a data point for traceability.
type References struct {
	ChunkID          string    `json:"chunk_id"`
	SourceDocumentID string    `json:"source_document_id,omitempty"`
	ChunkType        ChunkType `json:"chunk_type"`
	PageNumbers      []int     `json:"page_numbers"`
	ParagraphIndices []int     `json:"paragraph_indices"`
	BBoxes           []Rect    `json:"bounding_boxes"`
	Year             *int      `json:"year,omitempty"`
	RowLabels        []string  `json:"row_labels"`
	Values           []string  `json:"values"`
	ContextBefore    *string   `json:"context_before,omitempty"`
	ContextAfter     *string   `json:"context_after,omitempty"`
}

// ReferencesFromChunk copies the positional metadata of a chunk.
func ReferencesFromChunk(c *Chunk) References {
	return References{
		ChunkID:          c.ID,
		SourceDocumentID: c.SourceDocumentID,
		ChunkType:        c.Type,
		PageNumbers:      nonNilInts(c.PageNumbers),
		ParagraphIndices: nonNilInts(c.ParagraphIndices),
		BBoxes:           nonNilRects(c.BBoxes),
		Year:             c.Year,
		RowLabels:        nonNilStrings(c.RowLabels),
		Values:           nonNilStrings(c.Values),
		ContextBefore:    c.ContextBefore,
		ContextAfter:     c.ContextAfter,
	}
}

// RetrievalDataPoint is one annotated answer candidate produced for a query.
// The core never persists it; record storage does.
type RetrievalDataPoint struct {
	CompanyID  string    `json:"company_id"`
	DocumentID string    `json:"document_id"`
	QueryID    string    `json:"query_id"`
	ReportYear *int      `json:"report_year"`
	Source     string    `json:"source,omitempty"`
	ChunkID    string    `json:"chunk_id"`
	ChunkType  ChunkType `json:"chunk_type"`
	// Distance is the Euclidean distance returned by the chunk index.
	Distance float64 `json:"distance"`
	// SimilarityScore maps Distance into (0, 1], higher is closer.
	SimilarityScore float64    `json:"similarity_score"`
	Answer          string     `json:"answer_text"`
	Confidence      float64    `json:"confidence"`
	Provider        string     `json:"provider_name"`
	References      References `json:"references"`
}

// IngestionResult is what one successful ingestion produced.
type IngestionResult struct {
	ContentHash       string
	ChunkIndexPath    string
	DocumentIndexPath string
	ReportYear        *int
	ChunkCount        int
}

// Generation is the output of one generative capability call.
type Generation struct {
	Text string
	// Confidence is in [0, 1].
	Confidence float64
	Provider   string
}

// StaticConfidence is the confidence reported by the offline provider.
const StaticConfidence = 0.5

// GenerationConfidence scores an answer by its length relative to the
// token budget: min(len(text)/maxTokens, 1), rounded to two decimals.
func GenerationConfidence(text string, maxTokens int) float64 {
	if maxTokens <= 0 {
		return 0
	}
	c := float64(len(text)) / float64(maxTokens)
	if c > 1 {
		c = 1
	}
	return math.Round(c*100) / 100
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilRects(s []Rect) []Rect {
	if s == nil {
		return []Rect{}
	}
	return s
}
