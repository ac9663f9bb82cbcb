package domain

import "time"

// ProcessingStatus tracks a document through ingestion.
type ProcessingStatus string

// Processing states.
const (
	StatusPending ProcessingStatus = "pending"
	StatusSuccess ProcessingStatus = "success"
	StatusFailed  ProcessingStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once ingestion has finished, successfully or not.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// DocumentSource records how the PDF was acquired.
type DocumentSource string

// Acquisition sources.
const (
	SourceManual     DocumentSource = "manual"
	SourceWebscraped DocumentSource = "webscraped"
)

// IsValid returns true if the source is recognised.
func (s DocumentSource) IsValid() bool {
	return s == SourceManual || s == SourceWebscraped
}

// Company owns a set of report documents.
type Company struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
}

// Document is a registered PDF report.
// Index paths are set once ingestion succeeds and are named by FileHash,
// so several records with identical bytes share the same artifacts.
type Document struct {
	ID        string
	CompanyID string
	FileName  string
	// FileHash is the hex sha256 of the PDF bytes.
	FileHash string
	FileSize int64
	Source   DocumentSource
	// ReportYear is the reporting year, nil when unknown.
	ReportYear *int
	Active     bool

	ChunkIndexPath    string
	DocumentIndexPath string

	Status    ProcessingStatus
	Attempts  int
	LastError string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsIndexed reports whether both index artifacts are recorded.
func (d *Document) IsIndexed() bool {
	return d.Status == StatusSuccess && d.ChunkIndexPath != "" && d.DocumentIndexPath != ""
}

// DocumentFilter narrows document listings. Zero values match everything.
type DocumentFilter struct {
	CompanyID  string
	Status     ProcessingStatus
	ActiveOnly bool
}

// DocumentMeta is the payload stored next to a document-level vector.
type DocumentMeta struct {
	DocumentID string `json:"document_id"`
}

// Query is a stored natural-language question evaluated against reports.
type Query struct {
	ID        string
	Name      string
	Question  string
	Active    bool
	CreatedAt time.Time
}
