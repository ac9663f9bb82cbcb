package domain

import "time"

// EvaluationRequest is the synchronous query entry point input.
// Nil candidates means "load active, indexed documents of the company".
type EvaluationRequest struct {
	CompanyID             string
	QueryID               string
	QueryText             string
	Candidates            []CandidateDocument
	TopK                  int
	FilterByDocumentIndex bool
	ExtendedSearch        bool
	User                  string
}

// NewEvaluationRequest returns a request with the default retrieval flags.
func NewEvaluationRequest(companyID, queryID, queryText string) EvaluationRequest {
	return EvaluationRequest{
		CompanyID:             companyID,
		QueryID:               queryID,
		QueryText:             queryText,
		TopK:                  DefaultTopK,
		FilterByDocumentIndex: true,
		ExtendedSearch:        true,
	}
}

// EvaluationResult is the externally consumed result envelope.
type EvaluationResult struct {
	ID             string               `json:"id"`
	QueryID        string               `json:"query_id"`
	CompanyID      string               `json:"company_id"`
	Timestamp      time.Time            `json:"timestamp"`
	DataPoints     []RetrievalDataPoint `json:"data_points"`
	User           string               `json:"user,omitempty"`
	ModelVersion   string               `json:"model_version,omitempty"`
	ProcessingTime time.Duration        `json:"processing_time"`
}

// EvaluationRecord is one persisted data point.
type EvaluationRecord struct {
	ID               string
	EvaluationID     string
	QueryID          string
	CompanyID        string
	DocumentID       string
	ChunkID          string
	ChunkType        ChunkType
	Answer           string
	ReportYear       *int
	Confidence       float64
	SimilarityScore  float64
	References       References
	ModelVersion     string
	ProcessingTimeMS int64
	Timestamp        time.Time
}
