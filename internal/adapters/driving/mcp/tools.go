package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
)

// EvaluateInput is the input schema for the evaluate tool.
type EvaluateInput struct {
	CompanyID   string `json:"company_id" jsonschema:"the company whose reports are searched"`
	QueryID     string `json:"query_id,omitempty" jsonschema:"stored query id; its question is used when query_text is empty"`
	QueryText   string `json:"query_text,omitempty" jsonschema:"the question to answer from the reports"`
	TopK        int    `json:"top_k,omitempty" jsonschema:"chunks returned per document (default 5)"`
	TableOnly   bool   `json:"table_only,omitempty" jsonschema:"search table columns only"`
	NoDocFilter bool   `json:"no_doc_filter,omitempty" jsonschema:"skip the document-level similarity filter"`
}

// EvaluateOutput is the output schema for the evaluate tool.
type EvaluateOutput struct {
	EvaluationID string            `json:"evaluation_id"`
	CompanyID    string            `json:"company_id"`
	QueryID      string            `json:"query_id,omitempty"`
	Count        int               `json:"count"`
	DataPoints   []DataPointOutput `json:"data_points"`
}

// DataPointOutput is one retrieved chunk with its answer.
type DataPointOutput struct {
	DocumentID      string  `json:"document_id"`
	Source          string  `json:"source,omitempty"`
	ChunkID         string  `json:"chunk_id"`
	ChunkType       string  `json:"chunk_type"`
	ReportYear      *int    `json:"report_year,omitempty"`
	SimilarityScore float64 `json:"similarity_score"`
	Confidence      float64 `json:"confidence"`
	Answer          string  `json:"answer,omitempty"`
	PageNumbers     []int   `json:"page_numbers,omitempty"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	CompanyID  string `json:"company_id" jsonschema:"the company that published the report"`
	Path       string `json:"path" jsonschema:"local path of the PDF report"`
	ReportYear int    `json:"report_year,omitempty" jsonschema:"reporting year when known"`
	Source     string `json:"source,omitempty" jsonschema:"manual or webscraped (default manual)"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
	FileHash   string `json:"file_hash"`
	Status     string `json:"status"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "evaluate",
		Description: "Answer a question from a company's indexed PDF reports",
	}, s.handleEvaluate)

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Register a local PDF report and queue it for indexing",
		}, s.handleIngest)
	}
}

// handleEvaluate handles the evaluate tool invocation.
func (s *Server) handleEvaluate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EvaluateInput,
) (*mcp.CallToolResult, EvaluateOutput, error) {
	req := domain.NewEvaluationRequest(input.CompanyID, input.QueryID, input.QueryText)
	if input.TopK > 0 {
		req.TopK = input.TopK
	}
	req.ExtendedSearch = !input.TableOnly
	req.FilterByDocumentIndex = !input.NoDocFilter
	req.User = "mcp"

	result, err := s.ports.Evaluation.Evaluate(ctx, req)
	if err != nil {
		return nil, EvaluateOutput{}, err
	}

	output := EvaluateOutput{
		EvaluationID: result.ID,
		CompanyID:    result.CompanyID,
		QueryID:      result.QueryID,
		Count:        len(result.DataPoints),
		DataPoints:   make([]DataPointOutput, len(result.DataPoints)),
	}
	for i := range result.DataPoints {
		p := &result.DataPoints[i]
		output.DataPoints[i] = DataPointOutput{
			DocumentID:      p.DocumentID,
			Source:          p.Source,
			ChunkID:         p.ChunkID,
			ChunkType:       string(p.ChunkType),
			ReportYear:      p.ReportYear,
			SimilarityScore: p.SimilarityScore,
			Confidence:      p.Confidence,
			Answer:          p.Answer,
			PageNumbers:     p.References.PageNumbers,
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if input.Path == "" {
		return nil, IngestOutput{}, errors.New("path is required")
	}
	data, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, IngestOutput{}, fmt.Errorf("reading %s: %w", input.Path, err)
	}

	req := driving.RegisterRequest{
		CompanyID: input.CompanyID,
		FileName:  filepath.Base(input.Path),
		Source:    domain.DocumentSource(input.Source),
		Data:      data,
	}
	if input.ReportYear > 0 {
		req.ReportYear = domain.IntPtr(input.ReportYear)
	}

	doc, err := s.ports.Document.Register(ctx, req)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		DocumentID: doc.ID,
		FileHash:   doc.FileHash,
		Status:     string(doc.Status),
	}, nil
}
