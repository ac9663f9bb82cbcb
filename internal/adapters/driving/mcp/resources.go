package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for reportrag resources.
	uriScheme = "reportrag://"
)

// documentInfo is the JSON shape of a document record.
type documentInfo struct {
	ID         string `json:"id"`
	CompanyID  string `json:"company_id"`
	FileName   string `json:"file_name"`
	FileHash   string `json:"file_hash"`
	Source     string `json:"source"`
	ReportYear *int   `json:"report_year,omitempty"`
	Active     bool   `json:"active"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	LastError  string `json:"last_error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func newDocumentInfo(d *domain.Document) documentInfo {
	return documentInfo{
		ID:         d.ID,
		CompanyID:  d.CompanyID,
		FileName:   d.FileName,
		FileHash:   d.FileHash,
		Source:     string(d.Source),
		ReportYear: d.ReportYear,
		Active:     d.Active,
		Status:     string(d.Status),
		Attempts:   d.Attempts,
		LastError:  d.LastError,
		CreatedAt:  d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing companies.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "companies",
		Name:        "companies",
		Description: "List of all companies",
		MIMEType:    "application/json",
	}, s.handleCompaniesResource)

	// Template for company documents.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "companies/{companyId}/documents",
		Name:        "company-documents",
		Description: "Report documents registered for a company",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	// Template for a single document record.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document",
		Description: "Record and ingestion status of a report document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

// handleCompaniesResource returns a list of all companies.
func (s *Server) handleCompaniesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	companies, err := s.ports.Catalog.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing companies: %w", err)
	}

	type companyInfo struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Active bool   `json:"active"`
	}

	infos := make([]companyInfo, len(companies))
	for i, c := range companies {
		infos[i] = companyInfo{ID: c.ID, Name: c.Name, Active: c.Active}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling companies: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleDocumentsResource returns the documents of one company.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// reportrag://companies/{companyId}/documents
	companyID := extractCompanyID(req.Params.URI)
	if companyID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Document.List(ctx, domain.DocumentFilter{CompanyID: companyID})
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]documentInfo, len(docs))
	for i := range docs {
		infos[i] = newDocumentInfo(&docs[i])
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleDocumentResource returns one document record.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// reportrag://documents/{documentId}
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Document.Get(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	data, err := json.MarshalIndent(newDocumentInfo(doc), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling document: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractCompanyID extracts the company ID from reportrag://companies/{companyId}/documents.
func extractCompanyID(uri string) string {
	const prefix = uriScheme + "companies/"
	const suffix = "/documents"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractDocumentID extracts the document ID from reportrag://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
