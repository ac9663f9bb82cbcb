package mcp

import (
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Evaluation runs queries against company reports.
	Evaluation driving.EvaluationService

	// Document registers and lists report documents.
	Document driving.DocumentService

	// Catalog lists companies.
	Catalog driving.CatalogService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Evaluation == nil {
		return ErrMissingEvaluationService
	}
	// Document and Catalog are optional; their tools and resources degrade.
	return nil
}
