// Package tui provides an interactive terminal user interface for reportrag.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI needs.
type Ports struct {
	// Evaluation answers questions against a company's reports.
	Evaluation driving.EvaluationService

	// Document lists and manages registered reports.
	Document driving.DocumentService

	// Catalog lists the companies a question can target.
	Catalog driving.CatalogService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	evaluation driving.EvaluationService,
	document driving.DocumentService,
	catalog driving.CatalogService,
) *Ports {
	return &Ports{
		Evaluation: evaluation,
		Document:   document,
		Catalog:    catalog,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Evaluation == nil {
		return ErrMissingEvaluationService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	if p.Catalog == nil {
		return ErrMissingCatalogService
	}
	return nil
}
