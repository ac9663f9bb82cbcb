// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/reportrag/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewEvaluate is the question input and data point view.
	ViewEvaluate
	// ViewDocuments lists registered reports.
	ViewDocuments
	// ViewDocDetails shows one report's record.
	ViewDocDetails
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewEvaluate:
		return "evaluate"
	case ViewDocuments:
		return "documents"
	case ViewDocDetails:
		return "doc_details"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// CompaniesLoaded carries the companies a question can target.
type CompaniesLoaded struct {
	Companies []domain.Company
	Err       error
}

// EvaluationCompleted carries an evaluation result back to the model.
type EvaluationCompleted struct {
	Result *domain.EvaluationResult
	Err    error
}

// DocumentsLoaded carries the registered documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected signals a document was chosen for the details view.
type DocumentSelected struct {
	Document domain.Document
}

// DocumentUpdated signals an activation change or retry finished.
type DocumentUpdated struct {
	DocumentID string
	Err        error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
