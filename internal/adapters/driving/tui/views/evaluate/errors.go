package evaluate

import "errors"

// Error definitions for the evaluate view.
var (
	// ErrNoEvaluationService indicates that no evaluation service was provided.
	ErrNoEvaluationService = errors.New("evaluation service is required")

	// ErrNoCompany indicates that no company is available to ask about.
	ErrNoCompany = errors.New("no company registered; add one with 'reportrag company add'")
)
