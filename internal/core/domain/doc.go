// Package domain defines the core business entities for reportrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Paragraph: A text block extracted from one PDF page
//   - Chunk: A retrievable unit (paragraph window or table year-column)
//   - Document: A registered PDF report and its index artifacts
//   - RetrievalDataPoint: One annotated answer candidate for a query
//   - EvaluationResult: The result envelope handed to record storage
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
