package driven

import (
	"io"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

// ResultExporter renders an evaluation result into a document format.
type ResultExporter interface {
	// Export writes result to w.
	Export(w io.Writer, result *domain.EvaluationResult) error

	// Format returns the output format name (e.g. "pdf").
	Format() string
}
