package pdfreport

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/normalisers/pdf"
)

func testResult(points int) *domain.EvaluationResult {
	result := &domain.EvaluationResult{
		ID:           "eval-1",
		QueryID:      "revenue",
		CompanyID:    "acme",
		Timestamp:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ModelVersion: "static",
	}
	for i := 0; i < points; i++ {
		result.DataPoints = append(result.DataPoints, domain.RetrievalDataPoint{
			CompanyID:       "acme",
			DocumentID:      "doc-1",
			Source:          "annual-report.pdf",
			ChunkID:         "0123456789abcdef",
			ChunkType:       domain.ChunkTypeTableColumn,
			ReportYear:      domain.IntPtr(2023),
			SimilarityScore: 0.8123,
			Confidence:      0.5,
			Answer:          "Revenue was 1,450",
		})
	}
	return result
}

func TestExport_WritesReadablePDF(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Write(&buf, testResult(2)))

	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	text, err := pdf.New().FirstPageText(context.Background(), buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, text, "acme")
	assert.Contains(t, text, "annual-report.pdf")
}

func TestExport_ManyRowsSpanPages(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Write(&buf, testResult(60)))

	assert.Greater(t, bytes.Count(buf.Bytes(), []byte("/Type /Page\n")), 1)
}

func TestExport_EmptyResult(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Write(&buf, testResult(0)))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestExport_NilResult(t *testing.T) {
	err := New().Export(&bytes.Buffer{}, nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "pdf", New().Format())
}

func TestRow(t *testing.T) {
	p := testResult(1).DataPoints[0]
	assert.Equal(t, []string{"annual-report.pdf", "0123456789abcdef", "table_column", "2023", "0.812", "0.50", "Revenue was 1,450"}, row(&p))

	p.Source = ""
	p.ReportYear = nil
	cells := row(&p)
	assert.Equal(t, "doc-1", cells[0])
	assert.Equal(t, "-", cells[3])
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short", 10))
	assert.Equal(t, "abcdefg...", excerpt(strings.Repeat("abcdefghij", 3), 10))
}

func TestFit(t *testing.T) {
	doc := fpdf.New("L", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 8)

	assert.Equal(t, "abc", fit(doc, "abc", 50))

	long := strings.Repeat("wide text ", 20)
	got := fit(doc, long, 30)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, doc.GetStringWidth(got), 30.0)
}
