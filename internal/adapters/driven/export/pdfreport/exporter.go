// Package pdfreport renders evaluation results as a PDF table.
package pdfreport

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// Ensure Exporter implements the interface.
var _ driven.ResultExporter = (*Exporter)(nil)

// Format is the format name reported by the exporter.
const Format = "pdf"

// column is one table column: header text and width in millimetres.
type column struct {
	title string
	width float64
}

// Landscape A4 leaves 277mm between 10mm margins.
var columns = []column{
	{"Document", 40},
	{"Chunk", 34},
	{"Type", 24},
	{"Year", 14},
	{"Similarity", 20},
	{"Confidence", 20},
	{"Answer", 125},
}

const (
	rowHeight     = 6
	maxAnswerRune = 90
)

// Exporter writes evaluation results with fpdf.
type Exporter struct {
	// Title is printed at the top of the first page.
	Title string

	// now stamps the document; tests pin it for byte-stable output.
	now func() time.Time
}

// New creates a PDF exporter.
func New() *Exporter {
	return &Exporter{Title: "Evaluation report", now: time.Now}
}

// Format returns "pdf".
func (e *Exporter) Format() string {
	return Format
}

// Export renders result to w.
func (e *Exporter) Export(w io.Writer, result *domain.EvaluationResult) error {
	if result == nil {
		return fmt.Errorf("nil evaluation result: %w", domain.ErrInvalidInput)
	}

	doc := fpdf.New("L", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle(e.Title, true)
	doc.SetCreator("reportrag", true)
	doc.SetCreationDate(e.now())
	doc.SetAutoPageBreak(true, 10)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(0, 8, tr(e.Title), "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "", 9)
	for _, line := range summary(result) {
		doc.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	doc.Ln(3)

	header := func() {
		doc.SetFont("Helvetica", "B", 9)
		doc.SetFillColor(220, 220, 220)
		for _, c := range columns {
			doc.CellFormat(c.width, rowHeight, c.title, "1", 0, "L", true, 0, "")
		}
		doc.Ln(-1)
		doc.SetFont("Helvetica", "", 8)
	}
	doc.SetHeaderFunc(func() {
		if doc.PageNo() > 1 {
			header()
		}
	})
	header()

	if len(result.DataPoints) == 0 {
		doc.CellFormat(0, rowHeight, "No data points above the similarity threshold.", "1", 1, "L", false, 0, "")
	}
	for i := range result.DataPoints {
		for j, cell := range row(&result.DataPoints[i]) {
			c := columns[j]
			doc.CellFormat(c.width, rowHeight, fit(doc, tr(cell), c.width-2), "1", 0, "L", false, 0, "")
		}
		doc.Ln(-1)
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// Write renders result as PDF with default settings.
func Write(w io.Writer, result *domain.EvaluationResult) error {
	return New().Export(w, result)
}

func summary(r *domain.EvaluationResult) []string {
	lines := []string{
		"Company: " + r.CompanyID,
		"Query: " + r.QueryID,
		"Evaluation: " + r.ID,
		"Timestamp: " + r.Timestamp.UTC().Format(time.RFC3339),
		fmt.Sprintf("Data points: %d", len(r.DataPoints)),
	}
	if r.ModelVersion != "" {
		lines = append(lines, "Model: "+r.ModelVersion)
	}
	if r.User != "" {
		lines = append(lines, "User: "+r.User)
	}
	return lines
}

func row(p *domain.RetrievalDataPoint) []string {
	year := "-"
	if p.ReportYear != nil {
		year = strconv.Itoa(*p.ReportYear)
	}
	doc := p.Source
	if doc == "" {
		doc = p.DocumentID
	}
	return []string{
		doc,
		p.ChunkID,
		string(p.ChunkType),
		year,
		strconv.FormatFloat(p.SimilarityScore, 'f', 3, 64),
		strconv.FormatFloat(p.Confidence, 'f', 2, 64),
		excerpt(p.Answer, maxAnswerRune),
	}
}

// excerpt cuts s to at most n runes.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// fit shortens s until it fits width at the current font.
func fit(doc *fpdf.Fpdf, s string, width float64) string {
	if doc.GetStringWidth(s) <= width {
		return s
	}
	b := []byte(s)
	for len(b) > 0 && doc.GetStringWidth(string(b)+"...") > width {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}
