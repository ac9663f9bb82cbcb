package pdf

import (
	"cmp"
	"math"
	"slices"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

// Layout thresholds, as multiples of the font size.
const (
	runBreakGap   = 1.0
	wordGap       = 0.1
	rowTolerance  = 0.5
	paragraphGap  = 1.6
	minFontSize   = 1.0
	minTableRows  = 2
	minTableCells = 2
)

// run is a horizontal stretch of text with a shared baseline.
type run struct {
	text   strings.Builder
	x0, x1 float64
	y      float64
	size   float64
	cursor float64
}

func (r *run) rect() domain.Rect {
	return domain.Rect{X0: r.x0, Y0: r.y, X1: max(r.x1, r.x0), Y1: r.y + r.size}
}

// cell is one finished run.
type cell struct {
	text string
	box  domain.Rect
	x0   float64
}

// row is a set of cells sharing a baseline, ordered left to right.
type row struct {
	y     float64
	size  float64
	cells []cell
}

func (r row) text() string {
	parts := make([]string, 0, len(r.cells))
	for _, c := range r.cells {
		parts = append(parts, c.text)
	}
	return strings.Join(parts, " ")
}

func (r row) rect() domain.Rect {
	var box domain.Rect
	for _, c := range r.cells {
		box = box.Union(c.box)
	}
	return box
}

// table is a run of consecutive multi-cell rows.
type table struct {
	rows []row
	// paragraphsBefore is the number of paragraphs on the page above the table.
	paragraphsBefore int
}

// pageLayout is the analysed content of one page.
type pageLayout struct {
	number     int
	paragraphs []domain.Paragraph
	tables     []table
}

// buildRuns merges glyphs into runs in emission order.
func buildRuns(glyphs []lpdf.Text) []*run {
	var runs []*run
	var cur *run

	for _, g := range glyphs {
		if g.S == "\n" || g.S == "\r" || g.S == "" {
			continue
		}
		size := math.Max(g.FontSize, minFontSize)

		if cur != nil {
			dy := math.Abs(g.Y - cur.y)
			gap := g.X - cur.cursor
			if dy > rowTolerance*size || gap < -wordGap*size || gap > runBreakGap*size {
				cur = nil
			} else if gap > wordGap*size && !strings.HasSuffix(cur.text.String(), " ") && g.S != " " {
				cur.text.WriteByte(' ')
			}
		}
		if cur == nil {
			cur = &run{x0: g.X, x1: g.X, y: g.Y, size: size, cursor: g.X}
			runs = append(runs, cur)
		}

		cur.text.WriteString(g.S)
		cur.cursor = g.X + g.W
		cur.x1 = math.Max(cur.x1, g.X+g.W)
		cur.size = math.Max(cur.size, size)
	}
	return runs
}

// buildRows groups runs by baseline, top of page first.
func buildRows(runs []*run) []row {
	sorted := slices.Clone(runs)
	slices.SortStableFunc(sorted, func(a, b *run) int {
		return cmp.Compare(b.y, a.y)
	})

	var rows []row
	for _, r := range sorted {
		text := strings.Join(strings.Fields(r.text.String()), " ")
		if text == "" {
			continue
		}
		c := cell{text: text, box: r.rect(), x0: r.x0}

		if n := len(rows); n > 0 && math.Abs(rows[n-1].y-r.y) <= rowTolerance*rows[n-1].size {
			rows[n-1].cells = append(rows[n-1].cells, c)
			rows[n-1].size = math.Max(rows[n-1].size, r.size)
			continue
		}
		rows = append(rows, row{y: r.y, size: r.size, cells: []cell{c}})
	}

	for i := range rows {
		slices.SortStableFunc(rows[i].cells, func(a, b cell) int {
			return cmp.Compare(a.x0, b.x0)
		})
	}
	return rows
}

// analysePage splits the rows of one page into paragraphs and tables.
func analysePage(number int, glyphs []lpdf.Text) pageLayout {
	rows := buildRows(buildRuns(glyphs))
	layout := pageLayout{number: number}

	var lines []row
	flush := func() {
		if p, ok := joinParagraph(lines, number, len(layout.paragraphs)); ok {
			layout.paragraphs = append(layout.paragraphs, p)
		}
		lines = nil
	}

	for i := 0; i < len(rows); {
		end := i
		for end < len(rows) && len(rows[end].cells) >= minTableCells {
			end++
		}
		// Multi-cell rows without a year header are columns of prose or
		// plain label/value lists; they stay in the paragraph stream.
		if t := (table{rows: rows[i:end]}); end-i >= minTableRows && len(yearColumns(t)) > 0 {
			flush()
			t.paragraphsBefore = len(layout.paragraphs)
			layout.tables = append(layout.tables, t)
			i = end
			continue
		}

		r := rows[i]
		if len(lines) > 0 {
			prev := lines[len(lines)-1]
			if prev.y-r.y > paragraphGap*math.Max(prev.size, r.size) {
				flush()
			}
		}
		lines = append(lines, r)
		i++
	}
	flush()

	return layout
}

// joinParagraph turns consecutive lines into a paragraph.
// Whitespace-only content yields false.
func joinParagraph(lines []row, page, index int) (domain.Paragraph, bool) {
	parts := make([]string, 0, len(lines))
	var box domain.Rect
	for _, l := range lines {
		parts = append(parts, l.text())
		box = box.Union(l.rect())
	}
	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if text == "" {
		return domain.Paragraph{}, false
	}
	return domain.Paragraph{
		Text:       text,
		PageNumber: page,
		BBox:       box,
		Index:      index,
	}, true
}

// plainText renders a page top to bottom, one row per line.
func plainText(glyphs []lpdf.Text) string {
	rows := buildRows(buildRuns(glyphs))
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, r.text())
	}
	return strings.Join(lines, "\n")
}
