package pdf

import (
	"math"
	"strconv"
	"strings"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

// Year bounds for table headers, both exclusive.
const (
	minHeaderYear = 1900
	maxHeaderYear = 2100
)

// column is a header cell that anchors values below it.
type column struct {
	header string
	x0     float64
	box    domain.Rect
}

// headerYear parses a header cell as a year.
func headerYear(s string) (int, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y <= minHeaderYear || y >= maxHeaderYear {
		return 0, false
	}
	return y, true
}

// yearColumn is the content of one year column.
type yearColumn struct {
	year   int
	labels []string
	values []string
	box    domain.Rect
}

// yearColumns extracts every year column of t.
// The leftmost cell of each body row is its label.
func yearColumns(t table) []yearColumn {
	if len(t.rows) < minTableRows {
		return nil
	}
	header, body := t.rows[0], t.rows[1:]

	labelX := math.Inf(1)
	for _, r := range body {
		labelX = math.Min(labelX, r.cells[0].x0)
	}
	tolerance := header.size

	var cols []column
	for i, c := range header.cells {
		if i == 0 && c.x0 <= labelX+tolerance {
			// Header of the label column.
			continue
		}
		cols = append(cols, column{header: c.text, x0: c.x0, box: c.box})
	}
	if len(cols) == 0 {
		return nil
	}

	out := make([]yearColumn, len(cols))
	years := make([]bool, len(cols))
	for i, col := range cols {
		if y, ok := headerYear(col.header); ok {
			out[i] = yearColumn{year: y, box: col.box}
			years[i] = true
		}
	}

	for _, r := range body {
		label := ""
		cells := r.cells
		if cells[0].x0 <= labelX+tolerance {
			label = cells[0].text
			cells = cells[1:]
		}
		if label == "" {
			continue
		}

		// Later cells overwrite earlier ones landing in the same column.
		assigned := make(map[int]cell, len(cells))
		for _, c := range cells {
			assigned[nearestColumn(cols, c.x0)] = c
		}
		for i := range cols {
			c, ok := assigned[i]
			if !years[i] || !ok {
				continue
			}
			out[i].labels = append(out[i].labels, label)
			out[i].values = append(out[i].values, c.text)
			out[i].box = out[i].box.Union(c.box)
		}
	}

	result := make([]yearColumn, 0, len(out))
	for i, yc := range out {
		if years[i] && len(yc.labels) > 0 {
			result = append(result, yc)
		}
	}
	return result
}

func nearestColumn(cols []column, x float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, col := range cols {
		if d := math.Abs(col.x0 - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// text renders the column as a year line followed by "label: value" lines.
func (yc yearColumn) text() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(yc.year))
	for i := range yc.labels {
		b.WriteByte('\n')
		b.WriteString(yc.labels[i])
		b.WriteString(": ")
		b.WriteString(yc.values[i])
	}
	return b.String()
}

// tableChunks builds one chunk per year column on a page.
func tableChunks(layout pageLayout, paragraphs []domain.Paragraph, sourceDocumentID string) []domain.Chunk {
	var chunks []domain.Chunk
	for _, t := range layout.tables {
		before := findParagraph(paragraphs, layout.number, t.paragraphsBefore-1)
		after := findParagraph(paragraphs, layout.number, t.paragraphsBefore)

		for _, yc := range yearColumns(t) {
			text := yc.text()
			chunks = append(chunks, domain.Chunk{
				ID:               domain.ChunkID(sourceDocumentID, domain.ChunkTypeTableColumn, layout.number, text),
				SourceDocumentID: sourceDocumentID,
				Type:             domain.ChunkTypeTableColumn,
				PageNumbers:      []int{layout.number},
				BBoxes:           []domain.Rect{yc.box},
				Text:             text,
				Year:             domain.IntPtr(yc.year),
				RowLabels:        yc.labels,
				Values:           yc.values,
				ContextBefore:    before,
				ContextAfter:     after,
			})
		}
	}
	return chunks
}

func findParagraph(paragraphs []domain.Paragraph, page, index int) *string {
	if index < 0 {
		return nil
	}
	for _, p := range paragraphs {
		if p.PageNumber == page && p.Index == index {
			return domain.StringPtr(p.Text)
		}
	}
	return nil
}
