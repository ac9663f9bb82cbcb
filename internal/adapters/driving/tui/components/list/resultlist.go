// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/reportrag/internal/core/domain"
)

// linesPerPoint is the height of one collapsed data point.
const linesPerPoint = 3

// DataPointList displays retrieved data points in a navigable list.
// The selected point can be expanded to show its full answer and references.
type DataPointList struct {
	points   []domain.RetrievalDataPoint
	selected int
	expanded bool
	styles   *styles.Styles
	width    int
	height   int
}

// NewDataPointList creates a new data point list component.
func NewDataPointList(s *styles.Styles) *DataPointList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &DataPointList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *DataPointList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *DataPointList) Update(msg tea.Msg) (*DataPointList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "enter":
			l.ToggleExpanded()
		}
	}
	return l, nil
}

// View renders the list.
func (l *DataPointList) View() string {
	if len(l.points) == 0 {
		return l.styles.Muted.Render("No matching passages")
	}

	lines := make([]string, 0, len(l.points)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Data points (%d)", len(l.points))), "")

	visible := max((l.height-4)/linesPerPoint, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.points))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderPoint(i, &l.points[i]))
	}
	return strings.Join(lines, "\n")
}

// renderPoint formats one data point: a header line, the source and the answer.
func (l *DataPointList) renderPoint(index int, p *domain.RetrievalDataPoint) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	year := "----"
	if p.ReportYear != nil {
		year = fmt.Sprintf("%d", *p.ReportYear)
	}
	header := fmt.Sprintf("%s%s  ", indicator, year)
	kind := fmt.Sprintf("%-12s", p.ChunkType)
	score := fmt.Sprintf("%.3f", p.SimilarityScore)

	var headerLine string
	if index == l.selected {
		headerLine = l.styles.Selected.Render(header + kind + "  " + score)
	} else {
		headerLine = l.styles.Normal.Render(header) +
			l.styles.ChunkType(p.ChunkType).Render(kind) + "  " +
			l.styles.Similarity(p.SimilarityScore).Render(score)
	}

	source := p.Source
	if len(p.References.PageNumbers) > 0 {
		source += fmt.Sprintf("  p.%s", joinInts(p.References.PageNumbers))
	}
	sourceLine := l.styles.Subtitle.Render("    " + source)

	if index == l.selected && l.expanded {
		return headerLine + "\n" + sourceLine + "\n" + l.renderExpanded(p)
	}

	answer := strings.Join(strings.Fields(p.Answer), " ")
	maxLen := max(l.width-6, 20)
	if len(answer) > maxLen {
		answer = answer[:maxLen-3] + "..."
	}
	return headerLine + "\n" + sourceLine + "\n" + l.styles.Muted.Render("    "+answer)
}

// renderExpanded shows the full answer plus table labels and confidence.
func (l *DataPointList) renderExpanded(p *domain.RetrievalDataPoint) string {
	var b strings.Builder
	b.WriteString(l.styles.Answer.Width(max(l.width-2, 20)).Render(p.Answer))
	if len(p.References.RowLabels) > 0 {
		b.WriteString("\n")
		b.WriteString(l.styles.Muted.Render("    rows: " + strings.Join(p.References.RowLabels, ", ")))
	}
	b.WriteString("\n")
	meta := fmt.Sprintf("    chunk %s  confidence %.2f", p.ChunkID, p.Confidence)
	if p.Provider != "" {
		meta += "  via " + p.Provider
	}
	b.WriteString(l.styles.Muted.Render(meta))
	return b.String()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}

// SetPoints replaces the listed data points.
func (l *DataPointList) SetPoints(points []domain.RetrievalDataPoint) {
	l.points = points
	l.selected = 0
	l.expanded = false
}

// Points returns the listed data points.
func (l *DataPointList) Points() []domain.RetrievalDataPoint {
	return l.points
}

// Selected returns the index of the selected point.
func (l *DataPointList) Selected() int {
	return l.selected
}

// SelectedPoint returns the selected point, or nil if the list is empty.
func (l *DataPointList) SelectedPoint() *domain.RetrievalDataPoint {
	if l.selected < 0 || l.selected >= len(l.points) {
		return nil
	}
	return &l.points[l.selected]
}

// MoveUp moves selection up and collapses the expanded point.
func (l *DataPointList) MoveUp() {
	if l.selected > 0 {
		l.selected--
		l.expanded = false
	}
}

// MoveDown moves selection down and collapses the expanded point.
func (l *DataPointList) MoveDown() {
	if l.selected < len(l.points)-1 {
		l.selected++
		l.expanded = false
	}
}

// ToggleExpanded expands or collapses the selected point.
func (l *DataPointList) ToggleExpanded() {
	if len(l.points) > 0 {
		l.expanded = !l.expanded
	}
}

// Expanded reports whether the selected point is expanded.
func (l *DataPointList) Expanded() bool {
	return l.expanded
}

// SetDimensions sets the component dimensions.
func (l *DataPointList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of points.
func (l *DataPointList) Count() int {
	return len(l.points)
}
