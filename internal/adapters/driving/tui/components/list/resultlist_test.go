package list

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

func testPoints() []domain.RetrievalDataPoint {
	return []domain.RetrievalDataPoint{
		{
			ChunkID: "c1", ChunkType: domain.ChunkTypeTableColumn, Source: "acme-2023.pdf",
			ReportYear: domain.IntPtr(2023), SimilarityScore: 0.71, Confidence: 0.5,
			Answer: "Revenue: 1,450\nEBIT: 210",
			References: domain.References{
				PageNumbers: []int{4, 5},
				RowLabels:   []string{"Revenue", "EBIT"},
			},
		},
		{
			ChunkID: "c2", ChunkType: domain.ChunkTypeText, Source: "acme-2022.pdf",
			SimilarityScore: 0.12, Answer: "Revenue grew in all regions.", Provider: "ollama",
		},
	}
}

func TestDataPointList_Empty(t *testing.T) {
	l := NewDataPointList(nil)

	assert.Zero(t, l.Count())
	assert.Nil(t, l.SelectedPoint())
	assert.Contains(t, l.View(), "No matching passages")

	l.ToggleExpanded()
	assert.False(t, l.Expanded())
}

func TestDataPointList_View(t *testing.T) {
	l := NewDataPointList(nil)
	l.SetDimensions(100, 30)
	l.SetPoints(testPoints())

	view := l.View()

	assert.Contains(t, view, "Data points (2)")
	assert.Contains(t, view, "2023")
	assert.Contains(t, view, "table_column")
	assert.Contains(t, view, "acme-2023.pdf  p.4,5")
	assert.Contains(t, view, "Revenue: 1,450 EBIT: 210", "answers collapse to one line")
	assert.Contains(t, view, "----", "unknown year placeholder")
}

func TestDataPointList_Navigation(t *testing.T) {
	l := NewDataPointList(nil)
	l.SetPoints(testPoints())

	l.MoveUp()
	assert.Equal(t, 0, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 1, l.Selected())

	l.MoveDown()
	assert.Equal(t, 1, l.Selected(), "stays on last point")

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, l.Selected())
	require.NotNil(t, l.SelectedPoint())
	assert.Equal(t, "c1", l.SelectedPoint().ChunkID)
}

func TestDataPointList_Expand(t *testing.T) {
	l := NewDataPointList(nil)
	l.SetDimensions(100, 30)
	l.SetPoints(testPoints())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, l.Expanded())

	view := l.View()
	assert.Contains(t, view, "rows: Revenue, EBIT")
	assert.Contains(t, view, "chunk c1  confidence 0.50")

	l.MoveDown()
	assert.False(t, l.Expanded(), "moving collapses")

	l.ToggleExpanded()
	assert.Contains(t, l.View(), "via ollama")
}

func TestDataPointList_SetPointsResetsSelection(t *testing.T) {
	l := NewDataPointList(nil)
	l.SetPoints(testPoints())
	l.MoveDown()
	l.ToggleExpanded()

	l.SetPoints(testPoints()[:1])

	assert.Equal(t, 0, l.Selected())
	assert.False(t, l.Expanded())
	assert.Len(t, l.Points(), 1)
}
