// Package styles holds the TUI palette and the styles for document status,
// similarity scores and chunk kinds.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

// Theme is the colour palette.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
}

// DefaultTheme returns a dark palette with a teal accent.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#2DD4BF"),
		Secondary:  lipgloss.Color("#60A5FA"),
		Background: lipgloss.Color("#111827"),
		Foreground: lipgloss.Color("#E5E7EB"),
		Muted:      lipgloss.Color("#6B7280"),
		Success:    lipgloss.Color("#4ADE80"),
		Warning:    lipgloss.Color("#FACC15"),
		Error:      lipgloss.Color("#F87171"),
		Border:     lipgloss.Color("#374151"),
	}
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style

	// InputField frames the question box.
	InputField lipgloss.Style
	// Answer indents retrieved chunk text under its header line.
	Answer    lipgloss.Style
	StatusBar lipgloss.Style
	Help      lipgloss.Style
	Border    lipgloss.Style
}

// NewStyles derives styles from theme; nil means DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	framed := lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(theme.Border)

	return &Styles{
		theme:      theme,
		Title:      fg(theme.Primary).Bold(true),
		Subtitle:   fg(theme.Secondary).Bold(true),
		Normal:     fg(theme.Foreground),
		Muted:      fg(theme.Muted),
		Selected:   fg(theme.Background).Background(theme.Primary).Bold(true),
		Error:      fg(theme.Error),
		Success:    fg(theme.Success),
		Warning:    fg(theme.Warning),
		InputField: framed.Padding(0, 1),
		Answer:     fg(theme.Foreground).PaddingLeft(4),
		StatusBar:  fg(theme.Muted).Background(theme.Background).Padding(0, 1),
		Help:       fg(theme.Muted).Italic(true),
		Border:     framed,
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette these styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Status returns the style for a document's ingestion status.
func (s *Styles) Status(status domain.ProcessingStatus) lipgloss.Style {
	switch status {
	case domain.StatusSuccess:
		return s.Success
	case domain.StatusFailed:
		return s.Error
	case domain.StatusPending:
		return s.Warning
	default:
		return s.Muted
	}
}

// Similarity returns the style for a similarity score in (0, 1].
// Scores at or above 0.5 are strong matches.
func (s *Styles) Similarity(score float64) lipgloss.Style {
	switch {
	case score >= 0.5:
		return s.Success
	case score >= 0.2:
		return s.Normal
	default:
		return s.Muted
	}
}

// ChunkType returns the style for a chunk kind label. Table columns,
// the higher-precision source, stand out.
func (s *Styles) ChunkType(t domain.ChunkType) lipgloss.Style {
	if t == domain.ChunkTypeTableColumn {
		return s.Subtitle
	}
	return s.Muted
}
