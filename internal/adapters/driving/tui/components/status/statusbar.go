// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady      State = "ready"
	StateEvaluating State = "evaluating"
	StateError      State = "error"
	StateResults    State = "results"
)

// Bar displays the evaluation state, the target company and keybinding hints.
type Bar struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	state      State
	message    string
	company    string
	pointCount int
	typing     bool
	width      int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages. The bar is passive.
func (s *Bar) Update(tea.Msg) (*Bar, tea.Cmd) {
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := max(s.width-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var text string
	switch s.state {
	case StateEvaluating:
		return s.styles.Muted.Render("Evaluating...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Error.Render("Error")
	case StateResults:
		text = fmt.Sprintf("%d data points", s.pointCount)
	default:
		text = "Ready"
		if s.message != "" {
			text = s.message
		}
	}
	if s.company != "" {
		text = s.company + " | " + text
	}
	return s.styles.Normal.Render(text)
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	switch {
	case s.typing:
		bindings = s.keymap.QuestionHelp()
	case s.state == StateResults && s.pointCount > 0:
		bindings = s.keymap.ResultsHelp()
	default:
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetCompany sets the company label.
func (s *Bar) SetCompany(company string) {
	s.company = company
}

// SetPointCount sets the number of data points shown.
func (s *Bar) SetPointCount(count int) {
	s.pointCount = count
}

// PointCount returns the number of data points shown.
func (s *Bar) PointCount() int {
	return s.pointCount
}

// SetTyping selects the question-entry hints.
func (s *Bar) SetTyping(typing bool) {
	s.typing = typing
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Clear resets the status bar to default state. The company label is kept.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.pointCount = 0
}
