// Package documents provides the documents list view component for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
)

var errNoDocumentService = errors.New("document service not available")

// ActionOption represents a document action.
type ActionOption int

const (
	ActionShowDetails ActionOption = iota
	ActionToggleActive
	ActionRetry
	ActionCancel
)

// View is the documents list view.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	documents    []domain.Document
	failedOnly   bool
	selected     int
	width        int
	height       int
	err          error
	loading      bool
	showingMenu  bool
	menuSelected ActionOption
	scrollOffset int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		width:           80,
		height:          24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the documents.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.showingMenu = false
	return v.loadDocuments()
}

func (v *View) loadDocuments() tea.Cmd {
	filter := domain.DocumentFilter{}
	if v.failedOnly {
		filter.Status = domain.StatusFailed
	}
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.DocumentsLoaded{Err: errNoDocumentService}
		}
		docs, err := v.documentService.List(v.ctx, filter)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.showingMenu {
			return v.handleMenuKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.documents = msg.Documents
		v.err = nil
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.DocumentUpdated:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		return v, v.loadDocuments()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in list mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if len(v.documents) > 0 {
			v.showingMenu = true
			v.menuSelected = ActionShowDetails
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "f":
		v.failedOnly = !v.failedOnly
		v.selected = 0
		v.scrollOffset = 0
		v.loading = true
		return v, v.loadDocuments()
	case "r":
		v.loading = true
		return v, v.loadDocuments()
	}

	return v, nil
}

// handleMenuKeyMsg handles key presses in action menu mode.
func (v *View) handleMenuKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.menuSelected > ActionShowDetails {
			v.menuSelected--
		}
	case "down", "j":
		if v.menuSelected < ActionCancel {
			v.menuSelected++
		}
	case "enter":
		return v.handleMenuSelect()
	case "esc":
		v.showingMenu = false
	}

	return v, nil
}

// handleMenuSelect runs the chosen action on the selected document.
func (v *View) handleMenuSelect() (*View, tea.Cmd) {
	v.showingMenu = false
	doc := v.SelectedDocument()
	if doc == nil {
		return v, nil
	}
	selected := *doc

	switch v.menuSelected {
	case ActionShowDetails:
		return v, func() tea.Msg {
			return messages.DocumentSelected{Document: selected}
		}
	case ActionToggleActive:
		return v, v.setActive(selected.ID, !selected.Active)
	case ActionRetry:
		if selected.Status != domain.StatusFailed {
			v.err = fmt.Errorf("%s has not failed", selected.FileName)
			return v, nil
		}
		return v, v.retry(selected.ID)
	case ActionCancel:
	}
	return v, nil
}

func (v *View) setActive(docID string, active bool) tea.Cmd {
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.DocumentUpdated{DocumentID: docID, Err: errNoDocumentService}
		}
		err := v.documentService.SetActive(v.ctx, docID, active)
		return messages.DocumentUpdated{DocumentID: docID, Err: err}
	}
}

func (v *View) retry(docID string) tea.Cmd {
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.DocumentUpdated{DocumentID: docID, Err: errNoDocumentService}
		}
		err := v.documentService.Retry(v.ctx, docID)
		return messages.DocumentUpdated{DocumentID: docID, Err: err}
	}
}

// adjustScroll keeps the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount reserves lines for title, help, and padding.
func (v *View) visibleItemCount() int {
	return max(v.height-8, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Documents (%d)", len(v.documents))
	if v.failedOnly {
		title = fmt.Sprintf("Failed documents (%d)", len(v.documents))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents registered. Use 'reportrag ingest' to add reports."))
	case v.showingMenu:
		b.WriteString(v.renderActionMenu())
		return b.String()
	default:
		visibleItems := v.visibleItemCount()
		for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visibleItems; i++ {
			b.WriteString(v.renderDocument(i, &v.documents[i]))
			b.WriteString("\n")
		}
		if len(v.documents) > visibleItems {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
				v.scrollOffset+1,
				min(v.scrollOffset+visibleItems, len(v.documents)),
				len(v.documents))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

// renderDocument renders a single document line: status, year, file, company.
func (v *View) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	year := "----"
	if doc.ReportYear != nil {
		year = fmt.Sprintf("%d", *doc.ReportYear)
	}

	name := doc.FileName
	maxNameLen := max(v.width-40, 10)
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	suffix := doc.CompanyID
	if !doc.Active {
		suffix += " (inactive)"
	}

	status := fmt.Sprintf("%-8s", doc.Status)
	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%s %s  %-*s  %s", indicator, status, year, maxNameLen, name, suffix))
	}
	return v.styles.Normal.Render(indicator) +
		v.styles.Status(doc.Status).Render(status) +
		v.styles.Normal.Render(fmt.Sprintf(" %s  %-*s  ", year, maxNameLen, name)) +
		v.styles.Muted.Render(suffix)
}

// renderActionMenu renders the action menu overlay.
func (v *View) renderActionMenu() string {
	var b strings.Builder

	doc := v.SelectedDocument()
	if doc == nil {
		return ""
	}
	b.WriteString(v.styles.Subtitle.Render("Actions for: " + doc.FileName))
	b.WriteString("\n\n")

	toggle := "Deactivate"
	if !doc.Active {
		toggle = "Activate"
	}
	options := []struct {
		action ActionOption
		label  string
	}{
		{ActionShowDetails, "Show Details"},
		{ActionToggleActive, toggle},
		{ActionRetry, "Retry Ingestion"},
		{ActionCancel, "Cancel"},
	}

	for _, opt := range options {
		if v.menuSelected == opt.action {
			b.WriteString(v.styles.Selected.Render("> " + opt.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] select  [esc] cancel"))
	return b.String()
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] actions  [f] failed only  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// IsShowingMenu returns true if the action menu is visible.
func (v *View) IsShowingMenu() bool {
	return v.showingMenu
}

// FailedOnly reports whether only failed documents are listed.
func (v *View) FailedOnly() bool {
	return v.failedOnly
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
