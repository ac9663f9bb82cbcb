// Package evaluate provides the question view for the TUI: a question is
// evaluated against one company's reports and the data points are listed.
package evaluate

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
)

// View is the evaluate view with question input, data point list and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	list      *list.DataPointList
	statusbar *status.Bar

	evaluation driving.EvaluationService
	catalog    driving.CatalogService
	ctx        context.Context

	companies []domain.Company
	company   int

	// tablesOnly disables extended search; docFilter enables the document pre-filter.
	tablesOnly bool
	docFilter  bool

	result     *domain.EvaluationResult
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a new evaluate view.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	evaluation driving.EvaluationService,
	catalog driving.CatalogService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		list:       list.NewDataPointList(s),
		statusbar:  status.NewBar(s, km),
		evaluation: evaluation,
		catalog:    catalog,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		docFilter:  true,
		focusInput: true,
	}
	v.statusbar.SetTyping(true)
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor blink and loads the companies.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadCompanies())
}

func (v *View) loadCompanies() tea.Cmd {
	return func() tea.Msg {
		if v.catalog == nil {
			return messages.CompaniesLoaded{}
		}
		companies, err := v.catalog.ListCompanies(v.ctx)
		return messages.CompaniesLoaded{Companies: companies, Err: err}
	}
}

// Update handles messages for the evaluate view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.CompaniesLoaded:
		v.handleCompaniesLoaded(msg)
		return v, nil

	case messages.EvaluationCompleted:
		v.handleEvaluationCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	switch {
	case keymap.Matches(keyStr, v.keymap.NextCompany):
		v.nextCompany()
		return v, nil
	case keymap.Matches(keyStr, v.keymap.ToggleTables):
		v.tablesOnly = !v.tablesOnly
		return v, nil
	case keymap.Matches(keyStr, v.keymap.ToggleDocFilter):
		v.docFilter = !v.docFilter
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v, v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	if keymap.Matches(keyStr, v.keymap.NewQuestion) {
		v.focusInput = true
		v.statusbar.SetTyping(true)
		v.input.SetValue("")
		return v, v.input.Focus()
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

// submit starts an evaluation of the typed question for the selected company.
func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" {
		return nil
	}
	company := v.Company()
	if company == nil {
		v.setError(ErrNoCompany)
		return nil
	}

	v.err = nil
	v.statusbar.SetState(status.StateEvaluating)
	v.statusbar.SetTyping(false)
	v.focusInput = false
	v.input.Blur()

	req := domain.NewEvaluationRequest(company.ID, "", question)
	req.TopK = 0
	req.FilterByDocumentIndex = v.docFilter
	req.ExtendedSearch = !v.tablesOnly
	req.User = "tui"

	return func() tea.Msg {
		if v.evaluation == nil {
			return messages.ErrorOccurred{Err: ErrNoEvaluationService}
		}
		result, err := v.evaluation.Evaluate(v.ctx, req)
		return messages.EvaluationCompleted{Result: result, Err: err}
	}
}

func (v *View) handleCompaniesLoaded(msg messages.CompaniesLoaded) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	v.companies = v.companies[:0]
	for _, c := range msg.Companies {
		if c.Active {
			v.companies = append(v.companies, c)
		}
	}
	if v.company >= len(v.companies) {
		v.company = 0
	}
	v.syncCompanyLabel()
}

func (v *View) handleEvaluationCompleted(msg messages.EvaluationCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		v.focusInput = true
		v.statusbar.SetTyping(true)
		v.input.Focus()
		return
	}

	v.err = nil
	v.result = msg.Result
	var points []domain.RetrievalDataPoint
	if msg.Result != nil {
		points = msg.Result.DataPoints
	}
	v.list.SetPoints(points)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetPointCount(len(points))
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) nextCompany() {
	if len(v.companies) == 0 {
		return
	}
	v.company = (v.company + 1) % len(v.companies)
	v.syncCompanyLabel()
}

func (v *View) syncCompanyLabel() {
	if c := v.Company(); c != nil {
		v.statusbar.SetCompany(c.Name)
	} else {
		v.statusbar.SetCompany("")
	}
}

// View renders the evaluate view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("ReportRAG"), v.renderTarget(), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.result != nil {
		sections = append(sections, v.list.View())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTarget shows the company and retrieval switches.
func (v *View) renderTarget() string {
	company := "(none)"
	if c := v.Company(); c != nil {
		company = c.Name
	}
	scope := "tables and text"
	if v.tablesOnly {
		scope = "tables only"
	}
	filter := "on"
	if !v.docFilter {
		filter = "off"
	}
	return v.styles.Muted.Render("Company: ") + v.styles.Subtitle.Render(company) +
		v.styles.Muted.Render("  Scope: "+scope+"  Doc filter: "+filter)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10)
	v.statusbar.SetWidth(width)
}

// Company returns the company questions are asked about, or nil.
func (v *View) Company() *domain.Company {
	if v.company < 0 || v.company >= len(v.companies) {
		return nil
	}
	return &v.companies[v.company]
}

// Question returns the typed question.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the typed question.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// Result returns the last evaluation result.
func (v *View) Result() *domain.EvaluationResult {
	return v.result
}

// TablesOnly reports whether retrieval is restricted to table columns.
func (v *View) TablesOnly() bool {
	return v.tablesOnly
}

// DocFilter reports whether the document-level pre-filter is on.
func (v *View) DocFilter() bool {
	return v.docFilter
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset returns the view to question entry, keeping the company choice.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetPoints(nil)
	v.result = nil
	v.err = nil
	v.statusbar.Clear()
	v.statusbar.SetTyping(true)
}
