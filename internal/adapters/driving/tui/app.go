package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/views/docdetails"
	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/views/evaluate"
	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/views/menu"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// menuView is the main navigation menu.
	menuView *menu.View

	// evaluateView asks questions against one company's reports.
	evaluateView *evaluate.View

	// documentsView lists report records.
	documentsView *documents.View

	// docDetailsView shows one report record.
	docDetailsView *docdetails.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		menuView:       menu.NewView(s),
		evaluateView:   evaluate.NewView(s, keymap.DefaultKeyMap(), ports.Evaluation, ports.Catalog),
		documentsView:  documents.NewView(s, ports.Document),
		docDetailsView: docdetails.NewView(s),
		currentView:    messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.evaluateView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("reportrag"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		a.err = nil
		switch msg.View {
		case messages.ViewEvaluate:
			a.evaluateView.Reset()
			return a, a.evaluateView.Init()
		case messages.ViewDocuments:
			return a, a.documentsView.Init()
		case messages.ViewMenu, messages.ViewDocDetails, messages.ViewHelp:
		}
		return a, nil

	case messages.CompaniesLoaded, messages.EvaluationCompleted:
		a.evaluateView, cmd = a.evaluateView.Update(msg)
		a.err = a.evaluateView.Err()
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentUpdated:
		a.documentsView, cmd = a.documentsView.Update(msg)
		a.err = a.documentsView.Err()
		return a, cmd

	case messages.DocumentSelected:
		doc := msg.Document
		a.docDetailsView.SetDocument(&doc)
		a.currentView = messages.ViewDocDetails
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a.forward(msg)
}

// forward passes msg to the active view.
func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewEvaluate:
		a.evaluateView, cmd = a.evaluateView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewDocDetails:
		a.docDetailsView, cmd = a.docDetailsView.Update(msg)
	case messages.ViewHelp:
		if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
			a.currentView = messages.ViewMenu
		}
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewEvaluate:
		return a.evaluateView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewDocDetails:
		return a.docDetailsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  e / d       Ask a question / Documents
  q           Quit

Ask a question:
  (type)      Enter question
  enter       Evaluate against the selected company
  tab         Next company
  ctrl+t      Toggle tables only
  ctrl+f      Toggle document index filter
  n           New question

Data points:
  j/k, ↑/↓    Navigate
  enter       Expand rows and provenance

Documents:
  enter       Actions (details, activate, retry)
  f           Failed only
  r           Reload

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.evaluateView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.docDetailsView.SetDimensions(width, height)
}
