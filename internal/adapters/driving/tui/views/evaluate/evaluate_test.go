package evaluate

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reportrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/reportrag/internal/core/domain"
)

type mockEvaluationService struct {
	last   domain.EvaluationRequest
	result *domain.EvaluationResult
	err    error
}

func (m *mockEvaluationService) Evaluate(_ context.Context, req domain.EvaluationRequest) (*domain.EvaluationResult, error) {
	m.last = req
	return m.result, m.err
}

func (m *mockEvaluationService) EvaluateAll(context.Context, string) ([]domain.EvaluationResult, error) {
	return nil, nil
}

func (m *mockEvaluationService) History(context.Context, string, string) ([]domain.EvaluationRecord, error) {
	return nil, nil
}

type mockCatalogService struct {
	companies []domain.Company
	err       error
}

func (m *mockCatalogService) AddCompany(context.Context, string) (*domain.Company, error) {
	return nil, nil
}

func (m *mockCatalogService) ListCompanies(context.Context) ([]domain.Company, error) {
	return m.companies, m.err
}

func (m *mockCatalogService) AddQuery(context.Context, string, string) (*domain.Query, error) {
	return nil, nil
}

func (m *mockCatalogService) ListQueries(context.Context) ([]domain.Query, error) {
	return nil, nil
}

func newTestView(t *testing.T) (*View, *mockEvaluationService) {
	t.Helper()
	eval := &mockEvaluationService{result: &domain.EvaluationResult{
		ID: "eval-1",
		DataPoints: []domain.RetrievalDataPoint{
			{ChunkID: "c1", ChunkType: domain.ChunkTypeTableColumn, Source: "acme-2023.pdf", SimilarityScore: 0.7},
		},
	}}
	catalog := &mockCatalogService{companies: []domain.Company{
		{ID: "acme", Name: "Acme", Active: true},
		{ID: "old", Name: "Old Co", Active: false},
		{ID: "globex", Name: "Globex", Active: true},
	}}
	v := NewView(nil, nil, eval, catalog)
	v.SetDimensions(120, 40)

	msg := v.loadCompanies()()
	v.Update(msg)
	return v, eval
}

func typeText(v *View, text string) {
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil, nil)

	assert.True(t, v.InputFocused())
	assert.True(t, v.DocFilter())
	assert.False(t, v.TablesOnly())
	assert.Nil(t, v.Company())
	assert.Equal(t, "Initialising...", v.View())
	assert.NotNil(t, v.Init())
}

func TestView_CompaniesLoaded_SkipsInactive(t *testing.T) {
	v, _ := newTestView(t)

	require.NotNil(t, v.Company())
	assert.Equal(t, "acme", v.Company().ID)

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "globex", v.Company().ID)

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "acme", v.Company().ID, "wraps around")
}

func TestView_CompaniesLoadError(t *testing.T) {
	v := NewView(nil, nil, nil, &mockCatalogService{err: errors.New("db locked")})
	v.SetDimensions(100, 30)

	v.Update(v.loadCompanies()())

	require.Error(t, v.Err())
	assert.Contains(t, v.View(), "db locked")
}

func TestView_SubmitEvaluates(t *testing.T) {
	v, eval := newTestView(t)
	typeText(v, "Revenue 2023?")
	v.Update(tea.KeyMsg{Type: tea.KeyCtrlT})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, v.InputFocused())

	msg := cmd()
	completed, ok := msg.(messages.EvaluationCompleted)
	require.True(t, ok)
	assert.Equal(t, "acme", eval.last.CompanyID)
	assert.Equal(t, "Revenue 2023?", eval.last.QueryText)
	assert.False(t, eval.last.ExtendedSearch, "tables only")
	assert.True(t, eval.last.FilterByDocumentIndex)
	assert.Zero(t, eval.last.TopK)

	v.Update(completed)
	require.NotNil(t, v.Result())
	view := v.View()
	assert.Contains(t, view, "Data points (1)")
	assert.Contains(t, view, "acme-2023.pdf")
	assert.Contains(t, view, "Scope: tables only")
}

func TestView_SubmitIgnoresBlankQuestion(t *testing.T) {
	v, _ := newTestView(t)
	typeText(v, "   ")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, v.InputFocused())
}

func TestView_SubmitWithoutCompany(t *testing.T) {
	v := NewView(nil, nil, &mockEvaluationService{}, &mockCatalogService{})
	v.SetDimensions(100, 30)
	v.Update(v.loadCompanies()())
	typeText(v, "Revenue?")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.ErrorIs(t, v.Err(), ErrNoCompany)
}

func TestView_EvaluationError_RefocusesInput(t *testing.T) {
	v, _ := newTestView(t)
	typeText(v, "Revenue?")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	v.Update(messages.EvaluationCompleted{Err: domain.ErrEmbeddingCapability})

	assert.ErrorIs(t, v.Err(), domain.ErrEmbeddingCapability)
	assert.True(t, v.InputFocused())
}

func TestView_ToggleDocFilter(t *testing.T) {
	v, _ := newTestView(t)

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlF})

	assert.False(t, v.DocFilter())
	assert.Contains(t, v.View(), "Doc filter: off")
}

func TestView_NewQuestion(t *testing.T) {
	v, _ := newTestView(t)
	typeText(v, "Revenue?")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())
	require.False(t, v.InputFocused())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})

	assert.True(t, v.InputFocused())
	assert.Empty(t, v.Question())
}

func TestView_EscReturnsToMenu(t *testing.T) {
	v, _ := newTestView(t)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_NoEvaluationService(t *testing.T) {
	v := NewView(nil, nil, nil, &mockCatalogService{companies: []domain.Company{{ID: "a", Name: "A", Active: true}}})
	v.Update(v.loadCompanies()())
	v.SetQuestion("Revenue?")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ErrorOccurred{Err: ErrNoEvaluationService}, cmd())
}

func TestView_Reset(t *testing.T) {
	v, _ := newTestView(t)
	typeText(v, "Revenue?")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())

	v.Reset()

	assert.True(t, v.InputFocused())
	assert.Nil(t, v.Result())
	assert.Equal(t, "acme", v.Company().ID, "company choice survives")
}
