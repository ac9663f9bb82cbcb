package cli

import (
	"bytes"
	"context"
	"runtime"
	"sync"
	"testing"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.AppSettings
	setKey      string
	setValue    string
	setErr      error
	validateErr error
}

func newMockSettingsService() *mockSettingsService {
	s := domain.DefaultAppSettings()
	s.Embedding.Provider = domain.AIProviderStatic
	s.Embedding.Model = "static-hash"
	s.Storage.IndexDir = "/tmp/reportrag/indexes"
	s.Storage.DataDir = "/tmp/reportrag/data"
	return &mockSettingsService{settings: s}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.setKey, m.setValue = key, value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"embedding.provider", "retrieval.top_k"}
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) Validate() error                { return m.validateErr }
func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }
func (m *mockSettingsService) ValidateLLMConfig() error       { return nil }
func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// mockDocumentService implements driving.DocumentService for testing.
type mockDocumentService struct {
	mu         sync.Mutex
	docs       map[string]*domain.Document
	registered []driving.RegisterRequest
	filter     domain.DocumentFilter
	retried    []string
	registerFn func(req driving.RegisterRequest) (*domain.Document, error)
}

func newMockDocumentService(docs ...domain.Document) *mockDocumentService {
	m := &mockDocumentService{docs: make(map[string]*domain.Document)}
	for i := range docs {
		m.docs[docs[i].ID] = &docs[i]
	}
	return m
}

func (m *mockDocumentService) Register(_ context.Context, req driving.RegisterRequest) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.registered = append(m.registered, req)
	if m.registerFn != nil {
		return m.registerFn(req)
	}
	doc := &domain.Document{
		ID:         "doc-" + req.FileName,
		CompanyID:  req.CompanyID,
		FileName:   req.FileName,
		Source:     req.Source,
		ReportYear: req.ReportYear,
		Active:     true,
		Status:     domain.StatusPending,
	}
	m.docs[doc.ID] = doc
	return doc, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	d := *doc
	return &d, nil
}

func (m *mockDocumentService) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.filter = filter
	var out []domain.Document
	for _, d := range m.docs {
		if filter.CompanyID != "" && d.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.ActiveOnly && !d.Active {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockDocumentService) SetActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Active = active
	return nil
}

func (m *mockDocumentService) Retry(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.retried = append(m.retried, id)
	doc.Status = domain.StatusPending
	return nil
}

// finish marks every pending document with the given status.
func (m *mockDocumentService) finish(status domain.ProcessingStatus, lastError string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.docs {
		if d.Status == domain.StatusPending {
			d.Status = status
			d.LastError = lastError
		}
	}
}

// mockIngestionService implements driving.IngestionService for testing.
// Wait runs onWait, which lets tests settle documents.
type mockIngestionService struct {
	waited int
	onWait func()
}

func (m *mockIngestionService) Submit(_ context.Context, documentID string, _ []byte) (string, error) {
	return "task-" + documentID, nil
}

func (m *mockIngestionService) Wait(_ context.Context) error {
	m.waited++
	if m.onWait != nil {
		m.onWait()
	}
	return nil
}

func (m *mockIngestionService) Close() error { return nil }

// mockCatalogService implements driving.CatalogService for testing.
type mockCatalogService struct {
	companies []domain.Company
	queries   []domain.Query
}

func (m *mockCatalogService) AddCompany(_ context.Context, name string) (*domain.Company, error) {
	c := domain.Company{ID: "company-1", Name: name, Active: true}
	m.companies = append(m.companies, c)
	return &c, nil
}

func (m *mockCatalogService) ListCompanies(_ context.Context) ([]domain.Company, error) {
	return m.companies, nil
}

func (m *mockCatalogService) AddQuery(_ context.Context, name, question string) (*domain.Query, error) {
	q := domain.Query{ID: "query-1", Name: name, Question: question, Active: true}
	m.queries = append(m.queries, q)
	return &q, nil
}

func (m *mockCatalogService) ListQueries(_ context.Context) ([]domain.Query, error) {
	return m.queries, nil
}

// mockEvaluationService implements driving.EvaluationService for testing.
type mockEvaluationService struct {
	lastReq   domain.EvaluationRequest
	lastUser  string
	result    *domain.EvaluationResult
	results   []domain.EvaluationResult
	records   []domain.EvaluationRecord
	err       error
	historyOf [2]string
}

func (m *mockEvaluationService) Evaluate(_ context.Context, req domain.EvaluationRequest) (*domain.EvaluationResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.EvaluationResult{ID: "eval-1", CompanyID: req.CompanyID, QueryID: req.QueryID}, nil
}

func (m *mockEvaluationService) EvaluateAll(_ context.Context, user string) ([]domain.EvaluationResult, error) {
	m.lastUser = user
	return m.results, m.err
}

func (m *mockEvaluationService) History(_ context.Context, companyID, queryID string) ([]domain.EvaluationRecord, error) {
	m.historyOf = [2]string{companyID, queryID}
	return m.records, m.err
}

// testServices holds the mocks injected for one test.
type testServices struct {
	settings   *mockSettingsService
	documents  *mockDocumentService
	catalog    *mockCatalogService
	evaluation *mockEvaluationService
	ingestion  *mockIngestionService
}

// injectServices installs mocks so command setup skips real wiring.
func injectServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		settings:   newMockSettingsService(),
		documents:  newMockDocumentService(),
		catalog:    &mockCatalogService{},
		evaluation: &mockEvaluationService{},
		ingestion:  &mockIngestionService{},
	}
	settingsService = ts.settings
	documentService = ts.documents
	catalogService = ts.catalog
	evaluationService = ts.evaluation
	ingestionService = ts.ingestion

	t.Cleanup(func() {
		settingsService = nil
		documentService = nil
		catalogService = nil
		evaluationService = nil
		ingestionService = nil
	})
	return ts
}

// runCommand executes the root command and returns combined output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores flag variables, which persist between executions.
func resetFlags() {
	verbose = false
	configDir = ""

	docListCompany, docListStatus, docListActive = "", "", false

	ingestCompany, ingestYear, ingestSource = "", 0, string(domain.SourceManual)
	ingestJobs, ingestNoWait = runtime.NumCPU(), false

	evalCompany, evalQueryID, evalText, evalTopK = "", "", "", 0
	evalNoDocFilter, evalTableOnly, evalJSON, evalAll = false, false, false, false
	evalPDF, evalUser = "", ""

	watchCompany, watchSource, watchSchedule = "", string(domain.SourceManual), ""
}
