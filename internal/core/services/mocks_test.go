package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// mockEmbedder maps each text to a fixed vector by keyword, or a default.
type mockEmbedder struct {
	mu       sync.Mutex
	dim      int
	keywords map[string][]float32
	failures int // EmbedBatch fails this many times before succeeding
	err      error
	calls    int
}

func newMockEmbedder(dim int) *mockEmbedder {
	return &mockEmbedder{dim: dim, keywords: map[string][]float32{}}
}

func (m *mockEmbedder) vector(text string) []float32 {
	for kw, vec := range m.keywords {
		if strings.Contains(strings.ToLower(text), kw) {
			return vec
		}
	}
	vec := make([]float32, m.dim)
	vec[len(vec)-1] = 1
	return vec
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dim }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockGenerator returns scripted answers keyed by a prompt substring.
type mockGenerator struct {
	mu      sync.Mutex
	answers map[string]string
	err     error
	prompts []string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return domain.Generation{}, m.err
	}
	for key, answer := range m.answers {
		if strings.Contains(prompt, key) {
			return domain.Generation{Text: answer, Confidence: 0.5, Provider: "mock"}, nil
		}
	}
	return domain.Generation{Text: "None", Provider: "mock"}, nil
}

func (m *mockGenerator) ModelName() string            { return "mock-llm" }
func (m *mockGenerator) Ping(_ context.Context) error { return nil }
func (m *mockGenerator) Close() error                 { return nil }

// mockParser returns canned parse output regardless of the bytes.
type mockParser struct {
	paragraphs []domain.Paragraph
	tables     []domain.Chunk
	meta       driven.DocumentMetadata
	firstPage  string
	err        error
	metaErr    error
}

func (m *mockParser) ExtractParagraphs(_ context.Context, _ []byte) ([]domain.Paragraph, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.paragraphs, nil
}

func (m *mockParser) ExtractTableChunks(_ context.Context, _ []byte, _ []domain.Paragraph, id string) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, len(m.tables))
	for i, c := range m.tables {
		c.SourceDocumentID = id
		c.ID = domain.ChunkID(id, c.Type, c.FirstPage(), c.Text)
		out[i] = c
	}
	return out, nil
}

func (m *mockParser) Metadata(_ context.Context, _ []byte) (driven.DocumentMetadata, error) {
	return m.meta, m.metaErr
}

func (m *mockParser) FirstPageText(_ context.Context, _ []byte) (string, error) {
	return m.firstPage, nil
}

// mockRunner scripts ingestion outcomes per document.
type mockRunner struct {
	mu       sync.Mutex
	errs     map[string][]error // consumed one per attempt
	year     *int
	attempts map[string]int
	block    chan struct{}
}

func newMockRunner() *mockRunner {
	return &mockRunner{errs: map[string][]error{}, attempts: map[string]int{}}
}

func (m *mockRunner) Ingest(ctx context.Context, documentID string, data []byte) (*domain.IngestionResult, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[documentID]++
	if queue := m.errs[documentID]; len(queue) > 0 {
		m.errs[documentID] = queue[1:]
		return nil, queue[0]
	}
	hash := ContentHash(data)
	chunkPath, docPath := IndexPaths("/indexes", hash)
	return &domain.IngestionResult{
		ContentHash:       hash,
		ChunkIndexPath:    chunkPath,
		DocumentIndexPath: docPath,
		ReportYear:        m.year,
		ChunkCount:        3,
	}, nil
}

func (m *mockRunner) attemptsFor(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[id]
}

// mockIngestion records submissions without running them.
type mockIngestion struct {
	mu        sync.Mutex
	submitted []string
	err       error
}

func (m *mockIngestion) Submit(_ context.Context, documentID string, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.submitted = append(m.submitted, documentID)
	return "task-" + documentID, nil
}

func (m *mockIngestion) Wait(context.Context) error { return nil }
func (m *mockIngestion) Close() error               { return nil }

// mockRetriever returns fixed data points and records the request.
type mockRetriever struct {
	points []domain.RetrievalDataPoint
	err    error
	last   domain.RetrievalRequest
	calls  int
}

func (m *mockRetriever) Retrieve(_ context.Context, req domain.RetrievalRequest) ([]domain.RetrievalDataPoint, error) {
	m.calls++
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.points, nil
}

// mockPrompts serves templates from a map.
type mockPrompts map[string]string

func (m mockPrompts) Load(name string) (string, error) {
	if p, ok := m[name]; ok {
		return p, nil
	}
	return "", errors.New("prompt not found")
}

func (m mockPrompts) Reload() {}

func paragraphsOf(texts ...string) []domain.Paragraph {
	out := make([]domain.Paragraph, len(texts))
	for i, text := range texts {
		out[i] = domain.Paragraph{
			Text:       text,
			PageNumber: 1,
			Index:      i,
			BBox:       domain.Rect{X0: 10, Y0: float64(700 - 20*i), X1: 200, Y1: float64(712 - 20*i)},
		}
	}
	return out
}
