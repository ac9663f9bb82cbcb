package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
)

func TestCompanyCommands(t *testing.T) {
	ts := injectServices(t)

	out, err := runCommand(t, "company", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No companies found")

	out, err = runCommand(t, "company", "add", "Acme", "Corp")
	require.NoError(t, err)
	assert.Contains(t, out, "Company added: Acme Corp (company-1)")

	ts.catalog.companies = append(ts.catalog.companies, domain.Company{ID: "c2", Name: "Globex"})
	out, err = runCommand(t, "company", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "company-1  Acme Corp")
	assert.Contains(t, out, "c2  Globex (inactive)")
}

func TestQueryCommands(t *testing.T) {
	injectServices(t)

	out, err := runCommand(t, "query", "add", "revenue", "What", "was", "total", "revenue?")
	require.NoError(t, err)
	assert.Contains(t, out, "Query added: revenue (query-1)")

	out, err = runCommand(t, "query", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "What was total revenue?")

	_, err = runCommand(t, "query", "add", "only-name")
	assert.Error(t, err)
}

func TestCatalog_NotConfigured(t *testing.T) {
	injectServices(t)
	catalogService = nil

	_, err := runCommand(t, "company", "list")

	assert.EqualError(t, err, "catalog service not configured")
}

func TestDocumentCommands(t *testing.T) {
	ts := injectServices(t)
	ts.documents.docs["d1"] = &domain.Document{
		ID: "d1", CompanyID: "acme", FileName: "annual-2023.pdf", FileHash: "abc",
		ReportYear: domain.IntPtr(2023), Active: true, Status: domain.StatusSuccess,
		ChunkIndexPath: "/i/abc.index", DocumentIndexPath: "/i/abc.doc.index",
	}
	ts.documents.docs["d2"] = &domain.Document{
		ID: "d2", CompanyID: "acme", FileName: "broken.pdf", Active: false,
		Status: domain.StatusFailed, Attempts: 6, LastError: "parse: no pages",
	}

	t.Run("list with filters", func(t *testing.T) {
		out, err := runCommand(t, "document", "list", "--company", "acme", "--status", "failed")
		require.NoError(t, err)
		assert.Contains(t, out, "broken.pdf")
		assert.NotContains(t, out, "annual-2023.pdf")
		assert.Contains(t, out, "(inactive)")
		assert.Equal(t, domain.DocumentFilter{CompanyID: "acme", Status: domain.StatusFailed}, ts.documents.filter)
	})

	t.Run("list rejects unknown status", func(t *testing.T) {
		_, err := runCommand(t, "document", "list", "--status", "done")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("get", func(t *testing.T) {
		out, err := runCommand(t, "document", "get", "d1")
		require.NoError(t, err)
		assert.Contains(t, out, "Report year: 2023")
		assert.Contains(t, out, "/i/abc.index")

		out, err = runCommand(t, "document", "get", "d2")
		require.NoError(t, err)
		assert.Contains(t, out, "Report year: -")
		assert.Contains(t, out, "Last error:  parse: no pages")
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := runCommand(t, "document", "get", "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("deactivate and activate", func(t *testing.T) {
		out, err := runCommand(t, "document", "deactivate", "d1")
		require.NoError(t, err)
		assert.Contains(t, out, "Document d1 deactivated.")
		assert.False(t, ts.documents.docs["d1"].Active)

		out, err = runCommand(t, "document", "activate", "d1")
		require.NoError(t, err)
		assert.Contains(t, out, "Document d1 activated.")
		assert.True(t, ts.documents.docs["d1"].Active)
	})

	t.Run("retry waits for the outcome", func(t *testing.T) {
		ts.ingestion.onWait = func() { ts.documents.finish(domain.StatusSuccess, "") }
		defer func() { ts.ingestion.onWait = nil }()

		out, err := runCommand(t, "document", "retry", "d2")
		require.NoError(t, err)
		assert.Contains(t, out, "queued for ingestion")
		assert.Contains(t, out, "ok      broken.pdf")
		assert.Equal(t, []string{"d2"}, ts.documents.retried)
	})
}

func TestIngestCommand(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "2022", "annual.pdf"))
	writeTestFile(t, filepath.Join(dir, "esg.PDF"))
	writeTestFile(t, filepath.Join(dir, "notes.txt"))

	t.Run("registers PDFs and reports outcome", func(t *testing.T) {
		ts := injectServices(t)
		ts.ingestion.onWait = func() { ts.documents.finish(domain.StatusSuccess, "") }

		out, err := runCommand(t, "ingest", "--company", "acme", "--year", "2022", "--source", "webscraped", dir)

		require.NoError(t, err)
		assert.Contains(t, out, "Registered 2 of 2 files for acme.")
		assert.Contains(t, out, "ok      annual.pdf (year 2022)")
		assert.Equal(t, 1, ts.ingestion.waited)
		require.Len(t, ts.documents.registered, 2)
		for _, req := range ts.documents.registered {
			assert.Equal(t, "acme", req.CompanyID)
			assert.Equal(t, domain.SourceWebscraped, req.Source)
			assert.Equal(t, domain.IntPtr(2022), req.ReportYear)
			assert.NotEmpty(t, req.Data)
		}
	})

	t.Run("failed documents fail the command", func(t *testing.T) {
		ts := injectServices(t)
		ts.ingestion.onWait = func() { ts.documents.finish(domain.StatusFailed, "no text") }

		out, err := runCommand(t, "ingest", "-c", "acme", filepath.Join(dir, "esg.PDF"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 1 documents failed")
		assert.Contains(t, out, "failed  esg.PDF: no text")
	})

	t.Run("registration errors are reported and skipped", func(t *testing.T) {
		ts := injectServices(t)
		ts.documents.registerFn = func(req driving.RegisterRequest) (*domain.Document, error) {
			return nil, errors.New("unknown company")
		}

		out, err := runCommand(t, "ingest", "-c", "acme", "--no-wait", dir)

		require.NoError(t, err)
		assert.Contains(t, out, "Registered 0 of 2 files")
		assert.Contains(t, out, "unknown company")
		assert.Zero(t, ts.ingestion.waited)
	})

	t.Run("rejects unknown source", func(t *testing.T) {
		injectServices(t)

		_, err := runCommand(t, "ingest", "-c", "acme", "--source", "fax", dir)

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing path", func(t *testing.T) {
		injectServices(t)

		_, err := runCommand(t, "ingest", "-c", "acme", filepath.Join(dir, "missing.pdf"))

		assert.Error(t, err)
	})
}

func TestCollectPDFs(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "b", "a.pdf")
	c := filepath.Join(dir, "c.pdf")
	writeTestFile(t, a)
	writeTestFile(t, c)
	writeTestFile(t, filepath.Join(dir, "skip.docx"))

	paths, err := collectPDFs([]string{dir, c})

	require.NoError(t, err)
	assert.Equal(t, []string{a, c}, paths)
}

func TestEvaluateCommand(t *testing.T) {
	result := &domain.EvaluationResult{
		ID: "eval-9", CompanyID: "acme", QueryID: "q1",
		ProcessingTime: 1500 * time.Millisecond,
		DataPoints: []domain.RetrievalDataPoint{{
			DocumentID: "d1", Source: "annual.pdf", ChunkID: "c1",
			ChunkType: domain.ChunkTypeTableColumn, ReportYear: domain.IntPtr(2022),
			SimilarityScore: 0.8123, Confidence: 0.5, Answer: "1,200",
			References: domain.References{PageNumbers: []int{3}},
		}},
	}

	t.Run("prints data points", func(t *testing.T) {
		ts := injectServices(t)
		ts.evaluation.result = result

		out, err := runCommand(t, "evaluate", "--company", "acme", "--text", "Revenue?", "--user", "ana")

		require.NoError(t, err)
		assert.Contains(t, out, "Evaluation eval-9 (company acme, query q1) in 1.5s")
		assert.Contains(t, out, "[table_column] year 2022  similarity 0.812  confidence 0.50")
		assert.Contains(t, out, "pages [3]")
		assert.Contains(t, out, "1,200")

		req := ts.evaluation.lastReq
		assert.Equal(t, "acme", req.CompanyID)
		assert.Equal(t, "Revenue?", req.QueryText)
		assert.Equal(t, "ana", req.User)
		assert.Zero(t, req.TopK, "service applies the configured default")
		assert.True(t, req.FilterByDocumentIndex)
		assert.True(t, req.ExtendedSearch)
	})

	t.Run("flags override settings", func(t *testing.T) {
		ts := injectServices(t)

		_, err := runCommand(t, "evaluate", "-c", "acme", "-q", "q1", "-k", "3", "--no-doc-filter", "--table-only")

		require.NoError(t, err)
		req := ts.evaluation.lastReq
		assert.Equal(t, "q1", req.QueryID)
		assert.Equal(t, 3, req.TopK)
		assert.False(t, req.FilterByDocumentIndex)
		assert.False(t, req.ExtendedSearch)
		assert.NotEmpty(t, req.User)
	})

	t.Run("settings defaults apply", func(t *testing.T) {
		ts := injectServices(t)
		ts.settings.settings.Retrieval.FilterByDocumentIndex = false

		_, err := runCommand(t, "evaluate", "-c", "acme", "-t", "Revenue?")

		require.NoError(t, err)
		assert.False(t, ts.evaluation.lastReq.FilterByDocumentIndex)
	})

	t.Run("json output", func(t *testing.T) {
		ts := injectServices(t)
		ts.evaluation.result = result

		out, err := runCommand(t, "evaluate", "-c", "acme", "-t", "Revenue?", "--json")

		require.NoError(t, err)
		var decoded domain.EvaluationResult
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, "eval-9", decoded.ID)
		require.Len(t, decoded.DataPoints, 1)
		assert.Equal(t, "1,200", decoded.DataPoints[0].Answer)
	})

	t.Run("pdf export", func(t *testing.T) {
		ts := injectServices(t)
		ts.evaluation.result = result
		path := filepath.Join(t.TempDir(), "answers.pdf")

		out, err := runCommand(t, "evaluate", "-c", "acme", "-t", "Revenue?", "--pdf", path)

		require.NoError(t, err)
		assert.Contains(t, out, "Wrote "+path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(data[:4]))
	})

	t.Run("requires company and question", func(t *testing.T) {
		injectServices(t)

		_, err := runCommand(t, "evaluate", "-t", "Revenue?")
		assert.EqualError(t, err, "--company is required")

		_, err = runCommand(t, "evaluate", "-c", "acme")
		assert.EqualError(t, err, "--text or --query-id is required")
	})

	t.Run("service errors are wrapped", func(t *testing.T) {
		ts := injectServices(t)
		ts.evaluation.err = domain.ErrEmbeddingCapability

		_, err := runCommand(t, "evaluate", "-c", "acme", "-t", "Revenue?")

		assert.ErrorIs(t, err, domain.ErrEmbeddingCapability)
	})

	t.Run("all", func(t *testing.T) {
		ts := injectServices(t)
		ts.evaluation.results = []domain.EvaluationResult{*result, *result}

		out, err := runCommand(t, "evaluate", "--all", "--user", "batch")

		require.NoError(t, err)
		assert.Equal(t, "batch", ts.evaluation.lastUser)
		assert.Contains(t, out, "Evaluated 2 company/query pairs.")

		_, err = runCommand(t, "evaluate", "--all", "--pdf", "x.pdf")
		assert.Error(t, err)
	})
}

func TestEvaluateHistoryCommand(t *testing.T) {
	ts := injectServices(t)
	ts.evaluation.records = []domain.EvaluationRecord{{
		ID: "r1", DocumentID: "d1", ChunkID: "c1", ChunkType: domain.ChunkTypeText,
		Answer: "about 12m", ReportYear: domain.IntPtr(2021), SimilarityScore: 0.6,
		ModelVersion: "static-hash", Timestamp: time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC),
	}}

	out, err := runCommand(t, "evaluate", "history", "--company", "acme", "--query-id", "q1")

	require.NoError(t, err)
	assert.Equal(t, [2]string{"acme", "q1"}, ts.evaluation.historyOf)
	assert.Contains(t, out, "year 2021  similarity 0.600")
	assert.Contains(t, out, "about 12m")

	ts.evaluation.records = nil
	out, err = runCommand(t, "evaluate", "history", "--company", "acme", "--query-id", "q2")
	require.NoError(t, err)
	assert.Contains(t, out, "No recorded answers.")
}

func TestSettingsCommands(t *testing.T) {
	t.Run("show", func(t *testing.T) {
		injectServices(t)

		out, err := runCommand(t, "settings")

		require.NoError(t, err)
		assert.Contains(t, out, "[Embedding]")
		assert.Contains(t, out, "Static (offline, deterministic)")
		assert.Contains(t, out, "Top K: 5")
		assert.Contains(t, out, "Rescan schedule: @every 5m")
		assert.Contains(t, out, "Configuration is valid.")
	})

	t.Run("show reports invalid configuration", func(t *testing.T) {
		ts := injectServices(t)
		ts.settings.validateErr = domain.ErrInvalidInput

		out, err := runCommand(t, "settings", "show")

		require.NoError(t, err)
		assert.Contains(t, out, "Run 'reportrag settings wizard'")
	})

	t.Run("set masks api keys", func(t *testing.T) {
		ts := injectServices(t)

		out, err := runCommand(t, "settings", "set", "embedding.api_key", "sk-1234567890abcdef")

		require.NoError(t, err)
		assert.Equal(t, "embedding.api_key", ts.settings.setKey)
		assert.Equal(t, "sk-1234567890abcdef", ts.settings.setValue)
		assert.Contains(t, out, "Set embedding.api_key = sk-1...cdef")
	})

	t.Run("set error", func(t *testing.T) {
		ts := injectServices(t)
		ts.settings.setErr = domain.ErrInvalidInput

		_, err := runCommand(t, "settings", "set", "retrieval.top_k", "0")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("keys", func(t *testing.T) {
		injectServices(t)

		out, err := runCommand(t, "settings", "keys")

		require.NoError(t, err)
		assert.Contains(t, out, "embedding.provider\nretrieval.top_k\n")
	})
}

func TestSettingsWizard(t *testing.T) {
	ts := injectServices(t)
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	// static embeddings with default model, then an Ollama LLM with a custom model.
	rootCmd.SetIn(strings.NewReader("4\n\ny\n1\nllama3.1\n"))
	rootCmd.SetArgs([]string{"settings", "wizard"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, domain.AIProviderStatic, ts.settings.settings.Embedding.Provider)
	assert.Equal(t, "static-hash", ts.settings.settings.Embedding.Model)
	assert.Equal(t, domain.AIProviderOllama, ts.settings.settings.LLM.Provider)
	assert.Equal(t, "llama3.1", ts.settings.settings.LLM.Model)
	assert.Contains(t, buf.String(), "All settings are valid and saved.")
}

func TestWatchCommand(t *testing.T) {
	ts := injectServices(t)
	resetFlags()
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "annual-2023.pdf"))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"watch", "--company", "acme", "--schedule", "@every 1h", dir})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	require.NoError(t, rootCmd.ExecuteContext(ctx))

	out := buf.String()
	assert.Contains(t, out, "Watching "+dir)
	assert.Contains(t, out, "pending annual-2023.pdf")
	assert.Contains(t, out, "Stopped.")
	require.Len(t, ts.documents.registered, 1)
	assert.Equal(t, "acme", ts.documents.registered[0].CompanyID)
}

func TestWatchCommand_InvalidSchedule(t *testing.T) {
	injectServices(t)

	_, err := runCommand(t, "watch", "-c", "acme", "--schedule", "every now and then", t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rescan schedule")
}

func TestWatcher_RetryFailed(t *testing.T) {
	ts := injectServices(t)
	ts.documents.docs["f1"] = &domain.Document{ID: "f1", CompanyID: "acme", FileName: "a.pdf", Status: domain.StatusFailed}
	ts.documents.docs["f2"] = &domain.Document{ID: "f2", CompanyID: "other", FileName: "b.pdf", Status: domain.StatusFailed}
	ts.documents.docs["ok"] = &domain.Document{ID: "ok", CompanyID: "acme", FileName: "c.pdf", Status: domain.StatusSuccess}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	defer rootCmd.SetOut(nil)
	w := &watcher{cmd: rootCmd, companyID: "acme", seen: make(map[string]bool)}

	w.retryFailed(context.Background())

	assert.Equal(t, []string{"f1"}, ts.documents.retried)
	assert.Contains(t, buf.String(), "retry   a.pdf (f1)")
}

func TestWatcher_RegisterReportsOnce(t *testing.T) {
	ts := injectServices(t)
	path := filepath.Join(t.TempDir(), "report.pdf")
	writeTestFile(t, path)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	defer rootCmd.SetOut(nil)
	w := &watcher{cmd: rootCmd, companyID: "acme", source: domain.SourceManual, seen: make(map[string]bool)}

	w.register(context.Background(), path)
	w.register(context.Background(), path)

	assert.Len(t, ts.documents.registered, 2)
	assert.Equal(t, 1, countLines(buf.String()))
}

func writeTestFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644))
}

func countLines(s string) int {
	return strings.Count(strings.TrimRight(s, "\n"), "\n") + 1
}
