package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
	"github.com/custodia-labs/reportrag/internal/logger"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file|dir>...",
	Short: "Register and index PDF reports",
	Long: `Register PDF reports for a company and index them.

Directories are walked recursively for *.pdf files. Files already registered
for the company are skipped; files with bytes already indexed for another
company reuse the existing index.

Examples:
  reportrag ingest --company acme ./reports/acme-2023.pdf
  reportrag ingest --company acme --year 2022 ./reports/2022/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

// Flags for the ingest command.
var (
	ingestCompany string
	ingestYear    int
	ingestSource  string
	ingestJobs    int
	ingestNoWait  bool
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestCompany, "company", "c", "", "company that published the reports (required)")
	ingestCmd.Flags().IntVarP(&ingestYear, "year", "y", 0, "reporting year; inferred when omitted")
	ingestCmd.Flags().StringVar(&ingestSource, "source", string(domain.SourceManual), "acquisition source (manual, webscraped)")
	ingestCmd.Flags().IntVarP(&ingestJobs, "jobs", "j", runtime.NumCPU(), "files read and registered in parallel")
	ingestCmd.Flags().BoolVar(&ingestNoWait, "no-wait", false, "return once files are queued")
	_ = ingestCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	source := domain.DocumentSource(ingestSource)
	if !source.IsValid() {
		return fmt.Errorf("%w: unknown source %q", domain.ErrInvalidInput, ingestSource)
	}
	var year *int
	if ingestYear > 0 {
		year = domain.IntPtr(ingestYear)
	}

	paths, err := collectPDFs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		cmd.Println("No PDF files found.")
		return nil
	}

	ctx := cmd.Context()
	registered := make([]*domain.Document, len(paths))

	var mu sync.Mutex
	var failures []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(ingestJobs, 1))
	for i, path := range paths {
		g.Go(func() error {
			doc, err := registerFile(gctx, ingestCompany, path, source, year)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("register %s: %v", path, err)
				mu.Lock()
				failures = append(failures, fmt.Sprintf("%s: %v", path, err))
				mu.Unlock()
				return nil
			}
			registered[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	count := 0
	for _, doc := range registered {
		if doc != nil {
			count++
		}
	}
	cmd.Printf("Registered %d of %d files for %s.\n", count, len(paths), ingestCompany)
	sort.Strings(failures)
	for _, f := range failures {
		cmd.Printf("  skipped %s\n", f)
	}

	if ingestNoWait || ingestionService == nil || count == 0 {
		return nil
	}

	cmd.Println("Indexing...")
	if err := ingestionService.Wait(ctx); err != nil {
		return err
	}

	failed := 0
	for _, doc := range registered {
		if doc == nil {
			continue
		}
		current, err := documentService.Get(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("failed to get document: %w", err)
		}
		if current.Status == domain.StatusFailed {
			failed++
		}
		printStatus(cmd, current)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed to index", failed, count)
	}
	return nil
}

// registerFile reads one PDF and registers it, which queues ingestion.
func registerFile(
	ctx context.Context,
	companyID, path string,
	source domain.DocumentSource,
	year *int,
) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return documentService.Register(ctx, driving.RegisterRequest{
		CompanyID:  companyID,
		FileName:   filepath.Base(path),
		Source:     source,
		ReportYear: year,
		Data:       data,
	})
}

// collectPDFs expands directories into their PDF files, sorted and deduplicated.
func collectPDFs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(arg))
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isPDF(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
