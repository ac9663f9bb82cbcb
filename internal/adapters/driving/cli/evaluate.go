package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reportrag/internal/adapters/driven/export/pdfreport"
	"github.com/custodia-labs/reportrag/internal/core/domain"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Answer a question from a company's reports",
	Long: `Retrieve the passages and table columns most similar to a question from
a company's active, indexed reports. Each result is tagged with its
reporting year and recorded in the evaluation history.

Examples:
  reportrag evaluate --company acme --text "What was total revenue?"
  reportrag evaluate --company acme --query-id <id> --pdf answers.pdf
  reportrag evaluate --all`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

var evaluateHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded answers for a company and stored query",
	Args:  cobra.NoArgs,
	RunE:  runEvaluateHistory,
}

// Flags for the evaluate commands.
var (
	evalCompany     string
	evalQueryID     string
	evalText        string
	evalTopK        int
	evalNoDocFilter bool
	evalTableOnly   bool
	evalJSON        bool
	evalPDF         string
	evalAll         bool
	evalUser        string
)

func init() {
	evaluateCmd.Flags().StringVarP(&evalCompany, "company", "c", "", "company whose reports are searched")
	evaluateCmd.Flags().StringVarP(&evalQueryID, "query-id", "q", "", "stored query; its question is used when --text is empty")
	evaluateCmd.Flags().StringVarP(&evalText, "text", "t", "", "question to answer")
	evaluateCmd.Flags().IntVarP(&evalTopK, "top-k", "k", 0, "chunks per document (default from settings)")
	evaluateCmd.Flags().BoolVar(&evalNoDocFilter, "no-doc-filter", false, "skip the document-level similarity filter")
	evaluateCmd.Flags().BoolVar(&evalTableOnly, "table-only", false, "search table columns only")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "print the result as JSON")
	evaluateCmd.Flags().StringVar(&evalPDF, "pdf", "", "write the result as a PDF report to this path")
	evaluateCmd.Flags().BoolVar(&evalAll, "all", false, "evaluate every active query for every active company")
	evaluateCmd.Flags().StringVar(&evalUser, "user", "", "user recorded with the evaluation (default: current user)")

	evaluateHistoryCmd.Flags().StringVarP(&evalCompany, "company", "c", "", "company id")
	evaluateHistoryCmd.Flags().StringVarP(&evalQueryID, "query-id", "q", "", "stored query id")
	evaluateHistoryCmd.Flags().BoolVar(&evalJSON, "json", false, "print records as JSON")
	_ = evaluateHistoryCmd.MarkFlagRequired("company")
	_ = evaluateHistoryCmd.MarkFlagRequired("query-id")

	evaluateCmd.AddCommand(evaluateHistoryCmd)
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	who := evalUser
	if who == "" {
		who = currentUser()
	}

	if evalAll {
		if evalPDF != "" {
			return errors.New("--pdf needs a single evaluation; drop --all")
		}
		results, err := evaluationService.EvaluateAll(cmd.Context(), who)
		if err != nil {
			return fmt.Errorf("failed to evaluate: %w", err)
		}
		if evalJSON {
			return printJSON(cmd, results)
		}
		for i := range results {
			printResult(cmd, &results[i])
		}
		cmd.Printf("Evaluated %d company/query pairs.\n", len(results))
		return nil
	}

	if evalCompany == "" {
		return errors.New("--company is required")
	}
	if evalText == "" && evalQueryID == "" {
		return errors.New("--text or --query-id is required")
	}

	req := domain.NewEvaluationRequest(evalCompany, evalQueryID, evalText)
	req.TopK = evalTopK
	req.User = who
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			req.FilterByDocumentIndex = settings.Retrieval.FilterByDocumentIndex
			req.ExtendedSearch = settings.Retrieval.ExtendedSearch
		}
	}
	if evalNoDocFilter {
		req.FilterByDocumentIndex = false
	}
	if evalTableOnly {
		req.ExtendedSearch = false
	}

	result, err := evaluationService.Evaluate(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("failed to evaluate: %w", err)
	}

	if evalPDF != "" {
		if err := writePDF(evalPDF, result); err != nil {
			return err
		}
		cmd.PrintErrf("Wrote %s\n", evalPDF)
	}
	if evalJSON {
		return printJSON(cmd, result)
	}
	printResult(cmd, result)
	return nil
}

func runEvaluateHistory(cmd *cobra.Command, _ []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	records, err := evaluationService.History(cmd.Context(), evalCompany, evalQueryID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if evalJSON {
		return printJSON(cmd, records)
	}
	if len(records) == 0 {
		cmd.Println("No recorded answers.")
		return nil
	}

	for i := range records {
		r := &records[i]
		cmd.Printf("%s  %s  year %s  similarity %.3f\n",
			r.Timestamp.Local().Format("2006-01-02 15:04"), r.ChunkType, yearLabel(r.ReportYear), r.SimilarityScore)
		cmd.Printf("    document %s, chunk %s (%s)\n", r.DocumentID, r.ChunkID, r.ModelVersion)
		if r.Answer != "" {
			cmd.Printf("    %s\n", r.Answer)
		}
	}
	return nil
}

func printResult(cmd *cobra.Command, result *domain.EvaluationResult) {
	cmd.Printf("Evaluation %s (company %s", result.ID, result.CompanyID)
	if result.QueryID != "" {
		cmd.Printf(", query %s", result.QueryID)
	}
	cmd.Printf(") in %s\n", result.ProcessingTime.Round(time.Millisecond))

	if len(result.DataPoints) == 0 {
		cmd.Println("  No matching passages.")
		cmd.Println()
		return
	}

	for i := range result.DataPoints {
		p := &result.DataPoints[i]
		cmd.Printf("\n  %d. [%s] year %s  similarity %.3f  confidence %.2f\n",
			i+1, p.ChunkType, yearLabel(p.ReportYear), p.SimilarityScore, p.Confidence)
		cmd.Printf("     %s  chunk %s", p.Source, p.ChunkID)
		if len(p.References.PageNumbers) > 0 {
			cmd.Printf("  pages %v", p.References.PageNumbers)
		}
		cmd.Println()
		if p.Answer != "" {
			cmd.Printf("     %s\n", p.Answer)
		}
	}
	cmd.Println()
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

func writePDF(path string, result *domain.EvaluationResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if err := pdfreport.New().Export(f, result); err != nil {
		return fmt.Errorf("exporting PDF: %w", err)
	}
	return nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "cli"
}
