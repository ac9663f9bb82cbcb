package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage registered report documents",
	Long:  `List, view, activate, deactivate, or retry registered PDF reports.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentActivateCmd = &cobra.Command{
	Use:   "activate [doc-id]",
	Short: "Include a document in evaluations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDocumentActive(cmd, args[0], true)
	},
}

var documentDeactivateCmd = &cobra.Command{
	Use:   "deactivate [doc-id]",
	Short: "Exclude a document from evaluations",
	Long:  `Keeps the record and its index artifacts but stops evaluations from using it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDocumentActive(cmd, args[0], false)
	},
}

var documentRetryCmd = &cobra.Command{
	Use:   "retry [doc-id]",
	Short: "Queue a failed document for ingestion again",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentRetry,
}

// Flags for the list command.
var (
	docListCompany string
	docListStatus  string
	docListActive  bool
)

func init() {
	documentListCmd.Flags().StringVarP(&docListCompany, "company", "c", "", "only documents of this company")
	documentListCmd.Flags().StringVarP(&docListStatus, "status", "s", "", "only documents in this status (pending, success, failed)")
	documentListCmd.Flags().BoolVar(&docListActive, "active", false, "only active documents")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentActivateCmd)
	documentCmd.AddCommand(documentDeactivateCmd)
	documentCmd.AddCommand(documentRetryCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	filter := domain.DocumentFilter{
		CompanyID:  docListCompany,
		Status:     domain.ProcessingStatus(docListStatus),
		ActiveOnly: docListActive,
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, docListStatus)
	}

	docs, err := documentService.List(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		d := &docs[i]
		cmd.Printf("  %s  %-8s %-4s %s\n", d.ID, d.Status, yearLabel(d.ReportYear), d.FileName)
		cmd.Printf("    Company: %s", d.CompanyID)
		if !d.Active {
			cmd.Print(" (inactive)")
		}
		cmd.Println()
	}

	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  File:        %s (%d bytes)\n", doc.FileName, doc.FileSize)
	cmd.Printf("  Hash:        %s\n", doc.FileHash)
	cmd.Printf("  Company:     %s\n", doc.CompanyID)
	cmd.Printf("  Source:      %s\n", doc.Source)
	cmd.Printf("  Report year: %s\n", yearLabel(doc.ReportYear))
	cmd.Printf("  Active:      %s\n", yesNo(doc.Active))
	cmd.Printf("  Status:      %s (attempts: %d)\n", doc.Status, doc.Attempts)
	if doc.LastError != "" {
		cmd.Printf("  Last error:  %s\n", doc.LastError)
	}
	if doc.IsIndexed() {
		cmd.Printf("  Chunk index: %s\n", doc.ChunkIndexPath)
		cmd.Printf("  Doc index:   %s\n", doc.DocumentIndexPath)
	}
	cmd.Printf("  Created:     %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:     %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	return nil
}

func setDocumentActive(cmd *cobra.Command, docID string, active bool) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.SetActive(cmd.Context(), docID, active); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	if active {
		cmd.Printf("Document %s activated.\n", docID)
	} else {
		cmd.Printf("Document %s deactivated.\n", docID)
	}
	return nil
}

func runDocumentRetry(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	if err := documentService.Retry(cmd.Context(), docID); err != nil {
		return fmt.Errorf("failed to retry document: %w", err)
	}
	cmd.Printf("Document %s queued for ingestion.\n", docID)

	if ingestionService != nil {
		if err := ingestionService.Wait(cmd.Context()); err != nil {
			return err
		}
		doc, err := documentService.Get(cmd.Context(), docID)
		if err != nil {
			return fmt.Errorf("failed to get document: %w", err)
		}
		printStatus(cmd, doc)
	}
	return nil
}

// printStatus prints the one-line ingestion outcome of a document.
func printStatus(cmd *cobra.Command, doc *domain.Document) {
	switch doc.Status {
	case domain.StatusSuccess:
		cmd.Printf("  ok      %s (year %s)\n", doc.FileName, yearLabel(doc.ReportYear))
	case domain.StatusFailed:
		cmd.Printf("  failed  %s: %s\n", doc.FileName, doc.LastError)
	default:
		cmd.Printf("  %-7s %s\n", doc.Status, doc.FileName)
	}
}

func yearLabel(year *int) string {
	if year == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *year)
}
