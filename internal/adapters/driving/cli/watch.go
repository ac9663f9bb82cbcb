package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/reportrag/internal/connectors/filesystem"
	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest PDF reports dropped into a directory",
	Long: `Watch a directory for a company's PDF reports. Existing files are
registered at start; new or rewritten files are registered once they stop
changing. On the ingestion.rescan_schedule (cron syntax, default "@every 5m")
the directory is rescanned and failed documents are retried.

Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

// Flags for the watch command.
var (
	watchCompany  string
	watchSource   string
	watchSchedule string
)

func init() {
	watchCmd.Flags().StringVarP(&watchCompany, "company", "c", "", "company that publishes the reports (required)")
	watchCmd.Flags().StringVar(&watchSource, "source", string(domain.SourceManual), "acquisition source (manual, webscraped)")
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "rescan schedule (default from settings)")
	_ = watchCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	source := domain.DocumentSource(watchSource)
	if !source.IsValid() {
		return fmt.Errorf("%w: unknown source %q", domain.ErrInvalidInput, watchSource)
	}

	schedule := watchSchedule
	if schedule == "" && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			schedule = settings.Ingestion.RescanSchedule
		}
	}

	ctx := cmd.Context()
	inbox := filesystem.New(args[0])
	defer inbox.Close()

	w := &watcher{
		cmd:       cmd,
		inbox:     inbox,
		companyID: watchCompany,
		source:    source,
		seen:      make(map[string]bool),
	}
	if err := w.rescan(ctx); err != nil {
		return err
	}

	changes, err := inbox.Watch(ctx)
	if err != nil {
		return err
	}

	rescans := make(chan struct{}, 1)
	if schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(schedule, func() {
			select {
			case rescans <- struct{}{}:
			default:
			}
		}); err != nil {
			return fmt.Errorf("invalid rescan schedule %q: %w", schedule, err)
		}
		c.Start()
		defer c.Stop()
	}

	cmd.Printf("Watching %s for %s. Press Ctrl+C to stop.\n", inbox.Root(), watchCompany)
	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)
	for {
		select {
		case <-ctx.Done():
			cmd.Println("Stopped.")
			return nil

		case path, ok := <-changes:
			if !ok {
				return nil
			}
			w.register(ctx, path)

		case <-rescans:
			if err := w.rescan(ctx); err != nil {
				logger.Warn("rescan: %v", err)
			}
			w.retryFailed(ctx)
		}
	}
}

// watcher registers inbox files for one company. Its methods run on the
// command goroutine only.
type watcher struct {
	cmd       *cobra.Command
	inbox     *filesystem.Inbox
	companyID string
	source    domain.DocumentSource
	seen      map[string]bool
}

func (w *watcher) rescan(ctx context.Context) error {
	paths, err := w.inbox.Scan()
	if err != nil {
		return err
	}
	logger.Debug("Rescan of %s found %d PDFs", w.inbox.Root(), len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			return nil
		}
		w.register(ctx, path)
	}
	return nil
}

func (w *watcher) register(ctx context.Context, path string) {
	doc, err := registerFile(ctx, w.companyID, path, w.source, nil)
	if err != nil {
		w.cmd.PrintErrf("  skipped %s: %v\n", path, err)
		return
	}
	if w.seen[doc.ID] {
		return
	}
	w.seen[doc.ID] = true
	w.cmd.Printf("  %-7s %s (%s)\n", doc.Status, doc.FileName, doc.ID)
}

func (w *watcher) retryFailed(ctx context.Context) {
	failed, err := documentService.List(ctx, domain.DocumentFilter{
		CompanyID: w.companyID,
		Status:    domain.StatusFailed,
	})
	if err != nil {
		logger.Warn("listing failed documents: %v", err)
		return
	}
	for i := range failed {
		if err := documentService.Retry(ctx, failed[i].ID); err != nil {
			logger.Warn("retry %s: %v", failed[i].ID, err)
			continue
		}
		w.cmd.Printf("  retry   %s (%s)\n", failed[i].FileName, failed[i].ID)
	}
}
