// Package cli provides the reportrag command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/reportrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/reportrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
	"github.com/custodia-labs/reportrag/internal/core/services"
	"github.com/custodia-labs/reportrag/internal/logger"
)

// version is reported by the version command; set at build time.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
)

// Services used by commands. They are wired before a command runs,
// unless already set (tests inject mocks).
var (
	settingsService   driving.SettingsService
	documentService   driving.DocumentService
	catalogService    driving.CatalogService
	evaluationService driving.EvaluationService
	ingestionService  driving.IngestionService
)

// app owns the resources opened by wireCore; nil when services were injected.
var app *coreRuntime

// servicesAnnotation selects how much wiring a command needs.
const servicesAnnotation = "services"

const (
	needsNone     = "none"
	needsSettings = "settings"
)

var rootCmd = &cobra.Command{
	Use:   "reportrag",
	Short: "Answer questions from company PDF reports",
	Long: `reportrag indexes annual and sustainability reports (PDF) per company and
answers natural-language queries by retrieving the most similar text
passages and table columns, each tagged with its reporting year.

Configure an embedding provider first:
  reportrag settings set embedding.provider static   # offline
  reportrag settings embedding                        # interactive`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: teardownServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.reportrag)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// requiredServices walks up the command tree for the services annotation.
func requiredServices(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if v, ok := c.Annotations[servicesAnnotation]; ok {
			return v
		}
	}
	return ""
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	need := requiredServices(cmd)
	if need == needsNone {
		return nil
	}

	if settingsService == nil {
		loadEnv()
		store, err := file.NewConfigStore(configDir)
		if err != nil {
			return fmt.Errorf("opening config: %w", err)
		}
		settingsService = services.NewSettingsService(store, ai.NewConfigValidator())
	}
	if need == needsSettings || evaluationService != nil {
		return nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if err := settingsService.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	rt, err := wireCore(cmd.Context(), settings, promptDir())
	if err != nil {
		return err
	}
	for _, w := range rt.warnings {
		cmd.PrintErrf("Warning: %s\n", w)
	}

	app = rt
	documentService = rt.documents
	catalogService = rt.catalog
	evaluationService = rt.evaluation
	ingestionService = rt.queue
	return nil
}

func teardownServices(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	err := app.Close()
	app = nil
	documentService = nil
	catalogService = nil
	evaluationService = nil
	ingestionService = nil
	return err
}

// loadEnv reads API keys from .env in the working and config directories.
// Variables already set in the environment win.
func loadEnv() {
	_ = godotenv.Load()
	if configDir != "" {
		_ = godotenv.Load(filepath.Join(configDir, ".env"))
	}
}

func promptDir() string {
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, "prompts")
}
