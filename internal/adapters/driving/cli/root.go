// Package cli provides the docflow command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
	"github.com/custodia-labs/docflow/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Extractor finds a text extractor for a file's content type.
type Extractor interface {
	Lookup(contentType string) (driven.TextExtractor, bool)
}

// Runner is a long-running component stopped by cancelling its context.
type Runner interface {
	Run(ctx context.Context) error
}

// PromptWatcher reloads prompt templates when their files change.
type PromptWatcher interface {
	Watch(ctx context.Context, onChange func(name string)) error
}

// Services holds the ports the commands drive.
type Services struct {
	Pipeline  driving.PipelineService
	Settings  driving.SettingsService
	Extractor Extractor
}

// ServeConfig holds what the serve command runs besides the pipeline.
type ServeConfig struct {
	// NewHTTPServer builds the HTTP front door for a listen address.
	NewHTTPServer func(addr string) (Runner, error)

	// DefaultAddr is used when --addr is not given.
	DefaultAddr string

	Scheduler       driving.Scheduler
	SchedulerConfig domain.SchedulerConfig
	Prompts         PromptWatcher

	// PDFCheck reports whether PDF uploads can be extracted. A failure is a
	// startup warning, not an error.
	PDFCheck func() error
}

var (
	pipelineService driving.PipelineService
	settingsService driving.SettingsService
	fileExtractor   Extractor
	serveConfig     *ServeConfig
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docflow",
	Short: "Classify and process documents with LLM agents",
	Long: `docflow classifies incoming documents (emails, JSON payloads, PDFs) by
format and intent, routes them to a specialised handler and keeps an audit
trail of every step.

Run 'docflow serve' to start the HTTP front door, or process files directly
from the command line.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices sets the services used by the commands.
func SetServices(s Services) {
	pipelineService = s.Pipeline
	settingsService = s.Settings
	fileExtractor = s.Extractor
}

// SetServeConfig sets the configuration for the serve command.
func SetServeConfig(config *ServeConfig) {
	serveConfig = config
}

// SetVersion sets the version reported by the version command and the HTTP root.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Version returns the current version string.
func Version() string {
	return version
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
