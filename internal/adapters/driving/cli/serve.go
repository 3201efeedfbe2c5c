package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP front door",
	Long: `Start the HTTP API together with the background scheduler.

Endpoints:
  GET  /                  service status
  GET  /health            component health
  POST /process/text      process a JSON body {content, metadata, model_id}
  POST /process/file      process a multipart upload (file, metadata, model_id)
  POST /classify          classify without processing
  GET  /history?limit=N   recent entries (filter with type= and intent=)
  GET  /memory/{id}       a single entry
  GET  /threads/{id}      entries of a thread
  GET  /conversations/{id} entries of a conversation

Prompt files under ~/.docflow/prompts are reloaded when they change.
Stop with Ctrl+C; in-flight requests are drained first.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveConfig == nil || serveConfig.NewHTTPServer == nil {
		return errors.New("http server not configured")
	}

	addr := serveAddr
	if addr == "" {
		addr = serveConfig.DefaultAddr
	}
	server, err := serveConfig.NewHTTPServer(addr)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start scheduler if enabled (serve is long-running, needs background tasks)
	if serveConfig.SchedulerConfig.Enabled && serveConfig.Scheduler != nil {
		go func() {
			if err := serveConfig.Scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				// Log but don't fail - scheduler errors shouldn't block serving
				logger.Warn("scheduler stopped: %v", err)
			}
		}()

		defer func() {
			if err := serveConfig.Scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop error: %v", err)
			}
		}()
	}

	if serveConfig.Prompts != nil {
		if err := serveConfig.Prompts.Watch(ctx, func(name string) {
			logger.Info("prompt %s reloaded", name)
		}); err != nil {
			logger.Warn("prompt watching disabled: %v", err)
		}
	}

	if serveConfig.PDFCheck != nil {
		if err := serveConfig.PDFCheck(); err != nil {
			cmd.PrintErrf("warning: PDF uploads will be rejected: %v\n", err)
		}
	}

	cmd.Printf("docflow listening on %s\n", addr)
	return server.Run(ctx)
}
