// Command docflow classifies documents and routes them to LLM-backed handlers.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/docflow/internal/adapters/driven/ai"
	"github.com/custodia-labs/docflow/internal/adapters/driven/config/env"
	"github.com/custodia-labs/docflow/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docflow/internal/adapters/driven/extract"
	"github.com/custodia-labs/docflow/internal/adapters/driven/extract/docx"
	"github.com/custodia-labs/docflow/internal/adapters/driven/extract/eml"
	"github.com/custodia-labs/docflow/internal/adapters/driven/extract/html"
	"github.com/custodia-labs/docflow/internal/adapters/driven/extract/pdf"
	"github.com/custodia-labs/docflow/internal/adapters/driven/storage"
	"github.com/custodia-labs/docflow/internal/adapters/driving/cli"
	"github.com/custodia-labs/docflow/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docflow/internal/core/services"
	"github.com/custodia-labs/docflow/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	fileStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	configStore := env.NewConfigStore(fileStore)

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	backend, err := storage.Open(settings.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("closing store: %v", err)
		}
	}()
	logger.Debug("store: %s at %s", settings.Store.Backend, backend.Location)

	prompts, err := file.NewPromptStore("", services.DefaultPrompts())
	if err != nil {
		return fmt.Errorf("open prompts: %w", err)
	}

	entries := services.NewEntryService(backend.KV)
	router := ai.NewRouter(*settings)
	defer func() {
		if err := router.Close(); err != nil {
			logger.Warn("closing llm providers: %v", err)
		}
	}()
	classifier := services.NewClassifier(router, entries, prompts)
	orchestrator := services.NewOrchestrator(
		classifier,
		entries,
		backend.KV,
		services.NewJSONHandler(router, entries, prompts),
		services.NewEmailHandler(router, entries, prompts),
	)
	scheduler := services.NewScheduler(settings.Scheduler, backend.Scheduler, entries)
	extractors := extract.NewRegistry(pdf.New(), eml.New(), html.New(), docx.New())

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Pipeline:  orchestrator,
		Settings:  settingsService,
		Extractor: extractors,
	})
	cli.SetServeConfig(&cli.ServeConfig{
		NewHTTPServer: func(addr string) (cli.Runner, error) {
			srv, err := httpapi.NewServer(orchestrator, extractors, httpapi.Config{
				Addr:        addr,
				CORSOrigins: settings.Server.CORSOrigins,
				Version:     cli.Version(),
			})
			if err != nil {
				return nil, err
			}
			return srv, nil
		},
		DefaultAddr:     settings.Server.Addr,
		Scheduler:       scheduler,
		SchedulerConfig: settings.Scheduler,
		Prompts:         prompts,
		PDFCheck:        pdf.CheckAvailable,
	})

	return cli.Execute(ctx)
}
