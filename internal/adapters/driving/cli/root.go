package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperchat-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/paperchat-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/paperchat-cli/internal/adapters/driven/index"
	"github.com/custodia-labs/paperchat-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperchat-cli/internal/core/services"
	"github.com/custodia-labs/paperchat-cli/internal/logger"
	"github.com/custodia-labs/paperchat-cli/internal/normalisers"
	"github.com/custodia-labs/paperchat-cli/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Package-level services, built on first use so lightweight commands
// (version, help) never touch the filesystem or the network. Tests swap
// these for mocks.
var (
	settingsService driving.SettingsService
	sessionService  driving.SessionService
	actionService   driving.ActionService
	promptStore     *file.PromptStore
	transcriptStore driven.TranscriptStore
	aiServices      *ai.InitResult
)

var rootCmd = &cobra.Command{
	Use:   "paperchat",
	Short: "Chat with your documents from the terminal",
	Long: `Paperchat answers questions about your PDFs and other documents.

Files are chunked, embedded and indexed in memory for the lifetime of a
chat session; nothing you upload is stored on disk. Retrieval combines
semantic (vector) and keyword (BM25) search, and an LLM answers from the
retrieved passages with page-level citations.

Run 'paperchat settings' first to configure your embedding and LLM
providers, then 'paperchat chat paper.pdf' to start asking questions.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// ensureSettingsService builds the config-backed settings service. Cheap:
// opens (and creates if missing) ~/.paperchat/config.toml, no network.
func ensureSettingsService() error {
	if settingsService != nil {
		return nil
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	settingsService = services.NewSettingsService(configStore, ai.NewConfigValidator())
	return nil
}

// ensureSessionService builds the full ingestion and retrieval stack:
// AI services (validated with a ping), normalisers, the chunking pipeline,
// per-session index factory and the optional transcript archive. Provider
// problems degrade to warnings on stderr rather than failing the command.
func ensureSessionService(cmd *cobra.Command) error {
	if sessionService != nil {
		return nil
	}

	if err := ensureSettingsService(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	aiServices = ai.Init(settings)
	for _, warning := range aiServices.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}

	promptStore, err = file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("opening prompt store: %w", err)
	}

	if settings.History.Enabled {
		store, err := sqlite.NewStore(settings.History.Path)
		if err != nil {
			// The archive is observability, not a dependency; chat works
			// without it.
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: transcript archive unavailable: %v\n", err)
		} else {
			transcriptStore = store
		}
	}

	registry := normalisers.NewRegistry()
	normalisers.RegisterDefaults(registry)

	processors := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(processors, aiServices.EmbeddingService)
	chunker, err := processors.Build("semantic", map[string]any{
		"breakpoint_percentile": settings.Chunker.BreakpointPercentile,
		"buffer_size":           settings.Chunker.BufferSize,
	})
	if err != nil {
		return fmt.Errorf("building chunking pipeline: %w", err)
	}

	dimension := domain.EmbeddingDimensions()[settings.Embedding.Model]
	factory := index.NewFactory(dimension)

	sessionService = services.NewSessionService(
		factory,
		registry,
		postprocessors.NewPipeline(chunker),
		aiServices.EmbeddingService,
		aiServices.LLMService,
		promptStore,
		transcriptStore,
		*settings,
	)
	actionService = services.NewActionService()

	return nil
}

// closeServices releases process-lifetime resources on exit.
func closeServices() {
	if aiServices != nil {
		aiServices.Close()
	}
	if transcriptStore != nil {
		if err := transcriptStore.Close(); err != nil {
			logger.Warn("closing transcript archive: %v", err)
		}
	}
	if promptStore != nil {
		if err := promptStore.Close(); err != nil {
			logger.Warn("closing prompt store: %v", err)
		}
	}
}
