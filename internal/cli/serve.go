package cli

import (
	"fmt"

	"tailorflow/internal/analyzer"
	"tailorflow/internal/engine"
	"tailorflow/internal/orchestrator"
	"tailorflow/internal/server"
	"tailorflow/internal/workflow"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resume tailoring workflows",
	Long: `Start an HTTP server that provides REST API endpoints for resume tailoring.

Available endpoints:
- POST /tailor: Tailor a resume synchronously
- POST /workflows: Start an asynchronous tailoring workflow
- GET /workflows/{id}: Inspect workflow status and result
- DELETE /workflows/{id}: Cancel a running workflow
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --cert-file and --key-file to serve HTTPS`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().Bool("tls", false, "Enable TLS (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.enabled", "tls")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	an := analyzer.New()
	if cfg.Analyzer.VocabularyFile != "" {
		if err := an.LoadVocabularyFile(cfg.Analyzer.VocabularyFile); err != nil {
			return fmt.Errorf("failed to load vocabulary: %w", err)
		}
		logger.Info("Vocabulary loaded",
			"file", cfg.Analyzer.VocabularyFile,
			"terms", an.TermCount())
	}

	// Hot-reload the vocabulary while the server runs
	if cfg.Analyzer.Watch {
		watcher := analyzer.NewVocabularyWatcher(cfg.Analyzer.VocabularyFile, an, cfg.Analyzer.DebounceDelay, logger)
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to watch vocabulary file: %w", err)
		}
		defer watcher.Stop()
	}

	orch := orchestrator.NewFromConfig(&cfg.Backends, engine.New(an), an, logger)
	workflows := workflow.NewManager(orch, cfg.Workflow, logger)

	return server.NewServer(cfg, Version, orch, workflows, logger).Start()
}
