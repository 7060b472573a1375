package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/cojournalist/internal/config"
	"github.com/jonathan/cojournalist/internal/db"
	"github.com/jonathan/cojournalist/internal/identity"
	"github.com/jonathan/cojournalist/internal/llm"
	"github.com/jonathan/cojournalist/internal/logging"
	"github.com/jonathan/cojournalist/internal/metrics"
	"github.com/jonathan/cojournalist/internal/modes"
	"github.com/jonathan/cojournalist/internal/persistence"
	"github.com/jonathan/cojournalist/internal/prompts"
	"github.com/jonathan/cojournalist/internal/server"
	"github.com/jonathan/cojournalist/internal/server/ratelimit"
	"github.com/jonathan/cojournalist/internal/session"
	"github.com/jonathan/cojournalist/internal/spaces"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the session, chat and scrape job endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "Apply the database schema before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if serveMigrate {
		if err := database.Migrate(ctx); err != nil {
			return err
		}
	}

	srv, closeFn := buildServer(ctx, cfg, database, logger)
	defer closeFn()

	return srv.Start(ctx)
}

// buildServer wires every collaborator of the API. The returned function
// releases the completion client.
func buildServer(ctx context.Context, cfg *config.Config, database *db.DB, logger *zap.Logger) (*server.Server, func()) {
	m := metrics.New()
	gateway := persistence.NewGateway(database, logger.Named("persistence"), m)
	registry := modes.NewRegistry(cfg.Spaces.URLs)

	deps := &session.Deps{
		Registry: registry,
		Prompts:  prompts.NewLoader(cfg.PromptsDir, logger.Named("prompts")),
		Spaces: spaces.NewClient(spaces.Options{
			APIKey:  cfg.Spaces.APIKey,
			Timeout: cfg.Spaces.Timeout,
		}),
		Gateway: gateway,
		Logger:  logger.Named("session"),
		Metrics: m,
	}

	closeFn := func() {}
	completer, err := llm.NewClient(ctx, &llm.Config{
		Provider:    llm.Provider(cfg.LLM.Provider),
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		// SCRAPE chat then answers with the local failure reply.
		logger.Warn("completion backend unavailable", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
	} else {
		deps.Completer = completer
		closeFn = func() { _ = completer.Close() }
	}

	var idp server.IdentityProvider
	if cfg.Identity.Enabled() {
		idp = identity.NewClient(cfg.Identity.URL, cfg.Identity.APIKey, cfg.Identity.Timeout)
	} else {
		logger.Warn("identity provider not configured, sign-in disabled")
	}

	srv := server.New(server.Options{
		Port:          cfg.Port,
		Sessions:      session.NewManager(deps, cfg.Sessions.IdleTTL),
		Users:         gateway,
		Identity:      idp,
		Registry:      registry,
		Tokens:        server.NewJWTService(cfg.Auth),
		RateLimiter:   ratelimit.NewLimiter(ratelimit.LoadConfig()),
		Metrics:       m,
		Logger:        logger.Named("http"),
		DB:            database,
		SweepInterval: cfg.Sessions.SweepInterval,
	})
	return srv, closeFn
}
