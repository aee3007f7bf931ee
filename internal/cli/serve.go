package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/handlers"
	"github.com/Ramsey-B/fern/internal/server"
	"github.com/Ramsey-B/fern/pkg/controller"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Simulate bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the embed API",
		Long: `Run the HTTP API: the embed config endpoint, the bridge websocket
that host pages connect to, the session command routes and the form schemas.`,
		Example: `  # Serve with settings from the environment
  fern serve

  # Serve demo sessions without a Power BI tenant
  fern serve --simulate --pretty-logs`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Simulate, "simulate", false, "Enable POST /sessions backed by the in-memory demo report")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := GetConfig(cmd.Context())
	logger := GetLogger(cmd.Context())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEnabled {
		exporter, err := exporters.NewOTLPExporter(ctx, exporters.NewOTLPConfig(cfg.OTLPEndpoint, cfg.OTLPProtocol, cfg.OTLPInsecure))
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		shutdown := tracing.Setup(cfg.AppName, exporter)
		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.WithError(err).Warn("Failed to flush traces")
			}
		}()
	}

	a := newApp(cfg, logger)
	if err := a.start(ctx); err != nil {
		return err
	}
	defer a.stop(context.WithoutCancel(ctx))

	schemas, catalog, err := loadForms(cfg.FormsDir)
	if err != nil {
		return err
	}

	embed := a.embedService()
	var source controller.ConfigSource = embed
	if opts.Simulate && !embed.Configured() {
		logger.Warn("Power BI is not configured; sessions embed the demo config")
		source = demoSource{}
	}

	registry := controller.NewRegistry()
	checker := a.healthChecker(registry)

	h := server.Handlers{
		Health: checker,
		Embed:  handlers.NewEmbedHandler(embed, logger),
		Sessions: handlers.NewSessionHandler(registry, source, a.publisher(), handlers.SessionOptions{
			ReadyInterval: cfg.BridgeReadyInterval,
			ReadyAttempts: cfg.BridgeReadyAttempts,
			CallTimeout:   cfg.BridgeCallTimeout,
			Origins:       cfg.Origins(),
			Simulate:      opts.Simulate,
		}, logger),
		Forms: handlers.NewFormsHandler(schemas, catalog),
	}

	if cfg.AuthEnabled {
		verifier, err := middleware.NewOIDCVerifier(ctx, cfg.AuthIssuerURL, cfg.AuthClientID)
		if err != nil {
			return err
		}
		h.Auth = middleware.Authentication(logger, verifier)
	}

	srvCfg := server.ConfigFrom(cfg)
	e := server.New(srvCfg, h, logger)
	checker.SetReady(true)

	return server.Run(ctx, e, srvCfg, logger)
}
