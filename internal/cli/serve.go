package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesprial/migas-go/internal/config"
	"github.com/jamesprial/migas-go/internal/graphql"
	"github.com/jamesprial/migas-go/internal/logging"
	"github.com/jamesprial/migas-go/internal/safety"
	"github.com/jamesprial/migas-go/internal/service"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve migas operations as MCP tools over streamable HTTP",
		Long: `Start an HTTP server exposing:

  /mcp      MCP tools (bearer token required)
  /metrics  Prometheus metrics
  /healthz  liveness

When no auth token is configured (server.auth_token or MIGAS_AUTH_TOKEN) a
random one is generated and logged at startup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				opts.cfg.Server.Port = port
			}
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides server.port)")

	return cmd
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg := opts.cfg
	log := logging.Logger()

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("could not generate auth token, running without authentication")
	} else if tokenBefore == "" {
		log.Info().Str("token", token).Msg("generated auth token (set MIGAS_AUTH_TOKEN to persist)")
	}

	var audit *safety.AuditLogger
	if cfg.Audit.Enabled {
		a, closer, err := safety.OpenAuditLog(cfg.Audit.LogPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Audit.LogPath).Msg("could not open audit log, audit logging disabled")
		} else {
			audit = a
			defer closer.Close()
		}
	}

	mcpServer := service.NewMCPServer(service.Options{
		Name:          "migas-go",
		Version:       graphql.Version,
		Registrations: service.Tools(opts.client(), safety.NewFilter(cfg.Projects), audit),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := service.NewHTTPServer(addr, service.NewHandler(mcpServer, cfg.Server.AuthToken))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		log.Info().Str("addr", addr).Bool("telemetry", cfg.Telemetry).Msg("migas-go listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
