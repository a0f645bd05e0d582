package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/auth/memory"
	"github.com/gatehouse/gatehouse/internal/httpapi"
	"github.com/gatehouse/gatehouse/internal/logging"
	"github.com/gatehouse/gatehouse/internal/observability"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the auth server",
		Long: `Start the auth HTTP server: registration, login, logout, and
session validation endpoints, plus an optional metrics/health endpoint.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("listen-addr", defaultListenAddr, "API listen address")
	cmd.Flags().String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", defaultLogFormat, "log format (json or text)")
	cmd.Flags().Duration("sweep-interval", defaultSweepInterval, "expired-session sweep interval (0 = lazy eviction only)")

	return cmd
}

// runServe wires the auth core and serves it until the context is
// cancelled or a server fails.
func runServe(ctx context.Context, cfg *serveConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.SetDefault("gatehouse", version, cfg.LogFormat)
	logger := slog.Default()

	logger.Info("starting auth server",
		"listen_addr", cfg.ListenAddr,
		"log_format", cfg.LogFormat,
	)

	users := memory.NewUserRepository()
	sessions := memory.NewSessionRepository()

	creds, err := auth.NewCredentialStore(users, auth.NewArgon2idHasher())
	if err != nil {
		return fmt.Errorf("create credential store: %w", err)
	}
	issuer, err := auth.NewSessionIssuer(sessions)
	if err != nil {
		return fmt.Errorf("create session issuer: %w", err)
	}
	svc, err := auth.NewServiceWithLogger(creds, issuer, logger)
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional background eviction; lazy eviction on validate keeps reads
	// correct either way.
	if cfg.SweepInterval > 0 {
		sweeper, sweepErr := auth.NewSweeper(sessions, cfg.SweepInterval, logger)
		if sweepErr != nil {
			return fmt.Errorf("create sweeper: %w", sweepErr)
		}
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	var metrics *observability.Metrics
	var obsErrCh <-chan error
	var obsServer *observability.Server
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool { return true }, sessions.Len)
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return fmt.Errorf("start observability server: %w", err)
		}
		defer func() {
			if stopErr := obsServer.Stop(context.Background()); stopErr != nil {
				logger.Error("failed to stop observability server", "error", stopErr)
			}
		}()
		metrics = obsServer.Metrics()
	}

	handler, err := httpapi.NewHandler(svc, logger, metrics)
	if err != nil {
		return fmt.Errorf("create api handler: %w", err)
	}
	apiServer, err := httpapi.NewServer(cfg.ListenAddr, handler, logger)
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}
	apiErrCh, err := apiServer.Start()
	if err != nil {
		return fmt.Errorf("start api server: %w", err)
	}
	defer func() {
		if stopErr := apiServer.Stop(context.Background()); stopErr != nil {
			logger.Error("failed to stop api server", "error", stopErr)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case err := <-apiErrCh:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case err := <-obsErrCh:
		if err != nil {
			return fmt.Errorf("observability server failed: %w", err)
		}
		return nil
	}
}
