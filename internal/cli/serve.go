package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/codefox-dev/codefox/internal/common/logger"
	"github.com/codefox-dev/codefox/internal/config"
	"github.com/codefox-dev/codefox/internal/dashboard"
	"github.com/codefox-dev/codefox/internal/history"
	"github.com/codefox-dev/codefox/internal/toolservice"
)

// DefaultConfigFile is where serve looks for configuration when no --config
// flag is given.
const DefaultConfigFile = "/etc/codefox/codefox.conf"

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the execution service",
		Long:  "Starts the MCP tool endpoint and the history dashboard, and serves executions until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	logger.Init()
	slog := log.With().Str("state", "init").Logger()

	slog.Info().Str("config_file", configFile).Msg("loading config file")
	if err := config.LoadConfig(configFile); err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}

	store := openHistory(ctx)
	if store != nil {
		defer store.Close()
	}

	dashboardErrors, shutdownDashboard, err := createDashboardServer(ctx, store)
	if err != nil {
		return fmt.Errorf("creating dashboard server: %w", err)
	}

	mcpErrors, shutdownMCP, err := createToolServer(ctx, store)
	if err != nil {
		shutdownDashboard()
		return fmt.Errorf("creating tool server: %w", err)
	}

	// Channel to listen for an interrupt or terminate signal from the OS.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-dashboardErrors:
		shutdownMCP()
		return fmt.Errorf("dashboard server error: %w", err)

	case err := <-mcpErrors:
		shutdownDashboard()
		return fmt.Errorf("tool server error: %w", err)

	case sig := <-shutdown:
		slog.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		shutdownMCP()
		shutdownDashboard()
	}

	slog.Info().Msg("server stopped")
	return nil
}

// openHistory connects to the history database. A missing DSN degrades to
// running without persistence; any other failure is fatal only for the
// store, not the service.
func openHistory(ctx context.Context) *history.Store {
	dsn := config.Config().Database.DSN
	if dsn == "" {
		log.Warn().Msg("no database DSN configured, executions will not be recorded")
		return nil
	}
	store, err := history.NewStore(ctx, dsn)
	if err != nil {
		log.Error().Err(err).Msg("failed to open history store, executions will not be recorded")
		return nil
	}
	return store
}

func createDashboardServer(ctx context.Context, store *history.Store) (chan error, func(), error) {
	slog := log.With().Str("state", "init").Logger()

	var dashStore dashboard.Store
	if store != nil {
		dashStore = store
	}
	s, err := dashboard.CreateNewServer(dashStore)
	if err != nil {
		return nil, nil, fmt.Errorf("creating server: %w", err)
	}
	s.MountHandlers()

	srv := &http.Server{
		Addr:              ":" + config.Config().Dashboard.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		slog.Info().Str("port", config.Config().Dashboard.Port).Msg("dashboard server started")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := func() {
		// Give outstanding requests 5 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error().Err(err).Msg("could not stop dashboard server gracefully")
			if err := srv.Close(); err != nil {
				slog.Error().Err(err).Msg("could not stop dashboard server")
			}
		}
	}

	return serverErrors, shutdown, nil
}

func createToolServer(ctx context.Context, store *history.Store) (chan error, func(), error) {
	slog := log.With().Str("state", "init").Logger()

	var histStore toolservice.HistoryStore
	if store != nil {
		histStore = store
	}
	s, err := toolservice.CreateNewService(histStore)
	if err != nil {
		return nil, nil, fmt.Errorf("creating service: %w", err)
	}

	srv := &http.Server{
		Addr:              config.Config().MCP.HostName + ":" + config.Config().MCP.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		slog.Info().Str("addr", srv.Addr).Msg("mcp tool server started")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := func() {
		// Give outstanding requests 5 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error().Err(err).Msg("could not stop tool server gracefully")
		}
	}

	return serverErrors, shutdown, nil
}
