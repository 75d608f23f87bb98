package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/ecordell/optgen/helpers"
	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	v1 "github.com/fleetsight/telemetry-agent/api/v1"
	"github.com/fleetsight/telemetry-agent/internal/config"
	"github.com/fleetsight/telemetry-agent/internal/handlers"
	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/server"
	"github.com/fleetsight/telemetry-agent/internal/services"
	"github.com/fleetsight/telemetry-agent/internal/store"
	"github.com/fleetsight/telemetry-agent/internal/store/migrations"
	"github.com/fleetsight/telemetry-agent/pkg/scheduler"
)

func NewRunCommand(cfg *config.Configuration) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the telemetry agent",
		Example: `  # Run the agent with two TMS tokens and persistent storage
  agent run --tms-token AAAA --tms-token BBBB --data-folder /var/lib/agent

  # Run the agent with hourly background collection of today's sheets
  agent run --tms-token AAAA --data-folder /var/lib/agent --sync-enabled

  # Run the agent in production mode serving the frontend
  agent run --tms-token AAAA --data-folder /var/lib/agent --server-mode prod --server-statics-folder /var/www/statics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateConfiguration(cfg); err != nil {
				return err
			}

			zap.S().Infow("using configuration",
				"server", helpers.Flatten(cfg.Server.DebugMap()),
				"agent", helpers.Flatten(cfg.Agent.DebugMap()),
				"tms", helpers.Flatten(cfg.TMS.DebugMap()),
				"collector", helpers.Flatten(cfg.Collector.DebugMap()),
			)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
			wg := sync.WaitGroup{}
			wg.Add(1)

			// init store
			dbPath := filepath.Join(cfg.Agent.DataFolder, "agent.duckdb")
			if cfg.Agent.DataFolder == "" {
				dbPath = ":memory:"
				zap.S().Warn("data-folder not set, using in-memory database (data will not persist)")
			}
			db, err := store.NewDB(dbPath)
			if err != nil {
				zap.S().Errorw("failed to initialize database", "error", err)
				return err
			}
			s := store.NewStore(db)
			defer s.Close()

			if err := migrations.Run(ctx, db); err != nil {
				zap.S().Errorw("failed to run migrations", "error", err)
				return err
			}
			zap.S().Info("database initialized successfully")

			// init scheduler
			sched := scheduler.NewScheduler(cfg.Agent.NumWorkers)
			defer sched.Close()

			// init services
			collectorSrv := services.NewCollectorService(sched, s, cfg)

			// Tokens passed on the command line win over whatever a previous
			// run stored.
			if len(cfg.TMS.Tokens) > 0 {
				creds := &models.Credentials{BaseURL: cfg.TMS.BaseURL, Tokens: cfg.TMS.Tokens}
				if err := collectorSrv.SaveCredentials(ctx, creds); err != nil {
					zap.S().Errorw("failed to store TMS credentials", "error", err)
					return err
				}
				zap.S().Infow("stored TMS credentials from configuration", "tokens", len(cfg.TMS.Tokens))
			}

			if cfg.Agent.SyncEnabled {
				syncSrv := services.NewSyncService(cfg.Agent, collectorSrv, s)
				syncSrv.Start()
				defer syncSrv.Stop()
			}

			// init handlers
			h := handlers.New(collectorSrv)

			srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
				v1.RegisterHandlers(router, h)
			})
			if err != nil {
				zap.S().Errorw("failed to create http server", "error", err)
				return err
			}

			go func() {
				defer func() {
					wg.Done()
					cancel()
				}()
				zap.S().Infof("Starting HTTP server on port %d", cfg.Server.HTTPPort)

				if err := srv.Start(ctx); err != nil {
					zap.S().Errorw("failed to start http server", "error", err)
				}
			}()

			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				srv.Stop(stopCtx)
			}()

			<-ctx.Done()
			wg.Wait()

			zap.S().Info("server shutdown")

			return nil
		},
	}

	registerFlags(runCmd, cfg)

	return runCmd
}

func registerFlags(cmd *cobra.Command, config *config.Configuration) {
	nfs := cobrautil.NewNamedFlagSets(cmd)

	serverFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("Server"))
	registerServerFlags(serverFlagSet, config)

	agentFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("Agent"))
	registerAgentFlags(agentFlagSet, config)

	tmsFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("TMS"))
	registerTMSFlags(tmsFlagSet, config)

	collectorFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("Collector"))
	registerCollectorFlags(collectorFlagSet, config)

	nfs.AddFlagSets(cmd)
}

func validateConfiguration(cfg *config.Configuration) error {
	switch config.ServerModeType(cfg.Server.Mode) {
	case config.ServerModeProd, config.ServerModeDev:
	default:
		return fmt.Errorf("invalid server mode %q: must be %q or %q", cfg.Server.Mode, config.ServerModeProd, config.ServerModeDev)
	}

	if config.ServerModeType(cfg.Server.Mode) == config.ServerModeProd && cfg.Server.StaticsFolder == "" {
		return errors.New("statics folder must be set when server mode is production")
	}

	if cfg.Server.HTTPPort < 1 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http-port %d: must be between 1 and 65535", cfg.Server.HTTPPort)
	}

	if cfg.Agent.NumWorkers < 1 {
		return fmt.Errorf("invalid num-workers %d: must be at least 1", cfg.Agent.NumWorkers)
	}

	if cfg.TMS.MaxAttempts < 1 {
		return fmt.Errorf("invalid tms-max-attempts %d: must be at least 1", cfg.TMS.MaxAttempts)
	}

	if cfg.TMS.RateRetryCap < 1 {
		return fmt.Errorf("invalid tms-rate-retry-cap %d: must be at least 1", cfg.TMS.RateRetryCap)
	}

	return nil
}

func registerServerFlags(flagSet *pflag.FlagSet, config *config.Configuration) {
	flagSet.IntVar(&config.Server.HTTPPort, "server-http-port", config.Server.HTTPPort, "Port on which the HTTP server is listening")
	flagSet.StringVar(&config.Server.StaticsFolder, "server-statics-folder", config.Server.StaticsFolder, "Path to statics folder")
	flagSet.StringVar(&config.Server.Mode, "server-mode", config.Server.Mode, "Server mode: either prod or dev. If prod the statics folder must be set")
}

func registerAgentFlags(flagSet *pflag.FlagSet, config *config.Configuration) {
	flagSet.IntVar(&config.Agent.NumWorkers, "num-workers", config.Agent.NumWorkers, "Number of scheduler workers")
	flagSet.StringVar(&config.Agent.DataFolder, "data-folder", config.Agent.DataFolder, "Path to the persistent data folder")
	flagSet.BoolVar(&config.Agent.SyncEnabled, "sync-enabled", config.Agent.SyncEnabled, "Periodically collect today's route sheets in the background")
	flagSet.DurationVar(&config.Agent.SyncInterval, "sync-interval", config.Agent.SyncInterval, "Interval between background collections")
}

func registerTMSFlags(flagSet *pflag.FlagSet, config *config.Configuration) {
	flagSet.StringVar(&config.TMS.BaseURL, "tms-base-url", config.TMS.BaseURL, "Base URL of the TMS API")
	flagSet.StringArrayVar(&config.TMS.Tokens, "tms-token", config.TMS.Tokens, "TMS API token, repeatable. Each token gets its own collection worker")
	flagSet.DurationVar(&config.TMS.Timeout, "tms-timeout", config.TMS.Timeout, "HTTP timeout for TMS requests")
	flagSet.IntVar(&config.TMS.MaxAttempts, "tms-max-attempts", config.TMS.MaxAttempts, "Attempts per TMS request before giving up on transient errors")
	flagSet.IntVar(&config.TMS.RateRetryCap, "tms-rate-retry-cap", config.TMS.RateRetryCap, "Rate-limit retries per TMS request before giving up")
}

func registerCollectorFlags(flagSet *pflag.FlagSet, config *config.Configuration) {
	flagSet.DurationVar(&config.Collector.VehicleCooldown, "vehicle-cooldown", config.Collector.VehicleCooldown, "Minimum spacing between requests for the same vehicle")
	flagSet.DurationVar(&config.Collector.TrackInterval, "track-interval", config.Collector.TrackInterval, "Minimum spacing between kept track points")
	flagSet.StringVar(&config.Collector.VehicleClass, "vehicle-class", config.Collector.VehicleClass, "Only collect vehicles whose name contains this class substring")
}
