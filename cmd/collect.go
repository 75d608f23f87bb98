package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleetsight/telemetry-agent/internal/config"
	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/services"
	"github.com/fleetsight/telemetry-agent/internal/store"
	"github.com/fleetsight/telemetry-agent/internal/store/migrations"
	"github.com/fleetsight/telemetry-agent/pkg/scheduler"
)

// NewCollectCommand collects one period synchronously and exits, printing
// progress to stdout. Results are archived in the same database the server
// uses, so a later `agent run` serves them.
func NewCollectCommand(cfg *config.Configuration) *cobra.Command {
	var (
		from string
		to   string
	)

	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect telemetry for a period and exit",
		Example: `  # Collect yesterday's route sheets
  agent collect --tms-token AAAA --from 25.01.2026 --to 26.01.2026 --data-folder /var/lib/agent

  # Collect a shift window with two tokens
  agent collect --tms-token AAAA --tms-token BBBB --from "25.01.2026 07:30" --to "25.01.2026 19:30"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(cfg.TMS.Tokens) == 0 {
				return errors.New("at least one --tms-token is required")
			}

			start, err := models.ParseDateTime(from)
			if err != nil {
				return fmt.Errorf("invalid --from date %q", from)
			}
			end, err := models.ParseDateTime(to)
			if err != nil {
				return fmt.Errorf("invalid --to date %q", to)
			}
			if !start.Before(end) {
				return fmt.Errorf("--from %q must be before --to %q", from, to)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
			defer cancel()

			dbPath := filepath.Join(cfg.Agent.DataFolder, "agent.duckdb")
			if cfg.Agent.DataFolder == "" {
				dbPath = ":memory:"
				zap.S().Warn("data-folder not set, using in-memory database (data will not persist)")
			}
			db, err := store.NewDB(dbPath)
			if err != nil {
				return err
			}
			s := store.NewStore(db)
			defer s.Close()

			if err := migrations.Run(ctx, db); err != nil {
				return err
			}

			sched := scheduler.NewScheduler(len(cfg.TMS.Tokens))
			defer sched.Close()

			collectorSrv := services.NewCollectorService(sched, s, cfg)
			creds := &models.Credentials{BaseURL: cfg.TMS.BaseURL, Tokens: cfg.TMS.Tokens}
			if err := collectorSrv.SaveCredentials(ctx, creds); err != nil {
				return err
			}

			runID, err := collectorSrv.Start(ctx, services.Period{From: start, To: end})
			if err != nil {
				return err
			}
			fmt.Printf("collection %s started for %s .. %s\n", runID, models.FormatDateTime(start), models.FormatDateTime(end))

			tick := time.NewTicker(500 * time.Millisecond)
			defer tick.Stop()

			last := -1
			for {
				select {
				case <-ctx.Done():
					_ = collectorSrv.Stop(context.Background())
					return ctx.Err()
				case <-tick.C:
				}

				status := collectorSrv.GetStatus(ctx)
				if status.Progress.Total > 0 && status.Progress.Completed != last {
					last = status.Progress.Completed
					fmt.Printf("  [%d/%d]\n", status.Progress.Completed, status.Progress.Total)
				}

				switch status.State {
				case models.CollectorStateCollected:
					results, err := collectorSrv.Results(ctx, runID)
					if err != nil {
						return err
					}
					for _, r := range results {
						distance := "-"
						if r.Summary != nil && r.Summary.Distance != nil {
							distance = fmt.Sprintf("%.1f", *r.Summary.Distance)
						}
						fmt.Printf("  %s  %s  %s\n", r.SheetRef, r.RegNumber, distance)
					}
					fmt.Printf("collected %d result(s), run %s\n", len(results), runID)
					return nil
				case models.CollectorStateError:
					return errors.New(status.Error)
				}
			}
		},
	}

	collectCmd.Flags().StringVar(&from, "from", "", "Start of the period (DD.MM.YYYY or \"DD.MM.YYYY HH:MM\")")
	collectCmd.Flags().StringVar(&to, "to", "", "End of the period")
	_ = collectCmd.MarkFlagRequired("from")
	_ = collectCmd.MarkFlagRequired("to")

	nfs := cobrautil.NewNamedFlagSets(collectCmd)

	agentFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("Agent"))
	agentFlagSet.StringVar(&cfg.Agent.DataFolder, "data-folder", cfg.Agent.DataFolder, "Path to the persistent data folder")

	tmsFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("TMS"))
	registerTMSFlags(tmsFlagSet, cfg)

	collectorFlagSet := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("Collector"))
	registerCollectorFlags(collectorFlagSet, cfg)

	nfs.AddFlagSets(collectCmd)

	return collectCmd
}
