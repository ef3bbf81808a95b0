package commands

import (
	"github.com/de-tools/snapshot-sweeper/pkg/app"
	"github.com/de-tools/snapshot-sweeper/pkg/server"
	"github.com/de-tools/snapshot-sweeper/pkg/services/scheduler"
	"github.com/de-tools/snapshot-sweeper/pkg/telemetry/metrics"
	"github.com/spf13/cobra"
)

type ServeCmd struct {
	newRunner app.RunnerFactory
}

func NewServeCmd(newRunner app.RunnerFactory) *cobra.Command {
	sc := &ServeCmd{newRunner: newRunner}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sweep on a cron schedule and expose an HTTP API",
		RunE:  sc.run,
	}

	cmd.Flags().String("schedule", "", "Cron expression for the sweep (UTC)")
	cmd.Flags().String("addr", "", "Address of the HTTP server")
	cmd.Flags().Bool("dry-run", false, "Report what would be deleted without deleting")

	return cmd
}

func (sc *ServeCmd) run(cmd *cobra.Command, _ []string) error {
	settings, ctx, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := loggerFrom(ctx)

	collector := metrics.NewCollector(nil)
	runner, err := sc.newRunner(ctx, settings, collector)
	if err != nil {
		return err
	}

	job := scheduler.NewJob(runner)
	sched, err := scheduler.NewScheduler(job, settings.Schedule)
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	if next := sched.NextRun(); next != nil {
		logger.Info().Time("next_run", *next).Msg("next sweep scheduled")
	}

	web := server.NewWebAPI(*logger, server.Config{
		Addr: settings.ServerAddr,
		Dependencies: server.Dependencies{
			Sweeps:  job,
			Metrics: collector.Handler(),
		},
	})
	return web.Start(ctx)
}
