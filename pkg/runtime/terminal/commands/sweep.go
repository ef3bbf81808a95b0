package commands

import (
	"fmt"

	"github.com/de-tools/snapshot-sweeper/pkg/app"
	"github.com/de-tools/snapshot-sweeper/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

type SweepCmd struct {
	output    string
	newRunner app.RunnerFactory
	reporter  *export.Reporter
}

func NewSweepCmd(newRunner app.RunnerFactory, reporter *export.Reporter) *cobra.Command {
	sc := &SweepCmd{newRunner: newRunner, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete copied RDS snapshots past their retention window",
		Long: `Runs a single retention pass: lists the manual snapshots of the region,
keeps the ones matching the pattern and carrying the copied tag, and deletes
those older than the retention window. Monday 11:xx snapshots of the last month
are kept. Exits non-zero when any deletion failed.`,
		RunE: sc.run,
	}

	cmd.Flags().String("pattern", "", "Regex on snapshot identifiers (ALL_SNAPSHOTS matches everything)")
	cmd.Flags().Int("retention-days", 0, "Delete snapshots older than this many days")
	cmd.Flags().Bool("dry-run", false, "Report what would be deleted without deleting")
	cmd.Flags().StringVarP(&sc.output, "output", "o", string(export.FormatTable), "Output format: table or json")

	return cmd
}

func (sc *SweepCmd) run(cmd *cobra.Command, _ []string) error {
	settings, ctx, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	runner, err := sc.newRunner(ctx, settings, nil)
	if err != nil {
		return err
	}

	report, sweepErr := runner.Run(ctx)
	if report != nil {
		if err := sc.reporter.Handle(report, export.Format(sc.output)); err != nil {
			loggerFrom(ctx).Error().Err(err).Msg("failed to print sweep report")
		}
	}
	if sweepErr != nil {
		return fmt.Errorf("sweep failed: %w", sweepErr)
	}
	return nil
}
