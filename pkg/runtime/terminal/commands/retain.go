package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/snapshot-sweeper/pkg/services/retention"
	"github.com/spf13/cobra"
)

type RetainDaysCmd struct {
	months int
	clock  func() time.Time
}

func NewRetainDaysCmd() *cobra.Command {
	rc := &RetainDaysCmd{clock: func() time.Time { return time.Now().UTC() }}
	cmd := &cobra.Command{
		Use:   "retain-days",
		Short: "Print the Monday anchors currently exempt from deletion",
		RunE:  rc.run,
	}

	cmd.Flags().IntVar(&rc.months, "months", retention.RetentionMonths, "Months of anchors to keep")

	return cmd
}

func (rc *RetainDaysCmd) run(cmd *cobra.Command, _ []string) error {
	if rc.months < 1 {
		return fmt.Errorf("months must be at least 1, got %d", rc.months)
	}

	days := retention.ComputeRetainSet(rc.clock(), rc.months).Days()
	_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(days, "\n"))
	return err
}
