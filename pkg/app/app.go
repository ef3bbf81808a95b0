package app

import (
	"context"
	"fmt"

	"github.com/de-tools/snapshot-sweeper/pkg/services/config"
	"github.com/de-tools/snapshot-sweeper/pkg/services/scheduler"
	"github.com/de-tools/snapshot-sweeper/pkg/services/sweeper"
	awsstore "github.com/de-tools/snapshot-sweeper/pkg/store/aws"
	rdsstore "github.com/de-tools/snapshot-sweeper/pkg/store/rds"
	s3store "github.com/de-tools/snapshot-sweeper/pkg/store/s3"
	"github.com/rs/zerolog"
)

// RunnerFactory builds the sweep for a set of settings. observer may be nil.
type RunnerFactory func(ctx context.Context, settings *config.Settings, observer sweeper.Observer) (scheduler.Runner, error)

// NewRunner wires the AWS backed sweeper: RDS for snapshots and, when a
// report bucket is configured, S3 for reports.
func NewRunner(ctx context.Context, settings *config.Settings, observer sweeper.Observer) (scheduler.Runner, error) {
	policy, err := settings.Policy()
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsstore.LoadConfig(ctx, settings.Region)
	if err != nil {
		return nil, err
	}

	deps := sweeper.Dependencies{
		Snapshots: rdsstore.NewFromConfig(*awsCfg),
		Policy:    policy,
		Region:    awsCfg.Region,
		Observer:  observer,
	}

	if settings.ReportBucket != "" {
		reports, err := s3store.NewFromConfig(*awsCfg, settings.ReportBucket, settings.ReportPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to configure report store: %w", err)
		}
		deps.Reports = reports
	}

	s, err := sweeper.New(deps, sweeper.Options{DryRun: settings.DryRun})
	if err != nil {
		return nil, fmt.Errorf("failed to create sweeper: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("region", awsCfg.Region).
		Str("pattern", policy.Matcher.String()).
		Int("retention_days", policy.RetentionDays).
		Int("retention_months", policy.RetentionMonths).
		Bool("dry_run", settings.DryRun).
		Msg("sweeper configured")

	return s, nil
}
