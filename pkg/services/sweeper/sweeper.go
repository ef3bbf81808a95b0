package sweeper

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/de-tools/snapshot-sweeper/pkg/models/domain"
	"github.com/de-tools/snapshot-sweeper/pkg/services/retention"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SnapshotAPI is the cloud side of the sweep.
type SnapshotAPI interface {
	ListSnapshots(ctx context.Context) ([]domain.Snapshot, error)
	ListTags(ctx context.Context, arn string) (map[string]string, error)
	DeleteSnapshot(ctx context.Context, identifier string) error
}

// Observer receives per-snapshot decisions and the final report.
type Observer interface {
	ObserveDecision(decision domain.Decision)
	ObserveSweep(report *domain.SweepReport, err error)
}

// ReportSink persists a finished report.
type ReportSink interface {
	Save(ctx context.Context, report *domain.SweepReport) error
}

type Clock func() time.Time

type Dependencies struct {
	Snapshots SnapshotAPI
	Policy    retention.Policy
	Region    string
	Clock     Clock
	Observer  Observer
	Reports   ReportSink
}

type Options struct {
	DryRun bool
}

type Sweeper struct {
	snapshots SnapshotAPI
	policy    retention.Policy
	region    string
	clock     Clock
	observer  Observer
	reports   ReportSink
	opts      Options
}

func New(deps Dependencies, opts Options) (*Sweeper, error) {
	if deps.Snapshots == nil {
		return nil, fmt.Errorf("snapshot API is nil")
	}
	if deps.Policy.Matcher == nil {
		return nil, fmt.Errorf("retention policy has no matcher")
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}

	return &Sweeper{
		snapshots: deps.Snapshots,
		policy:    deps.Policy,
		region:    deps.Region,
		clock:     deps.Clock,
		observer:  deps.Observer,
		reports:   deps.Reports,
		opts:      opts,
	}, nil
}

// Run performs one retention pass. Delete failures do not stop the pass; when
// any occurred the returned error is a *SweepIncompleteError and the report is
// still returned.
func (s *Sweeper) Run(ctx context.Context) (*domain.SweepReport, error) {
	now := s.clock()
	report := &domain.SweepReport{
		RunID:     uuid.NewString(),
		Region:    s.region,
		DryRun:    s.opts.DryRun,
		StartedAt: now,
	}

	logger := zerolog.Ctx(ctx).With().
		Str("run_id", report.RunID).
		Str("region", s.region).
		Logger()
	ctx = logger.WithContext(ctx)

	retain := retention.ComputeRetainSet(now, s.policy.RetentionMonths)
	logger.Info().Strs("retain_days", retain.Days()).Msg("computed retain date set")

	snapshots, err := s.snapshots.ListSnapshots(ctx)
	if err != nil {
		err = fmt.Errorf("failed to list snapshots: %w", err)
		report.FinishedAt = s.clock()
		s.observer.ObserveSweep(report, err)
		return nil, err
	}
	report.Listed = len(snapshots)

	filtered := retention.FilterByPattern(snapshots, s.policy.Matcher)
	report.Matched = len(filtered)

	// map order is random; keep runs and reports reproducible
	ids := make([]string, 0, len(filtered))
	for id := range filtered {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		outcome, ok := s.evaluate(ctx, filtered[id], now, retain)
		if !ok {
			continue
		}
		report.Record(outcome)
		s.observer.ObserveDecision(outcome.Decision)
	}

	report.FinishedAt = s.clock()

	if s.reports != nil {
		if err := s.reports.Save(ctx, report); err != nil {
			logger.Error().Err(err).Msg("failed to save sweep report")
		}
	}

	if report.Failed > 0 {
		err := &SweepIncompleteError{Count: report.Failed}
		logger.Error().Int("pending", report.Failed).Msg(err.Error())
		s.observer.ObserveSweep(report, err)
		return report, err
	}

	logger.Info().
		Int("listed", report.Listed).
		Int("matched", report.Matched).
		Int("deleted", report.Deleted).
		Int("retained", report.Retained).
		Msg("sweep completed")
	s.observer.ObserveSweep(report, nil)
	return report, nil
}

// evaluate decides and, when due, deletes a single snapshot. It returns false
// for snapshots that are not candidates because their age is unknown.
func (s *Sweeper) evaluate(
	ctx context.Context,
	snapshot domain.Snapshot,
	now time.Time,
	retain retention.RetainSet,
) (domain.Outcome, bool) {
	logger := zerolog.Ctx(ctx).With().Str("snapshot", snapshot.Identifier).Logger()

	if snapshot.CreatedAt == nil {
		logger.Debug().Msg("skipping snapshot without creation timestamp")
		return domain.Outcome{}, false
	}
	created := *snapshot.CreatedAt

	tags := snapshot.Tags
	if tags == nil {
		var err error
		tags, err = s.snapshots.ListTags(ctx, snapshot.ARN)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to list tags, treating snapshot as untagged")
		}
	}

	if !retention.IsCopied(tags, s.policy.CopiedTagKey, s.policy.CopiedTagValue) {
		logger.Info().Msg("not deleting, did not find copied tag")
		return domain.Outcome{
			Snapshot: snapshot.Identifier,
			Decision: domain.DecisionRetainUntagged,
			AgeDays:  retention.AgeDays(now, created),
		}, true
	}

	decision, age := retention.Decide(created, now, retain, s.policy.RetentionDays)
	outcome := domain.Outcome{
		Snapshot: snapshot.Identifier,
		Decision: decision,
		AgeDays:  age,
	}
	logger = logger.With().Float64("age_days", age).Logger()

	switch decision {
	case domain.DecisionRetainAnchor:
		logger.Info().
			Time("created_at", created).
			Int("retention_months", s.policy.RetentionMonths).
			Msg("not deleting, weekly anchor is kept for the long retention")
		return outcome, true
	case domain.DecisionRetainYoung:
		logger.Info().Msg("not deleting, snapshot is within the retention window")
		return outcome, true
	}

	if s.opts.DryRun {
		logger.Info().Msg("dry run, would delete snapshot")
		outcome.Decision = domain.DecisionDryRun
		return outcome, true
	}

	logger.Info().Msg("deleting snapshot")
	if err := s.snapshots.DeleteSnapshot(ctx, snapshot.Identifier); err != nil {
		logger.Error().Err(err).Msg("could not delete snapshot")
		outcome.Decision = domain.DecisionDeleteFailed
		outcome.Err = err
	}
	return outcome, true
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(domain.Decision) {}

func (nopObserver) ObserveSweep(*domain.SweepReport, error) {}
