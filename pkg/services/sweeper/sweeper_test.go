package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/de-tools/snapshot-sweeper/pkg/models/domain"
	"github.com/de-tools/snapshot-sweeper/pkg/services/retention"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSnapshotAPI struct {
	mock.Mock
}

func (m *mockSnapshotAPI) ListSnapshots(ctx context.Context) ([]domain.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Snapshot), args.Error(1)
}

func (m *mockSnapshotAPI) ListTags(ctx context.Context, arn string) (map[string]string, error) {
	args := m.Called(ctx, arn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *mockSnapshotAPI) DeleteSnapshot(ctx context.Context, identifier string) error {
	args := m.Called(ctx, identifier)
	return args.Error(0)
}

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) ObserveDecision(decision domain.Decision) {
	m.Called(decision)
}

func (m *mockObserver) ObserveSweep(report *domain.SweepReport, err error) {
	m.Called(report, err)
}

type mockReportSink struct {
	mock.Mock
}

func (m *mockReportSink) Save(ctx context.Context, report *domain.SweepReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

var (
	now    = time.Date(2021, 4, 15, 12, 0, 0, 0, time.UTC)
	copied = map[string]string{"CopiedBy": "Snapshot Tool for RDS"}
)

func snapshot(id string, created time.Time) domain.Snapshot {
	return domain.Snapshot{
		Identifier: id,
		ARN:        "arn:aws:rds:eu-west-1:123456789012:snapshot:" + id,
		Engine:     "postgres",
		Type:       "manual",
		CreatedAt:  &created,
	}
}

func newTestSweeper(t *testing.T, api SnapshotAPI, pattern string, days int, opts Options) *Sweeper {
	policy, err := retention.NewPolicy(pattern, days)
	require.NoError(t, err)

	s, err := New(Dependencies{
		Snapshots: api,
		Policy:    policy,
		Region:    "eu-west-1",
		Clock:     func() time.Time { return now },
	}, opts)
	require.NoError(t, err)
	return s
}

func outcomesByID(report *domain.SweepReport) map[string]domain.Outcome {
	out := make(map[string]domain.Outcome)
	for _, o := range report.Outcomes {
		out[o.Snapshot] = o
	}
	return out
}

func TestSweeper_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("retention scenario", func(t *testing.T) {
		a := snapshot("db-a-2021-04-01-10-15", time.Date(2021, 4, 1, 10, 15, 0, 0, time.UTC))
		b := snapshot("db-b-2021-04-14-10-15", time.Date(2021, 4, 14, 10, 15, 0, 0, time.UTC))
		c := snapshot("db-c-2021-03-22-11-05", time.Date(2021, 3, 22, 11, 5, 0, 0, time.UTC))
		d := snapshot("db-d-2021-03-16-10-15", time.Date(2021, 3, 16, 10, 15, 0, 0, time.UTC))

		api := new(mockSnapshotAPI)
		api.On("ListSnapshots", mock.Anything).Return([]domain.Snapshot{a, b, c, d}, nil)
		api.On("ListTags", mock.Anything, a.ARN).Return(copied, nil)
		api.On("ListTags", mock.Anything, b.ARN).Return(copied, nil)
		api.On("ListTags", mock.Anything, c.ARN).Return(copied, nil)
		api.On("ListTags", mock.Anything, d.ARN).Return(map[string]string{"Owner": "dba"}, nil)
		api.On("DeleteSnapshot", mock.Anything, a.Identifier).Return(nil).Once()

		report, err := newTestSweeper(t, api, retention.AllSnapshots, 7, Options{}).Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 4, report.Listed)
		assert.Equal(t, 4, report.Matched)
		assert.Equal(t, 1, report.Deleted)
		assert.Equal(t, 3, report.Retained)
		assert.Equal(t, 0, report.Failed)

		outcomes := outcomesByID(report)
		assert.Equal(t, domain.DecisionDelete, outcomes[a.Identifier].Decision)
		assert.InDelta(t, 14.07, outcomes[a.Identifier].AgeDays, 0.01)
		assert.Equal(t, domain.DecisionRetainYoung, outcomes[b.Identifier].Decision)
		assert.Equal(t, domain.DecisionRetainAnchor, outcomes[c.Identifier].Decision)
		assert.Equal(t, domain.DecisionRetainUntagged, outcomes[d.Identifier].Decision)

		api.AssertExpectations(t)
		api.AssertNumberOfCalls(t, "DeleteSnapshot", 1)
	})

	t.Run("non matching snapshots are never considered", func(t *testing.T) {
		prod := snapshot("prod-db-2021-04-01-10-15", time.Date(2021, 4, 1, 10, 15, 0, 0, time.UTC))
		staging := snapshot("staging-db-2021-04-01-10-15", time.Date(2021, 4, 1, 10, 15, 0, 0, time.UTC))

		api := new(mockSnapshotAPI)
		api.On("ListSnapshots", mock.Anything).Return([]domain.Snapshot{prod, staging}, nil)
		api.On("ListTags", mock.Anything, prod.ARN).Return(copied, nil)
		api.On("DeleteSnapshot", mock.Anything, prod.Identifier).Return(nil)

		report, err := newTestSweeper(t, api, "^prod-", 7, Options{}).Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Matched)
		assert.Equal(t, 1, report.Deleted)
		api.AssertNotCalled(t, "ListTags", mock.Anything, staging.ARN)
		api.AssertNotCalled(t, "DeleteSnapshot", mock.Anything, staging.Identifier)
	})

	t.Run("snapshots without timestamp are skipped", func(t *testing.T) {
		unknown := domain.Snapshot{Identifier: "db-latest", ARN: "arn:unknown", Engine: "mysql", Type: "manual"}

		api := new(mockSnapshotAPI)
		api.On("ListSnapshots", mock.Anything).Return([]domain.Snapshot{unknown}, nil)

		report, err := newTestSweeper(t, api, retention.AllSnapshots, 7, Options{}).Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Matched)
		assert.Empty(t, report.Outcomes)
		api.AssertNotCalled(t, "ListTags", mock.Anything, mock.Anything)
		api.AssertNotCalled(t, "DeleteSnapshot", mock.Anything, mock.Anything)
	})

	t.Run("delete failure is counted and the sweep continues", func(t *testing.T) {
		first := snapshot("db-1-2021-04-01-10-15", time.Date(2021, 4, 1, 10, 15, 0, 0, time.UTC))
		second := snapshot("db-2-2021-04-02-10-15", time.Date(2021, 4, 2, 10, 15, 0, 0, time.UTC))

		api := new(mockSnapshotAPI)
		api.On("ListSnapshots", mock.Anything).Return([]domain.Snapshot{first, second}, nil)
		api.On("ListTags", mock.Anything, mock.Anything).Return(copied, nil)
		api.On("DeleteSnapshot", mock.Anything, first.Identifier).Return(errors.New("InvalidDBSnapshotState"))
		api.On("DeleteSnapshot", mock.Anything, second.Identifier).Return(nil)

		report, err := newTestSweeper(t, api, retention.AllSnapshots, 7, Options{}).Run(ctx)

		require.Error(t, err)
		var incomplete *SweepIncompleteError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, 1, incomplete.Count)
		assert.Equal(t, "snapshots pending delete: 1", err.Error())

		require.NotNil(t, report)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, 1, report.Deleted)

		outcomes := outcomesByID(report)
		assert.Equal(t, domain.DecisionDeleteFailed, outcomes[first.Identifier].Decision)
		assert.Equal(t, "InvalidDBSnapshotState", outcomes[first.Identifier].Reason)
		assert.Equal(t, domain.DecisionDelete, outcomes[second.Identifier].Decision)
		api.AssertExpectations(t)
	})

	t.Run("tag lookup failure treats snapshot as untagged", func(t *testing.T) {
		old := snapshot("db-2021-04-01-10-15", time.Date(2021, 4, 1, 10, 15, 0, 0, time.UTC))

		api := new(mockSnapshotAPI)
		api.On("ListSnapshots", mock.Anything).Return([]domain.Snapshot{old}, nil)
		api.On("ListTags", mock.Anything, old.ARN).Return(nil, errors.New("throttled"))

		report, err := newTestSweeper(t, api, retention.AllSnapshots, 7, Options{}).Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, domain.DecisionRetainUntagged, report.Outcomes[0].Decision)
		api.AssertNotCalled(t, "DeleteSnapshot", mock.Anything, mock.Anything)
	})

	t.Run("list failure aborts", func(t *testing.T) {
		api := new(mockSnapshotAPI)
		api.On("ListSnapshots", mock.Anything).Return(nil, errors.New("access denied"))

		report, err := newTestSweeper(t, api, retention.AllSnapshots, 7, Options{}).Run(ctx)

		assert.Nil(t, report)
		assert.ErrorContains(t, err, "access denied")
		assert.Zero(t, PendingDeletes(err))
	})

	t.Run("dry run does not delete", func(t *testing.T) {
		old := snapshot("db-2021-04-01-10-15", time.Date(2021, 4, 1, 10, 15, 0, 0, time.UTC))

		api := new(mockSnapshotAPI)
		api.On("ListSnapshots", mock.Anything).Return([]domain.Snapshot{old}, nil)
		api.On("ListTags", mock.Anything, old.ARN).Return(copied, nil)

		report, err := newTestSweeper(t, api, retention.AllSnapshots, 7, Options{DryRun: true}).Run(ctx)

		require.NoError(t, err)
		assert.True(t, report.DryRun)
		assert.Equal(t, domain.DecisionDryRun, report.Outcomes[0].Decision)
		assert.Zero(t, report.Deleted)
		api.AssertNotCalled(t, "DeleteSnapshot", mock.Anything, mock.Anything)
	})
}

func TestSweeper_Run_Idempotent(t *testing.T) {
	ctx := context.Background()
	old := snapshot("db-2021-04-01-10-15", time.Date(2021, 4, 1, 10, 15, 0, 0, time.UTC))
	young := snapshot("db-2021-04-14-10-15", time.Date(2021, 4, 14, 10, 15, 0, 0, time.UTC))

	api := new(mockSnapshotAPI)
	api.On("ListSnapshots", mock.Anything).Return([]domain.Snapshot{old, young}, nil).Once()
	api.On("ListSnapshots", mock.Anything).Return([]domain.Snapshot{young}, nil).Once()
	api.On("ListTags", mock.Anything, mock.Anything).Return(copied, nil)
	api.On("DeleteSnapshot", mock.Anything, old.Identifier).Return(nil).Once()

	s := newTestSweeper(t, api, retention.AllSnapshots, 7, Options{})

	first, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Deleted)

	second, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Deleted)
	assert.Equal(t, 1, second.Retained)

	api.AssertNumberOfCalls(t, "DeleteSnapshot", 1)
}

func TestSweeper_ObserverAndReports(t *testing.T) {
	ctx := context.Background()
	old := snapshot("db-2021-04-01-10-15", time.Date(2021, 4, 1, 10, 15, 0, 0, time.UTC))

	api := new(mockSnapshotAPI)
	api.On("ListSnapshots", mock.Anything).Return([]domain.Snapshot{old}, nil)
	api.On("ListTags", mock.Anything, old.ARN).Return(copied, nil)
	api.On("DeleteSnapshot", mock.Anything, old.Identifier).Return(nil)

	observer := new(mockObserver)
	observer.On("ObserveDecision", domain.DecisionDelete).Once()
	observer.On("ObserveSweep", mock.AnythingOfType("*domain.SweepReport"), nil).Once()

	sink := new(mockReportSink)
	sink.On("Save", mock.Anything, mock.AnythingOfType("*domain.SweepReport")).Return(errors.New("bucket missing"))

	policy, err := retention.NewPolicy(retention.AllSnapshots, 7)
	require.NoError(t, err)

	s, err := New(Dependencies{
		Snapshots: api,
		Policy:    policy,
		Region:    "eu-west-1",
		Clock:     func() time.Time { return now },
		Observer:  observer,
		Reports:   sink,
	}, Options{})
	require.NoError(t, err)

	report, err := s.Run(ctx)

	require.NoError(t, err, "report sink failures do not fail the sweep")
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "eu-west-1", report.Region)
	observer.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestNew(t *testing.T) {
	_, err := New(Dependencies{}, Options{})
	assert.Error(t, err)

	_, err = New(Dependencies{Snapshots: new(mockSnapshotAPI)}, Options{})
	assert.Error(t, err)
}
