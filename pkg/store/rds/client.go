package rds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/de-tools/snapshot-sweeper/pkg/models/domain"
	"github.com/rs/zerolog"
)

// TimestampLayout is the suffix format of snapshots named <instance>-<timestamp>.
const TimestampLayout = "2006-01-02-15-04"

// API is the subset of *rds.Client used by the sweeper.
type API interface {
	rds.DescribeDBSnapshotsAPIClient
	ListTagsForResource(ctx context.Context, params *rds.ListTagsForResourceInput, optFns ...func(*rds.Options)) (*rds.ListTagsForResourceOutput, error)
	DeleteDBSnapshot(ctx context.Context, params *rds.DeleteDBSnapshotInput, optFns ...func(*rds.Options)) (*rds.DeleteDBSnapshotOutput, error)
}

type Client struct {
	api API
}

func NewFromConfig(cfg awssdk.Config) *Client {
	return NewClient(rds.NewFromConfig(cfg))
}

func NewClient(api API) *Client {
	return &Client{api: api}
}

func (c *Client) ListSnapshots(ctx context.Context) ([]domain.Snapshot, error) {
	logger := zerolog.Ctx(ctx)

	paginator := rds.NewDescribeDBSnapshotsPaginator(c.api, &rds.DescribeDBSnapshotsInput{
		SnapshotType: aws.String("manual"),
	})

	var snapshots []domain.Snapshot
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe RDS snapshots: %w", err)
		}
		for _, s := range page.DBSnapshots {
			snapshots = append(snapshots, toDomainSnapshot(s))
		}
	}

	logger.Debug().Int("count", len(snapshots)).Msg("listed RDS snapshots")
	return snapshots, nil
}

func (c *Client) ListTags(ctx context.Context, arn string) (map[string]string, error) {
	resp, err := c.api.ListTagsForResource(ctx, &rds.ListTagsForResourceInput{
		ResourceName: aws.String(arn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags for %s: %w", arn, err)
	}

	tags := make(map[string]string, len(resp.TagList))
	for _, tag := range resp.TagList {
		tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return tags, nil
}

func (c *Client) DeleteSnapshot(ctx context.Context, identifier string) error {
	_, err := c.api.DeleteDBSnapshot(ctx, &rds.DeleteDBSnapshotInput{
		DBSnapshotIdentifier: aws.String(identifier),
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", identifier, err)
	}
	return nil
}

func toDomainSnapshot(s types.DBSnapshot) domain.Snapshot {
	snapshot := domain.Snapshot{
		Identifier:         aws.ToString(s.DBSnapshotIdentifier),
		InstanceIdentifier: aws.ToString(s.DBInstanceIdentifier),
		ARN:                aws.ToString(s.DBSnapshotArn),
		Engine:             aws.ToString(s.Engine),
		Type:               aws.ToString(s.SnapshotType),
		Status:             aws.ToString(s.Status),
	}

	if created, ok := ParseTimestamp(snapshot.Identifier, snapshot.InstanceIdentifier); ok {
		snapshot.CreatedAt = &created
	} else if s.SnapshotCreateTime != nil {
		created := s.SnapshotCreateTime.UTC()
		snapshot.CreatedAt = &created
	}
	return snapshot
}

// ParseTimestamp extracts the creation time from an identifier of the form
// <instance>-YYYY-MM-DD-HH-MM. Times are taken as UTC.
func ParseTimestamp(identifier, instance string) (time.Time, bool) {
	if instance == "" {
		return time.Time{}, false
	}

	idx := strings.Index(identifier, instance+"-")
	if idx < 0 {
		return time.Time{}, false
	}

	suffix := identifier[idx+len(instance)+1:]
	t, err := time.ParseInLocation(TimestampLayout, suffix, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
