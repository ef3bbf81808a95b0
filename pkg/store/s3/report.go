package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/snapshot-sweeper/pkg/models/domain"
	"github.com/rs/zerolog"
)

const DefaultPrefix = "snapshot-sweeper"

type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportStore writes sweep reports as JSON objects.
type ReportStore struct {
	api    PutObjectAPI
	bucket string
	prefix string
}

func NewFromConfig(cfg awssdk.Config, bucket, prefix string) (*ReportStore, error) {
	return NewReportStore(s3.NewFromConfig(cfg), bucket, prefix)
}

func NewReportStore(api PutObjectAPI, bucket, prefix string) (*ReportStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("report bucket is empty")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &ReportStore{
		api:    api,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Key returns <prefix>/<region>/<started-at>-<run-id>.json.
func (s *ReportStore) Key(report *domain.SweepReport) string {
	name := fmt.Sprintf("%s-%s.json", report.StartedAt.UTC().Format("20060102T150405Z"), report.RunID)
	return path.Join(s.prefix, report.Region, name)
}

func (s *ReportStore) Save(ctx context.Context, report *domain.SweepReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode sweep report: %w", err)
	}

	key := s.Key(report)
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload sweep report to s3://%s/%s: %w", s.bucket, key, err)
	}

	zerolog.Ctx(ctx).Info().Str("bucket", s.bucket).Str("key", key).Msg("sweep report uploaded")
	return nil
}
