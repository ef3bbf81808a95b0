package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// LoadConfig builds the SDK config for the target region. An empty region
// leaves the choice to the ambient AWS configuration.
func LoadConfig(ctx context.Context, region string) (*awssdk.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	if awsCfg.Region == "" {
		return nil, fmt.Errorf("no AWS region configured, set DEST_REGION or AWS_DEFAULT_REGION")
	}

	return &awsCfg, nil
}
