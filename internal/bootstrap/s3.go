package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/GregMSThompson/analytics-dashboard/pkg/helpers"
)

// InitS3 builds an S3 client from the default credential chain. A custom
// endpoint switches to path-style addressing for S3-compatible stores.
func InitS3(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = helpers.Ptr(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
