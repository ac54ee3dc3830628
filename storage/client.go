package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

// API is the subset of the S3 client used by this package. *s3.Client
// satisfies it; tests substitute a fake.
type API interface {
	awss3.ListObjectsV2APIClient
	HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
}

// Client lists objects in one bucket.
type Client struct {
	api API
	cfg Config
	log *logger.Logger
}

// NewClient builds an S3 client from cfg using the AWS default config chain.
func NewClient(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.InvalidConfig("storage", "unable to load aws config").WithCause(err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	return NewFromAPI(awss3.NewFromConfig(awsCfg, s3Opts...), cfg, log), nil
}

// NewFromAPI wraps an existing S3 API implementation.
func NewFromAPI(api API, cfg Config, log *logger.Logger) *Client {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Get("storage")
	}
	return &Client{api: api, cfg: cfg, log: log}
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string { return c.cfg.Bucket }

// Ping checks that the bucket exists and is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(c.cfg.Bucket)})
	if err != nil {
		return errors.ConnectionFailed("s3", err).WithDetail("bucket", c.cfg.Bucket)
	}
	return nil
}
