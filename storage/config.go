package storage

import (
	"github.com/kbukum/pagestream/errors"
)

// Default configuration values.
const (
	DefaultRegion   = "us-east-1"
	DefaultPageSize = int32(1000)
)

// Config holds S3 object store configuration.
type Config struct {
	// Enabled controls whether the storage component is active.
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// Bucket is the S3 bucket name.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// Region is the AWS region.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey is the AWS access key ID. When empty the default credential
	// chain is used.
	AccessKey string `mapstructure:"access_key" json:"access_key"`

	// SecretKey is the AWS secret access key.
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// ForcePathStyle forces path-style URLs instead of virtual-hosted-style.
	ForcePathStyle bool `mapstructure:"force_path_style" json:"force_path_style"`

	// PageSize is the MaxKeys sent with every ListObjectsV2 call (1..1000).
	PageSize int32 `mapstructure:"page_size" json:"page_size"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Bucket == "" {
		return errors.InvalidConfig("storage.bucket", "is required")
	}
	if c.Region == "" {
		return errors.InvalidConfig("storage.region", "is required")
	}
	if c.PageSize > DefaultPageSize {
		return errors.InvalidConfig("storage.page_size", "must be at most 1000")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return errors.InvalidConfig("storage.secret_key", "access_key and secret_key must be set together")
	}
	return nil
}
