package commands

import (
	"github.com/kbukum/pagestream/config"
	"github.com/kbukum/pagestream/cursor"
	"github.com/kbukum/pagestream/database"
	"github.com/kbukum/pagestream/enumerator"
	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/redis"
	"github.com/kbukum/pagestream/storage"
	"github.com/kbukum/pagestream/validation"
	"github.com/kbukum/pagestream/version"
)

const serviceName = "pagestream"

// TelemetryConfig controls OTLP export of stream metrics and fetch spans.
type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// Config is the configuration shared by every streaming command. Each
// command enables the one backend it reads from.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Stream    enumerator.Config    `yaml:"stream" mapstructure:"stream"`
	Retry     cursor.RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Breaker   cursor.BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	Telemetry TelemetryConfig      `yaml:"telemetry" mapstructure:"telemetry"`

	Redis    redis.Config    `yaml:"redis" mapstructure:"redis"`
	Database database.Config `yaml:"database" mapstructure:"database"`
	Storage  storage.Config  `yaml:"storage" mapstructure:"storage"`
}

// ApplyDefaults fills unset fields of every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Stream.ApplyDefaults()
	if c.Breaker.Name == "" {
		c.Breaker = cursor.DefaultBreakerConfig(serviceName)
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4318"
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1
	}
	c.Redis.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Storage.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Stream.Validate(); err != nil {
		return errors.InvalidConfig("stream", err.Error()).WithCause(err)
	}
	if err := validation.Validate(c.Telemetry); err != nil {
		return errors.InvalidConfig("telemetry", err.Error()).WithCause(err)
	}
	for _, v := range []interface{ Validate() error }{&c.Redis, &c.Database, &c.Storage} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// defaults returns the values used when neither a file nor the environment
// sets a key.
func defaults() map[string]any {
	d := config.StreamDefaults("stream")
	retry := cursor.DefaultRetryConfig()
	d["retry.max_attempts"] = retry.MaxAttempts
	d["retry.initial_backoff"] = retry.InitialBackoff
	d["retry.max_backoff"] = retry.MaxBackoff
	return d
}
