package database

import (
	"time"

	"github.com/kbukum/pagestream/errors"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
)

// DefaultPageSize is the number of rows fetched per keyset page.
const DefaultPageSize = 500

// Config holds database connection configuration.
type Config struct {
	// Enabled controls whether the database component is active.
	Enabled bool `mapstructure:"enabled"`

	// Driver selects the gorm dialector. Only "sqlite" is built in; other
	// drivers are plugged in with Component.WithDialector.
	Driver string `mapstructure:"driver"`

	// DSN is the driver-specific connection string.
	DSN string `mapstructure:"dsn"`

	// MaxOpenConns sets the maximum number of open connections to the database.
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// MaxIdleConns sets the maximum number of idle connections in the pool.
	MaxIdleConns int `mapstructure:"max_idle_conns"`

	// ConnMaxLifetime is the maximum time a connection may be reused (e.g. "1h", "30m").
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`

	// MaxRetries is the number of connection attempts before giving up.
	MaxRetries int `mapstructure:"max_retries"`

	// SlowQueryThreshold is the duration above which queries are logged as slow (e.g. "200ms").
	SlowQueryThreshold string `mapstructure:"slow_query_threshold"`

	// LogLevel is the gorm log level: silent, error, warn or info.
	LogLevel string `mapstructure:"log_level"`

	// PageSize is the default keyset page size.
	PageSize int `mapstructure:"page_size"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "1h"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.SlowQueryThreshold == "" {
		c.SlowQueryThreshold = "200ms"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
}

// Validate checks that required fields are present and parseable.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.DSN == "" {
		return errors.InvalidConfig("database.dsn", "is required")
	}
	if c.MaxOpenConns <= 0 {
		return errors.InvalidConfig("database.max_open_conns", "must be greater than 0")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.InvalidConfig("database.max_idle_conns", "must not exceed max_open_conns").
			WithDetail("max_idle_conns", c.MaxIdleConns).
			WithDetail("max_open_conns", c.MaxOpenConns)
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return errors.InvalidConfig("database.conn_max_lifetime", "must be a duration").WithCause(err)
	}
	if _, err := time.ParseDuration(c.SlowQueryThreshold); err != nil {
		return errors.InvalidConfig("database.slow_query_threshold", "must be a duration").WithCause(err)
	}
	return nil
}
