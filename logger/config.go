package logger

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kbukum/pagestream/errors"
)

// Config contains logging configuration.
type Config struct {
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	Level       string `yaml:"level" mapstructure:"level"`
	Format      string `yaml:"format" mapstructure:"format"`
	// Output is stdout or stderr. Commands that write elements to stdout
	// keep the default.
	Output      string `yaml:"output" mapstructure:"output"`
	NoColor     bool   `yaml:"no_color" mapstructure:"no_color"`
	NoTimestamp bool   `yaml:"no_timestamp" mapstructure:"no_timestamp"`
	Caller      bool   `yaml:"caller" mapstructure:"caller"`

	// Components overrides Level for named loggers, e.g. {"cursor": "debug"}.
	Components map[string]string `yaml:"components" mapstructure:"components"`
}

// ApplyDefaults applies default values to logging configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = OutputStderr
	}
}

var (
	validFormats = []string{FormatJSON, FormatConsole, FormatPretty}
	validOutputs = []string{OutputStdout, OutputStderr}
)

// Validate validates logging configuration.
func (c *Config) Validate() error {
	if _, ok := parseLevel(c.Level); !ok {
		return errors.InvalidConfig("logging.level", "must be one of trace debug info warn error fatal").
			WithDetail("got", c.Level)
	}
	if !contains(validFormats, strings.ToLower(c.Format)) {
		return errors.InvalidConfig("logging.format", "must be one of "+strings.Join(validFormats, " ")).
			WithDetail("got", c.Format)
	}
	if c.Output != "" && !contains(validOutputs, strings.ToLower(c.Output)) {
		return errors.InvalidConfig("logging.output", "must be one of "+strings.Join(validOutputs, " ")).
			WithDetail("got", c.Output)
	}
	names := make([]string, 0, len(c.Components))
	for name := range c.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := parseLevel(c.Components[name]); !ok {
			return errors.InvalidConfig("logging.components."+name, "unknown level").
				WithDetail("got", c.Components[name])
		}
	}
	return nil
}

// componentLevels parses Components, skipping entries Validate rejects.
func (c *Config) componentLevels() map[string]zerolog.Level {
	levels := make(map[string]zerolog.Level, len(c.Components))
	for name, lvl := range c.Components {
		if l, ok := parseLevel(lvl); ok {
			levels[name] = l
		}
	}
	return levels
}

// parseLevel accepts the named levels only; zerolog also parses numbers and "".
func parseLevel(s string) (zerolog.Level, bool) {
	switch s = strings.ToLower(s); s {
	case "trace", "debug", "info", "warn", "error", "fatal":
		l, err := zerolog.ParseLevel(s)
		return l, err == nil
	}
	return zerolog.NoLevel, false
}

func contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
