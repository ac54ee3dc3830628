package commands

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/pagestream/config"
	"github.com/kbukum/pagestream/errors"
)

// loadConfig reads file and environment configuration, then applies the
// command-line flags the user actually set.
func loadConfig(cmd *cobra.Command, g *globalFlags) (*Config, error) {
	opts := []config.LoaderOption{config.WithDefaults(defaults())}
	if g.configFile != "" {
		opts = append(opts, config.WithConfigFile(g.configFile))
	}
	if g.envFile != "" {
		opts = append(opts, config.WithEnvFile(g.envFile))
	}

	cfg := &Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("low-water-mark") {
		cfg.Stream.LowWaterMark = g.lowWaterMark
	}
	if flags.Changed("no-prefetch") {
		cfg.Stream.PrefetchDisabled = g.noPrefetch
	}
	if flags.Changed("scheduler") {
		cfg.Stream.Scheduler = g.scheduler
	}
	if flags.Changed("telemetry") {
		cfg.Telemetry.Enabled = g.telemetry
	}

	switch g.output {
	case outputText, outputJSON:
	default:
		return nil, errors.InvalidConfig("output", "must be one of: text json").WithDetail("got", g.output)
	}
	if g.limit < 0 {
		return nil, errors.InvalidConfig("limit", "must be at least 0")
	}
	if g.batch < 0 {
		return nil, errors.InvalidConfig("batch", "must be at least 0")
	}
	return cfg, nil
}
