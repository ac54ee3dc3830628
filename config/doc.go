// Package config loads pagestream configuration.
//
// LoadConfig reads config.yml (or config.yaml) from an explicit path or the
// first search directory that has one: the working directory, cmd/<service>,
// config, then the user config directory. A .env file next to the config
// file, or in the working directory, is loaded with godotenv. Every key named
// by the target struct's mapstructure tags is then bound to one environment
// variable, and Viper unmarshals the result.
//
// # Usage
//
//	var cfg Config
//	err := config.Load("pagestream", &cfg,
//	    config.WithConfigFile(path),
//	    config.WithDefaults(config.StreamDefaults("stream")),
//	)
//
// Environment variable names are the service prefix plus the upper-cased key
// path: PAGESTREAM_STREAM_LOW_WATER_MARK sets stream.low_water_mark.
package config
