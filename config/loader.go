package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

// configNames are the file names looked up in every search directory.
var configNames = []string{"config.yml", "config.yaml"}

// LoaderConfig holds the optional overrides for LoadConfig.
type LoaderConfig struct {
	ConfigFile string         // Explicit config file; must exist when set
	EnvFile    string         // Explicit .env file; must exist when set
	EnvPrefix  string         // Prefix of bound env vars; defaults to the upper-cased service name
	SearchDirs []string       // Directories searched for config.yml when ConfigFile is empty
	Defaults   map[string]any // Values used when neither file nor env sets a key
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix overrides the prefix of bound environment variables.
// An empty prefix binds bare keys such as STREAM_LOW_WATER_MARK.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// WithSearchDirs replaces the directories searched for config.yml.
func WithSearchDirs(dirs ...string) LoaderOption {
	return func(lc *LoaderConfig) { lc.SearchDirs = dirs }
}

// WithDefaults registers default values keyed by dotted config path
// (e.g. "stream.low_water_mark"). Later calls add to earlier ones.
func WithDefaults(defaults map[string]any) LoaderOption {
	return func(lc *LoaderConfig) {
		if lc.Defaults == nil {
			lc.Defaults = make(map[string]any, len(defaults))
		}
		for k, v := range defaults {
			lc.Defaults[k] = v
		}
	}
}

// Loadable is a config struct that fills its own defaults and validates itself.
type Loadable interface {
	ApplyDefaults()
	Validate() error
}

// Load runs LoadConfig, then applies cfg's defaults and validates it.
func Load(serviceName string, cfg Loadable, opts ...LoaderOption) error {
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return err
	}
	cfg.ApplyDefaults()
	return cfg.Validate()
}

// LoadConfig fills cfg from, in increasing precedence: defaults, the config
// file, a .env file and the process environment. cfg must be a pointer to a
// struct with mapstructure tags; only the keys those tags name are bound to
// environment variables.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{EnvPrefix: envPrefix(serviceName)}
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.SearchDirs == nil {
		lc.SearchDirs = defaultSearchDirs(serviceName)
	}

	configFile, err := resolveConfigFile(lc)
	if err != nil {
		return err
	}
	envFile, err := resolveEnvFile(lc, configFile)
	if err != nil {
		return err
	}

	v := viper.New()
	for k, val := range lc.Defaults {
		v.SetDefault(k, val)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.InvalidConfig("config_file", "unable to read configuration").
				WithDetail("file", configFile).WithCause(err)
		}
	}
	// godotenv never overrides variables already set in the process.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return errors.InvalidConfig("env_file", "unable to load env file").
				WithDetail("file", envFile).WithCause(err)
		}
	}

	keys := bindEnv(v, lc.EnvPrefix, reflect.TypeOf(cfg))

	if err := v.Unmarshal(cfg); err != nil {
		return errors.InvalidConfig(serviceName, "unable to decode configuration").WithCause(err)
	}

	logger.Debug("config loaded", logger.Fields(
		logger.FieldService, serviceName,
		"config_file", configFile,
		"env_file", envFile,
		"env_keys", len(keys),
	))
	return nil
}

// defaultSearchDirs lists where config.yml is looked for, first match wins.
func defaultSearchDirs(serviceName string) []string {
	dirs := []string{".", filepath.Join("cmd", serviceName), "config"}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, serviceName))
	}
	return dirs
}

func resolveConfigFile(lc LoaderConfig) (string, error) {
	if lc.ConfigFile != "" {
		if !fileExists(lc.ConfigFile) {
			return "", errors.InvalidConfig("config_file", "file not found").WithDetail("file", lc.ConfigFile)
		}
		return lc.ConfigFile, nil
	}
	for _, dir := range lc.SearchDirs {
		for _, name := range configNames {
			if path := filepath.Join(dir, name); fileExists(path) {
				return path, nil
			}
		}
	}
	return "", nil
}

// resolveEnvFile prefers an explicit file, then a .env next to the config
// file, then one in the working directory.
func resolveEnvFile(lc LoaderConfig, configFile string) (string, error) {
	if lc.EnvFile != "" {
		if !fileExists(lc.EnvFile) {
			return "", errors.InvalidConfig("env_file", "file not found").WithDetail("file", lc.EnvFile)
		}
		return lc.EnvFile, nil
	}
	candidates := []string{".env"}
	if configFile != "" {
		candidates = append([]string{filepath.Join(filepath.Dir(configFile), ".env")}, candidates...)
	}
	for _, path := range candidates {
		if fileExists(path) {
			return path, nil
		}
	}
	return "", nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func envPrefix(serviceName string) string {
	return strings.ToUpper(strings.ReplaceAll(serviceName, "-", "_"))
}

// EnvName returns the environment variable bound to a dotted config key.
func EnvName(prefix, key string) string {
	name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

var timeType = reflect.TypeOf(time.Time{})

// bindEnv binds one environment variable per leaf key of t's mapstructure
// tags and returns the keys it bound.
func bindEnv(v *viper.Viper, prefix string, t reflect.Type) []string {
	var keys []string
	var walk func(t reflect.Type, path string)
	walk = func(t reflect.Type, path string) {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct || t == timeType {
			if path != "" {
				_ = v.BindEnv(path, EnvName(prefix, path))
				keys = append(keys, path)
			}
			return
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
			if name == "-" {
				continue
			}
			if strings.Contains(opts, "squash") {
				walk(f.Type, path)
				continue
			}
			if name == "" {
				name = strings.ToLower(f.Name)
			}
			if f.Type.Kind() == reflect.Map {
				continue
			}
			key := name
			if path != "" {
				key = path + "." + name
			}
			walk(f.Type, key)
		}
	}
	walk(t, "")
	return keys
}
