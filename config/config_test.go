package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/kbukum/pagestream/enumerator"
	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

func init() {
	logger.SetGlobalLogger(logger.Nop())
}

type streamConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Stream        enumerator.Config `yaml:"stream" mapstructure:"stream"`
}

func (c *streamConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Stream.ApplyDefaults()
}

func (c *streamConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return c.Stream.Validate()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" || !cfg.Debug {
			t.Errorf("got env=%q debug=%v", cfg.Environment, cfg.Debug)
		}
		if cfg.Logging.ServiceName != "svc" || cfg.Logging.Level != "debug" {
			t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug || cfg.Logging.Level != "info" {
			t.Errorf("got debug=%v level=%q", cfg.Debug, cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	valid := func(env string) ServiceConfig {
		c := ServiceConfig{Name: "svc", Environment: env}
		c.Logging.ApplyDefaults()
		return c
	}
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid development", valid("development"), ""},
		{"valid production", valid("production"), ""},
		{"missing name", ServiceConfig{Environment: "production"}, "invalid name"},
		{"invalid environment", valid("qa"), "invalid environment"},
		{"invalid logging", ServiceConfig{Name: "svc", Environment: "staging", Logging: logger.Config{Level: "loud", Format: "json"}}, "invalid logging"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
			if errors.Code(err) != errors.ErrCodeInvalidConfig {
				t.Errorf("code = %s", errors.Code(err))
			}
		})
	}
}

func TestLoad_YAMLWithStreamDefaults(t *testing.T) {
	path := writeConfig(t, `
name: pagestream
environment: staging
stream:
  prefetch_disabled: true
`)
	var cfg streamConfig
	err := Load("pagestream", &cfg, WithConfigFile(path), WithDefaults(StreamDefaults("stream")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "pagestream" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config: %+v", cfg.ServiceConfig)
	}
	if cfg.Stream.LowWaterMark != enumerator.DefaultLowWaterMark || !cfg.Stream.PrefetchDisabled || cfg.Stream.Scheduler != "trampoline" {
		t.Errorf("unexpected stream config: %+v", cfg.Stream)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
name: pagestream
stream:
  low_water_mark: 10
`)
	t.Setenv("PAGESTREAM_STREAM_LOW_WATER_MARK", "250")

	var cfg streamConfig
	if err := Load("pagestream", &cfg, WithConfigFile(path), WithDefaults(StreamDefaults("stream"))); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Stream.LowWaterMark != 250 {
		t.Errorf("LowWaterMark = %d, want 250 from env", cfg.Stream.LowWaterMark)
	}
}

func TestLoad_InvalidStreamConfig(t *testing.T) {
	path := writeConfig(t, `
name: pagestream
stream:
  scheduler: threads
`)
	var cfg streamConfig
	err := Load("pagestream", &cfg, WithConfigFile(path))
	if errors.Code(err) != errors.ErrCodeInvalidConfig || !strings.Contains(err.Error(), "scheduler") {
		t.Fatalf("expected INVALID_CONFIG for scheduler, got %v", err)
	}
}

func TestLoadConfig_MissingExplicitFiles(t *testing.T) {
	var cfg streamConfig
	err := LoadConfig("pagestream", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if errors.Code(err) != errors.ErrCodeInvalidConfig {
		t.Fatalf("expected INVALID_CONFIG for a missing config file, got %v", err)
	}
	err = LoadConfig("pagestream", &cfg, WithSearchDirs(), WithEnvFile("/nonexistent/.env"))
	if errors.Code(err) != errors.ErrCodeInvalidConfig {
		t.Fatalf("expected INVALID_CONFIG for a missing env file, got %v", err)
	}
}

func TestLoadConfig_NothingFound(t *testing.T) {
	t.Chdir(t.TempDir())
	var cfg streamConfig
	if err := LoadConfig("pagestream", &cfg, WithSearchDirs(t.TempDir())); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "" {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestLoadConfig_SearchDirsAndEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())
	empty, dir := t.TempDir(), t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("name: from-search\nstream:\n  low_water_mark: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PAGESTREAM_STREAM_SCHEDULER=immediate\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("PAGESTREAM_STREAM_SCHEDULER") })

	var cfg streamConfig
	if err := Load("pagestream", &cfg, WithSearchDirs(empty, dir)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "from-search" || cfg.Stream.LowWaterMark != 10 {
		t.Errorf("config file not found through search dirs: %+v", cfg)
	}
	if cfg.Stream.Scheduler != "immediate" {
		t.Errorf("Scheduler = %q, want immediate from the .env next to config", cfg.Stream.Scheduler)
	}
}

func TestLoadConfig_EnvPrefix(t *testing.T) {
	t.Setenv("PS_NAME", "prefixed")
	t.Setenv("PS_LOGGING_LEVEL", "warn")
	t.Setenv("NAME", "bare")

	var cfg streamConfig
	if err := LoadConfig("pagestream", &cfg, WithSearchDirs(), WithEnvPrefix("PS")); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "prefixed" || cfg.Logging.Level != "warn" {
		t.Errorf("got name=%q level=%q", cfg.Name, cfg.Logging.Level)
	}
}

func TestBindEnv_Keys(t *testing.T) {
	keys := bindEnv(viper.New(), "PAGESTREAM", reflect.TypeOf(&streamConfig{}))
	got := make(map[string]bool, len(keys))
	for _, k := range keys {
		got[k] = true
	}
	for _, want := range []string{"name", "environment", "logging.level", "stream.low_water_mark", "stream.scheduler"} {
		if !got[want] {
			t.Errorf("key %q not bound; got %v", want, keys)
		}
	}
	if got["serviceconfig.name"] || got["logging.components"] {
		t.Errorf("squashed or map fields bound as keys: %v", keys)
	}
	if name := EnvName("PAGESTREAM", "stream.low_water_mark"); name != "PAGESTREAM_STREAM_LOW_WATER_MARK" {
		t.Errorf("EnvName = %q", name)
	}
}

func TestStreamDefaults(t *testing.T) {
	d := StreamDefaults("reader")
	if d["reader.low_water_mark"] != enumerator.DefaultLowWaterMark || d["reader.scheduler"] != "trampoline" {
		t.Errorf("unexpected defaults: %v", d)
	}
}

func TestWithDefaults_Merges(t *testing.T) {
	var lc LoaderConfig
	WithDefaults(map[string]any{"a": 1})(&lc)
	WithDefaults(map[string]any{"b": 2})(&lc)
	if len(lc.Defaults) != 2 {
		t.Errorf("defaults = %v", lc.Defaults)
	}
}
