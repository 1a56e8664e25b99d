package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. RACE_INSIGHTS_SOURCE_KIND
const EnvPrefix = "RACE_INSIGHTS"

// DefaultPath is used when no configuration path is given
const DefaultPath = "config/config.yaml"

// Load reads the configuration file and environment overrides. Placeholders
// of the form ${VAR} in the YAML are expanded before parsing. A missing file
// is an error.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults is like Load, but a missing file falls back to defaults
// and environment variables
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}

	v := newViper()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv can override it even when
// the file omits it
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "race-insights")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.timezone", "")

	v.SetDefault("source.kind", SourceFile)
	v.SetDefault("source.base_url", "")
	v.SetDefault("source.api_key", "")
	v.SetDefault("source.file_path", "data/meeting.json")
	v.SetDefault("source.timeout_seconds", 30)
	v.SetDefault("source.max_retries", 3)
	v.SetDefault("source.rate_limit", 5.0)
	v.SetDefault("source.circuit_breaker_max", 5)

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "race_insights")
	v.SetDefault("database.user", "race_insights")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 1)

	v.SetDefault("analysis.long_shot_multiple", 3.0)
	v.SetDefault("analysis.cache_ttl_seconds", 900)
	v.SetDefault("analysis.cache_max_size", 500)

	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.poll_cron", "*/5 * * * *")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_path", "/metrics")
	v.SetDefault("server.stream_path", "/ws")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.daemon_addr", "127.0.0.1:2000")
	v.SetDefault("tracing.sampling_rate", 0.05)

	v.SetDefault("secrets.region", "")
	v.SetDefault("secrets.secret_name", "")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}
