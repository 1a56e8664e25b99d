// Package config provides configuration management for race-insights.
package config

import (
	"fmt"
	"net/url"
	"time"
	_ "time/tzdata"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Source   SourceConfig   `mapstructure:"source" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Analysis AnalysisConfig `mapstructure:"analysis" validate:"required"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Secrets  SecretsConfig  `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	Timezone    string `mapstructure:"timezone" validate:"omitempty,timezone"`
}

// Source kinds
const (
	SourceProvider = "provider"
	SourceArchive  = "archive"
	SourceFile     = "file"
)

// SourceConfig selects and configures the results source
type SourceConfig struct {
	Kind              string  `mapstructure:"kind" validate:"required,sourcekind"`
	BaseURL           string  `mapstructure:"base_url" validate:"required_if=Kind provider,omitempty,url"`
	APIKey            string  `mapstructure:"api_key"`
	FilePath          string  `mapstructure:"file_path" validate:"required_if=Kind file"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit         float64 `mapstructure:"rate_limit" validate:"gte=0"`
	CircuitBreakerMax int     `mapstructure:"circuit_breaker_max" validate:"gte=0"`
}

// DatabaseConfig represents the results archive connection
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
	MinConnections int    `mapstructure:"min_connections" validate:"gte=0"`
}

// AnalysisConfig tunes the insight generator and its cache
type AnalysisConfig struct {
	LongShotMultiple float64 `mapstructure:"long_shot_multiple" validate:"gt=1"`
	CacheTTLSeconds  int     `mapstructure:"cache_ttl_seconds" validate:"gt=0"`
	CacheMaxSize     int     `mapstructure:"cache_max_size" validate:"gt=0"`
}

// ScheduleConfig drives the periodic refresh of today's meeting
type ScheduleConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	PollCron string `mapstructure:"poll_cron" validate:"required_if=Enabled true,omitempty,cronspec"`
}

// ServerConfig represents the HTTP server
type ServerConfig struct {
	Port        int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	MetricsPath string `mapstructure:"metrics_path" validate:"required,startswith=/"`
	StreamPath  string `mapstructure:"stream_path" validate:"required,startswith=/"`
}

// TracingConfig configures AWS X-Ray
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	DaemonAddr   string  `mapstructure:"daemon_addr" validate:"required_if=Enabled true,omitempty,hostname_port"`
	SamplingRate float64 `mapstructure:"sampling_rate" validate:"gte=0,lte=1"`
}

// SecretsConfig locates the AWS Secrets Manager secret overlaid on the configuration
type SecretsConfig struct {
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name" validate:"required_with=Region"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Location returns the meeting timezone, UTC when unset
func (c *Config) Location() *time.Location {
	if c.App.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UsesDatabase reports whether the archive database is configured
func (c *Config) UsesDatabase() bool {
	return c.Source.Kind == SourceArchive || c.Database.Host != ""
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.Name,
		RawQuery: "sslmode=" + c.Database.SSLMode,
	}
	return dsn.String()
}

// CacheTTL returns the analysis cache TTL
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Analysis.CacheTTLSeconds) * time.Second
}
