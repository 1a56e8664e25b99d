package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/race-insights/internal/config"
	"github.com/yourusername/race-insights/internal/logger"
)

// Factory creates the configured ResultsSource
type Factory struct {
	config  config.SourceConfig
	archive RaceRecordReader
	logger  *logrus.Logger
}

// NewFactory creates a new data source factory. archive may be nil unless the
// archive source is configured.
func NewFactory(cfg config.SourceConfig, archive RaceRecordReader, log *logrus.Logger) *Factory {
	return &Factory{
		config:  cfg,
		archive: archive,
		logger:  logger.OrNop(log),
	}
}

// Create builds the source selected by the configuration
func (f *Factory) Create() (ResultsSource, error) {
	switch f.config.Kind {
	case config.SourceProvider:
		if f.config.BaseURL == "" {
			return nil, fmt.Errorf("provider source requires a base URL")
		}
		httpClient := NewRateLimitedHTTPClient(f.httpConfig(), f.logger)
		return NewProviderClient(httpClient, f.config.BaseURL, f.config.APIKey, f.logger), nil

	case config.SourceArchive:
		if f.archive == nil {
			return nil, fmt.Errorf("archive source requires a database connection")
		}
		return NewArchiveSource(f.archive), nil

	case config.SourceFile:
		if f.config.FilePath == "" {
			return nil, fmt.Errorf("file source requires a file path")
		}
		return NewFileSource(f.config.FilePath), nil

	default:
		return nil, fmt.Errorf("unknown data source: %s", f.config.Kind)
	}
}

func (f *Factory) httpConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	if f.config.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(f.config.TimeoutSeconds) * time.Second
	}
	if f.config.MaxRetries > 0 {
		cfg.MaxRetries = f.config.MaxRetries
	}
	if f.config.RateLimit > 0 {
		cfg.RateLimit = f.config.RateLimit
	}
	if f.config.CircuitBreakerMax > 0 {
		cfg.CircuitBreakerMax = f.config.CircuitBreakerMax
	}
	return cfg
}
