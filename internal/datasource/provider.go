package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/race-insights/internal/logger"
	"github.com/yourusername/race-insights/internal/models"
)

// ProviderSourceName is the name reported by ProviderClient
const ProviderSourceName = "provider"

// ProviderClient fetches meeting results from the results provider's HTTP API:
// GET {base}/results?date=YYYY-MM-DD returning a JSON array of race records.
type ProviderClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	logger     *logrus.Entry
}

// NewProviderClient creates a new provider API client
func NewProviderClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, log *logrus.Logger) *ProviderClient {
	return &ProviderClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.OrNop(log).WithField("component", "provider"),
	}
}

// FetchResults retrieves every race record of the given meeting date
func (c *ProviderClient) FetchResults(ctx context.Context, date time.Time) ([]models.RaceRecord, error) {
	endpoint := fmt.Sprintf("%s/results?date=%s", c.baseURL, url.QueryEscape(date.Format("2006-01-02")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, "failed to create request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, "failed to fetch results", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewDataSourceError(c.Name(), ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewDataSourceError(c.Name(), ErrCodeNotFound, "no meeting on "+date.Format("2006-01-02"), nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(c.Name(), ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewDataSourceError(c.Name(), ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	default:
		return nil, NewDataSourceError(c.Name(), ErrCodeUnknown, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var records []models.RaceRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeInvalidData, "failed to parse response", err)
	}

	c.logger.WithFields(logrus.Fields{
		"date":    date.Format("2006-01-02"),
		"records": len(records),
	}).Debug("Fetched provider results")

	return records, nil
}

// Name returns the data source name
func (c *ProviderClient) Name() string {
	return ProviderSourceName
}
