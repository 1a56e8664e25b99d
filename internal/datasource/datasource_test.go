package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/race-insights/internal/config"
	"github.com/yourusername/race-insights/internal/models"
)

const meetingJSON = `[
  {
    "id": "R1C1",
    "raceName": "Prix de Diane",
    "hippodrome": "Chantilly",
    "time": "13:50",
    "distance": 2100,
    "raceType": "flat",
    "totalRunners": 2,
    "results": [
      {"horseId": "h1", "name": "Alpha", "jockey": "J One", "trainer": "T One", "finalPosition": 1, "startingPrice": 2.5,
       "performance": {"finishingTime": "2'06\"10"}},
      {"horseId": "h2", "name": "Bravo", "jockey": "J Two", "trainer": "T Two", "finalPosition": 2, "startingPrice": 4.0,
       "performance": {"margin": "encolure"}}
    ]
  }
]`

var meetingDate = time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)

func testHTTPClient() *RateLimitedHTTPClient {
	return NewRateLimitedHTTPClient(HTTPClientConfig{
		Timeout:           2 * time.Second,
		MaxRetries:        1,
		RetryWaitMin:      time.Millisecond,
		RetryWaitMax:      2 * time.Millisecond,
		RateLimit:         1000,
		CircuitBreakerMax: 3,
		CircuitCooldown:   time.Hour,
	}, nil)
}

func TestProviderFetchResults(t *testing.T) {
	var gotAuth, gotDate string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotDate = r.URL.Query().Get("date")
		assert.Equal(t, "/v1/results", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(meetingJSON))
	}))
	defer server.Close()

	client := NewProviderClient(testHTTPClient(), server.URL+"/v1/", "key-123", nil)
	records, err := client.FetchResults(context.Background(), meetingDate)
	require.NoError(t, err)

	assert.Equal(t, "Bearer key-123", gotAuth)
	assert.Equal(t, "2024-06-16", gotDate)
	require.Len(t, records, 1)
	assert.Equal(t, "Chantilly", records[0].Hippodrome)
	require.Len(t, records[0].Results, 2)
	assert.Equal(t, "encolure", records[0].Results[1].GetMargin())
	assert.Equal(t, `2'06"10`, records[0].Results[0].GetFinishingTime())
	assert.Equal(t, ProviderSourceName, client.Name())
}

func TestProviderStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		sentinel error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrCodeAuthenticationFailed, ErrAuthenticationFailed},
		{"not found", http.StatusNotFound, ErrCodeNotFound, ErrNotFound},
		{"bad request", http.StatusBadRequest, ErrCodeUnknown, nil},
		{"server error", http.StatusInternalServerError, ErrCodeServerError, ErrServerError},
		{"rate limited", http.StatusTooManyRequests, ErrCodeRateLimitExceeded, ErrRateLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewProviderClient(testHTTPClient(), server.URL, "", nil)
			_, err := client.FetchResults(context.Background(), meetingDate)
			require.Error(t, err)

			var dsErr DataSourceError
			require.True(t, errors.As(err, &dsErr))
			assert.Equal(t, tt.code, dsErr.Code)
			if tt.sentinel != nil {
				assert.True(t, errors.Is(err, tt.sentinel))
			}
		})
	}
}

func TestProviderInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	}))
	defer server.Close()

	client := NewProviderClient(testHTTPClient(), server.URL, "", nil)
	_, err := client.FetchResults(context.Background(), meetingDate)

	assert.True(t, errors.Is(err, ErrInvalidData))
}

func TestHTTPClientRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := NewProviderClient(testHTTPClient(), server.URL, "", nil)
	records, err := client.FetchResults(context.Background(), meetingDate)

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPClientCircuitBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	httpClient := testHTTPClient()
	for i := 0; i < 3; i++ {
		resp, err := httpClient.Get(context.Background(), server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	require.True(t, httpClient.IsOpen())

	_, err := httpClient.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestHTTPClientCircuitHalfOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	httpClient := testHTTPClient()
	now := time.Now()
	httpClient.now = func() time.Time { return now }
	for i := 0; i < 3; i++ {
		httpClient.recordFailure(errors.New("boom"))
	}
	require.True(t, httpClient.IsOpen())

	now = now.Add(2 * time.Hour)
	resp, err := httpClient.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.False(t, httpClient.IsOpen())
}

type stubReader struct {
	records []models.RaceRecord
	err     error
}

func (s stubReader) GetByDate(context.Context, time.Time) ([]models.RaceRecord, error) {
	return s.records, s.err
}

func TestArchiveSource(t *testing.T) {
	source := NewArchiveSource(stubReader{records: []models.RaceRecord{{ID: "R1C1"}}})

	records, err := source.FetchResults(context.Background(), meetingDate)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	missing := NewArchiveSource(stubReader{err: models.ErrNotFound})
	_, err = missing.FetchResults(context.Background(), meetingDate)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meeting.json")
	require.NoError(t, os.WriteFile(path, []byte(meetingJSON), 0o600))

	records, err := NewFileSource(path).FetchResults(context.Background(), meetingDate)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "absent.json")).FetchResults(context.Background(), meetingDate)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFactoryCreate(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.SourceConfig
		archive  RaceRecordReader
		expected string
		wantErr  bool
	}{
		{"provider", config.SourceConfig{Kind: config.SourceProvider, BaseURL: "http://localhost"}, nil, ProviderSourceName, false},
		{"provider without url", config.SourceConfig{Kind: config.SourceProvider}, nil, "", true},
		{"archive", config.SourceConfig{Kind: config.SourceArchive}, stubReader{}, ArchiveSourceName, false},
		{"archive without database", config.SourceConfig{Kind: config.SourceArchive}, nil, "", true},
		{"file", config.SourceConfig{Kind: config.SourceFile, FilePath: "meeting.json"}, nil, FileSourceName, false},
		{"unknown", config.SourceConfig{Kind: "ftp"}, nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := NewFactory(tt.cfg, tt.archive, nil).Create()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, source.Name())
		})
	}
}
