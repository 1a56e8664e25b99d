package tracing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/race-insights/internal/config"
	"github.com/yourusername/race-insights/internal/logger"
)

func TestDisabledTracingIsPassThrough(t *testing.T) {
	require.NoError(t, Initialize(config.TracingConfig{Enabled: false}, "test", logger.NewNopLogger()))
	assert.False(t, Enabled())

	called := false
	err := Trace(context.Background(), "load", map[string]interface{}{"source": "file"}, func(ctx context.Context) error {
		called = true
		return errors.New("boom")
	})

	assert.True(t, called)
	assert.EqualError(t, err, "boom")
}

func TestMiddlewareDisabledReturnsHandler(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	Middleware("race-insights", h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestSamplingRules(t *testing.T) {
	var rules struct {
		Version int `json:"version"`
		Default struct {
			FixedTarget int     `json:"fixed_target"`
			Rate        float64 `json:"rate"`
		} `json:"default"`
	}
	require.NoError(t, json.Unmarshal(samplingRules(0.25), &rules))

	assert.Equal(t, 2, rules.Version)
	assert.Equal(t, 1, rules.Default.FixedTarget)
	assert.Equal(t, 0.25, rules.Default.Rate)
}
