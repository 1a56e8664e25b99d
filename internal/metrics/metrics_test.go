package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordFetch(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(FetchesTotal.WithLabelValues("provider", "applied"))

	RecordFetch("provider", "applied", 0.2)

	assert.Equal(t, before+1, testutil.ToFloat64(FetchesTotal.WithLabelValues("provider", "applied")))
}

func TestRecordIngestion(t *testing.T) {
	InitRegistry()
	accepted := testutil.ToFloat64(RecordsIngestedTotal)
	rejected := testutil.ToFloat64(RecordsRejectedTotal)

	RecordIngestion(7, 2)

	assert.Equal(t, accepted+7, testutil.ToFloat64(RecordsIngestedTotal))
	assert.Equal(t, rejected+2, testutil.ToFloat64(RecordsRejectedTotal))
}

func TestRecordViewTransition(t *testing.T) {
	tests := []struct {
		name     string
		accepted bool
		outcome  string
	}{
		{"accepted", true, "accepted"},
		{"rejected", false, "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(ViewTransitionsTotal.WithLabelValues("analysis", tt.outcome))

			RecordViewTransition("analysis", tt.accepted)

			assert.Equal(t, before+1, testutil.ToFloat64(ViewTransitionsTotal.WithLabelValues("analysis", tt.outcome)))
		})
	}
}

func TestGauges(t *testing.T) {
	UpdateMeetingRaces(9)
	UpdateAnalysisCacheHitRatio(0.75)
	UpdateStreamClients(3)

	assert.Equal(t, 9.0, testutil.ToFloat64(MeetingRaces))
	assert.Equal(t, 0.75, testutil.ToFloat64(AnalysisCacheHitRatio))
	assert.Equal(t, 3.0, testutil.ToFloat64(StreamClients))
}

func TestCounterHelpersDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordStaleResponse()
		RecordAnalysisGenerated()
	})
}

func TestMetricsHandler(t *testing.T) {
	RecordStaleResponse()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "race_insights_stale_responses_total")
}

func BenchmarkRecordFetch(b *testing.B) {
	InitRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RecordFetch("provider", "applied", 0.1)
	}
}
