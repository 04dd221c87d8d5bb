package observability

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestMetricsRegistered verifies that all metrics are registered in the
// default registry and appear after seeding.
func TestMetricsRegistered(t *testing.T) {
	expected := map[string]bool{
		"weft_requests_total":             false,
		"weft_request_duration_seconds":   false,
		"weft_connections_active":         false,
		"weft_connections_rejected_total": false,
		"weft_sessions_active":            false,
		"weft_sessions_evicted_total":     false,
	}

	// Counters and histograms with labels only appear after the first
	// observation, so seed everything.
	RequestsTotal.WithLabelValues("GET", "200").Inc()
	RequestDuration.WithLabelValues("GET").Observe(0.1)
	ConnectionsActive.Inc()
	ConnectionsActive.Dec()
	ConnectionsRejectedTotal.Inc()
	SessionsActive.Set(0)
	SessionsEvictedTotal.Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}
	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not found in default registry", name)
		}
	}
}

// TestHandlerExposesMetrics verifies that the exposition endpoint
// renders the registered metrics in the text format.
func TestHandlerExposesMetrics(t *testing.T) {
	RequestsTotal.WithLabelValues("GET", "200").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "weft_requests_total") {
		t.Error("exposition output does not contain weft_requests_total")
	}
}

func TestCounterValueReflectsIncrements(t *testing.T) {
	before := counterValue(t, RequestsTotal, "POST", "404")
	RequestsTotal.WithLabelValues("POST", "404").Inc()
	after := counterValue(t, RequestsTotal, "POST", "404")

	if after-before != 1 {
		t.Errorf("expected counter delta 1, got %f", after-before)
	}
}

func TestHistogramCountsObservations(t *testing.T) {
	before := histogramCount(t, RequestDuration, "PUT")
	RequestDuration.WithLabelValues("PUT").Observe(0.02)
	after := histogramCount(t, RequestDuration, "PUT")

	if after-before != 1 {
		t.Errorf("expected histogram sample delta 1, got %d", after-before)
	}
}

// counterValue reads the current value of a CounterVec for the given labels.
func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting counter metric: %v", err)
	}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing counter metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

// histogramCount reads the observation count from a HistogramVec.
func histogramCount(t *testing.T, hv *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	obs, err := hv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting histogram metric: %v", err)
	}
	if err := obs.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing histogram metric: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}
