package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareRecordsStatusAndInflight(t *testing.T) {
	var inflightDuring float64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inflightDuring = testutil.ToFloat64(httpInflight.WithLabelValues(http.MethodDelete))
		w.WriteHeader(http.StatusTeapot)
	})
	requests := httpRequestsTotal.WithLabelValues("/unrouted", http.MethodDelete, "418")
	before := testutil.ToFloat64(requests)

	rr := httptest.NewRecorder()
	MetricsMiddleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/unrouted", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := testutil.ToFloat64(requests); got != before+1 {
		t.Fatalf("requests_total = %v, want %v", got, before+1)
	}
	if inflightDuring < 1 {
		t.Fatalf("inflight during request = %v", inflightDuring)
	}
	if got := testutil.ToFloat64(httpInflight.WithLabelValues(http.MethodDelete)); got != 0 {
		t.Fatalf("inflight after request = %v", got)
	}
}

func TestMetricsEndpointExposesHTTPSeries(t *testing.T) {
	h := NewMux(&mockService{ready: true})
	get(h, "/healthz")
	w := get(h, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", w.Code)
	}
	for _, name := range []string{"llmcore_http_requests_total", "llmcore_http_request_duration_seconds", "llmcore_http_inflight_requests"} {
		if !bytes.Contains(w.Body.Bytes(), []byte(name)) {
			t.Fatalf("/metrics missing %s", name)
		}
	}
}
