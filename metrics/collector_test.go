package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
)

func TestMetricsEndpoint(t *testing.T) {
	collector := NewCollector()
	exporter := NewExporter(Config{}, collector, testr.New(t))

	collector.RecordDispatch("test-id", "sig-1", "cloud")
	collector.RecordRegistration("test-id", "sig-1")
	collector.UpdateAPIMetrics("appliances", 200, 0.5, &RateLimitInfo{
		Limit:     30,
		Remaining: 29,
		Reset:     time.Now().Unix() + 300,
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	exporter.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()

	expectedMetrics := []string{
		"remo_signal_dispatches_total",
		"remo_signal_registrations_total",
		"remo_signal_last_dispatch_timestamp",
		"remo_api_requests_total",
		"remo_api_request_duration_seconds",
		"remo_api_rate_limit_limit 30",
		"remo_api_rate_limit_remaining 29",
		"remo_last_update_timestamp",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected metric %s not found in output", metric)
		}
	}

	for _, label := range []string{`appliance="test-id"`, `signal="sig-1"`, `surface="cloud"`, `endpoint="appliances"`, `status="200"`} {
		if !strings.Contains(body, label) {
			t.Errorf("Expected label %s not found", label)
		}
	}

	t.Logf("Metrics output:\n%s", body)
}

func TestTransportRecordsAttempts(t *testing.T) {
	hub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Rate-Limit-Limit", "30")
		w.Header().Set("X-Rate-Limit-Remaining", "12")
		w.Header().Set("X-Rate-Limit-Reset", "1700000000")
		if strings.HasSuffix(r.URL.Path, "/send") {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, "[]")
	}))
	defer hub.Close()

	collector := NewCollector()
	client := &http.Client{Transport: Transport(collector, http.DefaultTransport)}

	for _, path := range []string{"/1/appliances", "/1/signals/s1/send"} {
		method := http.MethodGet
		if strings.HasSuffix(path, "/send") {
			method = http.MethodPost
		}
		req, _ := http.NewRequest(method, hub.URL+path, nil)
		res, err := client.Do(req)
		if err != nil {
			t.Fatalf("request %s: %v", path, err)
		}
		res.Body.Close()
	}

	collector.mu.RLock()
	defer collector.mu.RUnlock()
	if got := collector.apiMetrics.RequestCount["appliances:200"]; got != 1 {
		t.Errorf("appliances:200 = %v", got)
	}
	if got := collector.apiMetrics.RequestCount["send:429"]; got != 1 {
		t.Errorf("send:429 = %v", got)
	}
	if collector.apiMetrics.RateLimitRemain != 12 {
		t.Errorf("remaining = %v", collector.apiMetrics.RateLimitRemain)
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/1/appliances", "appliances"},
		{http.MethodGet, "/1/appliances/a1/signals", "signals"},
		{http.MethodPost, "/1/appliances/a1/signals", "create_signal"},
		{http.MethodPost, "/1/signals/s1/send", "send"},
		{http.MethodPost, "/messages", "local_emit"},
		{http.MethodGet, "/messages", "local_fetch"},
		{http.MethodGet, "/1/users/me", "other"},
	}
	for _, tt := range tests {
		if got := Endpoint(tt.method, tt.path); got != tt.want {
			t.Errorf("Endpoint(%s, %s) = %s, want %s", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestPushWithoutURL(t *testing.T) {
	exporter := NewExporter(Config{}, NewCollector(), testr.New(t))
	if err := exporter.Push(context.Background()); err != nil {
		t.Fatalf("push without url: %v", err)
	}
}

func TestPushToGateway(t *testing.T) {
	var gotPath string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	collector := NewCollector()
	collector.RecordDispatch("a1", "s1", "cloud")
	exporter := NewExporter(Config{PushURL: gateway.URL}, collector, testr.New(t))
	if err := exporter.Push(context.Background()); err != nil {
		t.Fatalf("push: %v", err)
	}
	if gotPath != "/metrics/job/"+DefaultJob {
		t.Fatalf("pushed to %s", gotPath)
	}
}
