package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPMetricsMiddleware wraps HTTP handlers to count served requests
func HTTPMetricsMiddleware(exporter *Exporter, handler string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next(wrapped, r)

			exporter.served.WithLabelValues(strconv.Itoa(wrapped.statusCode), handler).Inc()
		}
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Transport records every hub API attempt made through next.
func Transport(collector *Collector, next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		res, err := next.RoundTrip(req)
		duration := time.Since(start).Seconds()

		endpoint := Endpoint(req.Method, req.URL.Path)
		if err != nil {
			collector.UpdateAPIMetrics(endpoint, 0, duration, nil)
			return nil, err
		}
		collector.UpdateAPIMetrics(endpoint, res.StatusCode, duration, ParseRateLimitHeaders(res.Header))
		return res, nil
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Endpoint maps a hub request to a low cardinality label.
func Endpoint(method, path string) string {
	path = strings.TrimSuffix(path, "/")
	switch {
	case strings.HasSuffix(path, "/send"):
		return "send"
	case strings.HasSuffix(path, "/signals") && method == http.MethodPost:
		return "create_signal"
	case strings.HasSuffix(path, "/signals"):
		return "signals"
	case strings.HasSuffix(path, "/appliances"):
		return "appliances"
	case strings.HasSuffix(path, "/messages") && method == http.MethodPost:
		return "local_emit"
	case strings.HasSuffix(path, "/messages"):
		return "local_fetch"
	}
	return "other"
}

// ParseRateLimitHeaders extracts rate limit information from HTTP response headers
func ParseRateLimitHeaders(headers http.Header) *RateLimitInfo {
	limit := headers.Get("X-Rate-Limit-Limit")
	remaining := headers.Get("X-Rate-Limit-Remaining")
	reset := headers.Get("X-Rate-Limit-Reset")

	if limit == "" || remaining == "" || reset == "" {
		return nil
	}

	limitInt, _ := strconv.Atoi(limit)
	remainingInt, _ := strconv.Atoi(remaining)
	resetInt, _ := strconv.ParseInt(reset, 10, 64)

	return &RateLimitInfo{
		Limit:     limitInt,
		Remaining: remainingInt,
		Reset:     resetInt,
	}
}
