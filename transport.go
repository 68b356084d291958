package controlremo

import (
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// TransportOptions shape the HTTP session used for one hub surface.
type TransportOptions struct {
	Timeout time.Duration // per attempt
	Retries int
	WaitMin time.Duration
	WaitMax time.Duration
	Header  http.Header // set on every request, replacing what the client library put there
	// Wrap decorates the innermost transport, once per attempt.
	Wrap func(http.RoundTripper) http.RoundTripper
}

// NewHTTPClient returns a standard client that retries connection errors,
// 429 and 5xx with exponential backoff, at most Retries times.
func NewHTTPClient(opts TransportOptions, log logr.Logger) *http.Client {
	var rt http.RoundTripper = cleanhttp.DefaultPooledTransport()
	if len(opts.Header) > 0 {
		rt = &headerTransport{header: opts.Header, next: rt}
	}
	if opts.Wrap != nil {
		rt = opts.Wrap(rt)
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Transport: rt, Timeout: opts.Timeout}
	rc.RetryMax = opts.Retries
	if opts.WaitMin > 0 {
		rc.RetryWaitMin = opts.WaitMin
	}
	if opts.WaitMax > 0 {
		rc.RetryWaitMax = opts.WaitMax
	}
	rc.Logger = leveledLogger{log.WithName("http")}
	return rc.StandardClient()
}

type headerTransport struct {
	header http.Header
	next   http.RoundTripper
}

func (h *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, vs := range h.header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return h.next.RoundTrip(req)
}

// leveledLogger adapts logr to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log logr.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error(nil, msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.V(1).Info(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}
