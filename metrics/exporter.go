package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Exporter publishes a Collector: scraped in bridge mode, pushed after a
// single shot run.
type Exporter struct {
	config    Config
	collector *Collector
	registry  *prometheus.Registry
	served    *prometheus.CounterVec
	log       logr.Logger
}

// NewExporter returns an initialized exporter
func NewExporter(config Config, collector *Collector, log logr.Logger) *Exporter {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.Job == "" {
		config.Job = DefaultJob
	}
	served := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "The total number of requests served labeled by response code",
	},
		[]string{"code", "handler"},
	)
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector, served)

	return &Exporter{
		config:    config,
		collector: collector,
		registry:  registry,
		served:    served,
		log:       log.WithName("metrics"),
	}
}

// Handler serves the registry in the exposition format.
func (e *Exporter) Handler() http.Handler {
	h := promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
	return HTTPMetricsMiddleware(e, "metrics")(h.ServeHTTP)
}

// Serve listens on config.ListenAddr until ctx is done.
func (e *Exporter) Serve(ctx context.Context) error {
	if e.config.ListenAddr == "" {
		return errors.New("metrics listen address is not set")
	}
	mux := http.NewServeMux()
	mux.Handle(e.config.Path, e.Handler())
	mux.HandleFunc("/healthz", HTTPMetricsMiddleware(e, "healthz")(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}))

	srv := &http.Server{Addr: e.config.ListenAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	e.log.Info("Serving metrics", "addr", e.config.ListenAddr, "path", e.config.Path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Push sends the collector to the configured Pushgateway. Without a
// PushURL it does nothing.
func (e *Exporter) Push(ctx context.Context) error {
	if e.config.PushURL == "" {
		return nil
	}
	err := push.New(e.config.PushURL, e.config.Job).
		Collector(e.collector).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", e.config.PushURL, err)
	}
	e.log.Info("Pushed metrics", "url", e.config.PushURL, "job", e.config.Job)
	return nil
}
