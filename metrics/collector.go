package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "remo"
)

type Collector struct {
	mu             sync.RWMutex
	dispatches     map[dispatchKey]float64
	registrations  map[string]float64
	apiMetrics     *APIMetrics
	lastDispatch   time.Time
	lastUpdateTime time.Time

	// Prometheus metric descriptors
	dispatchTotalDesc         *prometheus.Desc
	registrationTotalDesc     *prometheus.Desc
	lastDispatchDesc          *prometheus.Desc
	apiRequestTotalDesc       *prometheus.Desc
	apiRequestDurationDesc    *prometheus.Desc
	apiRateLimitLimitDesc     *prometheus.Desc
	apiRateLimitRemainingDesc *prometheus.Desc
	apiRateLimitResetDesc     *prometheus.Desc
	lastUpdateTimestampDesc   *prometheus.Desc
}

type dispatchKey struct {
	appliance string
	signal    string
	surface   string
}

type APIMetrics struct {
	RequestCount    map[string]float64 // key: "endpoint:status_code"
	RequestDuration map[string]float64 // key: "endpoint"
	RateLimitLimit  float64
	RateLimitRemain float64
	RateLimitReset  float64
}

func NewCollector() *Collector {
	return &Collector{
		dispatches:    make(map[dispatchKey]float64),
		registrations: make(map[string]float64),
		apiMetrics: &APIMetrics{
			RequestCount:    make(map[string]float64),
			RequestDuration: make(map[string]float64),
		},

		dispatchTotalDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "signal", "dispatches_total"),
			"Signals the hub accepted for transmission",
			[]string{"appliance", "signal", "surface"}, nil,
		),
		registrationTotalDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "signal", "registrations_total"),
			"Raw signals registered on the hub",
			[]string{"appliance"}, nil,
		),
		lastDispatchDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "signal", "last_dispatch_timestamp"),
			"Timestamp of the last accepted dispatch",
			nil, nil,
		),
		apiRequestTotalDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "api", "requests_total"),
			"Total number of API requests",
			[]string{"endpoint", "status"}, nil,
		),
		apiRequestDurationDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "api", "request_duration_seconds"),
			"Duration of the last API request in seconds",
			[]string{"endpoint"}, nil,
		),
		apiRateLimitLimitDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "api", "rate_limit_limit"),
			"API rate limit maximum",
			nil, nil,
		),
		apiRateLimitRemainingDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "api", "rate_limit_remaining"),
			"API rate limit remaining",
			nil, nil,
		),
		apiRateLimitResetDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "api", "rate_limit_reset_timestamp"),
			"API rate limit reset timestamp",
			nil, nil,
		),
		lastUpdateTimestampDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "last_update_timestamp"),
			"Timestamp of the last metrics update",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.dispatchTotalDesc
	ch <- c.registrationTotalDesc
	ch <- c.lastDispatchDesc
	ch <- c.apiRequestTotalDesc
	ch <- c.apiRequestDurationDesc
	ch <- c.apiRateLimitLimitDesc
	ch <- c.apiRateLimitRemainingDesc
	ch <- c.apiRateLimitResetDesc
	ch <- c.lastUpdateTimestampDesc
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for k, count := range c.dispatches {
		ch <- prometheus.MustNewConstMetric(
			c.dispatchTotalDesc,
			prometheus.CounterValue,
			count,
			k.appliance,
			k.signal,
			k.surface,
		)
	}
	for appliance, count := range c.registrations {
		ch <- prometheus.MustNewConstMetric(
			c.registrationTotalDesc,
			prometheus.CounterValue,
			count,
			appliance,
		)
	}
	if !c.lastDispatch.IsZero() {
		ch <- prometheus.MustNewConstMetric(
			c.lastDispatchDesc,
			prometheus.GaugeValue,
			float64(c.lastDispatch.Unix()),
		)
	}

	// API metrics
	for key, count := range c.apiMetrics.RequestCount {
		endpoint, status, _ := strings.Cut(key, ":")
		ch <- prometheus.MustNewConstMetric(
			c.apiRequestTotalDesc,
			prometheus.CounterValue,
			count,
			endpoint,
			status,
		)
	}

	for endpoint, duration := range c.apiMetrics.RequestDuration {
		ch <- prometheus.MustNewConstMetric(
			c.apiRequestDurationDesc,
			prometheus.GaugeValue,
			duration,
			endpoint,
		)
	}

	ch <- prometheus.MustNewConstMetric(
		c.apiRateLimitLimitDesc,
		prometheus.GaugeValue,
		c.apiMetrics.RateLimitLimit,
	)
	ch <- prometheus.MustNewConstMetric(
		c.apiRateLimitRemainingDesc,
		prometheus.GaugeValue,
		c.apiMetrics.RateLimitRemain,
	)
	ch <- prometheus.MustNewConstMetric(
		c.apiRateLimitResetDesc,
		prometheus.GaugeValue,
		c.apiMetrics.RateLimitReset,
	)

	ch <- prometheus.MustNewConstMetric(
		c.lastUpdateTimestampDesc,
		prometheus.GaugeValue,
		float64(c.lastUpdateTime.Unix()),
	)
}

// RecordDispatch counts a signal the hub accepted. Local emits have no signal id.
func (c *Collector) RecordDispatch(applianceID, signalID, surface string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dispatches[dispatchKey{applianceID, signalID, surface}]++
	c.lastDispatch = time.Now()
	c.lastUpdateTime = c.lastDispatch
}

// RecordRegistration counts a raw signal created on the hub.
func (c *Collector) RecordRegistration(applianceID, signalID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.registrations[applianceID]++
	c.lastUpdateTime = time.Now()
}

// UpdateAPIMetrics updates API-related metrics
func (c *Collector) UpdateAPIMetrics(endpoint string, statusCode int, duration float64, rateLimit *RateLimitInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := endpoint + ":" + strconv.Itoa(statusCode)
	c.apiMetrics.RequestCount[key]++
	c.apiMetrics.RequestDuration[endpoint] = duration

	if rateLimit != nil {
		c.apiMetrics.RateLimitLimit = float64(rateLimit.Limit)
		c.apiMetrics.RateLimitRemain = float64(rateLimit.Remaining)
		c.apiMetrics.RateLimitReset = float64(rateLimit.Reset)
	}
	c.lastUpdateTime = time.Now()
}

type RateLimitInfo struct {
	Limit     int
	Remaining int
	Reset     int64
}
