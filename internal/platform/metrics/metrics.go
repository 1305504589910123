package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the console's Prometheus registry.
type Collector struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	cardFailures    *prometheus.CounterVec
	leaveSubmits    *prometheus.CounterVec
}

func New() *Collector {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payflow_http_request_duration_seconds",
		Help:    "Duration of console HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payflow_http_requests_total",
		Help: "Total number of console HTTP requests",
	}, []string{"method", "route", "status"})

	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payflow_backend_request_duration_seconds",
		Help:    "Duration of calls to the PayFlow backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	cardFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payflow_dashboard_card_failures_total",
		Help: "Dashboard cards that degraded to their empty state",
	}, []string{"card"})

	leaveSubmits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payflow_leave_submissions_total",
		Help: "Leave submissions by outcome",
	}, []string{"outcome"})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		backendDuration,
		cardFailures,
		leaveSubmits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		backendDuration: backendDuration,
		cardFailures:    cardFailures,
		leaveSubmits:    leaveSubmits,
	}
}

func (c *Collector) Handler() http.Handler {
	return c.handler
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	code := strconv.Itoa(status)
	c.requestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	c.requestTotal.WithLabelValues(method, route, code).Inc()
}

func (c *Collector) RecordBackendCall(method string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.backendDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(duration.Seconds())
}

func (c *Collector) RecordCardFailure(card string) {
	if c == nil {
		return
	}
	c.cardFailures.WithLabelValues(card).Inc()
}

func (c *Collector) RecordLeaveSubmission(outcome string) {
	if c == nil {
		return
	}
	c.leaveSubmits.WithLabelValues(outcome).Inc()
}
