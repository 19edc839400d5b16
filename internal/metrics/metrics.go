// Package metrics collects Prometheus metrics for HTTP traffic and logins.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes recorded by RecordLogin.
const (
	OutcomeCreated       = "created"
	OutcomeExisting      = "existing"
	OutcomeExchangeError = "exchange_error"
	OutcomeProviderError = "provider_error"
	OutcomeStoreError    = "store_error"
)

// Recorder is what handlers need to report logins.
type Recorder interface {
	RecordLogin(provider, outcome string)
}

type Collector struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	logins       *prometheus.CounterVec
	usersCreated *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry, so that tests can
// build as many as they like.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sociallogin_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sociallogin_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sociallogin_logins_total",
			Help: "OAuth callbacks by provider and outcome.",
		}, []string{"provider", "outcome"}),
		usersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sociallogin_users_created_total",
			Help: "Users created on first login, by provider.",
		}, []string{"provider"}),
	}

	c.registry.MustRegister(
		c.requests,
		c.duration,
		c.logins,
		c.usersCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) RecordLogin(provider, outcome string) {
	c.logins.WithLabelValues(provider, outcome).Inc()
	if outcome == OutcomeCreated {
		c.usersCreated.WithLabelValues(provider).Inc()
	}
}

// Middleware records request count and latency under the matched route
// pattern, so path parameters do not explode label cardinality.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		c.requests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

var _ Recorder = (*Collector)(nil)
