// Package telemetry exposes Prometheus metrics for the HTTP server and the
// coding engine on a private registry.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vascintake"

var (
	defaultDurationBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	rvuBuckets             = []float64{0, 1, 2.5, 5, 10, 15, 20, 30, 50}
)

// Config holds telemetry settings.
type Config struct {
	Enabled        bool
	ServiceVersion string
	// GoMetrics registers the Go runtime and process collectors.
	GoMetrics bool
}

// Provider owns the registry and every metric the service records.
type Provider struct {
	cfg      Config
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge

	suggestionRuns  *prometheus.CounterVec
	conditionsTotal *prometheus.CounterVec
	emLevels        *prometheus.CounterVec
	suggestionRVU   prometheus.Histogram
	catalogSize     *prometheus.GaugeVec
}

// NewProvider creates a provider with its own registry.
func NewProvider(cfg Config) *Provider {
	reg := prometheus.NewRegistry()
	if cfg.GoMetrics {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
		)
	}

	version := cfg.ServiceVersion
	if version == "" {
		version = "dev"
	}
	constLabels := prometheus.Labels{"version": version}

	p := &Provider{
		cfg:      cfg,
		registry: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request latency by method, route and status.",
			Buckets:     defaultDurationBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "active_requests",
			Help:        "Requests currently being served.",
			ConstLabels: constLabels,
		}),
		suggestionRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coding",
			Name:      "suggestion_runs_total",
			Help:      "Suggestion runs by kind (multi, icd10, cpt, em).",
		}, []string{"kind"}),
		conditionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coding",
			Name:      "conditions_total",
			Help:      "Conditions submitted for suggestion.",
		}, []string{"condition"}),
		emLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coding",
			Name:      "em_level_total",
			Help:      "E&M codes suggested.",
		}, []string{"code"}),
		suggestionRVU: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "coding",
			Name:      "suggestion_rvu",
			Help:      "Total RVU of the procedure suggestions in a run.",
			Buckets:   rvuBuckets,
		}),
		catalogSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "coding",
			Name:      "catalog_codes",
			Help:      "Codes in the active catalog by code system.",
		}, []string{"system"}),
	}

	reg.MustRegister(
		p.requestDuration,
		p.activeRequests,
		p.suggestionRuns,
		p.conditionsTotal,
		p.emLevels,
		p.suggestionRVU,
		p.catalogSize,
	)
	return p
}

// Registry returns the provider's registry.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// Enabled reports whether metrics are recorded and exposed.
func (p *Provider) Enabled() bool {
	return p != nil && p.cfg.Enabled
}

// MetricsMiddleware records latency and in-flight requests per route.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !p.Enabled() {
				return next(c)
			}

			p.activeRequests.Inc()
			defer p.activeRequests.Dec()

			start := time.Now()
			err := next(c)

			// Use route pattern, not actual path.
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			p.requestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() echo.HandlerFunc {
	h := promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
	return func(c echo.Context) error {
		if !p.Enabled() {
			return echo.NewHTTPError(http.StatusNotFound, "metrics disabled")
		}
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

// ObserveSuggestion records one suggestion run.
func (p *Provider) ObserveSuggestion(kind string, conditions []string, emCode string, totalRVU float64) {
	if !p.Enabled() {
		return
	}
	p.suggestionRuns.WithLabelValues(kind).Inc()
	for _, c := range conditions {
		p.conditionsTotal.WithLabelValues(c).Inc()
	}
	if emCode != "" {
		p.emLevels.WithLabelValues(emCode).Inc()
	}
	if kind == "multi" {
		p.suggestionRVU.Observe(totalRVU)
	}
}

// SetCatalogSize records the number of codes loaded per code system.
func (p *Provider) SetCatalogSize(system string, n int) {
	if !p.Enabled() {
		return
	}
	p.catalogSize.WithLabelValues(system).Set(float64(n))
}
