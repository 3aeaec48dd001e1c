// Package metrics exposes Prometheus instrumentation for the ledger.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the process's metrics behind a dedicated registry.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	transactionsCreated prometheus.Counter
	transactionsUpdated prometheus.Counter
	transactionsDeleted prometheus.Counter
	exportsTotal        prometheus.Counter
}

// NewCollector creates and registers all collectors under the namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method and route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		transactionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_created_total",
			Help:      "Total number of transactions created",
		}),
		transactionsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_updated_total",
			Help:      "Total number of transactions updated",
		}),
		transactionsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_deleted_total",
			Help:      "Total number of transactions deleted",
		}),
		exportsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csv_exports_total",
			Help:      "Total number of CSV exports served",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		c.httpRequests,
		c.httpDuration,
		c.transactionsCreated,
		c.transactionsUpdated,
		c.transactionsDeleted,
		c.exportsTotal,
	)

	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) TransactionCreated() { c.transactionsCreated.Inc() }
func (c *Collector) TransactionUpdated() { c.transactionsUpdated.Inc() }
func (c *Collector) TransactionDeleted() { c.transactionsDeleted.Inc() }
func (c *Collector) ExportServed()       { c.exportsTotal.Inc() }
