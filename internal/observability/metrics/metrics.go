// Package metrics exposes Prometheus instrumentation for the gateway.
//
// Init registers the collectors once; the observer functions are nil-safe
// so packages can record metrics without caring whether Init ran (tests
// typically skip it).
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "tsgate_"

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	dataOps *prometheus.CounterVec

	ingestMessages *prometheus.CounterVec
)

// Init registers all gateway metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route, and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
		dataOps = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "data_operations_total",
				Help: "Total data-plane operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		)
		ingestMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_messages_total",
				Help: "Total MQTT ingest messages by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			dataOps,
			ingestMessages,
		)
	})
}

// ObserveHTTPRequest records one completed HTTP request.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// IncDataOperation increments the data-plane operation counter.
func IncDataOperation(operation, outcome string) {
	if outcome == "" {
		outcome = "success"
	}
	if dataOps != nil {
		dataOps.WithLabelValues(operation, outcome).Inc()
	}
}

// IncIngestMessage increments the MQTT ingest counter.
func IncIngestMessage(result string) {
	if result == "" {
		result = "success"
	}
	if ingestMessages != nil {
		ingestMessages.WithLabelValues(result).Inc()
	}
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
