// Package metrics registers the Prometheus collectors for calendar queries.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "tradecal_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	queryTotal   *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec
	schedules    prometheus.Gauge
)

// Init registers the collectors with the default registerer. It is safe to
// call more than once.
func Init() {
	registerOnce.Do(func() {
		queryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "queries_total",
				Help: "Total calendar queries by exchange, operation and result",
			},
			[]string{"exchange", "op", "result"},
		)
		queryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "query_latency_seconds",
				Help:    "Calendar query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"exchange", "op"},
		)
		schedules = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "schedules_loaded",
				Help: "Number of exchange schedules currently served",
			},
		)

		prometheus.MustRegister(queryTotal, queryLatency, schedules)
	})
}

// ObserveQuery records one query outcome.
func ObserveQuery(exchange, op, result string, elapsed time.Duration) {
	Init()
	queryTotal.WithLabelValues(exchange, op, result).Inc()
	queryLatency.WithLabelValues(exchange, op).Observe(elapsed.Seconds())
}

// SetSchedulesLoaded records how many schedules are being served.
func SetSchedulesLoaded(n int) {
	Init()
	schedules.Set(float64(n))
}

// Handler exposes the default registry.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}
