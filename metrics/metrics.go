// Package metrics provides Prometheus metrics for the dictionary server and
// the conversions it runs:
//   - http_request_total, http_request_duration_seconds, http_request_in_flight
//   - therapy_conversions_total{result}, therapy_conversion_duration_seconds
//   - therapy_records, therapy_rows_skipped_total{reason}
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Number of client rate limiter buckets currently tracked",
		},
	)

	ConversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "therapy_conversions_total",
			Help: "Therapy dictionary conversions by result",
		},
		[]string{"result"},
	)

	ConversionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "therapy_conversion_duration_seconds",
			Help:    "Duration of a full read, extract and write cycle",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	TherapyRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "therapy_records",
			Help: "Number of records produced by the last successful conversion",
		},
	)

	RowsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "therapy_rows_skipped_total",
			Help: "Data rows that produced no record, by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(ConversionsTotal)
	prometheus.MustRegister(ConversionDuration)
	prometheus.MustRegister(TherapyRecords)
	prometheus.MustRegister(RowsSkippedTotal)
}

// ObserveConversion records the outcome of one conversion
func ObserveConversion(records, blankRows, missingName int, duration time.Duration) {
	ConversionsTotal.WithLabelValues("success").Inc()
	ConversionDuration.Observe(duration.Seconds())
	TherapyRecords.Set(float64(records))
	RowsSkippedTotal.WithLabelValues("blank").Add(float64(blankRows))
	RowsSkippedTotal.WithLabelValues("missing_name").Add(float64(missingName))
}

// ObserveConversionFailure counts a conversion that wrote nothing
func ObserveConversionFailure() {
	ConversionsTotal.WithLabelValues("failure").Inc()
}
