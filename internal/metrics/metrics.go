// Package metrics holds the Prometheus collectors served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rollbook",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	Marks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollbook",
		Name:      "attendance_marks_total",
		Help:      "Attendance marks received, by outcome (saved, skipped).",
	}, []string{"result"})

	Reports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollbook",
		Name:      "reports_total",
		Help:      "Reports generated, by kind (class, student) and format (json, csv).",
	}, []string{"kind", "format"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rollbook",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
)
