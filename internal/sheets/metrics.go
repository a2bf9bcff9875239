package sheets

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sheetdesk_sheets_requests_total",
		Help: "Sheets API calls by operation and outcome.",
	}, []string{"op", "outcome"})

	requestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sheetdesk_sheets_request_seconds",
		Help:    "Sheets API call latency, including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

func observeRequest(op, outcome string, elapsed time.Duration) {
	requestsTotal.WithLabelValues(op, outcome).Inc()
	requestSeconds.WithLabelValues(op).Observe(elapsed.Seconds())
}
