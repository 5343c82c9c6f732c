package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "loadbalancer_details"

	outcomeSuccess    = "success"
	outcomeError      = "error"
	outcomeSuperseded = "superseded"
)

var (
	// fetchTotal counts fetches by poller and outcome.
	// outcome: success | error | superseded
	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "fetches_total",
			Help:      "Total number of fetches issued by a poller, by outcome.",
		},
		[]string{"poller", "outcome"},
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of poller fetches in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"poller"},
	)
)
