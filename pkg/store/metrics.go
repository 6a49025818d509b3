package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreTotalRequests is the total number of store operations.
	StoreTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vixen_store_total_requests",
			Help: "Total number of store operations",
		},
		[]string{"store", "operation"},
	)

	// StoreLatency is the duration of store operations.
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "vixen_store_latency",
			Help: "Duration of store operations",
		},
		[]string{"store", "operation"},
	)

	// StoreCorruptionsTotal counts corrupt store files healed at load time.
	StoreCorruptionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vixen_store_corruptions_total",
			Help: "Total number of corrupt store files backed up and reset",
		},
	)
)
