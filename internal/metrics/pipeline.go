package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SyncProcessed counts index writes completed by the sync pipeline.
	SyncProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchsync",
			Name:      "sync_operations_total",
			Help:      "Index operations completed by the synchronization pipeline",
		},
		[]string{"operation"},
	)

	// SyncFailures counts index writes the pipeline logged and skipped.
	SyncFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchsync",
			Name:      "sync_failures_total",
			Help:      "Index operations that failed and were skipped",
		},
		[]string{"operation"},
	)

	// SyncDropped counts lifecycle jobs dropped because the queue was full.
	SyncDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchsync",
			Name:      "sync_dropped_total",
			Help:      "Lifecycle jobs dropped due to a full sync queue",
		},
	)

	// SearchTypeFailures counts per-type sub-queries that failed during fan-out.
	SearchTypeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchsync",
			Name:      "search_type_failures_total",
			Help:      "Federated sub-queries that failed, by entity type",
		},
		[]string{"entity_type"},
	)
)

// RegisterPipelineMetrics registers sync and search metrics explicitly (no init()).
func RegisterPipelineMetrics() {
	prometheus.MustRegister(SyncProcessed)
	prometheus.MustRegister(SyncFailures)
	prometheus.MustRegister(SyncDropped)
	prometheus.MustRegister(SearchTypeFailures)
}
