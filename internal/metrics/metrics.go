// Package metrics exposes the prometheus counters/histograms this service
// publishes, grounded on the teacher's `app/internal/metrics/metrics.go`
// (promauto-registered vars under one namespace).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "openaleph_search"

var (
	// SearchDuration tracks query-to-response latency by operation
	// (search/match/mlt/scan).
	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "Search request duration by operation.",
	}, []string{"operation"})

	// SearchErrors counts failed search requests by operation.
	SearchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "errors_total",
		Help:      "Search request error count by operation.",
	}, []string{"operation"})

	// CacheHits/CacheMisses track the response cache's hit rate (spec §9's
	// "translate to a real cache: karlseguin/ccache" decision).
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Search response cache hits.",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Search response cache misses.",
	})

	// IndexerDocsIndexed/IndexerBatchErrors/IndexerRetries track the bulk
	// ingestion pipeline described in spec §5.
	IndexerDocsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "indexer",
		Name:      "documents_indexed_total",
		Help:      "Documents successfully indexed or deleted.",
	})
	IndexerBatchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "indexer",
		Name:      "batch_errors_total",
		Help:      "Bulk batches or items that failed fatally.",
	})
	IndexerRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "indexer",
		Name:      "retries_total",
		Help:      "Bulk items retried after a 429 or timeout response.",
	})
)
