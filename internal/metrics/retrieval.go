package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	IndexerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoseek",
			Name:      "indexer_requests_total",
			Help:      "Total number of requests to the remote video index",
		},
		[]string{"operation", "status"}, // operation: "query" / "list_documents"
	)

	IndexerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "videoseek",
			Name:      "indexer_request_duration_seconds",
			Help:      "Remote video index request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	CatalogCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoseek",
			Name:      "catalog_cache_total",
			Help:      "Document catalog cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SASTokensMintedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoseek",
			Name:      "sas_tokens_minted_total",
			Help:      "Total signed access tokens minted for playback",
		},
		[]string{"status"}, // "success" / "error"
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexerRequestsTotal)
	prometheus.MustRegister(IndexerRequestDuration)
	prometheus.MustRegister(CatalogCacheTotal)
	prometheus.MustRegister(SASTokensMintedTotal)
	retrievalMetricsRegistered = true
}
