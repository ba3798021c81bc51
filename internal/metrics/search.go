package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "searches_total",
			Help:      "Total number of search queries",
		},
		[]string{"reranked"}, // "true" / "false"
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rankdex",
			Name:      "search_duration_seconds",
			Help:      "Full query pipeline duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
	)

	IndexRebuildsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "index_rebuilds_total",
			Help:      "Total number of full index rebuilds",
		},
	)

	DocumentsIndexed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rankdex",
			Name:      "documents_indexed",
			Help:      "Number of documents currently in the store",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(IndexRebuildsTotal)
	prometheus.MustRegister(DocumentsIndexed)
	searchMetricsRegistered = true
}
