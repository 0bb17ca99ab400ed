package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	Searches       *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	NodesPopped    prometheus.Histogram
	CacheHits      prometheus.Counter
	ErrorsCount    *prometheus.CounterVec
}

// NewMetrics registers the scheduler metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "The total number of assignment searches by outcome",
		}, []string{"status"}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time taken by one assignment search",
			Buckets:   prometheus.DefBuckets,
		}),
		NodesPopped: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_nodes_popped",
			Help:      "Partial schedules examined per search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "The total number of searches answered from the result cache",
		}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
