package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the analyze HTTP handler
	AnalyzeLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "leanscope_analyze_latency_seconds",
		Help:    "Latency of the analyze handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of analyze requests served
	AnalyzeRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leanscope_analyze_requests_total",
		Help: "Total number of analyze requests",
	})

	// Total number of items classified across all batches
	ItemsClassified = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leanscope_items_classified_total",
		Help: "Total number of items classified",
	})

	// Reducer failures by projection method (excludes small-batch guards)
	ReducerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leanscope_reducer_failures_total",
		Help: "Total number of projection reducer failures by method",
	}, []string{"method"})
)

func Init() {
	prometheus.MustRegister(
		AnalyzeLatency,
		AnalyzeRequests,
		ItemsClassified,
		ReducerFailures,
	)
}
