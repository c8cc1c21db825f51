package grid

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	queryKindLabel = "kind"

	queryKindRadius  = "radius"
	queryKindBox     = "box"
	queryKindNearest = "nearest"
)

var (
	gridInstanceCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grid_instance_count",
		Help: "The number of live instances across all scenes.",
	})

	gridInstanceCountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grid_instance_count_total",
		Help: "The total number of instances added.",
	})

	gridQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grid_queries_total",
		Help: "The number of spatial queries served.",
	}, []string{queryKindLabel})

	gridStaleBatchResults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grid_stale_batch_results_total",
		Help: "The number of batch results discarded because the store changed since the snapshot.",
	})
)

func instrumentInstanceAdded() {
	gridInstanceCount.Inc()
	gridInstanceCountTotal.Inc()
}

func instrumentInstanceRemoved() {
	gridInstanceCount.Dec()
}

func instrumentQuery(kind string) {
	gridQueries.With(prometheus.Labels{queryKindLabel: kind}).Inc()
}

func instrumentStaleResult() {
	gridStaleBatchResults.Inc()
}
