package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchChunksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batch_chunks_processed_total",
		Help: "The number of batch chunks processed.",
	})

	batchInstancesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batch_instances_processed_total",
		Help: "The number of instances processed in batch chunks.",
	})

	batchChunkFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batch_chunk_failures_total",
		Help: "The number of batch chunks whose transformer returned an error.",
	})
)

func instrumentChunkProcessed(instanceCount int) {
	batchChunksProcessed.Inc()
	batchInstancesProcessed.Add((float64)(instanceCount))
}

func instrumentChunkFailure() {
	batchChunkFailures.Inc()
}
