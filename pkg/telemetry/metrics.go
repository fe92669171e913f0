// Package telemetry exposes Prometheus metrics for ensemble runs: bag
// training, OOB updates, checkpoints and the size of the forest being built.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors updated by the ensemble coordinator.
type Metrics struct {
	BagsTrained        prometheus.Counter   // Bags whose model was induced
	BagFailures        prometheus.Counter   // Bags whose task returned an error
	BagDuration        prometheus.Histogram // Wall time of one bag task
	OOBUpdates         prometheus.Counter   // OOB accumulator updates, one per OOB tuple per bag
	CheckpointsSaved   prometheus.Counter   // Checkpoints written to the store
	CheckpointFailures prometheus.Counter   // Checkpoints that could not be evaluated or written
	ForestSize         prometheus.Gauge     // Models collected so far in the current run
	RankingDuration    *prometheus.HistogramVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide metrics registered on the default
// registerer. It is created on first use.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = NewWithRegistry(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// NewWithRegistry creates metrics registered on registerer, so tests can use
// an isolated prometheus.NewRegistry().
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		BagsTrained: factory.NewCounter(prometheus.CounterOpts{
			Name: "forestrank_bags_trained_total",
			Help: "Total number of bags whose model was induced",
		}),
		BagFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "forestrank_bag_failures_total",
			Help: "Total number of failed bag tasks",
		}),
		BagDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "forestrank_bag_duration_seconds",
			Help:    "Duration of one bag task in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		OOBUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "forestrank_oob_updates_total",
			Help: "Total number of out-of-bag accumulator updates",
		}),
		CheckpointsSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "forestrank_checkpoints_saved_total",
			Help: "Total number of checkpoints written",
		}),
		CheckpointFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "forestrank_checkpoint_failures_total",
			Help: "Total number of checkpoints that failed",
		}),
		ForestSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "forestrank_forest_size",
			Help: "Number of models collected in the current run",
		}),
		RankingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forestrank_ranking_duration_seconds",
			Help:    "Duration of a feature ranking computation in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}
