// Package log defines standard attribute keys for ensemble and ranking runs.
//
// Keys follow a hierarchical naming convention (e.g. "ensemble.bag",
// "data.samples") so runs can be filtered in aggregated logs.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model, e.g. "Forest", "Tree".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "induce", "predict", "rank", "checkpoint"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging.
	// Examples: "ensemble.coordinator", "ranking.relief"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the run.
	PhaseKey = "ml.phase"

	// RunIDKey carries the per-run identifier from the run context.
	RunIDKey = "run.id"
)

// Data Shape
const (
	// SamplesKey indicates the number of tuples in the dataset or view.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of descriptive attributes.
	FeaturesKey = "data.features"

	// TargetsKey indicates the number of target attributes.
	TargetsKey = "data.targets"

	// AttributeKey names a single attribute.
	AttributeKey = "data.attribute"
)

// Ensemble Context
const (
	// BagKey is the 1-based bag number.
	BagKey = "ensemble.bag"

	// EnsembleSizeKey is the configured number of bags.
	EnsembleSizeKey = "ensemble.size"

	// EnsembleMethodKey names the ensemble method.
	EnsembleMethodKey = "ensemble.method"

	// ThreadsKey is the size of the bag worker pool.
	ThreadsKey = "ensemble.threads"

	// OOBTuplesKey counts out-of-bag tuples of a bag.
	OOBTuplesKey = "ensemble.oob_tuples"

	// CheckpointKey is the forest size of a checkpoint.
	CheckpointKey = "ensemble.checkpoint"

	// RankingMethodKey names the feature-ranking method.
	RankingMethodKey = "ranking.method"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// ErrorMeasureKey names an error measure such as "RMSE".
	ErrorMeasureKey = "metrics.measure"

	// ErrorValueKey records the value of an error measure.
	ErrorValueKey = "metrics.value"

	// IterationKey records the current iteration number (Relief).
	IterationKey = "training.iteration"
)

// Configuration and Infrastructure
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// WorkerIDKey identifies a worker goroutine.
	WorkerIDKey = "infra.worker_id"

	// StoragePathKey is the path of the checkpoint database.
	StoragePathKey = "infra.storage_path"
)

// Standard attribute values.
const (
	OperationInduce     = "induce"
	OperationPredict    = "predict"
	OperationRank       = "rank"
	OperationCheckpoint = "checkpoint"

	PhaseTraining   = "training"
	PhaseEvaluation = "evaluation"
	PhaseRanking    = "ranking"
)
