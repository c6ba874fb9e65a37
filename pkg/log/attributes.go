// Standard attribute keys. Using the same keys everywhere keeps fit,
// evaluation and CLI logs filterable with one query.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the algorithm, e.g. "KMeans", "ID3", "GradientDescent".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation: "fit", "predict", "classify", "evaluate".
	OperationKey = "ml.operation"

	// ComponentKey identifies the package doing the work, e.g. "cluster", "tree".
	ComponentKey = "ml.component"

	// PhaseKey indicates training, validation or testing.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey is the number of rows processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// TrainSizeKey and TestSizeKey describe a holdout or fold split.
	TrainSizeKey = "data.train_size"
	TestSizeKey  = "data.test_size"

	// ClassesKey is the number of distinct class labels.
	ClassesKey = "data.classes"
)

// Metrics and Progress
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// LossKey records the loss, e.g. gradient descent MSE.
	LossKey = "metrics.loss"

	// SSEKey records the within-cluster sum of squared errors.
	SSEKey = "metrics.sse"

	// IterationKey records the current iteration number.
	IterationKey = "training.iteration"

	// ConvergedKey records whether an iterative fit stopped before its cap.
	ConvergedKey = "training.converged"
)

// Algorithm-specific progress
const (
	// ClusterCountKey records how many clusters a clusterer produced.
	ClusterCountKey = "cluster.count"

	// NoiseCountKey records how many points DBSCAN left as noise.
	NoiseCountKey = "cluster.noise"

	// FoldKey records the cross-validation fold index.
	FoldKey = "cv.fold"

	// UnclassifiedKey records instances a classifier declined to label.
	UnclassifiedKey = "preds.unclassified"

	// TemperatureKey records the annealing temperature.
	TemperatureKey = "anneal.temperature"

	// EnergyKey records the annealing tour energy.
	EnergyKey = "anneal.energy"

	// TreeNodesKey records how many nodes an ID3 tree holds.
	TreeNodesKey = "tree.nodes"
)

// Hyperparameters
const (
	// LearningRateKey records alpha for gradient descent.
	LearningRateKey = "hyperparams.learning_rate"

	// KKey records K for k-means and k-NN.
	KKey = "hyperparams.k"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Standard attribute values.
const (
	OperationFit      = "fit"
	OperationPredict  = "predict"
	OperationClassify = "classify"
	OperationEvaluate = "evaluate"
	OperationSplit    = "split"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseTesting    = "testing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidParameter  = "INVALID_PARAMETER"
	ErrorConvergence       = "CONVERGENCE_FAILURE"

	ErrorNumericalInstability = "NUMERICAL_INSTABILITY"
	ErrorPanic                = "PANIC"
)
