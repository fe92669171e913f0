package ensemble

import (
	"strconv"
	"sync"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/core/model"
	"github.com/YuminosukeSato/forestrank/core/parallel"
	"github.com/YuminosukeSato/forestrank/core/statistic"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// PredictionMode is fixed when a forest is created.
type PredictionMode int

const (
	// Standard votes over the retained models.
	Standard PredictionMode = iota
	// OOB answers from the out-of-bag aggregates of the training tuples.
	OOB
	// Streaming answers from running averages kept per training tuple; the
	// models themselves are not retained.
	Streaming
)

func (m PredictionMode) String() string {
	switch m {
	case Standard:
		return "standard"
	case OOB:
		return "oob"
	case Streaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// streamDecimals is the rounding applied to streaming predictions on read.
const streamDecimals = 4

// Forest is an ordered collection of models with a fixed prediction mode.
type Forest struct {
	model.BaseEstimator

	mode   PredictionMode
	voting statistic.VotingMode

	mu     sync.RWMutex
	models []model.Model
	size   int

	oob *OOBEstimator

	data   *dataset.Dataset
	stream []statistic.Prediction
}

// NewForest returns a forest that keeps its models and votes over them.
func NewForest(voting statistic.VotingMode) *Forest {
	return &Forest{mode: Standard, voting: voting}
}

// NewOOBForest returns a forest that predicts training tuples from oob.
// It is used for error estimation on the training set only.
func NewOOBForest(oob *OOBEstimator) *Forest {
	f := &Forest{mode: OOB, voting: oob.voting, oob: oob}
	f.SetFitted()
	return f
}

// NewStreamingForest returns a forest that folds every added model into
// running averages over the tuples of data.
func NewStreamingForest(data *dataset.Dataset, voting statistic.VotingMode) *Forest {
	return &Forest{mode: Streaming, voting: voting, data: data, stream: make([]statistic.Prediction, data.Len())}
}

// Mode returns the prediction mode.
func (f *Forest) Mode() PredictionMode { return f.mode }

// Size returns the number of models added.
func (f *Forest) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.size
}

// Models returns the retained models in bag order. It is empty unless the
// mode is Standard.
func (f *Forest) Models() []model.Model {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]model.Model(nil), f.models...)
}

// AddModel appends m.
func (f *Forest) AddModel(m model.Model) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.mode {
	case Standard:
		f.models = append(f.models, m)
	case OOB:
		// predictions come from the estimator
	case Streaming:
		n := float64(f.size + 1)
		for i, t := range f.data.Tuples {
			pred := m.Predict(t).Collapse(f.voting)
			if f.size == 0 {
				f.stream[i] = pred
				continue
			}
			acc := f.stream[i]
			acc.Scale((n - 1) / n)
			pred.Scale(1 / n)
			if err := acc.Accumulate(pred); err != nil {
				return errors.Wrapf(err, "streaming update of tuple %d", t.Index)
			}
		}
	default:
		return errors.NewValueError("Forest.AddModel", "unknown prediction mode "+f.mode.String())
	}
	f.size++
	f.SetFitted()
	return nil
}

// Predict returns the forest prediction for t.
func (f *Forest) Predict(t *dataset.Tuple) (statistic.Prediction, error) {
	if err := f.RequireFitted("Forest", "Predict"); err != nil {
		return statistic.Prediction{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	switch f.mode {
	case Standard:
		preds := make([]statistic.Prediction, len(f.models))
		for i, m := range f.models {
			preds[i] = m.Predict(t)
		}
		return statistic.Vote(preds, f.voting)
	case OOB:
		pred, ok := f.oob.Prediction(t.Index)
		if !ok {
			return statistic.Prediction{}, errors.Wrapf(errors.ErrNoOOBTuples, "tuple %d", t.Index)
		}
		return pred, nil
	case Streaming:
		if t.Index < 0 || t.Index >= len(f.stream) || f.data.Tuple(t.Index) != t {
			return statistic.Prediction{}, errors.NewValueError("Forest.Predict",
				"streaming forest only predicts its training tuples, got tuple "+strconv.Itoa(t.Index))
		}
		return f.stream[t.Index].Round(streamDecimals), nil
	default:
		return statistic.Prediction{}, errors.NewValueError("Forest.Predict", "unknown prediction mode "+f.mode.String())
	}
}

// PredictAll predicts every tuple, in parallel for large inputs.
func (f *Forest) PredictAll(tuples []*dataset.Tuple) ([]statistic.Prediction, error) {
	out := make([]statistic.Prediction, len(tuples))
	errs := make([]error, len(tuples))
	parallel.ParallelizeWithThreshold(len(tuples), 256, func(start, end int) {
		for i := start; i < end; i++ {
			out[i], errs[i] = f.Predict(tuples[i])
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
