package ensemble

import (
	"sync"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/core/model"
	"github.com/YuminosukeSato/forestrank/core/statistic"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// oobEntry is the aggregate of one tuple. Its mutex serialises bags that
// finish at the same time and share the tuple.
type oobEntry struct {
	mu    sync.Mutex
	pred  statistic.Prediction
	usage int
}

// OOBEstimator aggregates, per tuple index, the predictions of the models
// for which the tuple was out of bag.
//
// Regression and hierarchical predictions are kept as running averages.
// Class predictions are collapsed with the voting mode and summed; reads
// divide the sum by the usage count.
type OOBEstimator struct {
	voting statistic.VotingMode

	mu      sync.RWMutex
	entries map[int]*oobEntry
}

// NewOOBEstimator returns an empty estimator.
func NewOOBEstimator(voting statistic.VotingMode) *OOBEstimator {
	return &OOBEstimator{voting: voting, entries: make(map[int]*oobEntry)}
}

// Reset forgets every tuple.
func (e *OOBEstimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = make(map[int]*oobEntry)
}

// OOBPredictions holds the predictions of one model for the tuples that
// were out of its bag, in tuple index order.
type OOBPredictions struct {
	Indices []int
	Preds   []statistic.Prediction
}

// Len returns the number of predicted tuples.
func (p OOBPredictions) Len() int { return len(p.Indices) }

// PredictOOB computes the predictions of m for every tuple oob marks without
// touching any estimator. Bag tasks call it so that the predictions can be
// folded in later, in bag order.
func PredictOOB(oob *OOBSelection, data *dataset.Dataset, m model.Model) (OOBPredictions, error) {
	if oob.Len() != data.Len() {
		return OOBPredictions{}, errors.NewDimensionError("ensemble.PredictOOB", data.Len(), oob.Len(), 0)
	}
	indices := oob.Indices()
	out := OOBPredictions{Indices: indices, Preds: make([]statistic.Prediction, len(indices))}
	for j, i := range indices {
		out.Preds[j] = m.Predict(data.Tuple(i))
	}
	return out, nil
}

// UpdateOOBTuples adds the predictions of m for every tuple oob marks. It
// is safe to call from concurrently finishing bags.
func (e *OOBEstimator) UpdateOOBTuples(oob *OOBSelection, data *dataset.Dataset, m model.Model) error {
	preds, err := PredictOOB(oob, data, m)
	if err != nil {
		return err
	}
	return e.Apply(preds)
}

// Apply folds precomputed out-of-bag predictions into the estimator.
func (e *OOBEstimator) Apply(p OOBPredictions) error {
	if len(p.Indices) != len(p.Preds) {
		return errors.NewDimensionError("OOBEstimator.Apply", len(p.Indices), len(p.Preds), 0)
	}
	for j, i := range p.Indices {
		if err := e.update(i, p.Preds[j]); err != nil {
			return err
		}
	}
	return nil
}

// update folds one prediction into tuple idx. The usage count only grows
// when the prediction was accepted.
func (e *OOBEstimator) update(idx int, pred statistic.Prediction) error {
	entry := e.entry(idx)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.usage == 0 {
		entry.pred = pred.Collapse(e.voting)
		entry.usage = 1
		return nil
	}
	n := entry.usage + 1
	switch pred.Kind {
	case statistic.Classification:
		if err := entry.pred.Accumulate(pred.Collapse(e.voting)); err != nil {
			return err
		}
	case statistic.Regression, statistic.Hierarchical:
		if len(pred.Values) != len(entry.pred.Values) {
			return errors.NewDimensionError("OOBEstimator.update", len(entry.pred.Values), len(pred.Values), 1)
		}
		nf := float64(n)
		for j, v := range pred.Values {
			entry.pred.Values[j] = entry.pred.Values[j]*(nf-1)/nf + v/nf
		}
	default:
		return errors.NewValueError("OOBEstimator.update", "unknown prediction kind "+pred.Kind.String())
	}
	entry.usage = n
	return nil
}

// entry returns the entry of idx, creating it under the write lock.
func (e *OOBEstimator) entry(idx int) *oobEntry {
	e.mu.RLock()
	entry, ok := e.entries[idx]
	e.mu.RUnlock()
	if ok {
		return entry
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if entry, ok = e.entries[idx]; !ok {
		entry = &oobEntry{}
		e.entries[idx] = entry
	}
	return entry
}

func (e *OOBEstimator) lookup(idx int) (*oobEntry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.entries[idx]
	return entry, ok
}

// ContainsPrediction reports whether t was out of bag for at least one model.
func (e *OOBEstimator) ContainsPrediction(t *dataset.Tuple) bool {
	entry, ok := e.lookup(t.Index)
	if !ok {
		return false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.usage > 0
}

// Prediction returns the OOB prediction of tuple idx. Class predictions are
// the summed votes divided by the usage count.
func (e *OOBEstimator) Prediction(idx int) (statistic.Prediction, bool) {
	entry, ok := e.lookup(idx)
	if !ok {
		return statistic.Prediction{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.usage == 0 {
		return statistic.Prediction{}, false
	}
	out := entry.pred.Clone()
	if out.Kind == statistic.Classification {
		out.Scale(1 / float64(entry.usage))
	}
	return out, true
}

// Usage returns how many models tuple idx was out of bag for.
func (e *OOBEstimator) Usage(idx int) int {
	entry, ok := e.lookup(idx)
	if !ok {
		return 0
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.usage
}

// Len returns the number of tuples with an OOB prediction.
func (e *OOBEstimator) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.entries)
}
