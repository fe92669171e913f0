package ranking

import (
	"math/rand"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/core/model"
	"github.com/YuminosukeSato/forestrank/core/statistic"
	"github.com/YuminosukeSato/forestrank/metrics"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// Permutation adds the permutation importance of one bag to rec.
//
// oob holds the tuples that are out of bag for the tree. For every attribute
// the tree tests, its values are shuffled among oob and the tree's error is
// measured again. Channel j receives
//
//	sign_j * (before_j - after_j) / before_j
//
// where sign_j is -1 for lower-is-better measures, so a positive score always
// means the attribute matters. Channels whose error before permutation is 0
// are skipped with an UndefinedMetricWarning.
func Permutation(rec *Records, tm model.TreeModel, schema *dataset.Schema, oob []*dataset.Tuple, measures []metrics.Measure, rng *rand.Rand) error {
	if len(oob) == 0 {
		return nil
	}
	before, err := evaluateAll(tm, schema, oob, measures)
	if err != nil {
		return err
	}
	for j, m := range measures {
		if before[j] == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning(m.Name, "zero out-of-bag error before permutation", 0))
		}
	}

	perm := make([]int, len(oob))
	permuted := make([]*dataset.Tuple, len(oob))
	for _, attr := range model.SplitAttributes(tm.Root()) {
		for i := range perm {
			perm[i] = i
		}
		for i := len(perm) - 1; i > 0; i-- {
			k := rng.Intn(i + 1)
			perm[i], perm[k] = perm[k], perm[i]
		}
		for i, t := range oob {
			permuted[i] = t.WithValue(attr, oob[perm[i]].Values[attr])
		}

		after, err := evaluateAll(tm, schema, permuted, measures)
		if err != nil {
			return err
		}
		for j, m := range measures {
			if before[j] == 0 {
				continue
			}
			rec.Add(attr, j, m.Sign()*(before[j]-after[j])/before[j])
		}
	}
	return nil
}

func evaluateAll(tm model.Model, schema *dataset.Schema, tuples []*dataset.Tuple, measures []metrics.Measure) ([]float64, error) {
	preds := make([]statistic.Prediction, len(tuples))
	for i, t := range tuples {
		preds[i] = tm.Predict(t)
	}
	out := make([]float64, len(measures))
	for j, m := range measures {
		v, err := metrics.Evaluate(m, schema, tuples, preds)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluate %s", m.Name)
		}
		out[j] = v
	}
	return out, nil
}
