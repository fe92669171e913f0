// Package metrics provides the error measures used for OOB error estimates,
// checkpoint evaluations and permutation importance.
package metrics

import (
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/core/statistic"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// Measure is a named error measure over one target column.
type Measure struct {
	Name          string
	LowerIsBetter bool
	Compute       func(yTrue, yPred *mat.VecDense) (float64, error)
	tasks         []statistic.Kind
}

var (
	AccuracyMeasure    = Measure{Name: "Accuracy", Compute: Accuracy, tasks: []statistic.Kind{statistic.Classification}}
	RMSEMeasure        = Measure{Name: "RMSE", LowerIsBetter: true, Compute: RMSE, tasks: []statistic.Kind{statistic.Regression, statistic.Hierarchical}}
	MSEMeasure         = Measure{Name: "MSE", LowerIsBetter: true, Compute: MSE, tasks: []statistic.Kind{statistic.Regression, statistic.Hierarchical}}
	MAEMeasure         = Measure{Name: "MAE", LowerIsBetter: true, Compute: MAE, tasks: []statistic.Kind{statistic.Regression, statistic.Hierarchical}}
	R2Measure          = Measure{Name: "R2", Compute: R2Score, tasks: []statistic.Kind{statistic.Regression}}
	HammingLossMeasure = Measure{Name: "HammingLoss", LowerIsBetter: true, Compute: HammingLoss, tasks: []statistic.Kind{statistic.Hierarchical}}
)

var registry = []Measure{AccuracyMeasure, RMSEMeasure, MSEMeasure, MAEMeasure, R2Measure, HammingLossMeasure}

// Lookup finds a measure by case-insensitive name.
func Lookup(name string) (Measure, error) {
	for _, m := range registry {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return Measure{}, errors.NewValidationError("error_measures", "unknown error measure", name)
}

// Defaults returns the measure used when none is configured.
func Defaults(task statistic.Kind) []Measure {
	switch task {
	case statistic.Classification:
		return []Measure{AccuracyMeasure}
	case statistic.Hierarchical:
		return []Measure{HammingLossMeasure}
	default:
		return []Measure{RMSEMeasure}
	}
}

// Supports reports whether m applies to the task kind.
func (m Measure) Supports(task statistic.Kind) bool {
	for _, k := range m.tasks {
		if k == task {
			return true
		}
	}
	return false
}

// Sign is -1 for lower-is-better measures and +1 otherwise, so that
// sign·(before−after) is positive when a change made things worse.
func (m Measure) Sign() float64 {
	if m.LowerIsBetter {
		return -1
	}
	return 1
}

// Evaluate scores preds against the targets of tuples. Each target column
// is scored separately, skipping tuples whose target is missing, and the
// scores are averaged.
func Evaluate(m Measure, schema *dataset.Schema, tuples []*dataset.Tuple, preds []statistic.Prediction) (float64, error) {
	if len(tuples) != len(preds) {
		return 0, errors.NewDimensionError("metrics.Evaluate", len(tuples), len(preds), 0)
	}
	var total float64
	scored := 0
	for j, attr := range schema.Targets() {
		truth := make([]float64, 0, len(tuples))
		guess := make([]float64, 0, len(tuples))
		for i, t := range tuples {
			v := t.Values[attr]
			if v.Missing {
				continue
			}
			switch preds[i].Kind {
			case statistic.Classification:
				truth = append(truth, float64(v.Nom))
				guess = append(guess, float64(preds[i].Majority(j)))
			case statistic.Regression, statistic.Hierarchical:
				truth = append(truth, v.Num)
				guess = append(guess, preds[i].Values[j])
			}
		}
		if len(truth) == 0 {
			continue
		}
		score, err := m.Compute(mat.NewVecDense(len(truth), truth), mat.NewVecDense(len(guess), guess))
		if err != nil {
			return 0, errors.Wrapf(err, "%s on target %s", m.Name, schema.Attributes[attr].Name)
		}
		total += score
		scored++
	}
	if scored == 0 {
		return 0, errors.Wrapf(errors.ErrEmptyData, "%s: no tuple with a known target", m.Name)
	}
	return total / float64(scored), nil
}
