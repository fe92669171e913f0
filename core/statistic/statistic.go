// Package statistic defines the prediction value shared by trees, forests and
// the OOB estimator, over the closed set of target kinds.
package statistic

import (
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// Kind is the kind of learning task a prediction belongs to.
type Kind int

const (
	// Classification predicts one class distribution per nominal target.
	Classification Kind = iota
	// Regression predicts one value per numeric target.
	Regression
	// Hierarchical predicts one membership probability per label.
	Hierarchical
)

func (k Kind) String() string {
	switch k {
	case Classification:
		return "classification"
	case Regression:
		return "regression"
	case Hierarchical:
		return "hierarchical"
	default:
		return "unknown"
	}
}

// VotingMode selects how class distributions of individual models are merged.
type VotingMode int

const (
	// MajorityVote turns each model's distribution into a one-hot vote first.
	MajorityVote VotingMode = iota
	// ProbabilityVote averages the models' probability distributions.
	ProbabilityVote
)

func (m VotingMode) String() string {
	if m == ProbabilityVote {
		return "probability"
	}
	return "majority"
}

// Prediction is the output of one model or of an aggregate of models.
// Classification predictions use Distributions (one vector per target);
// regression and hierarchical predictions use Values.
type Prediction struct {
	Kind          Kind
	Distributions [][]float64
	Values        []float64
}

// NewClassification wraps per-target class distributions.
func NewClassification(distributions [][]float64) Prediction {
	return Prediction{Kind: Classification, Distributions: distributions}
}

// NewNumeric wraps per-target values of a regression or hierarchical task.
func NewNumeric(kind Kind, values []float64) Prediction {
	return Prediction{Kind: kind, Values: values}
}

// Zero returns an all-zero prediction with the same shape as p.
func (p Prediction) Zero() Prediction {
	out := Prediction{Kind: p.Kind}
	switch p.Kind {
	case Classification:
		out.Distributions = make([][]float64, len(p.Distributions))
		for i, d := range p.Distributions {
			out.Distributions[i] = make([]float64, len(d))
		}
	case Regression, Hierarchical:
		out.Values = make([]float64, len(p.Values))
	}
	return out
}

// Clone returns a deep copy of p.
func (p Prediction) Clone() Prediction {
	out := Prediction{Kind: p.Kind}
	if p.Distributions != nil {
		out.Distributions = make([][]float64, len(p.Distributions))
		for i, d := range p.Distributions {
			out.Distributions[i] = append([]float64(nil), d...)
		}
	}
	if p.Values != nil {
		out.Values = append([]float64(nil), p.Values...)
	}
	return out
}

// Majority returns the most probable class of the given target. Ties go to
// the lowest class index.
func (p Prediction) Majority(target int) int {
	d := p.Distributions[target]
	if len(d) == 0 {
		return -1
	}
	return floats.MaxIdx(d)
}

// Collapse prepares a classification prediction for voting: a one-hot vector
// of the majority class under MajorityVote, a normalised distribution under
// ProbabilityVote. Numeric predictions are returned as copies.
func (p Prediction) Collapse(mode VotingMode) Prediction {
	out := p.Clone()
	if p.Kind != Classification {
		return out
	}
	for i, d := range out.Distributions {
		switch mode {
		case MajorityVote:
			best := p.Majority(i)
			for j := range d {
				d[j] = 0
			}
			if best >= 0 {
				d[best] = 1
			}
		case ProbabilityVote:
			normalize(d)
		}
	}
	return out
}

// Accumulate adds other elementwise into p. Shapes must match.
func (p Prediction) Accumulate(other Prediction) error {
	if p.Kind != other.Kind {
		return errors.NewValueError("Prediction.Accumulate", "mixed prediction kinds "+p.Kind.String()+" and "+other.Kind.String())
	}
	switch p.Kind {
	case Classification:
		if len(p.Distributions) != len(other.Distributions) {
			return errors.NewDimensionError("Prediction.Accumulate", len(p.Distributions), len(other.Distributions), 1)
		}
		for i := range p.Distributions {
			if len(p.Distributions[i]) != len(other.Distributions[i]) {
				return errors.NewDimensionError("Prediction.Accumulate", len(p.Distributions[i]), len(other.Distributions[i]), 1)
			}
		}
		for i := range p.Distributions {
			floats.Add(p.Distributions[i], other.Distributions[i])
		}
	case Regression, Hierarchical:
		if len(p.Values) != len(other.Values) {
			return errors.NewDimensionError("Prediction.Accumulate", len(p.Values), len(other.Values), 1)
		}
		floats.Add(p.Values, other.Values)
	}
	return nil
}

// Scale multiplies every component of p by c in place.
func (p Prediction) Scale(c float64) {
	for _, d := range p.Distributions {
		floats.Scale(c, d)
	}
	if p.Values != nil {
		floats.Scale(c, p.Values)
	}
}

// Round returns a copy of p with every component rounded to decimals places.
func (p Prediction) Round(decimals int) Prediction {
	out := p.Clone()
	for _, d := range out.Distributions {
		for i := range d {
			d[i] = errors.RoundTo(d[i], decimals)
		}
	}
	for i := range out.Values {
		out.Values[i] = errors.RoundTo(out.Values[i], decimals)
	}
	return out
}

// Vote combines the predictions of several models. Numeric targets are
// averaged; class distributions are collapsed with mode, summed and
// normalised.
func Vote(preds []Prediction, mode VotingMode) (Prediction, error) {
	if len(preds) == 0 {
		return Prediction{}, errors.Wrap(errors.ErrEmptyData, "statistic.Vote")
	}
	acc := preds[0].Zero()
	for _, p := range preds {
		if err := acc.Accumulate(p.Collapse(mode)); err != nil {
			return Prediction{}, err
		}
	}
	switch acc.Kind {
	case Classification:
		for _, d := range acc.Distributions {
			normalize(d)
		}
	case Regression, Hierarchical:
		acc.Scale(1 / float64(len(preds)))
	}
	return acc, nil
}

func normalize(d []float64) {
	sum := floats.Sum(d)
	if sum <= 0 {
		return
	}
	floats.Scale(1/sum, d)
}
