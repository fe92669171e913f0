// Package relief ranks attributes with Relief: for sampled tuples it finds
// the nearest neighbours of every target value and compares attribute
// differences between close tuples of the same and of other target values.
// The ranking depends on the dataset only.
package relief

import (
	"math/rand"
	"time"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
	"github.com/YuminosukeSato/forestrank/pkg/log"
	"github.com/YuminosukeSato/forestrank/ranking"
)

// seed of the tuple sampler used when iterations != dataset size.
const seed = 1234

// Relief holds the parameters of one Relief ranking.
type Relief struct {
	neighbours int
	iterations int
	logger     log.Logger
}

// Option configures Relief.
type Option func(*Relief)

// WithLogger replaces the logger.
func WithLogger(l log.Logger) Option {
	return func(r *Relief) {
		r.logger = l
	}
}

// New returns a Relief ranker with k neighbours per target value and m
// iterations. When m equals the number of tuples every tuple is visited once
// in index order; otherwise m tuples are drawn with replacement from a
// fixed-seed generator.
func New(k, m int, opts ...Option) *Relief {
	r := &Relief{
		neighbours: k,
		iterations: m,
		logger:     log.GetLoggerWithName("ranking.relief"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Description is the ranking header.
func (r *Relief) Description() string {
	return ranking.ReliefDescription(r.neighbours, r.iterations)
}

// scratch holds the buffers reused across iterations.
type scratch struct {
	distances      []float64
	sets           []*NeighbourSet
	tempAttr       []float64
	tempAttrTarget []float64
}

// Rank computes Relief importance for every descriptive attribute of data.
//
// With a single nominal target the task is standard classification and the
// score is the averaged difference between other-class and same-class
// neighbours. Otherwise all targets form one pseudo-class and the score is
//
//	sumAttrTarget/sumTarget - (sumAttr-sumAttrTarget)/(m-sumTarget)
//
// where a term with a zero denominator contributes 0.
func (r *Relief) Rank(data *dataset.Dataset) (*ranking.Records, error) {
	n := data.Len()
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "relief.Rank")
	}
	if r.neighbours < 1 {
		return nil, errors.NewValidationError("relief_neighbours", "must be at least 1", r.neighbours)
	}
	if r.iterations < 1 {
		return nil, errors.NewValidationError("relief_iterations", "must be at least 1", r.iterations)
	}
	start := time.Now()

	schema := data.Schema
	desc := schema.Descriptive()
	targets := schema.Targets()
	dist := NewDistance(data)

	classification := len(targets) == 1 && schema.Attribute(targets[0]).Kind == dataset.Nominal
	nbValues := 1
	var priors []float64
	if classification {
		nbValues = schema.Attribute(targets[0]).NumValues()
		priors = classPriors(data, targets[0], nbValues)
	}

	s := &scratch{
		distances:      make([]float64, n),
		sets:           make([]*NeighbourSet, nbValues),
		tempAttr:       make([]float64, len(desc)),
		tempAttrTarget: make([]float64, len(desc)),
	}
	for c := range s.sets {
		s.sets[c] = NewNeighbourSet(r.neighbours)
	}

	sumAttr := make([]float64, len(desc))
	sumAttrTarget := make([]float64, len(desc))
	var sumTarget float64

	deterministic := r.iterations == n
	var rng *rand.Rand
	if !deterministic {
		rng = rand.New(rand.NewSource(seed))
	}

	skipped := 0
	for it := 0; it < r.iterations; it++ {
		idx := it
		if !deterministic {
			idx = int(rng.Float64() * float64(n))
		}
		t := data.Tuple(idx)

		trueClass := 0
		if classification {
			v := t.Values[targets[0]]
			if v.Missing {
				skipped++
				continue
			}
			trueClass = v.Nom
		}

		if err := r.findNeighbours(data, idx, dist, desc, targets, classification, s); err != nil {
			return nil, err
		}

		for c, set := range s.sets {
			cnt := float64(set.Len())
			if cnt == 0 {
				continue
			}
			for i := range s.tempAttr {
				s.tempAttr[i], s.tempAttrTarget[i] = 0, 0
			}
			var tempTarget float64
			for _, nb := range set.Items() {
				other := data.Tuple(nb.Index)
				var targetDist float64
				if !classification {
					d, err := dist.Mean(t, other, targets)
					if err != nil {
						return nil, err
					}
					targetDist = d
					tempTarget += d
				}
				for ai, a := range desc {
					d, err := dist.Attr(a, t, other)
					if err != nil {
						return nil, err
					}
					switch {
					case !classification:
						s.tempAttr[ai] += d
						s.tempAttrTarget[ai] += d * targetDist
					case c == trueClass:
						s.tempAttr[ai] -= d
					default:
						s.tempAttr[ai] += errors.SafeDivide(priors[c], 1-priors[trueClass]) * d
					}
				}
			}
			sumTarget += tempTarget / cnt
			for ai := range desc {
				sumAttr[ai] += s.tempAttr[ai] / cnt
				sumAttrTarget[ai] += s.tempAttrTarget[ai] / cnt
			}
		}
	}

	rec := ranking.NewRecords(schema, 1)
	m := float64(r.iterations)
	for ai, a := range desc {
		var score float64
		if classification {
			score = sumAttr[ai] / m
		} else {
			score = errors.SafeDivide(sumAttrTarget[ai], sumTarget) -
				errors.SafeDivide(sumAttr[ai]-sumAttrTarget[ai], m-sumTarget)
		}
		rec.Add(a, 0, score)
	}

	r.logger.Info("Relief ranking computed",
		log.SamplesKey, n,
		log.FeaturesKey, len(desc),
		log.IterationKey, r.iterations,
		"relief.neighbours", r.neighbours,
		"relief.skipped", skipped,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// findNeighbours fills s.sets with the nearest neighbours of tuple idx, one
// set per target value. Candidates with a missing class are ignored.
func (r *Relief) findNeighbours(data *dataset.Dataset, idx int, dist *Distance, desc, targets []int, classification bool, s *scratch) error {
	t := data.Tuple(idx)
	for _, set := range s.sets {
		set.Reset()
	}
	for i, other := range data.Tuples {
		if i == idx {
			continue
		}
		d, err := dist.Mean(t, other, desc)
		if err != nil {
			return err
		}
		s.distances[i] = d
	}
	for i, other := range data.Tuples {
		if i == idx {
			continue
		}
		c := 0
		if classification {
			v := other.Values[targets[0]]
			if v.Missing {
				continue
			}
			c = v.Nom
		}
		s.sets[c].Insert(i, s.distances[i])
	}
	return nil
}

// classPriors returns the relative class frequencies among tuples with a
// known class. If every class is missing all priors are 0.
func classPriors(data *dataset.Dataset, target, nbValues int) []float64 {
	counts := make([]float64, nbValues)
	missing := 0
	for _, t := range data.Tuples {
		v := t.Values[target]
		if v.Missing {
			missing++
			continue
		}
		counts[v.Nom]++
	}
	if known := data.Len() - missing; known > 0 {
		for c := range counts {
			counts[c] /= float64(known)
		}
	}
	return counts
}
