package tree

import (
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/core/statistic"
)

// targetStat accumulates the target values of a set of rows. It is scratch
// state owned by one induction call.
type targetStat struct {
	task    statistic.Kind
	targets []int
	weight  float64

	// classification
	counts [][]float64

	// regression and hierarchical
	n, sum, sumSq []float64
}

func newTargetStat(schema *dataset.Schema) *targetStat {
	s := &targetStat{task: schema.Task(), targets: schema.Targets()}
	switch s.task {
	case statistic.Classification:
		s.counts = make([][]float64, len(s.targets))
		for j, a := range s.targets {
			s.counts[j] = make([]float64, schema.Attribute(a).NumValues())
		}
	case statistic.Regression, statistic.Hierarchical:
		s.n = make([]float64, len(s.targets))
		s.sum = make([]float64, len(s.targets))
		s.sumSq = make([]float64, len(s.targets))
	}
	return s
}

func (s *targetStat) reset() {
	s.weight = 0
	for _, c := range s.counts {
		for i := range c {
			c[i] = 0
		}
	}
	for j := range s.n {
		s.n[j], s.sum[j], s.sumSq[j] = 0, 0, 0
	}
}

func (s *targetStat) copyFrom(o *targetStat) {
	s.weight = o.weight
	for j := range s.counts {
		copy(s.counts[j], o.counts[j])
	}
	copy(s.n, o.n)
	copy(s.sum, o.sum)
	copy(s.sumSq, o.sumSq)
}

// add adds w times the targets of t; a negative w removes them.
func (s *targetStat) add(t *dataset.Tuple, w float64) {
	s.weight += w
	for j, a := range s.targets {
		v := t.Values[a]
		if v.Missing {
			continue
		}
		switch s.task {
		case statistic.Classification:
			s.counts[j][v.Nom] += w
		case statistic.Regression, statistic.Hierarchical:
			s.n[j] += w
			s.sum[j] += w * v.Num
			s.sumSq[j] += w * v.Num * v.Num
		}
	}
}

// variance is the weighted variance of the accumulated targets summed over
// targets: n·Gini for class counts, the sum of squared deviations for values.
func (s *targetStat) variance() float64 {
	var total float64
	switch s.task {
	case statistic.Classification:
		for _, c := range s.counts {
			n := floats.Sum(c)
			if n <= 0 {
				continue
			}
			total += n - floats.Dot(c, c)/n
		}
	case statistic.Regression, statistic.Hierarchical:
		for j := range s.n {
			if s.n[j] <= 0 {
				continue
			}
			ss := s.sumSq[j] - s.sum[j]*s.sum[j]/s.n[j]
			if ss > 0 {
				total += ss
			}
		}
	}
	return total
}

func (s *targetStat) prediction() statistic.Prediction {
	switch s.task {
	case statistic.Classification:
		dists := make([][]float64, len(s.counts))
		for j, c := range s.counts {
			d := append([]float64(nil), c...)
			if n := floats.Sum(d); n > 0 {
				floats.Scale(1/n, d)
			} else {
				for i := range d {
					d[i] = 1 / float64(len(d))
				}
			}
			dists[j] = d
		}
		return statistic.NewClassification(dists)
	default:
		values := make([]float64, len(s.n))
		for j := range values {
			if s.n[j] > 0 {
				values[j] = s.sum[j] / s.n[j]
			}
		}
		return statistic.NewNumeric(s.task, values)
	}
}
