package relief

import (
	"math"

	"github.com/agnivade/levenshtein"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// bothMissing is the numeric distance between two missing values.
const bothMissing = 1.0

// Distance measures tuples of one dataset attribute by attribute. Numeric
// attributes are normalised by their range over the dataset.
type Distance struct {
	schema *dataset.Schema
	min    []float64
	max    []float64
}

// NewDistance computes the numeric ranges of data. Missing values do not
// take part in the ranges.
func NewDistance(data *dataset.Dataset) *Distance {
	schema := data.Schema
	d := &Distance{
		schema: schema,
		min:    make([]float64, len(schema.Attributes)),
		max:    make([]float64, len(schema.Attributes)),
	}
	for a := range schema.Attributes {
		if schema.Attributes[a].Kind != dataset.Numeric {
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, t := range data.Tuples {
			v := t.Values[a]
			if v.Missing {
				continue
			}
			lo = math.Min(lo, v.Num)
			hi = math.Max(hi, v.Num)
		}
		if lo > hi {
			lo, hi = 0, 0
		}
		d.min[a], d.max[a] = lo, hi
	}
	return d
}

// Range returns the minimum and maximum of a numeric attribute.
func (d *Distance) Range(a int) (float64, float64) {
	return d.min[a], d.max[a]
}

// Mean returns the mean of the one-dimensional distances over attrs.
func (d *Distance) Mean(t1, t2 *dataset.Tuple, attrs []int) (float64, error) {
	if len(attrs) == 0 {
		return 0, nil
	}
	var sum float64
	for _, a := range attrs {
		v, err := d.Attr(a, t1, t2)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(len(attrs)), nil
}

// Attr returns the distance between t1 and t2 on attribute a.
func (d *Distance) Attr(a int, t1, t2 *dataset.Tuple) (float64, error) {
	attr := d.schema.Attribute(a)
	v1, v2 := t1.Values[a], t2.Values[a]
	switch attr.Kind {
	case dataset.Nominal:
		return nominalDistance(attr.NumValues(), v1, v2), nil
	case dataset.Numeric:
		return d.numericDistance(a, v1, v2), nil
	case dataset.TimeSeries:
		if v1.Missing || v2.Missing {
			return bothMissing, nil
		}
		if len(v1.Series) == 0 || len(v2.Series) == 0 {
			if len(v1.Series) == len(v2.Series) {
				return 0, nil
			}
			return bothMissing, nil
		}
		return seriesDistance(attr.Measure, v1.Series, v2.Series)
	case dataset.String:
		return float64(levenshtein.ComputeDistance(v1.Str, v2.Str)), nil
	default:
		return 0, errors.NewUnknownAttributeKindError("relief.Distance", attr.Name, int(attr.Kind))
	}
}

// nominalDistance is 0 for equal values and 1 otherwise; a missing operand
// gives 1 - 1/numValues.
func nominalDistance(numValues int, v1, v2 dataset.Value) float64 {
	if v1.Missing || v2.Missing {
		return 1 - 1/float64(numValues)
	}
	if v1.Nom == v2.Nom {
		return 0
	}
	return 1
}

func (d *Distance) numericDistance(a int, v1, v2 dataset.Value) float64 {
	norm := d.max[a] - d.min[a]
	if norm == 0 {
		norm = 1
	}
	switch {
	case v1.Missing && v2.Missing:
		return bothMissing
	case v1.Missing:
		t := (v2.Num - d.min[a]) / norm
		return math.Max(t, 1-t)
	case v2.Missing:
		t := (v1.Num - d.min[a]) / norm
		return math.Max(t, 1-t)
	default:
		return math.Abs(v1.Num-v2.Num) / norm
	}
}
