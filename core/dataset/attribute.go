// Package dataset holds the in-memory row store the ensemble engine reads:
// attribute metadata, typed values and tuples with a stable integer identity.
package dataset

import (
	"math"
)

// Kind is the closed set of attribute kinds. Switches over Kind handle every
// member and report anything else as an UnknownAttributeKindError.
type Kind int

const (
	Nominal Kind = iota
	Numeric
	TimeSeries
	String
)

func (k Kind) String() string {
	switch k {
	case Nominal:
		return "nominal"
	case Numeric:
		return "numeric"
	case TimeSeries:
		return "timeseries"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// Role says how an attribute takes part in learning.
type Role int

const (
	Descriptive Role = iota
	Target
	// Disabled attributes are loaded but ignored.
	Disabled
)

// SeriesMeasure selects the distance used between two time series.
type SeriesMeasure int

const (
	// DTW is dynamic time warping; lengths may differ.
	DTW SeriesMeasure = iota
	// QDM is the qualitative distance measure; lengths must match.
	QDM
	// TSC is the correlation-based distance; lengths must match.
	TSC
)

func (m SeriesMeasure) String() string {
	switch m {
	case DTW:
		return "DTW"
	case QDM:
		return "QDM"
	case TSC:
		return "TSC"
	default:
		return "unknown"
	}
}

// Attribute describes one column.
type Attribute struct {
	Name string
	Kind Kind
	Role Role
	// Values is the domain of a nominal attribute.
	Values []string
	// Measure is the distance used for a time-series attribute.
	Measure SeriesMeasure
}

// NumValues returns the size of a nominal attribute's domain.
func (a *Attribute) NumValues() int {
	return len(a.Values)
}

// ValueIndex returns the position of v in the nominal domain, or -1.
func (a *Attribute) ValueIndex(v string) int {
	for i, s := range a.Values {
		if s == v {
			return i
		}
	}
	return -1
}

// Value is one cell. Only the field matching the attribute kind is used.
type Value struct {
	Num     float64
	Nom     int
	Series  []float64
	Str     string
	Missing bool
}

// MissingNominal is the nominal index stored for unknown values.
const MissingNominal = -1

// NumericValue returns a numeric cell; NaN marks it missing.
func NumericValue(v float64) Value {
	return Value{Num: v, Nom: MissingNominal, Missing: math.IsNaN(v)}
}

// NominalValue returns a nominal cell; a negative index marks it missing.
func NominalValue(i int) Value {
	if i < 0 {
		return Value{Num: math.NaN(), Nom: MissingNominal, Missing: true}
	}
	return Value{Num: math.NaN(), Nom: i}
}

// SeriesValue returns a time-series cell; nil marks it missing.
func SeriesValue(s []float64) Value {
	return Value{Num: math.NaN(), Nom: MissingNominal, Series: s, Missing: s == nil}
}

// StringValue returns a string cell.
func StringValue(s string) Value {
	return Value{Num: math.NaN(), Nom: MissingNominal, Str: s}
}

// MissingValue returns a cell that is missing for every kind.
func MissingValue() Value {
	return Value{Num: math.NaN(), Nom: MissingNominal, Missing: true}
}
