package dataset

import (
	"github.com/YuminosukeSato/forestrank/core/statistic"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// Schema is the ordered attribute list of a dataset.
type Schema struct {
	Attributes []Attribute
	// Hierarchical marks numeric 0/1 targets as label indicators.
	Hierarchical bool

	descriptive []int
	targets     []int
	task        statistic.Kind
}

// NewSchema validates the attributes and derives the task kind: nominal
// targets give classification, numeric targets regression (or hierarchical
// when requested).
func NewSchema(attrs []Attribute, hierarchical bool) (*Schema, error) {
	s := &Schema{Attributes: attrs, Hierarchical: hierarchical}
	nominalTargets, numericTargets := 0, 0
	for i := range attrs {
		a := &attrs[i]
		switch a.Kind {
		case Nominal:
			if a.NumValues() == 0 {
				return nil, errors.NewValidationError("attribute "+a.Name, "nominal attribute without values", a.Values)
			}
		case Numeric, TimeSeries, String:
		default:
			return nil, errors.NewUnknownAttributeKindError("dataset.NewSchema", a.Name, int(a.Kind))
		}

		switch a.Role {
		case Descriptive:
			s.descriptive = append(s.descriptive, i)
		case Target:
			s.targets = append(s.targets, i)
			switch a.Kind {
			case Nominal:
				nominalTargets++
			case Numeric:
				numericTargets++
			default:
				return nil, errors.NewValidationError("attribute "+a.Name, "targets must be nominal or numeric", a.Kind.String())
			}
		}
	}

	switch {
	case len(s.targets) == 0:
		return nil, errors.NewValidationError("targets", "schema has no target attribute", 0)
	case nominalTargets > 0 && numericTargets > 0:
		return nil, errors.NewValidationError("targets", "mixed nominal and numeric targets", len(s.targets))
	case nominalTargets > 0:
		if hierarchical {
			return nil, errors.NewValidationError("targets", "hierarchical targets must be numeric", nominalTargets)
		}
		s.task = statistic.Classification
	case hierarchical:
		s.task = statistic.Hierarchical
	default:
		s.task = statistic.Regression
	}
	return s, nil
}

// Descriptive returns the indices of the descriptive attributes in schema order.
func (s *Schema) Descriptive() []int { return s.descriptive }

// Targets returns the indices of the target attributes in schema order.
func (s *Schema) Targets() []int { return s.targets }

// Task returns the statistic kind predicted for this schema.
func (s *Schema) Task() statistic.Kind { return s.task }

// Attribute returns the attribute at index i.
func (s *Schema) Attribute(i int) *Attribute { return &s.Attributes[i] }

// Index returns the index of the named attribute, or -1.
func (s *Schema) Index(name string) int {
	for i := range s.Attributes {
		if s.Attributes[i].Name == name {
			return i
		}
	}
	return -1
}
