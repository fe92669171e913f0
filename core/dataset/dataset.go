package dataset

import (
	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// Tuple is one row. Index is its identity for the duration of a run and is
// the key of every per-tuple map.
type Tuple struct {
	Index  int
	Values []Value
}

// WithValue returns a copy of t whose value at attr is replaced by v.
// The copy keeps t's Index.
func (t *Tuple) WithValue(attr int, v Value) *Tuple {
	values := make([]Value, len(t.Values))
	copy(values, t.Values)
	values[attr] = v
	return &Tuple{Index: t.Index, Values: values}
}

// Dataset owns the tuples; every other component only reads them.
type Dataset struct {
	Schema *Schema
	Tuples []*Tuple
}

// New builds a dataset and assigns tuple indices 0..n-1 in row order.
func New(schema *Schema, rows [][]Value) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset.New")
	}
	d := &Dataset{Schema: schema, Tuples: make([]*Tuple, len(rows))}
	for i, row := range rows {
		if len(row) != len(schema.Attributes) {
			return nil, errors.NewDimensionError("dataset.New", len(schema.Attributes), len(row), 1)
		}
		d.Tuples[i] = &Tuple{Index: i, Values: row}
	}
	return d, nil
}

// Len returns the number of tuples.
func (d *Dataset) Len() int { return len(d.Tuples) }

// Tuple returns the tuple with index i.
func (d *Dataset) Tuple(i int) *Tuple { return d.Tuples[i] }

// Select returns the tuples at the given indices, in that order.
func (d *Dataset) Select(indices []int) []*Tuple {
	out := make([]*Tuple, len(indices))
	for i, idx := range indices {
		out[i] = d.Tuples[idx]
	}
	return out
}

// View is the part of a dataset one tree is induced from: a multiset of
// rows (bootstrap duplicates allowed) and the descriptive attributes the
// inducer may test.
type View struct {
	Data *Dataset
	Rows []int
	// Attributes restricts the candidate split attributes; nil means all
	// descriptive attributes.
	Attributes []int
	// NodeAttributes asks the inducer to draw this many candidates at every
	// node; 0 means every candidate is examined.
	NodeAttributes int
	// RandomSplits asks the inducer for randomised split points.
	RandomSplits bool
}

// FullView returns a view over every row and attribute of d.
func FullView(d *Dataset) View {
	rows := make([]int, d.Len())
	for i := range rows {
		rows[i] = i
	}
	return View{Data: d, Rows: rows}
}

// Len returns the number of rows in the view, counting duplicates.
func (v View) Len() int { return len(v.Rows) }

// Candidates returns the attributes the inducer may split on.
func (v View) Candidates() []int {
	if v.Attributes != nil {
		return v.Attributes
	}
	return v.Data.Schema.Descriptive()
}
