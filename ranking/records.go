// Package ranking computes attribute importance from trained trees and
// formats the resulting rankings.
//
// Importance is accumulated into Records: one vector of channels per
// descriptive attribute. Each bag fills its own records, which are merged
// into the run's records in bag order; once the run is over the records are
// scaled and turned into a Ranking.
package ranking

import (
	"sync"

	"github.com/YuminosukeSato/forestrank/core/dataset"
)

// Records is the thread-safe importance accumulator of one run.
type Records struct {
	mu       sync.RWMutex
	schema   *dataset.Schema
	attrs    []int
	channels int
	scores   map[int][]float64
}

// NewRecords creates zeroed records with the given number of channels for
// every descriptive attribute of schema.
func NewRecords(schema *dataset.Schema, channels int) *Records {
	if channels < 1 {
		channels = 1
	}
	r := &Records{
		schema:   schema,
		attrs:    schema.Descriptive(),
		channels: channels,
		scores:   make(map[int][]float64, len(schema.Descriptive())),
	}
	for _, a := range r.attrs {
		r.scores[a] = make([]float64, channels)
	}
	return r
}

// Channels returns the number of score channels per attribute.
func (r *Records) Channels() int { return r.channels }

// Add adds v to one channel of attribute attr. Unknown attributes are ignored.
func (r *Records) Add(attr, channel int, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.scores[attr]; ok {
		s[channel] += v
	}
}

// AddAll adds a vector of per-channel values to attribute attr.
func (r *Records) AddAll(attr int, values []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scores[attr]
	if !ok {
		return
	}
	for i, v := range values {
		s[i] += v
	}
}

// Merge adds every score of other to r. Attributes unknown to r are ignored.
func (r *Records) Merge(other *Records) {
	if other == nil || other == r {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	for a, src := range other.scores {
		dst, ok := r.scores[a]
		if !ok {
			continue
		}
		for i := 0; i < len(dst) && i < len(src); i++ {
			dst[i] += src[i]
		}
	}
}

// Score returns a copy of the channels of attribute attr.
func (r *Records) Score(attr int) []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]float64(nil), r.scores[attr]...)
}

// Entries returns every descriptive attribute in schema order with its
// scores multiplied by scale.
func (r *Records) Entries(scale float64) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.attrs))
	for i, a := range r.attrs {
		scores := make([]float64, r.channels)
		for j, v := range r.scores[a] {
			scores[j] = v * scale
		}
		out[i] = Entry{Attribute: r.schema.Attribute(a).Name, Scores: scores}
	}
	return out
}

// Ranking builds a ranking from the records. Scores are multiplied by scale,
// e.g. 1/bags for tree-based methods.
func (r *Records) Ranking(description string, scale float64, sorted bool) *Ranking {
	return NewRanking(description, r.Entries(scale), sorted)
}
