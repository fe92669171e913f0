package tree

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/core/model"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
	"github.com/YuminosukeSato/forestrank/pkg/log"
)

const minGain = 1e-12

// Inducer grows unpruned trees. It holds no mutable state, so one Inducer
// can serve every bag of an ensemble concurrently.
type Inducer struct {
	maxDepth     int
	minLeafSize  int
	sampleSize   int
	randomSplits bool
	logger       log.Logger
}

// Option configures an Inducer.
type Option func(*Inducer)

// WithMaxDepth limits tree depth; 0 means unlimited.
func WithMaxDepth(d int) Option {
	return func(in *Inducer) {
		in.maxDepth = d
	}
}

// WithMinLeafSize sets the minimum number of rows in a leaf.
func WithMinLeafSize(n int) Option {
	return func(in *Inducer) {
		if n < 1 {
			n = 1
		}
		in.minLeafSize = n
	}
}

// WithAttributeSampling makes every node choose its test among k randomly
// drawn candidate attributes. k <= 0 disables sampling.
func WithAttributeSampling(k int) Option {
	return func(in *Inducer) {
		in.sampleSize = k
	}
}

// WithRandomSplits draws one random threshold (or category) per attribute
// instead of searching for the best one.
func WithRandomSplits() Option {
	return func(in *Inducer) {
		in.randomSplits = true
	}
}

// WithLogger replaces the inducer logger.
func WithLogger(l log.Logger) Option {
	return func(in *Inducer) {
		in.logger = l
	}
}

// NewInducer returns an inducer with the given options.
func NewInducer(opts ...Option) *Inducer {
	in := &Inducer{
		minLeafSize: 1,
		logger:      log.GetLoggerWithName("tree.inducer"),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// split is a candidate test found for one attribute.
type split struct {
	attr      int
	kind      dataset.Kind
	threshold float64
	category  int
	gain      float64
}

// build is the scratch state of one induction call.
type build struct {
	in     *Inducer
	data   *dataset.Dataset
	sample int
	random bool
	attrs  []int
	rng    *rand.Rand
	schema *dataset.Schema

	total, known, left, right *targetStat
}

// InduceSingleUnpruned grows one tree on the rows of view. The view may ask for
// per-node attribute sampling or random splits on top of the inducer options.
// Both draw from rng only, so equal rng streams give equal trees.
func (in *Inducer) InduceSingleUnpruned(view dataset.View, rng *rand.Rand) (model.Model, error) {
	if view.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "tree.InduceSingleUnpruned")
	}
	schema := view.Data.Schema
	start := time.Now()

	var attrs []int
	for _, a := range view.Candidates() {
		attr := schema.Attribute(a)
		switch attr.Kind {
		case dataset.Nominal, dataset.Numeric:
			attrs = append(attrs, a)
		case dataset.TimeSeries, dataset.String:
			// no split tests for these kinds
		default:
			return nil, errors.NewUnknownAttributeKindError("tree.InduceSingleUnpruned", attr.Name, int(attr.Kind))
		}
	}

	b := &build{
		in:     in,
		data:   view.Data,
		sample: in.sampleSize,
		random: in.randomSplits || view.RandomSplits,
		attrs:  attrs,
		rng:    rng,
		schema: schema,
		total:  newTargetStat(schema),
		known:  newTargetStat(schema),
		left:   newTargetStat(schema),
		right:  newTargetStat(schema),
	}
	if view.NodeAttributes > 0 {
		b.sample = view.NodeAttributes
	}
	rows := append([]int(nil), view.Rows...)
	root := b.grow(rows, 0)
	t := New(root)

	if in.logger.Enabled(context.Background(), log.LevelDebug) {
		in.logger.Debug("Tree induced",
			log.SamplesKey, len(rows),
			log.FeaturesKey, len(attrs),
			"tree.nodes", t.NumNodes(),
			"tree.depth", t.Depth(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
	return t, nil
}

func (b *build) grow(rows []int, depth int) *Node {
	b.total.reset()
	for _, r := range rows {
		b.total.add(b.data.Tuples[r], 1)
	}
	node := NewLeaf(b.total.prediction(), b.total.variance(), b.total.weight)

	if b.in.maxDepth > 0 && depth >= b.in.maxDepth {
		return node
	}
	if len(rows) < 2*b.in.minLeafSize || node.Variance <= minGain {
		return node
	}

	best := split{attr: -1}
	for _, a := range b.candidates() {
		s, ok := b.bestSplit(rows, a)
		if ok && s.gain > best.gain+minGain {
			best = s
		}
	}
	if best.attr < 0 || best.gain <= minGain {
		return node
	}

	node.Attribute = best.attr
	node.Kind = best.kind
	node.Threshold = best.threshold
	node.Category = best.category

	var leftRows, rightRows, missing []int
	for _, r := range rows {
		v := b.data.Tuples[r].Values[best.attr]
		switch {
		case v.Missing:
			missing = append(missing, r)
		case testLeft(best, v):
			leftRows = append(leftRows, r)
		default:
			rightRows = append(rightRows, r)
		}
	}
	if len(rightRows) > len(leftRows) {
		rightRows = append(rightRows, missing...)
	} else {
		leftRows = append(leftRows, missing...)
	}
	if len(leftRows) == 0 || len(rightRows) == 0 {
		node.Attribute = -1
		return node
	}

	node.Left = b.grow(leftRows, depth+1)
	node.Right = b.grow(rightRows, depth+1)
	return node
}

// candidates returns the attributes examined at one node.
func (b *build) candidates() []int {
	k := b.sample
	if k <= 0 || k >= len(b.attrs) {
		return b.attrs
	}
	pool := append([]int(nil), b.attrs...)
	for i := 0; i < k; i++ {
		j := i + b.rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

func testLeft(s split, v dataset.Value) bool {
	if s.kind == dataset.Numeric {
		return v.Num <= s.threshold
	}
	return v.Nom == s.category
}

func (b *build) bestSplit(rows []int, a int) (split, bool) {
	var known []int
	for _, r := range rows {
		if !b.data.Tuples[r].Values[a].Missing {
			known = append(known, r)
		}
	}
	if len(known) < 2*b.in.minLeafSize {
		return split{}, false
	}
	b.known.reset()
	for _, r := range known {
		b.known.add(b.data.Tuples[r], 1)
	}
	parent := b.known.variance()

	switch b.schema.Attribute(a).Kind {
	case dataset.Numeric:
		return b.numericSplit(known, a, parent)
	case dataset.Nominal:
		return b.nominalSplit(known, a, parent)
	}
	return split{}, false
}

func (b *build) numericSplit(known []int, a int, parent float64) (split, bool) {
	tuples := b.data.Tuples
	sort.SliceStable(known, func(i, j int) bool {
		return tuples[known[i]].Values[a].Num < tuples[known[j]].Values[a].Num
	})
	lo := tuples[known[0]].Values[a].Num
	hi := tuples[known[len(known)-1]].Values[a].Num
	if hi <= lo {
		return split{}, false
	}

	if b.random {
		threshold := lo + b.rng.Float64()*(hi-lo)
		if threshold >= hi {
			threshold = math.Nextafter(hi, lo)
		}
		return b.evaluate(known, split{attr: a, kind: dataset.Numeric, threshold: threshold}, parent)
	}

	b.left.reset()
	b.right.copyFrom(b.known)
	best := split{attr: a, kind: dataset.Numeric}
	found := false
	minLeaf := b.in.minLeafSize
	for i := 0; i < len(known)-1; i++ {
		t := tuples[known[i]]
		b.left.add(t, 1)
		b.right.add(t, -1)
		v, next := t.Values[a].Num, tuples[known[i+1]].Values[a].Num
		if v == next || i+1 < minLeaf || len(known)-i-1 < minLeaf {
			continue
		}
		gain := parent - b.left.variance() - b.right.variance()
		if !found || gain > best.gain+minGain {
			best.threshold = v + (next-v)/2
			best.gain = gain
			found = true
		}
	}
	return best, found
}

func (b *build) nominalSplit(known []int, a int, parent float64) (split, bool) {
	present := make([]bool, b.schema.Attribute(a).NumValues())
	var categories []int
	for _, r := range known {
		c := b.data.Tuples[r].Values[a].Nom
		if !present[c] {
			present[c] = true
			categories = append(categories, c)
		}
	}
	if len(categories) < 2 {
		return split{}, false
	}
	sort.Ints(categories)

	if b.random {
		c := categories[b.rng.Intn(len(categories))]
		return b.evaluate(known, split{attr: a, kind: dataset.Nominal, category: c}, parent)
	}

	var best split
	found := false
	for _, c := range categories {
		s, ok := b.evaluate(known, split{attr: a, kind: dataset.Nominal, category: c}, parent)
		if ok && (!found || s.gain > best.gain+minGain) {
			best = s
			found = true
		}
	}
	return best, found
}

// evaluate scores a fixed test on the known rows.
func (b *build) evaluate(known []int, s split, parent float64) (split, bool) {
	b.left.reset()
	b.right.reset()
	for _, r := range known {
		t := b.data.Tuples[r]
		if testLeft(s, t.Values[s.attr]) {
			b.left.add(t, 1)
		} else {
			b.right.add(t, 1)
		}
	}
	if b.left.weight < float64(b.in.minLeafSize) || b.right.weight < float64(b.in.minLeafSize) {
		return s, false
	}
	s.gain = parent - b.left.variance() - b.right.variance()
	return s, true
}
