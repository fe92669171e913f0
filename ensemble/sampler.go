package ensemble

import (
	"math"
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/forestrank/core/dataset"
)

// BagSelection is the per-tuple inclusion count of one bag.
type BagSelection struct {
	counts []int
	size   int
}

// NewBagSelection draws size tuples out of n with replacement.
func NewBagSelection(n, size int, rng *rand.Rand) *BagSelection {
	b := &BagSelection{counts: make([]int, n), size: size}
	for i := 0; i < size; i++ {
		b.counts[rng.Intn(n)]++
	}
	return b
}

// NewFullSelection selects every tuple once.
func NewFullSelection(n int) *BagSelection {
	b := &BagSelection{counts: make([]int, n), size: n}
	for i := range b.counts {
		b.counts[i] = 1
	}
	return b
}

// Len returns the number of tuples the selection is over.
func (b *BagSelection) Len() int { return len(b.counts) }

// Size returns the number of draws.
func (b *BagSelection) Size() int { return b.size }

// Count returns how many times tuple i was drawn.
func (b *BagSelection) Count(i int) int { return b.counts[i] }

// InBag reports whether tuple i was drawn at least once.
func (b *BagSelection) InBag(i int) bool { return b.counts[i] > 0 }

// Rows lists the drawn tuple indices in ascending order, repeated by count.
func (b *BagSelection) Rows() []int {
	rows := make([]int, 0, b.size)
	for i, c := range b.counts {
		for j := 0; j < c; j++ {
			rows = append(rows, i)
		}
	}
	return rows
}

// OOBSelection marks the tuples a bag did not draw.
type OOBSelection struct {
	oob   []bool
	count int
}

// NewOOBSelection returns the complement of b.
func NewOOBSelection(b *BagSelection) *OOBSelection {
	o := &OOBSelection{oob: make([]bool, b.Len())}
	for i := range o.oob {
		if !b.InBag(i) {
			o.oob[i] = true
			o.count++
		}
	}
	return o
}

// Len returns the number of tuples the selection is over.
func (o *OOBSelection) Len() int { return len(o.oob) }

// IsOOB reports whether tuple i is out of bag.
func (o *OOBSelection) IsOOB(i int) bool { return o.oob[i] }

// Count returns the number of out-of-bag tuples.
func (o *OOBSelection) Count() int { return o.count }

// Indices lists the out-of-bag tuple indices in ascending order.
func (o *OOBSelection) Indices() []int {
	out := make([]int, 0, o.count)
	for i, v := range o.oob {
		if v {
			out = append(out, i)
		}
	}
	return out
}

// bagPlan is everything a bag task derives from its seed before induction.
type bagPlan struct {
	bag   int
	rng   *rand.Rand
	inBag *BagSelection
	oob   *OOBSelection
	view  dataset.View
}

// planBag builds the selection and view of one bag. The rng is seeded with
// the bag seed and is handed on to the inducer afterwards.
func planBag(cfg Config, data *dataset.Dataset, bag int, seed int64) bagPlan {
	rng := rand.New(rand.NewSource(seed))
	n := data.Len()

	var sel *BagSelection
	if cfg.Method.Bootstrap() {
		size := int(math.Round(cfg.BagFraction * float64(n)))
		if size < 1 {
			size = 1
		}
		sel = NewBagSelection(n, size, rng)
	} else {
		sel = NewFullSelection(n)
	}

	view := dataset.View{Data: data, Rows: sel.Rows()}
	desc := data.Schema.Descriptive()
	k := cfg.subspaceSize(len(desc))
	switch cfg.Method {
	case Bagging:
	case RandomForest, RandomForestNoBagging:
		view.NodeAttributes = k
	case ExtraTrees:
		view.NodeAttributes = k
		view.RandomSplits = true
	case RandomSubspaces, BaggingPlusSubspaces:
		view.Attributes = subspace(desc, k, rng)
	}

	return bagPlan{bag: bag, rng: rng, inBag: sel, oob: NewOOBSelection(sel), view: view}
}

// subspace draws k of attrs without replacement and returns them sorted.
func subspace(attrs []int, k int, rng *rand.Rand) []int {
	pool := append([]int(nil), attrs...)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	out := pool[:k]
	sort.Ints(out)
	return out
}

// bagSeeds derives one seed per bag from the master seed, before any bag
// runs, so bag composition does not depend on scheduling.
func bagSeeds(master int64, n int) []int64 {
	rng := rand.New(rand.NewSource(master))
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}
	return seeds
}
