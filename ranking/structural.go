package ranking

import (
	"math"

	"github.com/YuminosukeSato/forestrank/core/model"
)

// Genie3 adds, for every internal node of the tree, the variance reduction
// of its split to the split attribute. Leaves contribute nothing.
func Genie3(rec *Records, tm model.TreeModel) {
	var walk func(n model.Node)
	walk = func(n model.Node) {
		if n == nil || n.IsLeaf() {
			return
		}
		reduction := n.ClusteringVariance()
		children := n.Children()
		for _, c := range children {
			reduction -= c.ClusteringVariance()
		}
		rec.Add(n.SplitAttribute(), 0, reduction)
		for _, c := range children {
			walk(c)
		}
	}
	walk(tm.Root())
}

// Symbolic adds weights[j]^depth to channel j of the split attribute of
// every internal node. The root is at depth 0.
func Symbolic(rec *Records, tm model.TreeModel, weights []float64) {
	contrib := make([]float64, len(weights))
	var walk func(n model.Node, depth int)
	walk = func(n model.Node, depth int) {
		if n == nil || n.IsLeaf() {
			return
		}
		for j, w := range weights {
			contrib[j] = math.Pow(w, float64(depth))
		}
		rec.AddAll(n.SplitAttribute(), contrib)
		for _, c := range n.Children() {
			walk(c, depth+1)
		}
	}
	walk(tm.Root(), 0)
}
