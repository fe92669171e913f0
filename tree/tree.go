// Package tree is the reference tree inducer driven by the ensemble engine:
// unpruned binary trees over nominal and numeric attributes, with optional
// per-node attribute sampling and random splits.
package tree

import (
	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/core/model"
	"github.com/YuminosukeSato/forestrank/core/statistic"
)

// Node is a node of a binary tree. A node with Attribute < 0 is a leaf.
//
// Numeric tests send values <= Threshold to Left; nominal tests send the
// value Category to Left. Missing values follow the heavier child.
type Node struct {
	Attribute int
	Kind      dataset.Kind
	Threshold float64
	Category  int

	Left  *Node
	Right *Node

	// Prediction is the target statistic of the training rows in the node.
	Prediction statistic.Prediction
	// Variance is the weighted variance of those rows.
	Variance float64
	// Weight is the number of training rows, counting duplicates.
	Weight float64
}

// NewLeaf returns a leaf node.
func NewLeaf(pred statistic.Prediction, variance, weight float64) *Node {
	return &Node{Attribute: -1, Prediction: pred, Variance: variance, Weight: weight}
}

func (n *Node) IsLeaf() bool { return n.Left == nil || n.Right == nil }

func (n *Node) SplitAttribute() int { return n.Attribute }

func (n *Node) Children() []model.Node {
	if n.IsLeaf() {
		return nil
	}
	return []model.Node{n.Left, n.Right}
}

func (n *Node) ClusteringVariance() float64 { return n.Variance }

// child returns the child the value v is routed to.
func (n *Node) child(v dataset.Value) *Node {
	if v.Missing {
		if n.Right.Weight > n.Left.Weight {
			return n.Right
		}
		return n.Left
	}
	switch n.Kind {
	case dataset.Numeric:
		if v.Num <= n.Threshold {
			return n.Left
		}
	case dataset.Nominal:
		if v.Nom == n.Category {
			return n.Left
		}
	}
	return n.Right
}

// Tree is an induced tree. It is immutable once returned by the inducer.
type Tree struct {
	root *Node
}

// New wraps a root node, e.g. one built by hand in tests.
func New(root *Node) *Tree {
	return &Tree{root: root}
}

// Root returns the root node.
func (t *Tree) Root() model.Node { return t.root }

// Predict routes tup to a leaf and returns a copy of the leaf prediction.
func (t *Tree) Predict(tup *dataset.Tuple) statistic.Prediction {
	n := t.root
	for !n.IsLeaf() {
		n = n.child(tup.Values[n.Attribute])
	}
	return n.Prediction.Clone()
}

// NumNodes counts all nodes of the tree.
func (t *Tree) NumNodes() int {
	return count(t.root)
}

// Depth returns the depth of the deepest leaf; a single leaf has depth 0.
func (t *Tree) Depth() int {
	return depth(t.root)
}

func count(n *Node) int {
	if n.IsLeaf() {
		return 1
	}
	return 1 + count(n.Left) + count(n.Right)
}

func depth(n *Node) int {
	if n.IsLeaf() {
		return 0
	}
	l, r := depth(n.Left), depth(n.Right)
	if r > l {
		l = r
	}
	return l + 1
}
