// Package model defines the contracts between the ensemble engine and the
// tree inducer it drives.
package model

import (
	"math/rand"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/core/statistic"
)

// Model is an opaque trained predictor.
type Model interface {
	// Predict returns the model's prediction for one tuple.
	Predict(t *dataset.Tuple) statistic.Prediction
}

// Node is the structural view of a tree node used by the ranking walks.
type Node interface {
	// IsLeaf reports whether the node has no split test.
	IsLeaf() bool

	// SplitAttribute is the schema index of the attribute tested at an
	// internal node.
	SplitAttribute() int

	// Children returns the child nodes of an internal node.
	Children() []Node

	// ClusteringVariance is the weighted variance of the node's target
	// statistic (sum of squared deviations, or weighted Gini for classes).
	ClusteringVariance() float64
}

// TreeModel is a Model that exposes its tree structure.
type TreeModel interface {
	Model
	Root() Node
}

// Inducer trains one unpruned model from a view. Given the same view and an
// identically seeded rng it must return the same model.
type Inducer interface {
	InduceSingleUnpruned(view dataset.View, rng *rand.Rand) (Model, error)
}

// SplitAttributes returns the distinct attributes tested anywhere in the
// tree rooted at n, in depth-first order of first use.
func SplitAttributes(n Node) []int {
	var out []int
	seen := map[int]bool{}
	var walk func(Node)
	walk = func(n Node) {
		if n == nil || n.IsLeaf() {
			return
		}
		if a := n.SplitAttribute(); !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(n)
	return out
}
