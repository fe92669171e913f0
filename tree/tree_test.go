package tree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/core/model"
	"github.com/YuminosukeSato/forestrank/core/statistic"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// classData builds two numeric attributes and a binary class: lower left is
// class "a", upper right is class "b".
func classData(t *testing.T) *dataset.Dataset {
	t.Helper()
	schema, err := dataset.NewSchema([]dataset.Attribute{
		{Name: "x1", Kind: dataset.Numeric},
		{Name: "x2", Kind: dataset.Numeric},
		{Name: "class", Kind: dataset.Nominal, Role: dataset.Target, Values: []string{"a", "b"}},
	}, false)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	points := [][3]float64{
		{0, 0, 0}, {0, 1, 0}, {1, 0, 0}, {1, 1, 0},
		{3, 3, 1}, {3, 4, 1}, {4, 3, 1}, {4, 4, 1},
	}
	rows := make([][]dataset.Value, len(points))
	for i, p := range points {
		rows[i] = []dataset.Value{
			dataset.NumericValue(p[0]),
			dataset.NumericValue(p[1]),
			dataset.NominalValue(int(p[2])),
		}
	}
	d, err := dataset.New(schema, rows)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return d
}

func stepData(t *testing.T) *dataset.Dataset {
	t.Helper()
	schema, err := dataset.NewSchema([]dataset.Attribute{
		{Name: "x", Kind: dataset.Numeric},
		{Name: "color", Kind: dataset.Nominal, Values: []string{"red", "green"}},
		{Name: "y", Kind: dataset.Numeric, Role: dataset.Target},
	}, false)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	var rows [][]dataset.Value
	for i := 0; i < 10; i++ {
		y := 0.0
		if i >= 5 {
			y = 10
		}
		rows = append(rows, []dataset.Value{
			dataset.NumericValue(float64(i)),
			dataset.NominalValue(i % 2),
			dataset.NumericValue(y),
		})
	}
	d, err := dataset.New(schema, rows)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return d
}

func TestInducer_Classification(t *testing.T) {
	d := classData(t)
	m, err := NewInducer(WithMaxDepth(5)).InduceSingleUnpruned(dataset.FullView(d), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("InduceSingleUnpruned: %v", err)
	}

	for _, tup := range d.Tuples {
		pred := m.Predict(tup)
		if pred.Kind != statistic.Classification {
			t.Fatalf("prediction kind = %v, want classification", pred.Kind)
		}
		if got, want := pred.Majority(0), tup.Values[2].Nom; got != want {
			t.Errorf("tuple %d: predicted class %d, want %d", tup.Index, got, want)
		}
	}

	probe := &dataset.Tuple{Values: []dataset.Value{
		dataset.NumericValue(3.5), dataset.NumericValue(3.5), dataset.MissingValue(),
	}}
	if got := m.Predict(probe).Majority(0); got != 1 {
		t.Errorf("probe (3.5, 3.5) predicted class %d, want 1", got)
	}
}

func TestInducer_Regression(t *testing.T) {
	d := stepData(t)
	m, err := NewInducer().InduceSingleUnpruned(dataset.FullView(d), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("InduceSingleUnpruned: %v", err)
	}
	tr := m.(*Tree)
	root := tr.Root()
	if root.IsLeaf() {
		t.Fatal("root should split")
	}
	if root.SplitAttribute() != 0 {
		t.Errorf("root splits on %d, want 0 (x)", root.SplitAttribute())
	}
	if tr.Depth() != 1 {
		t.Errorf("depth = %d, want 1", tr.Depth())
	}
	if got := root.(*Node).Threshold; got != 4.5 {
		t.Errorf("threshold = %v, want 4.5", got)
	}
	for _, tup := range d.Tuples {
		if got, want := m.Predict(tup).Values[0], tup.Values[2].Num; math.Abs(got-want) > 1e-9 {
			t.Errorf("tuple %d: predicted %v, want %v", tup.Index, got, want)
		}
	}
}

func TestInducer_VarianceDecomposition(t *testing.T) {
	d := stepData(t)
	m, err := NewInducer().InduceSingleUnpruned(dataset.FullView(d), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("InduceSingleUnpruned: %v", err)
	}
	root := m.(model.TreeModel).Root()
	// ten values, five 0s and five 10s: sum of squared deviations is 250
	if got := root.ClusteringVariance(); math.Abs(got-250) > 1e-9 {
		t.Errorf("root variance = %v, want 250", got)
	}
	for _, c := range root.Children() {
		if v := c.ClusteringVariance(); math.Abs(v) > 1e-9 {
			t.Errorf("child variance = %v, want 0", v)
		}
	}
}

func TestInducer_MaxDepth(t *testing.T) {
	d := classData(t)
	m, err := NewInducer(WithMaxDepth(1)).InduceSingleUnpruned(dataset.FullView(d), rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("InduceSingleUnpruned: %v", err)
	}
	if depth := m.(*Tree).Depth(); depth > 1 {
		t.Errorf("depth = %d, want <= 1", depth)
	}
}

func TestInducer_SameSeedSameTree(t *testing.T) {
	d := classData(t)
	view := dataset.View{Data: d, Rows: []int{0, 0, 1, 3, 4, 4, 6, 7}}

	tests := []struct {
		name string
		opts []Option
	}{
		{"attribute sampling", []Option{WithAttributeSampling(1)}},
		{"random splits", []Option{WithAttributeSampling(1), WithRandomSplits()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewInducer(tt.opts...)
			a, err := in.InduceSingleUnpruned(view, rand.New(rand.NewSource(42)))
			if err != nil {
				t.Fatalf("first induction: %v", err)
			}
			b, err := in.InduceSingleUnpruned(view, rand.New(rand.NewSource(42)))
			if err != nil {
				t.Fatalf("second induction: %v", err)
			}
			if !sameNode(a.(*Tree).root, b.(*Tree).root) {
				t.Error("trees induced from equal rng streams differ")
			}
		})
	}
}

func sameNode(a, b *Node) bool {
	if a.IsLeaf() != b.IsLeaf() {
		return false
	}
	if a.IsLeaf() {
		return a.Weight == b.Weight
	}
	return a.Attribute == b.Attribute && a.Threshold == b.Threshold &&
		a.Category == b.Category && sameNode(a.Left, b.Left) && sameNode(a.Right, b.Right)
}

func TestInducer_NominalSplit(t *testing.T) {
	schema, err := dataset.NewSchema([]dataset.Attribute{
		{Name: "shape", Kind: dataset.Nominal, Values: []string{"circle", "square", "star"}},
		{Name: "y", Kind: dataset.Numeric, Role: dataset.Target},
	}, false)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	var rows [][]dataset.Value
	for i := 0; i < 9; i++ {
		y := 1.0
		if i%3 == 2 {
			y = 5
		}
		rows = append(rows, []dataset.Value{dataset.NominalValue(i % 3), dataset.NumericValue(y)})
	}
	d, err := dataset.New(schema, rows)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	m, err := NewInducer().InduceSingleUnpruned(dataset.FullView(d), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("InduceSingleUnpruned: %v", err)
	}
	root := m.(*Tree).root
	if root.IsLeaf() || root.Kind != dataset.Nominal || root.Category != 2 {
		t.Fatalf("root = %+v, want nominal test on category 2", root)
	}
	star := &dataset.Tuple{Values: []dataset.Value{dataset.NominalValue(2), dataset.MissingValue()}}
	if got := m.Predict(star).Values[0]; got != 5 {
		t.Errorf("star predicted %v, want 5", got)
	}
}

func TestNode_MissingFollowsHeavierChild(t *testing.T) {
	left := NewLeaf(statistic.NewNumeric(statistic.Regression, []float64{1}), 0, 3)
	right := NewLeaf(statistic.NewNumeric(statistic.Regression, []float64{2}), 0, 7)
	root := &Node{Attribute: 0, Kind: dataset.Numeric, Threshold: 0.5, Left: left, Right: right, Weight: 10}
	tr := New(root)

	tup := &dataset.Tuple{Values: []dataset.Value{dataset.MissingValue()}}
	if got := tr.Predict(tup).Values[0]; got != 2 {
		t.Errorf("missing value predicted %v, want 2 (heavier child)", got)
	}
	tup = &dataset.Tuple{Values: []dataset.Value{dataset.NumericValue(0.5)}}
	if got := tr.Predict(tup).Values[0]; got != 1 {
		t.Errorf("value on threshold predicted %v, want 1", got)
	}
	if tr.NumNodes() != 3 {
		t.Errorf("NumNodes = %d, want 3", tr.NumNodes())
	}
}

func TestInducer_Errors(t *testing.T) {
	d := classData(t)

	_, err := NewInducer().InduceSingleUnpruned(dataset.View{Data: d}, rand.New(rand.NewSource(1)))
	if !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("empty view: got %v, want ErrEmptyData", err)
	}

	d.Schema.Attributes[1].Kind = dataset.Kind(42)
	_, err = NewInducer().InduceSingleUnpruned(dataset.FullView(d), rand.New(rand.NewSource(1)))
	var kindErr *errors.UnknownAttributeKindError
	if !errors.As(err, &kindErr) {
		t.Fatalf("unknown kind: got %v, want UnknownAttributeKindError", err)
	}
	if kindErr.Attribute != "x2" {
		t.Errorf("Attribute = %q, want x2", kindErr.Attribute)
	}
}
