package ranking

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/core/statistic"
	"github.com/YuminosukeSato/forestrank/metrics"
	"github.com/YuminosukeSato/forestrank/tree"
)

func testSchema(t *testing.T) *dataset.Schema {
	t.Helper()
	schema, err := dataset.NewSchema([]dataset.Attribute{
		{Name: "A", Kind: dataset.Numeric},
		{Name: "B", Kind: dataset.Numeric},
		{Name: "y", Kind: dataset.Numeric, Role: dataset.Target},
	}, false)
	require.NoError(t, err)
	return schema
}

func leaf(v, variance float64) *tree.Node {
	return tree.NewLeaf(statistic.NewNumeric(statistic.Regression, []float64{v}), variance, 1)
}

func TestGenie3SingleSplit(t *testing.T) {
	rec := NewRecords(testSchema(t), 1)
	root := &tree.Node{Attribute: 0, Kind: dataset.Numeric, Left: leaf(0, 3), Right: leaf(1, 4), Variance: 10}

	Genie3(rec, tree.New(root))

	assert.Equal(t, 10.0-(3.0+4.0), rec.Score(0)[0])
	assert.Equal(t, 0.0, rec.Score(1)[0])
}

func TestGenie3TwoLevels(t *testing.T) {
	rec := NewRecords(testSchema(t), 1)
	inner := &tree.Node{Attribute: 0, Kind: dataset.Numeric, Left: leaf(0, 1), Right: leaf(1, 1), Variance: 3}
	root := &tree.Node{Attribute: 0, Kind: dataset.Numeric, Left: inner, Right: leaf(2, 4), Variance: 10}

	Genie3(rec, tree.New(root))

	assert.Equal(t, (10.0-3.0-4.0)+(3.0-1.0-1.0), rec.Score(0)[0])
}

func TestSymbolicDepthWeights(t *testing.T) {
	rec := NewRecords(testSchema(t), 2)
	deep := &tree.Node{Attribute: 0, Kind: dataset.Numeric, Left: leaf(0, 0), Right: leaf(1, 0)}
	mid := &tree.Node{Attribute: 1, Kind: dataset.Numeric, Left: deep, Right: leaf(2, 0)}
	root := &tree.Node{Attribute: 0, Kind: dataset.Numeric, Left: mid, Right: leaf(3, 0)}

	Symbolic(rec, tree.New(root), []float64{0.5, 1})

	// A at depth 0 and 2, B at depth 1
	assert.Equal(t, []float64{1 + 0.25, 2}, rec.Score(0))
	assert.Equal(t, []float64{0.5, 1}, rec.Score(1))
}

func TestSymbolicRootOnly(t *testing.T) {
	rec := NewRecords(testSchema(t), 1)
	root := &tree.Node{Attribute: 1, Kind: dataset.Numeric, Left: leaf(0, 0), Right: leaf(1, 0)}

	Symbolic(rec, tree.New(root), []float64{0.3})

	assert.Equal(t, 1.0, rec.Score(1)[0])
}

func TestPermutationRewardsUsedAttribute(t *testing.T) {
	schema := testSchema(t)
	var rows [][]dataset.Value
	for i := 0; i < 40; i++ {
		y := 0.0
		if i%2 == 1 {
			y = 10
		}
		rows = append(rows, []dataset.Value{
			dataset.NumericValue(y + float64(i%3)*0.1),
			dataset.NumericValue(float64(i)),
			dataset.NumericValue(y),
		})
	}
	data, err := dataset.New(schema, rows)
	require.NoError(t, err)

	// tree that tests A only: A <= 5 predicts 0, otherwise 10
	root := &tree.Node{Attribute: 0, Kind: dataset.Numeric, Threshold: 5, Left: leaf(0, 0), Right: leaf(10, 0), Variance: 1000}
	rec := NewRecords(schema, 2)

	err = Permutation(rec, tree.New(root), schema, data.Tuples,
		[]metrics.Measure{metrics.RMSEMeasure, metrics.MAEMeasure}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	// a perfect tree has zero error, so every channel is undefined and skipped
	assert.Equal(t, []float64{0, 0}, rec.Score(0))

	// an imperfect tree: flip one leaf so the error before permutation is > 0
	root.Right = leaf(9, 0)
	err = Permutation(rec, tree.New(root), schema, data.Tuples,
		[]metrics.Measure{metrics.RMSEMeasure, metrics.MAEMeasure}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	a := rec.Score(0)
	assert.Greater(t, a[0], 0.0, "RMSE channel")
	assert.Greater(t, a[1], 0.0, "MAE channel")
	assert.Equal(t, []float64{0, 0}, rec.Score(1), "B is never tested")
}

func TestPermutationEmptyOOB(t *testing.T) {
	schema := testSchema(t)
	rec := NewRecords(schema, 1)
	root := &tree.Node{Attribute: 0, Kind: dataset.Numeric, Left: leaf(0, 0), Right: leaf(1, 0)}
	require.NoError(t, Permutation(rec, tree.New(root), schema, nil, []metrics.Measure{metrics.RMSEMeasure}, rand.New(rand.NewSource(1))))
	assert.Equal(t, 0.0, rec.Score(0)[0])
}

func TestRecordsConcurrentAdd(t *testing.T) {
	rec := NewRecords(testSchema(t), 1)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				rec.Add(0, 0, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8000.0, rec.Score(0)[0])
}

func TestRecordsMerge(t *testing.T) {
	schema := testSchema(t)
	total := NewRecords(schema, 2)
	bag := NewRecords(schema, 2)
	bag.AddAll(0, []float64{1, 2})
	bag.Add(1, 1, 0.5)

	total.Merge(bag)
	total.Merge(bag)
	total.Merge(nil)
	total.Merge(total)

	assert.Equal(t, []float64{2, 4}, total.Score(0))
	assert.Equal(t, []float64{0, 1}, total.Score(1))
	assert.Equal(t, []float64{1, 2}, bag.Score(0))
}

func TestNewRankingTiesShareRank(t *testing.T) {
	entries := []Entry{
		{Attribute: "a", Scores: []float64{0.1}},
		{Attribute: "b", Scores: []float64{0.5}},
		{Attribute: "c", Scores: []float64{0.5}},
		{Attribute: "d", Scores: []float64{0.2}},
	}

	sorted := NewRanking("desc", entries, true)
	names := make([]string, len(sorted.Entries))
	for i, e := range sorted.Entries {
		names[i] = e.Attribute
	}
	assert.Equal(t, []string{"b", "c", "d", "a"}, names)
	assert.Equal(t, []int{1, 1, 3, 4}, sorted.Ranks)

	unsorted := NewRanking("desc", entries, false)
	assert.Equal(t, "a", unsorted.Entries[0].Attribute)
	assert.Equal(t, []int{4, 1, 1, 3}, unsorted.Ranks)
}

func TestWriteText(t *testing.T) {
	r := NewRanking(Genie3Description(), []Entry{
		{Attribute: "x", Scores: []float64{0.25}},
		{Attribute: "y", Scores: []float64{0.5}},
	}, true)

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Ranking via Random Forests: Genie3", lines[0])
	assert.Equal(t, strings.Repeat("-", len(lines[0])), lines[1])
	assert.Equal(t, "y\t0.5", lines[2])
	assert.Equal(t, "x\t0.25", lines[3])
}

func TestWriteTextMultiChannel(t *testing.T) {
	r := NewRanking(SymbolicDescription([]float64{0.5, 1}), []Entry{
		{Attribute: "x", Scores: []float64{1.5, 3}},
	}, true)

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	assert.Contains(t, buf.String(), "Symbolic with weights [0.5 1]")
	assert.Contains(t, buf.String(), "x\t[1.5, 3]\n")
}

func TestWriteJSON(t *testing.T) {
	r := NewRanking("d", []Entry{
		{Attribute: "x", Scores: []float64{0.25}},
		{Attribute: "y", Scores: []float64{0.5}},
	}, true)

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "y", got[0]["attributeName"])
	assert.Equal(t, 1.0, got[0]["ordering"])
	assert.Equal(t, 0.5, got[0]["importance"])
	assert.Equal(t, 2.0, got[1]["ordering"])
}

func TestDescriptions(t *testing.T) {
	assert.Equal(t, "Ranking via Relief: 3 neighbours and 10 iterations", ReliefDescription(3, 10))
	assert.Equal(t, "Ranking via Random Forests: RForest for error measure(s) Accuracy, MAE",
		PermutationDescription([]string{"Accuracy", "MAE"}))
}
