package relief

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

func TestNeighbourSetBoundedAndSorted(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, k := range []int{1, 3, 7} {
		s := NewNeighbourSet(k)
		for i := 0; i < 200; i++ {
			s.Insert(i, math.Floor(rng.Float64()*20))
			require.LessOrEqual(t, s.Len(), k)
			items := s.Items()
			for j := 1; j < len(items); j++ {
				require.GreaterOrEqual(t, items[j-1].Distance, items[j].Distance, "k=%d after insert %d", k, i)
			}
		}
	}
}

func TestNeighbourSetKeepsNearest(t *testing.T) {
	s := NewNeighbourSet(3)
	for i, d := range []float64{5, 1, 4, 3, 2, 3} {
		s.Insert(i, d)
	}
	var got []float64
	for _, n := range s.Items() {
		got = append(got, n.Distance)
	}
	assert.Equal(t, []float64{2, 1}, got[1:])
	assert.Equal(t, 3.0, got[0])
	assert.Equal(t, 3, s.Items()[0].Index, "equal distance does not displace the farthest member")

	assert.False(t, s.Insert(9, 3), "not strictly closer")
	assert.True(t, s.Insert(9, 0.5))
	assert.Equal(t, 9, s.Items()[2].Index)
}

func TestNominalDistance(t *testing.T) {
	tests := []struct {
		name   string
		v1, v2 dataset.Value
		want   float64
	}{
		{"equal", dataset.NominalValue(1), dataset.NominalValue(1), 0},
		{"different", dataset.NominalValue(0), dataset.NominalValue(2), 1},
		{"left missing", dataset.NominalValue(-1), dataset.NominalValue(2), 1 - 1.0/4},
		{"right missing", dataset.NominalValue(3), dataset.MissingValue(), 1 - 1.0/4},
		{"both missing", dataset.MissingValue(), dataset.MissingValue(), 1 - 1.0/4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nominalDistance(4, tt.v1, tt.v2))
		})
	}
}

func numericData(t *testing.T, values ...float64) *dataset.Dataset {
	t.Helper()
	schema, err := dataset.NewSchema([]dataset.Attribute{
		{Name: "x", Kind: dataset.Numeric},
		{Name: "y", Kind: dataset.Numeric, Role: dataset.Target},
	}, false)
	require.NoError(t, err)
	rows := make([][]dataset.Value, len(values))
	for i, v := range values {
		rows[i] = []dataset.Value{dataset.NumericValue(v), dataset.NumericValue(0)}
	}
	d, err := dataset.New(schema, rows)
	require.NoError(t, err)
	return d
}

func TestNumericDistance(t *testing.T) {
	d := numericData(t, 2, 6, math.NaN(), 10)
	dist := NewDistance(d)

	lo, hi := dist.Range(0)
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 10.0, hi)

	tup := func(i int) *dataset.Tuple { return d.Tuple(i) }
	got, err := dist.Attr(0, tup(0), tup(1))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-12)

	// one side missing: t = (6-2)/8 = 0.5, max(t, 1-t)
	got, err = dist.Attr(0, tup(2), tup(1))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-12)

	got, err = dist.Attr(0, tup(3), tup(2))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)

	got, err = dist.Attr(0, tup(2), tup(2))
	require.NoError(t, err)
	assert.Equal(t, bothMissing, got)
}

func TestNumericDistanceConstantAttribute(t *testing.T) {
	d := numericData(t, 3, 3, 3)
	got, err := NewDistance(d).Attr(0, d.Tuple(0), d.Tuple(1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestSeriesDistances(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	b := []float64{1, 2, 3, 4}
	rev := []float64{4, 3, 2, 1}

	assert.Equal(t, 0.0, dtw(a, b))
	assert.Equal(t, 0.0, dtw([]float64{1, 1, 2}, []float64{1, 2}), "warping absorbs the repeat")

	q, err := qdm(a, rev)
	require.NoError(t, err)
	assert.Equal(t, 1.0, q)

	c, err := tsc(a, rev)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c, 1e-12)
	c, err = tsc(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, c, 1e-12)

	_, err = qdm(a, []float64{1, 2})
	var lenErr *errors.SeriesLengthError
	require.True(t, errors.As(err, &lenErr))
	assert.Equal(t, "QDM", lenErr.Measure)
	assert.Equal(t, 4, lenErr.Left)
	assert.Equal(t, 2, lenErr.Right)

	_, err = seriesDistance(dataset.TSC, a, []float64{1})
	assert.True(t, errors.As(err, &lenErr))
}

func TestStringDistanceIsEditDistance(t *testing.T) {
	schema, err := dataset.NewSchema([]dataset.Attribute{
		{Name: "name", Kind: dataset.String},
		{Name: "y", Kind: dataset.Numeric, Role: dataset.Target},
	}, false)
	require.NoError(t, err)
	words := []string{"kitten", "sitting", "", "abcd", "añb", "ab"}
	rows := make([][]dataset.Value, len(words))
	for i, w := range words {
		rows[i] = []dataset.Value{dataset.StringValue(w), dataset.NumericValue(float64(i))}
	}
	d, err := dataset.New(schema, rows)
	require.NoError(t, err)
	dist := NewDistance(d)

	tests := []struct {
		a, b int
		want float64
	}{
		{0, 1, 3},
		{2, 2, 0},
		{2, 3, 4},
		{4, 5, 1},
	}
	for _, tt := range tests {
		got, err := dist.Attr(0, d.Tuple(tt.a), d.Tuple(tt.b))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%q vs %q", words[tt.a], words[tt.b])
	}
}

func TestEmptySeriesCountsAsMissing(t *testing.T) {
	schema, err := dataset.NewSchema([]dataset.Attribute{
		{Name: "ecg", Kind: dataset.TimeSeries, Measure: dataset.DTW},
		{Name: "y", Kind: dataset.Numeric, Role: dataset.Target},
	}, false)
	require.NoError(t, err)
	d, err := dataset.New(schema, [][]dataset.Value{
		{dataset.SeriesValue([]float64{}), dataset.NumericValue(0)},
		{dataset.SeriesValue([]float64{1, 2, 3}), dataset.NumericValue(1)},
		{dataset.SeriesValue([]float64{}), dataset.NumericValue(2)},
	})
	require.NoError(t, err)
	dist := NewDistance(d)

	got, err := dist.Attr(0, d.Tuple(0), d.Tuple(1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
	got, err = dist.Attr(0, d.Tuple(0), d.Tuple(2))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	assert.Equal(t, 1.0, dtw(nil, []float64{4}))
	assert.False(t, math.IsInf(dtw([]float64{}, []float64{1, 2}), 0))
}

// classDataset has 10 tuples with a balanced binary class decided by x;
// z is noise.
func classDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	schema, err := dataset.NewSchema([]dataset.Attribute{
		{Name: "x", Kind: dataset.Numeric},
		{Name: "z", Kind: dataset.Numeric},
		{Name: "class", Kind: dataset.Nominal, Role: dataset.Target, Values: []string{"neg", "pos"}},
	}, false)
	require.NoError(t, err)
	noise := []float64{3, 9, 1, 7, 5, 0, 8, 2, 6, 4}
	rows := make([][]dataset.Value, 10)
	for i := range rows {
		class := 0
		if i >= 5 {
			class = 1
		}
		rows[i] = []dataset.Value{
			dataset.NumericValue(float64(i)),
			dataset.NumericValue(noise[i]),
			dataset.NominalValue(class),
		}
	}
	d, err := dataset.New(schema, rows)
	require.NoError(t, err)
	return d
}

func TestReliefDeterministicRunsAreIdentical(t *testing.T) {
	d := classDataset(t)

	first, err := New(3, 10).Rank(d)
	require.NoError(t, err)
	second, err := New(3, 10).Rank(d)
	require.NoError(t, err)

	assert.Equal(t, first.Entries(1), second.Entries(1))
}

func TestReliefClassificationPrefersRelevantAttribute(t *testing.T) {
	d := classDataset(t)
	rec, err := New(3, 10).Rank(d)
	require.NoError(t, err)

	x, z := rec.Score(0)[0], rec.Score(1)[0]
	assert.Greater(t, x, 0.0)
	assert.Greater(t, x, z)
}

func TestReliefSampledIterations(t *testing.T) {
	d := classDataset(t)
	a, err := New(3, 25).Rank(d)
	require.NoError(t, err)
	b, err := New(3, 25).Rank(d)
	require.NoError(t, err)
	assert.Equal(t, a.Entries(1), b.Entries(1), "fixed sampler seed")
}

func TestReliefSkipsMissingClass(t *testing.T) {
	d := classDataset(t)
	d.Tuples[0].Values[2] = dataset.MissingValue()
	rec, err := New(2, 10).Rank(d)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(rec.Score(0)[0]))
}

func TestReliefRegression(t *testing.T) {
	schema, err := dataset.NewSchema([]dataset.Attribute{
		{Name: "x", Kind: dataset.Numeric},
		{Name: "z", Kind: dataset.Numeric},
		{Name: "y", Kind: dataset.Numeric, Role: dataset.Target},
	}, false)
	require.NoError(t, err)
	rows := make([][]dataset.Value, 20)
	for i := range rows {
		rows[i] = []dataset.Value{
			dataset.NumericValue(float64(i)),
			dataset.NumericValue(float64((i * 7) % 20)),
			dataset.NumericValue(2 * float64(i)),
		}
	}
	d, err := dataset.New(schema, rows)
	require.NoError(t, err)

	rec, err := New(4, 20).Rank(d)
	require.NoError(t, err)
	x, z := rec.Score(0)[0], rec.Score(1)[0]
	assert.False(t, math.IsNaN(x))
	assert.Greater(t, x, z)
}

func TestReliefConstantTargetRegression(t *testing.T) {
	// every target distance is 0, so the first term has a zero denominator
	d := numericData(t, 1, 2, 3, 4)
	rec, err := New(2, 4).Rank(d)
	require.NoError(t, err)
	score := rec.Score(0)[0]
	assert.False(t, math.IsNaN(score))
	assert.False(t, math.IsInf(score, 0))
}

func TestReliefTimeSeriesLengthMismatch(t *testing.T) {
	schema, err := dataset.NewSchema([]dataset.Attribute{
		{Name: "s", Kind: dataset.TimeSeries, Measure: dataset.QDM},
		{Name: "y", Kind: dataset.Numeric, Role: dataset.Target},
	}, false)
	require.NoError(t, err)
	d, err := dataset.New(schema, [][]dataset.Value{
		{dataset.SeriesValue([]float64{1, 2, 3}), dataset.NumericValue(1)},
		{dataset.SeriesValue([]float64{1, 2}), dataset.NumericValue(2)},
	})
	require.NoError(t, err)

	_, err = New(1, 2).Rank(d)
	var lenErr *errors.SeriesLengthError
	assert.True(t, errors.As(err, &lenErr))
}

func TestReliefUnknownAttributeKind(t *testing.T) {
	d := classDataset(t)
	d.Schema.Attributes[1].Kind = dataset.Kind(17)

	_, err := New(3, 10).Rank(d)
	var kindErr *errors.UnknownAttributeKindError
	require.True(t, errors.As(err, &kindErr))
	assert.Equal(t, "z", kindErr.Attribute)
}

func TestReliefValidation(t *testing.T) {
	d := classDataset(t)
	_, err := New(0, 10).Rank(d)
	assert.Error(t, err)
	_, err = New(3, 0).Rank(d)
	assert.Error(t, err)
}

func TestDescription(t *testing.T) {
	assert.Equal(t, "Ranking via Relief: 3 neighbours and 10 iterations", New(3, 10).Description())
}
