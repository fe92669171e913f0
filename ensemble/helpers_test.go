package ensemble

import (
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/core/statistic"
	"github.com/YuminosukeSato/forestrank/pkg/log"
	"github.com/YuminosukeSato/forestrank/pkg/telemetry"
)

// classDataset: class is "pos" iff x > 0.5; z and w are noise.
func classDataset(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	schema, err := dataset.NewSchema([]dataset.Attribute{
		{Name: "x", Kind: dataset.Numeric},
		{Name: "z", Kind: dataset.Numeric},
		{Name: "w", Kind: dataset.Nominal, Values: []string{"a", "b", "c"}},
		{Name: "class", Kind: dataset.Nominal, Role: dataset.Target, Values: []string{"neg", "pos"}},
	}, false)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(11))
	rows := make([][]dataset.Value, n)
	for i := range rows {
		x := rng.Float64()
		class := 0
		if x > 0.5 {
			class = 1
		}
		rows[i] = []dataset.Value{
			dataset.NumericValue(x),
			dataset.NumericValue(rng.Float64()),
			dataset.NominalValue(rng.Intn(3)),
			dataset.NominalValue(class),
		}
	}
	d, err := dataset.New(schema, rows)
	require.NoError(t, err)
	return d
}

// regressionDataset: y = 3x + noise; z is noise.
func regressionDataset(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	schema, err := dataset.NewSchema([]dataset.Attribute{
		{Name: "x", Kind: dataset.Numeric},
		{Name: "z", Kind: dataset.Numeric},
		{Name: "y", Kind: dataset.Numeric, Role: dataset.Target},
	}, false)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(5))
	rows := make([][]dataset.Value, n)
	for i := range rows {
		x := rng.Float64()
		rows[i] = []dataset.Value{
			dataset.NumericValue(x),
			dataset.NumericValue(rng.Float64()),
			dataset.NumericValue(3*x + 0.01*rng.NormFloat64()),
		}
	}
	d, err := dataset.New(schema, rows)
	require.NoError(t, err)
	return d
}

// constModel predicts the same statistic for every tuple.
type constModel struct {
	pred statistic.Prediction
}

func (m constModel) Predict(*dataset.Tuple) statistic.Prediction { return m.pred.Clone() }

func classPred(dist ...float64) statistic.Prediction {
	return statistic.NewClassification([][]float64{dist})
}

func numPred(values ...float64) statistic.Prediction {
	return statistic.NewNumeric(statistic.Regression, values)
}

func testCoordinatorOptions(t *testing.T) (*telemetry.Metrics, *log.TestLogger, []CoordinatorOption) {
	t.Helper()
	m := telemetry.NewWithRegistry(prometheus.NewRegistry())
	logger, _ := log.NewTestLogger(log.LevelDebug)
	return m, logger, []CoordinatorOption{WithMetrics(m), WithLogger(logger)}
}
