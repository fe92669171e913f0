package statistic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollapse(t *testing.T) {
	p := NewClassification([][]float64{{1, 3}, {2, 2, 0}})

	majority := p.Collapse(MajorityVote)
	assert.Equal(t, [][]float64{{0, 1}, {1, 0, 0}}, majority.Distributions)

	prob := p.Collapse(ProbabilityVote)
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, prob.Distributions[0], 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0}, prob.Distributions[1], 1e-12)

	// the input is untouched
	assert.Equal(t, []float64{1, 3}, p.Distributions[0])

	num := NewNumeric(Regression, []float64{1.5})
	assert.Equal(t, num, num.Collapse(MajorityVote))
}

func TestVote(t *testing.T) {
	tests := []struct {
		name  string
		preds []Prediction
		mode  VotingMode
		want  Prediction
	}{
		{
			name: "majority",
			preds: []Prediction{
				NewClassification([][]float64{{0.6, 0.4}}),
				NewClassification([][]float64{{0.1, 0.9}}),
				NewClassification([][]float64{{0.2, 0.8}}),
				NewClassification([][]float64{{0.7, 0.3}}),
			},
			mode: MajorityVote,
			want: NewClassification([][]float64{{0.5, 0.5}}),
		},
		{
			name: "regression mean",
			preds: []Prediction{
				NewNumeric(Regression, []float64{1, 10}),
				NewNumeric(Regression, []float64{3, 20}),
			},
			want: NewNumeric(Regression, []float64{2, 15}),
		},
		{
			name: "hierarchical mean",
			preds: []Prediction{
				NewNumeric(Hierarchical, []float64{1, 0}),
				NewNumeric(Hierarchical, []float64{0, 0}),
			},
			want: NewNumeric(Hierarchical, []float64{0.5, 0}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Vote(tt.preds, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVoteErrors(t *testing.T) {
	_, err := Vote(nil, MajorityVote)
	assert.Error(t, err)

	_, err = Vote([]Prediction{
		NewNumeric(Regression, []float64{1}),
		NewNumeric(Regression, []float64{1, 2}),
	}, MajorityVote)
	assert.Error(t, err)

	_, err = Vote([]Prediction{
		NewNumeric(Regression, []float64{1}),
		NewClassification([][]float64{{1}}),
	}, MajorityVote)
	assert.Error(t, err)
}

func TestMajorityTiesGoToLowestClass(t *testing.T) {
	p := NewClassification([][]float64{{0.4, 0.4, 0.2}, {}})
	assert.Equal(t, 0, p.Majority(0))
	assert.Equal(t, -1, p.Majority(1))
}

func TestRoundAndScale(t *testing.T) {
	p := NewNumeric(Regression, []float64{1.234567, -0.00004})
	r := p.Round(4)
	assert.Equal(t, []float64{1.2346, -0}, r.Values)
	assert.Equal(t, 1.234567, p.Values[0])

	p.Scale(2)
	assert.InDeltaSlice(t, []float64{2.469134, -0.00008}, p.Values, 1e-12)

	z := NewClassification([][]float64{{3, 1}}).Zero()
	assert.Equal(t, [][]float64{{0, 0}}, z.Distributions)
}
