package rebalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposeFollowsSpeed(t *testing.T) {
	p, err := Propose([]float64{4, 1}, []int32{5, 5}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 8}, p.Sizes)
	assert.InDelta(t, 0.6, p.Imbalance, 1e-12)
}

func TestProposeRejectsEmptySlab(t *testing.T) {
	_, err := Propose([]float64{1000, 1}, []int32{5, 5}, 1, 0)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestProposeRejectsMissingSample(t *testing.T) {
	_, err := Propose([]float64{0, 1}, []int32{5, 5}, 1, 0)
	assert.ErrorIs(t, err, ErrRejected)
	_, err = Propose([]float64{1}, []int32{5, 5}, 1, 0)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestProposeLiftsToHalo(t *testing.T) {
	p, err := Propose([]float64{4, 1, 1}, []int32{3, 3, 3}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 3, 4}, p.Sizes)

	_, err = Propose([]float64{4, 1, 1}, []int32{3, 3, 3}, 4, 0)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestProposeKeepsBoundariesAdjacent(t *testing.T) {
	// unclamped the split would be 4, 4, 2 and slab 0 would take cells of slab 2
	p, err := Propose([]float64{1, 1, 6}, []int32{2, 2, 6}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 5, 2}, p.Sizes)
}

func TestProposeUnchanged(t *testing.T) {
	p, err := Propose([]float64{2, 2}, []int32{5, 5}, 1, 0)
	assert.ErrorIs(t, err, ErrUnchanged)
	assert.Equal(t, []int32{5, 5}, p.Sizes)
}

func TestProposeThreshold(t *testing.T) {
	_, err := Propose([]float64{1.05, 1}, []int32{5, 5}, 1, 0.1)
	assert.ErrorIs(t, err, ErrRejected)
	_, err = Propose([]float64{4, 1}, []int32{5, 5}, 1, 0.1)
	assert.NoError(t, err)
}

func TestProposeConservesCells(t *testing.T) {
	cases := [][]float64{{1, 2, 3, 4}, {0.3, 0.3, 0.1, 0.9}, {7, 1, 1, 7}}
	for _, times := range cases {
		sizes := []int32{10, 10, 10, 10}
		p, err := Propose(times, sizes, 2, 0)
		require.NoError(t, err)
		var sum int32
		for _, s := range p.Sizes {
			assert.GreaterOrEqual(t, s, int32(2))
			sum += s
		}
		assert.Equal(t, int32(40), sum)
	}
}
