package learner_test

import (
	"context"
	"testing"

	"github.com/graftml/graft/learner"
	"github.com/graftml/graft/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	separableX = [][]float64{
		{0, 9}, {1, 8}, {2, 7}, {3, 6},
		{10, 5}, {11, 4}, {12, 3}, {13, 2},
	}
	separableY = []int{0, 0, 0, 0, 1, 1, 1, 1}
)

func TestCARTFitsSeparableData(t *testing.T) {
	fitted, err := learner.NewCART().Fit(context.Background(), separableX, separableY, 2, learner.Constraints{})
	require.NoError(t, err)
	require.NoError(t, fitted.Validate())

	assert.Equal(t, 3, fitted.NodeCount(), "one split separates the classes")
	assert.Equal(t, 0, fitted.Feature[0])
	assert.Equal(t, 6.5, fitted.Threshold[0], "threshold lies at the midpoint of the gap")
	pred, err := fitted.PredictAll(separableX)
	require.NoError(t, err)
	assert.Equal(t, separableY, pred)
	assert.Equal(t, 0.0, fitted.Impurity[1])
	assert.Equal(t, 0.0, fitted.Impurity[2])
}

func TestCARTIsDeterministic(t *testing.T) {
	x := [][]float64{
		{1, 1}, {2, 2}, {3, 1}, {4, 2}, {5, 1}, {6, 2},
	}
	y := []int{0, 1, 0, 1, 1, 0}
	first, err := learner.NewCART().Fit(context.Background(), x, y, 2, learner.Constraints{})
	require.NoError(t, err)
	second, err := learner.NewCART().Fit(context.Background(), x, y, 2, learner.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCARTHonorsConstraints(t *testing.T) {
	stump, err := learner.NewCART().Fit(context.Background(), separableX, separableY, 2, learner.Constraints{MaxLeafNodes: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, stump.NodeCount())
	assert.True(t, stump.IsLeaf(0))

	x := [][]float64{{0}, {1}, {2}, {3}}
	y := []int{0, 1, 0, 1}
	shallow, err := learner.NewCART().Fit(context.Background(), x, y, 2, learner.Constraints{MaxDepth: 1})
	require.NoError(t, err)
	require.NoError(t, shallow.Validate())
	assert.LessOrEqual(t, shallow.NodeCount(), 3)
	for i := 0; i < shallow.NodeCount(); i++ {
		if !shallow.IsLeaf(i) {
			assert.True(t, shallow.IsLeaf(shallow.Left[i]))
			assert.True(t, shallow.IsLeaf(shallow.Right[i]))
		}
	}

	chunky, err := learner.NewCART().Fit(context.Background(), x, y, 2, learner.Constraints{MinSamplesLeaf: 2})
	require.NoError(t, err)
	for i := 0; i < chunky.NodeCount(); i++ {
		if chunky.IsLeaf(i) {
			assert.GreaterOrEqual(t, chunky.Samples[i], 2)
		}
	}
}

func TestCARTPureNodeStaysLeaf(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	y := []int{1, 1, 1}
	fitted, err := learner.NewCART().Fit(context.Background(), x, y, 2, learner.Constraints{})
	require.NoError(t, err)
	assert.Equal(t, 1, fitted.NodeCount())
	assert.True(t, fitted.IsLeaf(0))
	assert.Equal(t, tree.Leaf, fitted.Feature[0])
	class, err := fitted.Predict([]float64{100})
	require.NoError(t, err)
	assert.Equal(t, 1, class)
}

func TestCARTValidatesInput(t *testing.T) {
	ctx := context.Background()
	cart := learner.NewCART()

	_, err := cart.Fit(ctx, nil, nil, 2, learner.Constraints{})
	assert.Error(t, err, "no samples")

	_, err = cart.Fit(ctx, [][]float64{{1}}, []int{0, 1}, 2, learner.Constraints{})
	assert.Error(t, err, "rows and labels disagree")

	_, err = cart.Fit(ctx, [][]float64{{1}, {1, 2}}, []int{0, 1}, 2, learner.Constraints{})
	assert.Error(t, err, "ragged matrix")

	_, err = cart.Fit(ctx, [][]float64{{1}}, []int{2}, 2, learner.Constraints{})
	assert.Error(t, err, "label out of range")

	_, err = cart.Fit(ctx, [][]float64{{1}}, []int{0}, 0, learner.Constraints{})
	assert.Error(t, err, "invalid class count")
}

func TestCARTStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := learner.NewCART().Fit(ctx, separableX, separableY, 2, learner.Constraints{})
	assert.ErrorIs(t, err, context.Canceled)
}
