package graft_test

import (
	"testing"

	"github.com/graftml/graft"
	"github.com/graftml/graft/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPruneKeepsStrongestBranch(t *testing.T) {
	fixture := testTree(t)
	pruned, err := graft.Prune(fixture, 1, nil)
	require.NoError(t, err)
	require.NoError(t, pruned.Validate())

	// the 4-sample branch survives, the right subtree collapses
	// into a single leaf aggregating its 6 samples
	assert.Equal(t, 3, pruned.NodeCount())
	assert.Equal(t, 2, pruned.LeafCount())
	assert.True(t, pruned.IsLeaf(2))
	assert.Equal(t, []float64{2, 4}, pruned.Value[2])
	assert.Equal(t, 6, pruned.Samples[2])

	class, err := pruned.Predict([]float64{2, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, class)
	class, err = pruned.Predict([]float64{7, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, class, "collapsed leaf predicts the subtree majority")

	// the input tree is untouched
	assert.Equal(t, 5, fixture.NodeCount())
	assert.False(t, fixture.IsLeaf(2))
}

func TestPrunePartialPathSharing(t *testing.T) {
	pruned, err := graft.Prune(testTree(t), 2, nil)
	require.NoError(t, err)
	require.NoError(t, pruned.Validate())

	// top-2 branches are the 4-sample leaf and the first 3-sample
	// leaf; their paths share the root, so node 4 alone collapses
	// and the leaf count stays 3
	assert.Equal(t, 5, pruned.NodeCount())
	assert.Equal(t, 3, pruned.LeafCount())

	class, err := pruned.Predict([]float64{7, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, class)
	class, err = pruned.Predict([]float64{7, 4})
	require.NoError(t, err)
	assert.Equal(t, 0, class)
}

func TestPruneTieBreaksByLowestLeafNode(t *testing.T) {
	fixture := unorderedTree(t)
	pruned, err := graft.Prune(fixture, 1, nil)
	require.NoError(t, err)
	require.NoError(t, pruned.Validate())

	// the 5-sample leaves at nodes 5 and 2 tie; the branch through
	// the lowest leaf id wins, so the root's right subtree is kept
	// and the left one collapses even though the walk visits it
	// first
	assert.Equal(t, 5, pruned.NodeCount())
	assert.True(t, pruned.IsLeaf(1))
	assert.Equal(t, []float64{5, 2}, pruned.Value[1])
	assert.False(t, pruned.IsLeaf(2))

	class, err := pruned.Predict([]float64{1, 5})
	require.NoError(t, err)
	assert.Equal(t, 1, class)
	class, err = pruned.Predict([]float64{0, 5})
	require.NoError(t, err)
	assert.Equal(t, 0, class)
}

func TestPruneNoOpWhenKeepingEveryBranch(t *testing.T) {
	fixture := testTree(t)
	for _, topK := range []int{3, 4, 100} {
		pruned, err := graft.Prune(fixture, topK, nil)
		require.NoError(t, err)
		assert.Same(t, fixture, pruned)
	}
}

func TestPruneValidatesTopK(t *testing.T) {
	for _, topK := range []int{0, -1} {
		_, err := graft.Prune(testTree(t), topK, nil)
		assert.IsType(t, graft.ConfigError(""), err)
	}
}

func TestPruneCustomRanking(t *testing.T) {
	// rank by leaf purity instead of samples: the pure 3-sample
	// leaf (node 3) outranks the 4-sample leaf only when purity
	// times samples says so; here probability alone keeps leaves
	// 1 and 3 and collapses node 4
	byProb := func(b graft.Branch) float64 { return b.Prob }
	pruned, err := graft.Prune(testTree(t), 2, byProb)
	require.NoError(t, err)
	require.NoError(t, pruned.Validate())
	assert.Equal(t, 5, pruned.NodeCount())
	assert.Equal(t, 3, pruned.LeafCount())
}

func TestPruneRejectsMalformedTree(t *testing.T) {
	malformed := testTree(t)
	malformed.Samples[0] = 3
	_, err := graft.Prune(malformed, 1, nil)
	var serr tree.StructureError
	assert.ErrorAs(t, err, &serr)
}
