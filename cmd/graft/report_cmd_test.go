package main

import (
	"testing"

	"github.com/graftml/graft"
	"github.com/graftml/graft/dataset"
	"github.com/graftml/graft/feature"
	"github.com/graftml/graft/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportFixture(t *testing.T) (*dataset.Dataset, *tree.Tree) {
	t.Helper()
	features := []*feature.Feature{
		feature.NewContinuous("height"),
		feature.NewContinuous("width"),
	}
	label := feature.NewDiscrete("size", []string{"small", "large"})
	ds, err := dataset.New(features, label,
		[][]float64{{1, 0}, {7, 1}, {7, 4}, {8, 1}},
		[]int{0, 1, 0, 1})
	require.NoError(t, err)
	surrogate := &tree.Tree{
		Feature:   []int{0, tree.Leaf, 1, tree.Leaf, tree.Leaf},
		Threshold: []float64{5, 0, 2.5, 0, 0},
		Left:      []int{1, tree.Leaf, 3, tree.Leaf, tree.Leaf},
		Right:     []int{2, tree.Leaf, 4, tree.Leaf, tree.Leaf},
		Value:     [][]float64{{6, 4}, {4, 0}, {2, 4}, {0, 3}, {2, 1}},
		Samples:   []int{10, 4, 6, 3, 3},
		Impurity:  []float64{0.48, 0, 4.0 / 9.0, 0, 4.0 / 9.0},
	}
	require.NoError(t, surrogate.Validate())
	return ds, surrogate
}

func TestBuildReport(t *testing.T) {
	ds, surrogate := reportFixture(t)
	analysis, err := graft.Walk(surrogate)
	require.NoError(t, err)
	ySurrogate, err := surrogate.PredictAll(ds.X())
	require.NoError(t, err)
	require.Equal(t, ds.Y(), ySurrogate)

	report := buildReport(analysis, ds, ds.Y(), ySurrogate, 10)

	assert.Equal(t, 1.0, report.Fidelity)
	assert.Equal(t, 1.0, report.Performance)
	assert.Equal(t, 1.0, report.Accuracy)
	assert.Equal(t, "TRUSTWORTHY", report.Verdict)
	assert.Equal(t, blackboxSummary{Samples: 4, Features: 2, Classes: 2}, report.Blackbox)
	assert.Equal(t, surrogateSummary{
		Nodes:               5,
		Leaves:              3,
		FeaturesUsed:        2,
		FeaturesUsedPct:     100,
		ClassesPredicted:    2,
		ClassesPredictedPct: 100,
	}, report.Surrogate)
	assert.Equal(t, 10, report.TotalSamples)

	require.Len(t, report.TopFeatures, 2)
	assert.Equal(t, reportFeature{Name: "height", Count: 1, Samples: 10}, report.TopFeatures[0])
	assert.Equal(t, reportFeature{Name: "width", Count: 1, Samples: 6}, report.TopFeatures[1])
	require.Len(t, report.TopSplits, 2)
	assert.Equal(t, "height", report.TopSplits[0].Feature)
	require.Len(t, report.TopBranches, 3)
	assert.Equal(t, "height <= 5", report.TopBranches[0].Rule)
	assert.Equal(t, "small", report.TopBranches[0].Class)
}

func TestBuildReportDisagreeingSurrogate(t *testing.T) {
	ds, surrogate := reportFixture(t)
	analysis, err := graft.Walk(surrogate)
	require.NoError(t, err)
	ySurrogate, err := surrogate.PredictAll(ds.X())
	require.NoError(t, err)

	// the oracle disputes the third row, so raw agreement and the
	// class-balanced fidelity diverge
	yOracle := []int{0, 1, 1, 1}
	report := buildReport(analysis, ds, yOracle, ySurrogate, 10)

	assert.Equal(t, 0.75, report.Accuracy)
	assert.InDelta(t, (2.0/3.0+4.0/5.0)/2, report.Fidelity, 1e-9)
	assert.InDelta(t, (2.0/3.0+4.0/5.0)/2, report.Performance, 1e-9)
	assert.Equal(t, "INCONCLUSIVE", report.Verdict)
}
