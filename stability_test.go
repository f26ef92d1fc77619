package graft_test

import (
	"context"
	"testing"

	"github.com/graftml/graft"
	"github.com/graftml/graft/dataset"
	"github.com/graftml/graft/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
redundantDataset builds a 2-class dataset whose four features are
identical copies of the label signal, so every ablation round finds
the next feature just as informative as the removed one.
*/
func redundantDataset(t *testing.T, rows int) *dataset.Dataset {
	t.Helper()
	features := []*feature.Feature{
		feature.NewContinuous("alpha"),
		feature.NewContinuous("beta"),
		feature.NewContinuous("gamma"),
		feature.NewContinuous("delta"),
	}
	label := feature.NewDiscrete("churned", []string{"no", "yes"})
	var x [][]float64
	var y []int
	for i := 0; i < rows; i++ {
		class := i % 2
		signal := float64(class)
		x = append(x, []float64{signal, signal, signal, signal})
		y = append(y, class)
	}
	ds, err := dataset.New(features, label, x, y)
	require.NoError(t, err)
	return ds
}

func ablationConfig() graft.Config {
	return graft.Config{
		NumIterations:  2,
		SampleFraction: 1,
		Seed:           11,
	}
}

func TestAnalyzerRemovesFeaturesUntilNoneRemain(t *testing.T) {
	train := redundantDataset(t, 60)
	test := redundantDataset(t, 20)
	analyzer := &graft.Analyzer{Engine: &graft.Engine{}}

	records, err := analyzer.Run(context.Background(), train, test, graft.LabelOracle{}, 10, ablationConfig())
	require.NoError(t, err)
	require.Len(t, records, 4, "one round per feature, then no features remain")

	removed := make([]string, len(records))
	for i, r := range records {
		removed[i] = r.FeatureRemoved
		assert.Equal(t, i, r.Iteration)
		assert.Equal(t, i+1, r.FeaturesRemoved)
		assert.InDelta(t, 1.0, r.Performance, 1e-9)
		assert.InDelta(t, 1.0, r.Fidelity, 1e-9)
		require.NotNil(t, r.Best.Tree)
		assert.NoError(t, r.Best.Tree.Validate())
	}
	// the surrogate picks the lowest-indexed informative feature
	// each round, so ablation removes them in column order
	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta"}, removed)
}

func TestAnalyzerHonorsRoundCap(t *testing.T) {
	train := redundantDataset(t, 60)
	test := redundantDataset(t, 20)
	analyzer := &graft.Analyzer{Engine: &graft.Engine{}}

	records, err := analyzer.Run(context.Background(), train, test, graft.LabelOracle{}, 2, ablationConfig())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestAnalyzerValidatesInput(t *testing.T) {
	ds := redundantDataset(t, 10)
	analyzer := &graft.Analyzer{Engine: &graft.Engine{}}
	ctx := context.Background()

	_, err := analyzer.Run(ctx, ds, ds, graft.LabelOracle{}, 0, ablationConfig())
	assert.IsType(t, graft.ConfigError(""), err)

	_, err = analyzer.Run(ctx, nil, ds, graft.LabelOracle{}, 1, ablationConfig())
	assert.IsType(t, graft.ConfigError(""), err)

	_, err = analyzer.Run(ctx, ds, ds, graft.LabelOracle{}, 1, graft.Config{NumIterations: 0, SampleFraction: 1})
	assert.IsType(t, graft.ConfigError(""), err)
}
