package graft_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/graftml/graft"
	"github.com/graftml/graft/dataset"
	"github.com/graftml/graft/feature"
	"github.com/graftml/graft/learner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
irisLikeDataset builds a 150-row, 3-class dataset whose classes are
separable on the first feature, so a CART surrogate can imitate a
perfect oracle exactly.
*/
func irisLikeDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	features := []*feature.Feature{
		feature.NewContinuous("petal length"),
		feature.NewContinuous("petal width"),
	}
	label := feature.NewDiscrete("species", []string{"setosa", "versicolor", "virginica"})
	var x [][]float64
	var y []int
	for i := 0; i < 150; i++ {
		class := i % 3
		x = append(x, []float64{
			float64(class) + float64(i%50)/100.0,
			float64(i%7) / 10.0,
		})
		y = append(y, class)
	}
	ds, err := dataset.New(features, label, x, y)
	require.NoError(t, err)
	return ds
}

func TestEngineFitExtractsFaithfulSurrogate(t *testing.T) {
	ds := irisLikeDataset(t)
	engine := &graft.Engine{}
	history, err := engine.Fit(context.Background(), ds, graft.LabelOracle{}, graft.Config{
		NumIterations:  5,
		SampleFraction: 0.8,
		Seed:           7,
	})
	require.NoError(t, err)
	require.Len(t, history, 5)
	for i, r := range history {
		assert.Equal(t, i, r.Iteration)
		require.NotNil(t, r.Tree)
		assert.NoError(t, r.Tree.Validate())
		assert.InDelta(t, 1.0, r.Reward, 1e-9, "classes are separable, surrogate should be exact")
	}
	best, err := graft.Explain(history)
	require.NoError(t, err)
	assert.Equal(t, 0, best.Iteration, "equal rewards must resolve to the earliest iteration")
}

func TestEngineFitIsDeterministic(t *testing.T) {
	ds := irisLikeDataset(t)
	cfg := graft.Config{
		NumIterations:  6,
		SampleFraction: 0.5,
		Constraints:    learner.Constraints{MaxDepth: 3},
		Seed:           42,
	}
	first, err := (&graft.Engine{}).Fit(context.Background(), ds, graft.LabelOracle{}, cfg)
	require.NoError(t, err)
	second, err := (&graft.Engine{}).Fit(context.Background(), ds, graft.LabelOracle{}, cfg)
	require.NoError(t, err)
	require.Equal(t, first, second)

	cfg.Workers = 4
	parallel, err := (&graft.Engine{}).Fit(context.Background(), ds, graft.LabelOracle{}, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, parallel, "worker count must not change the run history")
}

func TestEngineFitValidatesConfig(t *testing.T) {
	ds := irisLikeDataset(t)
	engine := &graft.Engine{}
	ctx := context.Background()

	_, err := engine.Fit(ctx, ds, graft.LabelOracle{}, graft.Config{NumIterations: 0, SampleFraction: 0.5})
	assert.IsType(t, graft.ConfigError(""), err)

	_, err = engine.Fit(ctx, ds, graft.LabelOracle{}, graft.Config{NumIterations: 1, SampleFraction: 0})
	assert.IsType(t, graft.ConfigError(""), err)

	_, err = engine.Fit(ctx, ds, graft.LabelOracle{}, graft.Config{NumIterations: 1, SampleFraction: 1.5})
	assert.IsType(t, graft.ConfigError(""), err)

	_, err = engine.Fit(ctx, ds, nil, graft.Config{NumIterations: 1, SampleFraction: 0.5})
	assert.IsType(t, graft.ConfigError(""), err)

	_, err = engine.Fit(ctx, nil, graft.LabelOracle{}, graft.Config{NumIterations: 1, SampleFraction: 0.5})
	assert.IsType(t, graft.ConfigError(""), err)
}

// brokenOracle fails the first failures predict calls and answers
// with the dataset labels afterwards.
type brokenOracle struct {
	mu       sync.Mutex
	failures int
}

func (o *brokenOracle) Predict(ctx context.Context, d *dataset.Dataset) ([]int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failures > 0 {
		o.failures--
		return nil, fmt.Errorf("blackbox service unavailable")
	}
	return append([]int(nil), d.Y()...), nil
}

func TestEngineFitSkipsFailedIterations(t *testing.T) {
	ds := irisLikeDataset(t)
	engine := &graft.Engine{}
	// the first iteration's only oracle call fails, later ones succeed
	history, err := engine.Fit(context.Background(), ds, &brokenOracle{failures: 1}, graft.Config{
		NumIterations:  4,
		SampleFraction: 1,
		Seed:           3,
	})
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, r := range history {
		assert.Equal(t, i+1, r.Iteration)
	}
}

func TestEngineFitNoCandidate(t *testing.T) {
	ds := irisLikeDataset(t)
	engine := &graft.Engine{}
	_, err := engine.Fit(context.Background(), ds, &brokenOracle{failures: 1000}, graft.Config{
		NumIterations:  3,
		SampleFraction: 0.5,
	})
	assert.Equal(t, graft.ErrNoCandidate, err)
}

func TestExplain(t *testing.T) {
	_, err := graft.Explain(nil)
	assert.Equal(t, graft.ErrNoCandidate, err)

	history := []graft.Result{
		{Reward: 0.7, Iteration: 0},
		{Reward: 0.9, Iteration: 3},
		{Reward: 0.9, Iteration: 1},
		{Reward: 0.8, Iteration: 2},
	}
	best, err := graft.Explain(history)
	require.NoError(t, err)
	assert.Equal(t, 1, best.Iteration)
	assert.Equal(t, 0.9, best.Reward)
}

func TestMemoryResultStore(t *testing.T) {
	store := graft.NewMemoryResultStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, graft.Result{Reward: 0.5, Iteration: 2}))
	require.NoError(t, store.Put(ctx, graft.Result{Reward: 0.9, Iteration: 0}))
	require.NoError(t, store.Put(ctx, graft.Result{Reward: 0.7, Iteration: 1}))
	history, err := store.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, r := range history {
		assert.Equal(t, i, r.Iteration, "history must be ordered by iteration")
	}
	assert.NoError(t, store.Close(ctx))
}

func TestTreeOracle(t *testing.T) {
	ds := irisLikeDataset(t)
	surrogate, err := learner.NewCART().Fit(context.Background(), ds.X(), ds.Y(), ds.NumClasses(), learner.Constraints{})
	require.NoError(t, err)
	oracle := &graft.TreeOracle{Tree: surrogate}
	pred, err := oracle.Predict(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, ds.Y(), pred)
	probs, err := oracle.PredictProba(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, probs, ds.Count())
	for i, p := range probs {
		require.Len(t, p, ds.NumClasses())
		assert.Equal(t, 1.0, p[ds.Y()[i]])
	}
}
