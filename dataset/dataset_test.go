package dataset_test

import (
	"math/rand"
	"testing"

	"github.com/graftml/graft/dataset"
	"github.com/graftml/graft/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFeatures() ([]*feature.Feature, *feature.Feature) {
	features := []*feature.Feature{
		feature.NewContinuous("height"),
		feature.NewContinuous("weight"),
	}
	label := feature.NewDiscrete("size", []string{"small", "large"})
	return features, label
}

func testDataset(t *testing.T, rows int) *dataset.Dataset {
	t.Helper()
	features, label := testFeatures()
	var x [][]float64
	var y []int
	for i := 0; i < rows; i++ {
		x = append(x, []float64{float64(i), float64(i * 10)})
		y = append(y, i%2)
	}
	ds, err := dataset.New(features, label, x, y)
	require.NoError(t, err)
	return ds
}

func TestNewValidatesInput(t *testing.T) {
	features, label := testFeatures()

	_, err := dataset.New(features, nil, nil, nil)
	assert.Error(t, err, "label is required")

	_, err = dataset.New(features, feature.NewContinuous("size"), nil, nil)
	assert.Error(t, err, "label must be discrete")

	_, err = dataset.New(features, label, [][]float64{{1, 2}}, []int{0, 1})
	assert.Error(t, err, "matrix and labels must agree in length")

	_, err = dataset.New(features, label, [][]float64{{1}}, []int{0})
	assert.Error(t, err, "rows must match the feature count")

	_, err = dataset.New(features, label, [][]float64{{1, 2}}, []int{2})
	assert.Error(t, err, "class ids must be in range")
}

func TestSample(t *testing.T) {
	ds := testDataset(t, 10)
	sample, rest, err := ds.Sample(rand.New(rand.NewSource(1)), 0.4)
	require.NoError(t, err)
	assert.Equal(t, 4, sample.Count())
	assert.Equal(t, 6, rest.Count())

	// drawn and remaining rows keep their original relative order
	for _, part := range []*dataset.Dataset{sample, rest} {
		for i := 1; i < part.Count(); i++ {
			assert.Greater(t, part.X()[i][0], part.X()[i-1][0])
		}
	}

	// the same seed reproduces the draw
	again, _, err := ds.Sample(rand.New(rand.NewSource(1)), 0.4)
	require.NoError(t, err)
	assert.Equal(t, sample.X(), again.X())
	assert.Equal(t, sample.Y(), again.Y())

	_, _, err = ds.Sample(rand.New(rand.NewSource(1)), 0)
	assert.Error(t, err)
	_, _, err = ds.Sample(rand.New(rand.NewSource(1)), 1.5)
	assert.Error(t, err)
}

func TestSampleFullFraction(t *testing.T) {
	ds := testDataset(t, 5)
	sample, rest, err := ds.Sample(rand.New(rand.NewSource(3)), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, sample.Count())
	assert.Equal(t, 0, rest.Count())
	assert.Equal(t, ds.X(), sample.X())
}

func TestSplit(t *testing.T) {
	ds := testDataset(t, 10)
	train, test, err := ds.Split(rand.New(rand.NewSource(2)), 0.7)
	require.NoError(t, err)
	assert.Equal(t, 7, train.Count())
	assert.Equal(t, 3, test.Count())

	_, _, err = ds.Split(rand.New(rand.NewSource(2)), 1)
	assert.Error(t, err)
}

func TestAblate(t *testing.T) {
	ds := testDataset(t, 4)
	ablated, err := ds.Ablate(1)
	require.NoError(t, err)
	for i, row := range ablated.X() {
		assert.Equal(t, 0.0, row[1])
		assert.Equal(t, ds.X()[i][0], row[0], "other columns are untouched")
	}
	assert.Equal(t, 10.0, ds.X()[1][1], "the receiver keeps its values")
	assert.Equal(t, ds.Y(), ablated.Y())

	_, err = ds.Ablate(2)
	assert.Error(t, err)
	_, err = ds.Ablate(-1)
	assert.Error(t, err)
}

func TestView(t *testing.T) {
	ds := testDataset(t, 4)
	v, err := ds.View([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 20}, {0, 0}}, v.X())
	assert.Equal(t, []int{0, 0}, v.Y())

	_, err = ds.View([]int{4})
	assert.Error(t, err)
}
