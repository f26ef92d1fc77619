/*
Package dataset provides an immutable view over a feature matrix and
a label vector, with deterministic sampling, splitting and feature
ablation. Mutating operations never alter an existing view: they
return a new logical view, so datasets can be shared by concurrent
consumers.
*/
package dataset

import (
	"fmt"
	"math/rand"

	"github.com/graftml/graft/feature"
)

/*
Dataset is a collection of samples: a row-major feature matrix and a
label vector with one class id per row. The i-th column of the matrix
corresponds to the i-th feature of the dataset, and class ids index
the label feature's available values.
*/
type Dataset struct {
	features []*feature.Feature
	label    *feature.Feature
	x        [][]float64
	y        []int
}

/*
New takes a slice of column features, a discrete label feature, a
feature matrix and a label vector and returns a dataset over them, or
an error if the matrix and vector disagree in length, a row disagrees
with the number of features or a class id is out of range for the
label.
The dataset keeps the given slices: callers must not mutate them
afterwards.
*/
func New(features []*feature.Feature, label *feature.Feature, x [][]float64, y []int) (*Dataset, error) {
	if label == nil || label.Continuous() {
		return nil, fmt.Errorf("dataset label must be a discrete feature")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("dataset has %d sample rows but %d labels", len(x), len(y))
	}
	classes := len(label.Values())
	for i, row := range x {
		if len(row) != len(features) {
			return nil, fmt.Errorf("sample row %d has %d values, dataset has %d features", i, len(row), len(features))
		}
		if y[i] < 0 || y[i] >= classes {
			return nil, fmt.Errorf("sample row %d has class id %d out of range for label %s", i, y[i], label.Name())
		}
	}
	return &Dataset{features, label, x, y}, nil
}

// Count returns the number of samples in the dataset.
func (d *Dataset) Count() int {
	return len(d.x)
}

// NumFeatures returns the number of feature columns.
func (d *Dataset) NumFeatures() int {
	return len(d.features)
}

// NumClasses returns the number of values the label can take.
func (d *Dataset) NumClasses() int {
	return len(d.label.Values())
}

// Features returns the dataset's column features in column order.
func (d *Dataset) Features() []*feature.Feature {
	return d.features
}

// Label returns the discrete feature the dataset's labels belong to.
func (d *Dataset) Label() *feature.Feature {
	return d.label
}

// X returns the feature matrix. It is a view: callers must not
// mutate it.
func (d *Dataset) X() [][]float64 {
	return d.x
}

// Y returns the label vector. It is a view: callers must not
// mutate it.
func (d *Dataset) Y() []int {
	return d.y
}

/*
View takes a slice of row indexes and returns a dataset with exactly
those rows, sharing the underlying row storage with the receiver. An
error is returned if an index is out of range.
*/
func (d *Dataset) View(rows []int) (*Dataset, error) {
	x := make([][]float64, 0, len(rows))
	y := make([]int, 0, len(rows))
	for _, r := range rows {
		if r < 0 || r >= len(d.x) {
			return nil, fmt.Errorf("row index %d out of range for dataset with %d samples", r, len(d.x))
		}
		x = append(x, d.x[r])
		y = append(y, d.y[r])
	}
	return &Dataset{d.features, d.label, x, y}, nil
}

/*
Sample takes a rand.Rand and a fraction in (0, 1] and draws
fraction·Count() rows without replacement, returning the drawn view
and the view over the remaining rows. The draw is a function of the
given source alone, so a fixed seed reproduces it. Drawn and
remaining rows keep their original relative order.
*/
func (d *Dataset) Sample(rng *rand.Rand, fraction float64) (*Dataset, *Dataset, error) {
	if fraction <= 0 || fraction > 1 {
		return nil, nil, fmt.Errorf("sample fraction %f out of range (0, 1]", fraction)
	}
	n := len(d.x)
	k := int(fraction * float64(n))
	if k == 0 && n > 0 {
		k = 1
	}
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		indexes[i], indexes[j] = indexes[j], indexes[i]
	}
	drawn := make([]bool, n)
	for _, i := range indexes[:k] {
		drawn[i] = true
	}
	sampleRows := make([]int, 0, k)
	restRows := make([]int, 0, n-k)
	for i := 0; i < n; i++ {
		if drawn[i] {
			sampleRows = append(sampleRows, i)
		} else {
			restRows = append(restRows, i)
		}
	}
	sample, err := d.View(sampleRows)
	if err != nil {
		return nil, nil, err
	}
	rest, err := d.View(restRows)
	if err != nil {
		return nil, nil, err
	}
	return sample, rest, nil
}

/*
Split takes a rand.Rand and a training fraction in (0, 1) and splits
the dataset in a training view and a testing view drawn without
replacement.
*/
func (d *Dataset) Split(rng *rand.Rand, trainFraction float64) (*Dataset, *Dataset, error) {
	if trainFraction <= 0 || trainFraction >= 1 {
		return nil, nil, fmt.Errorf("training fraction %f out of range (0, 1)", trainFraction)
	}
	return d.Sample(rng, trainFraction)
}

/*
Ablate takes a feature index and returns a new dataset in which every
value of that feature column has been overwritten with zero. The
receiver and any view sharing rows with it are left untouched: row
storage is copied.
*/
func (d *Dataset) Ablate(featureIndex int) (*Dataset, error) {
	if featureIndex < 0 || featureIndex >= len(d.features) {
		return nil, fmt.Errorf("feature index %d out of range for dataset with %d features", featureIndex, len(d.features))
	}
	x := make([][]float64, len(d.x))
	for i, row := range d.x {
		nr := make([]float64, len(row))
		copy(nr, row)
		nr[featureIndex] = 0
		x[i] = nr
	}
	return &Dataset{d.features, d.label, x, d.y}, nil
}
