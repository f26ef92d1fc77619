package graft

import (
	"context"
	"fmt"

	"github.com/graftml/graft/dataset"
	"github.com/graftml/graft/tree"
)

/*
Oracle is the prediction-query capability of the blackbox model being
explained. The core never trains, resets or otherwise owns the
blackbox: it only asks it to label datasets. Implementations should
be safe for concurrent use, as the extraction engine may query them
from several workers.
*/
type Oracle interface {
	Predict(ctx context.Context, d *dataset.Dataset) ([]int, error)
}

/*
ProbabilityOracle is an Oracle that can also report per-class
probabilities. It is optional: the core only uses it when a caller
asks for probability-weighted scoring.
*/
type ProbabilityOracle interface {
	Oracle
	PredictProba(ctx context.Context, d *dataset.Dataset) ([][]float64, error)
}

/*
Resettable is the capability of producing an untrained copy of the
blackbox behind an oracle, so that integration layers can retrain it
on a mutated dataset. How the copy is obtained (structural clone,
parameter reset, factory reconstruction) is the integration layer's
concern; the core only ever calls Predict.
*/
type Resettable interface {
	FreshCopy() (Oracle, error)
}

/*
TreeOracle adapts a fitted tree into an Oracle, treating it as an
opaque model. It lets a stored tree play the blackbox role, which is
mostly useful to exercise extraction pipelines end to end.
*/
type TreeOracle struct {
	Tree *tree.Tree
}

// Predict returns the tree's predictions for the dataset's rows.
func (o *TreeOracle) Predict(ctx context.Context, d *dataset.Dataset) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return o.Tree.PredictAll(d.X())
}

// PredictProba returns the class distribution of the leaf each row
// lands on.
func (o *TreeOracle) PredictProba(ctx context.Context, d *dataset.Dataset) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := o.Tree
	probs := make([][]float64, d.Count())
	for i, row := range d.X() {
		n := 0
		for !t.IsLeaf(n) {
			f := t.Feature[n]
			if f < 0 || f >= len(row) {
				return nil, fmt.Errorf("predicting probabilities: node %d splits on feature %d, sample has %d values", n, f, len(row))
			}
			if row[f] <= t.Threshold[n] {
				n = t.Left[n]
			} else {
				n = t.Right[n]
			}
		}
		p := make([]float64, len(t.Value[n]))
		for c, count := range t.Value[n] {
			if t.Samples[n] > 0 {
				p[c] = count / float64(t.Samples[n])
			}
		}
		probs[i] = p
	}
	return probs, nil
}

/*
LabelOracle is a perfect-accuracy Oracle stub: it answers every query
with the dataset's own ground-truth labels. It is useful to validate
extraction setups, since a surrogate's fidelity to it equals the
surrogate's plain accuracy.
*/
type LabelOracle struct{}

// Predict returns a copy of the dataset's label vector.
func (LabelOracle) Predict(ctx context.Context, d *dataset.Dataset) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]int(nil), d.Y()...), nil
}
