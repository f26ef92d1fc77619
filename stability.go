package graft

import (
	"context"
	"fmt"

	"github.com/graftml/graft/dataset"
)

/*
AblationRecord is the outcome of one ablation round: the surrogate
extracted for that round, which feature was removed afterwards, how
many features have been removed so far, the oracle's performance
against the test labels and the surrogate's fidelity to the oracle.
*/
type AblationRecord struct {
	Iteration       int     `json:"iteration"`
	FeatureRemoved  string  `json:"featureRemoved"`
	FeaturesRemoved int     `json:"featuresRemoved"`
	Performance     float64 `json:"performance"`
	Fidelity        float64 `json:"fidelity"`
	Best            Result  `json:"best"`
}

/*
Analyzer measures how stable an oracle's decision structure is under
feature ablation. Each round it extracts a surrogate, scores it,
finds the feature the surrogate leans on hardest and removes that
feature from the data before the next round. A model whose fidelity
and performance collapse after few rounds depends on few features; a
model that degrades gracefully spreads its decisions wider.
*/
type Analyzer struct {
	Engine *Engine
	Logger func(format string, a ...interface{})
}

/*
Run performs up to maxRounds ablation rounds extracting from the
train set and scoring on the test set, and returns one record per
round. It stops early when every feature has been removed or when no
remaining feature appears in the extracted surrogate.

Ablation zeroes feature columns in place of dropping them, so feature
indices stay stable across rounds. The given datasets are not
modified.
*/
func (a *Analyzer) Run(ctx context.Context, train, test *dataset.Dataset, o Oracle, maxRounds int, cfg Config) ([]AblationRecord, error) {
	if maxRounds < 1 {
		return nil, ConfigError(fmt.Sprintf("invalid number of ablation rounds: %d", maxRounds))
	}
	if train == nil || test == nil || train.Count() == 0 || test.Count() == 0 {
		return nil, ConfigError("cannot run ablation without train and test data")
	}
	removed := make(map[int]bool)
	var records []AblationRecord
	for round := 0; round < maxRounds && len(removed) < train.NumFeatures(); round++ {
		history, err := a.Engine.Fit(ctx, train, o, cfg)
		if err != nil {
			return records, err
		}
		best, err := Explain(history)
		if err != nil {
			return records, err
		}
		yOracle, err := o.Predict(ctx, test)
		if err != nil {
			return records, &OracleError{Iteration: round, Err: err}
		}
		ySurrogate, err := best.Tree.PredictAll(test.X())
		if err != nil {
			return records, fmt.Errorf("scoring surrogate on round %d: %v", round, err)
		}
		performance := MacroF1(test.Y(), yOracle, test.NumClasses())
		fidelity := MacroF1(yOracle, ySurrogate, test.NumClasses())
		analysis, err := Walk(best.Tree)
		if err != nil {
			return records, fmt.Errorf("analyzing surrogate on round %d: %v", round, err)
		}
		target := -1
		for _, rf := range analysis.TopFeatures(0) {
			if !removed[rf.Feature] {
				target = rf.Feature
				break
			}
		}
		if target < 0 {
			// the surrogate no longer uses any remaining feature
			break
		}
		name := train.Features()[target].Name()
		removed[target] = true
		records = append(records, AblationRecord{
			Iteration:       round,
			FeatureRemoved:  name,
			FeaturesRemoved: len(removed),
			Performance:     performance,
			Fidelity:        fidelity,
			Best:            best,
		})
		a.logf("round %d: performance %.4f, fidelity %.4f, removing feature %s", round, performance, fidelity, name)
		train, err = train.Ablate(target)
		if err != nil {
			return records, fmt.Errorf("ablating feature %s from train set: %v", name, err)
		}
		test, err = test.Ablate(target)
		if err != nil {
			return records, fmt.Errorf("ablating feature %s from test set: %v", name, err)
		}
		if fresh, ok := o.(Resettable); ok {
			o, err = fresh.FreshCopy()
			if err != nil {
				return records, fmt.Errorf("resetting oracle after round %d: %v", round, err)
			}
		}
	}
	return records, nil
}

func (a *Analyzer) logf(format string, args ...interface{}) {
	if a.Logger == nil {
		return
	}
	a.Logger(format, args...)
}
