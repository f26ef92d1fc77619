package graft

import "github.com/graftml/graft/tree"

/*
Result is the outcome of one extraction iteration: the candidate
surrogate tree, the reward (its fidelity to the oracle, in [0, 1],
higher is better) and the iteration index that produced it.
*/
type Result struct {
	Tree      *tree.Tree `json:"tree"`
	Reward    float64    `json:"reward"`
	Iteration int        `json:"iteration"`
}

/*
Explain takes the history of an extraction run and returns the entry
with the maximum reward, ties broken by lowest iteration index so the
choice does not depend on the order iterations completed in. It
returns ErrNoCandidate on an empty history.
*/
func Explain(history []Result) (Result, error) {
	if len(history) == 0 {
		return Result{}, ErrNoCandidate
	}
	best := history[0]
	for _, r := range history[1:] {
		if r.Reward > best.Reward || (r.Reward == best.Reward && r.Iteration < best.Iteration) {
			best = r
		}
	}
	return best, nil
}
