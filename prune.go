package graft

import (
	"fmt"
	"sort"

	"github.com/graftml/graft/tree"
)

/*
BranchRanking scores a branch for pruning purposes; branches with a
higher score are kept first. Rankings are how callers express
importance without the pruner knowing about it.
*/
type BranchRanking func(Branch) float64

// BranchSamples is the default ranking: a branch is as important as
// the number of samples its leaf holds.
func BranchSamples(b Branch) float64 {
	return float64(b.Samples)
}

/*
Prune reduces the given tree to its topK most important branches
under the given ranking (BranchSamples when nil). Every node on a
kept branch's root-to-leaf path survives; any other node is collapsed
together with its subtree into a single leaf holding the subtree
root's value vector, so ancestor value vectors remain the sum of
their children's and the pruned tree is a valid, predictive tree.
Collapsed subtrees may leave the result with more than topK leaves
when kept branches share partial paths; that is expected.

The input tree is never mutated: Prune builds a new tree. Ranking
ties break by lowest leaf node id, so the result is deterministic.
topK <= 0 is a ConfigError. A topK of the tree's leaf count or more
is a no-op returning the original tree.
*/
func Prune(t *tree.Tree, topK int, ranking BranchRanking) (*tree.Tree, error) {
	if topK <= 0 {
		return nil, ConfigError(fmt.Sprintf("pruning top-k must be positive, got %d", topK))
	}
	if ranking == nil {
		ranking = BranchSamples
	}
	a, err := Walk(t)
	if err != nil {
		return nil, err
	}
	if topK >= len(a.Branches) {
		return t, nil
	}
	ranked := append([]Branch(nil), a.Branches...)
	sort.Slice(ranked, func(i, j int) bool {
		ri, rj := ranking(ranked[i]), ranking(ranked[j])
		if ri != rj {
			return ri > rj
		}
		return ranked[i].Leaf() < ranked[j].Leaf()
	})
	kept := make(map[int]bool)
	for _, b := range ranked[:topK] {
		for _, n := range b.Nodes {
			kept[n] = true
		}
	}
	return collapse(t, kept), nil
}

type pruneItem struct {
	node     int
	parent   int
	left     bool
	collapse bool
}

// collapse copies t keeping the marked nodes as they are and turning
// every unmarked node into a leaf that aggregates its whole subtree.
func collapse(t *tree.Tree, kept map[int]bool) *tree.Tree {
	p := &tree.Tree{}
	stack := []pruneItem{{node: 0, parent: -1, collapse: !kept[0]}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := item.node
		id := len(p.Feature)
		if item.parent >= 0 {
			if item.left {
				p.Left[item.parent] = id
			} else {
				p.Right[item.parent] = id
			}
		}
		leaf := item.collapse || t.IsLeaf(n)
		if leaf {
			p.Feature = append(p.Feature, tree.Leaf)
			p.Threshold = append(p.Threshold, 0)
			p.Left = append(p.Left, tree.Leaf)
			p.Right = append(p.Right, tree.Leaf)
		} else {
			p.Feature = append(p.Feature, t.Feature[n])
			p.Threshold = append(p.Threshold, t.Threshold[n])
			p.Left = append(p.Left, tree.Leaf)
			p.Right = append(p.Right, tree.Leaf)
		}
		p.Value = append(p.Value, append([]float64(nil), t.Value[n]...))
		p.Samples = append(p.Samples, t.Samples[n])
		p.Impurity = append(p.Impurity, t.Impurity[n])
		if leaf {
			continue
		}
		// push right first so node ids follow pre-order
		stack = append(stack, pruneItem{node: t.Right[n], parent: id, left: false, collapse: !kept[t.Right[n]]})
		stack = append(stack, pruneItem{node: t.Left[n], parent: id, left: true, collapse: !kept[t.Left[n]]})
	}
	return p
}
