package graft

import (
	"fmt"
	"sort"
	"strings"

	"github.com/graftml/graft/tree"
)

// FeatureUsage accumulates how much a tree relies on one feature:
// the number of nodes splitting on it, and the total sample count
// routed through those nodes.
type FeatureUsage struct {
	Count   int `json:"count"`
	Samples int `json:"samples"`
}

// SplitStat describes one internal node of a tree.
type SplitStat struct {
	Node          int       `json:"node"`
	Feature       int       `json:"feature"`
	Threshold     float64   `json:"threshold"`
	Samples       int       `json:"samples"`
	Value         []float64 `json:"value"`
	ImpurityLeft  float64   `json:"impurityLeft"`
	ImpurityRight float64   `json:"impurityRight"`
	SamplesLeft   float64   `json:"samplesLeft"`
	SamplesRight  float64   `json:"samplesRight"`
	// ClassSplit holds, per class, the sample mass routed to the
	// left and right child.
	ClassSplit [][2]float64 `json:"classSplit"`
}

// Predicate is one root-to-leaf path step: a comparison of a feature
// against a threshold. Op is "<=" on left edges and ">" on right
// edges.
type Predicate struct {
	Feature   int     `json:"feature"`
	Op        string  `json:"op"`
	Threshold float64 `json:"threshold"`
}

func (p Predicate) String() string {
	return fmt.Sprintf("%d %s %g", p.Feature, p.Op, p.Threshold)
}

/*
Branch is a root-to-leaf path of a tree: the conjunction of
predicates leading to the leaf, the node ids traversed (root first,
leaf last), the leaf's predicted class with its probability as a
percentage, and the leaf's sample count.
*/
type Branch struct {
	Path    []Predicate `json:"path"`
	Nodes   []int       `json:"nodes"`
	Class   int         `json:"class"`
	Prob    float64     `json:"prob"`
	Samples int         `json:"samples"`
}

// Leaf returns the node id of the branch's leaf.
func (b Branch) Leaf() int {
	return b.Nodes[len(b.Nodes)-1]
}

func (b Branch) String() string {
	preds := make([]string, len(b.Path))
	for i, p := range b.Path {
		preds[i] = p.String()
	}
	return fmt.Sprintf("%s -> %d", strings.Join(preds, " and "), b.Class)
}

/*
Analysis is the structural breakdown of a tree produced by Walk:
feature usage, per-split statistics, root-to-leaf branches, and the
total sample count of the tree (the root's).
*/
type Analysis struct {
	FeaturesUsed map[int]*FeatureUsage `json:"featuresUsed"`
	Splits       []SplitStat           `json:"splits"`
	Branches     []Branch              `json:"branches"`
	TotalSamples int                   `json:"totalSamples"`
}

type walkItem struct {
	node  int
	path  []Predicate
	nodes []int
}

/*
Walk analyzes the structure of the given tree: it traverses it in
pre-order, left child before right child, recording a SplitStat for
every internal node, feature usage for every split feature, and a
Branch for every leaf. It is a pure function of the tree's node
arrays. The traversal uses an explicit work stack keyed by node
index, so arbitrarily deep trees do not hit recursion limits.
A tree whose root is a leaf yields a single branch with an empty
path, no splits and no feature usage.
Walk validates the tree first and returns its tree.StructureError
unchanged when the node arrays are malformed.
*/
func Walk(t *tree.Tree) (*Analysis, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	a := &Analysis{FeaturesUsed: make(map[int]*FeatureUsage)}
	stack := []walkItem{{node: 0, nodes: []int{0}}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := item.node
		if t.IsLeaf(n) {
			class := t.Class(n)
			var prob float64
			if t.Samples[n] > 0 {
				prob = t.Value[n][class] / float64(t.Samples[n]) * 100
			}
			a.Branches = append(a.Branches, Branch{
				Path:    item.path,
				Nodes:   item.nodes,
				Class:   class,
				Prob:    prob,
				Samples: t.Samples[n],
			})
			a.TotalSamples += t.Samples[n]
			continue
		}
		f := t.Feature[n]
		usage := a.FeaturesUsed[f]
		if usage == nil {
			usage = &FeatureUsage{}
			a.FeaturesUsed[f] = usage
		}
		usage.Count++
		usage.Samples += t.Samples[n]
		left, right := t.Left[n], t.Right[n]
		classSplit := make([][2]float64, t.NumClasses())
		var samplesLeft, samplesRight float64
		for c := range classSplit {
			classSplit[c] = [2]float64{t.Value[left][c], t.Value[right][c]}
			samplesLeft += t.Value[left][c]
			samplesRight += t.Value[right][c]
		}
		a.Splits = append(a.Splits, SplitStat{
			Node:          n,
			Feature:       f,
			Threshold:     t.Threshold[n],
			Samples:       t.Samples[n],
			Value:         t.Value[n],
			ImpurityLeft:  t.Impurity[left],
			ImpurityRight: t.Impurity[right],
			SamplesLeft:   samplesLeft,
			SamplesRight:  samplesRight,
			ClassSplit:    classSplit,
		})
		// push right first so the left child is walked first
		stack = append(stack, walkItem{
			node:  right,
			path:  appendPredicate(item.path, Predicate{f, ">", t.Threshold[n]}),
			nodes: appendNode(item.nodes, right),
		})
		stack = append(stack, walkItem{
			node:  left,
			path:  appendPredicate(item.path, Predicate{f, "<=", t.Threshold[n]}),
			nodes: appendNode(item.nodes, left),
		})
	}
	return a, nil
}

// RankedFeature pairs a feature id with its usage, for ranked
// listings.
type RankedFeature struct {
	Feature int           `json:"feature"`
	Usage   *FeatureUsage `json:"usage"`
}

/*
TopFeatures returns up to n features ranked by cumulative sample
count, descending, ties broken by lowest feature id. n <= 0 means
all.
*/
func (a *Analysis) TopFeatures(n int) []RankedFeature {
	ranked := make([]RankedFeature, 0, len(a.FeaturesUsed))
	for f, usage := range a.FeaturesUsed {
		ranked = append(ranked, RankedFeature{f, usage})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Usage.Samples != ranked[j].Usage.Samples {
			return ranked[i].Usage.Samples > ranked[j].Usage.Samples
		}
		return ranked[i].Feature < ranked[j].Feature
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

/*
TopSplits returns up to n splits ranked by
samples × |impurity_left − impurity_right|, descending, favoring
highly separating, high-traffic splits. Ties break by lowest node id.
n <= 0 means all.
*/
func (a *Analysis) TopSplits(n int) []SplitStat {
	ranked := append([]SplitStat(nil), a.Splits...)
	sort.Slice(ranked, func(i, j int) bool {
		ri, rj := splitReward(ranked[i]), splitReward(ranked[j])
		if ri != rj {
			return ri > rj
		}
		return ranked[i].Node < ranked[j].Node
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

func splitReward(s SplitStat) float64 {
	d := s.ImpurityLeft - s.ImpurityRight
	if d < 0 {
		d = -d
	}
	return float64(s.Samples) * d
}

/*
TopBranches returns up to n branches ranked by sample count,
descending, ties broken by lowest leaf node id. n <= 0 means all.
*/
func (a *Analysis) TopBranches(n int) []Branch {
	ranked := append([]Branch(nil), a.Branches...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Samples != ranked[j].Samples {
			return ranked[i].Samples > ranked[j].Samples
		}
		return ranked[i].Leaf() < ranked[j].Leaf()
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

func appendPredicate(path []Predicate, p Predicate) []Predicate {
	np := make([]Predicate, 0, len(path)+1)
	np = append(np, path...)
	return append(np, p)
}

func appendNode(nodes []int, n int) []int {
	nn := make([]int, 0, len(nodes)+1)
	nn = append(nn, nodes...)
	return append(nn, n)
}
