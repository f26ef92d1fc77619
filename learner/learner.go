/*
Package learner provides the TreeLearner capability used by the graft
extraction engine: fitting a single decision tree to a labeled sample.
The package ships a CART-style inducer that grows binary trees by
greedy gini-impurity reduction, scanning candidate thresholds at the
midpoints between consecutive distinct feature values.
*/
package learner

import (
	"context"
	"fmt"
	"sort"

	"github.com/graftml/graft/tree"
)

/*
Constraints bounds the trees a learner may produce. The zero value
imposes no bounds. Constraints are opaque to the extraction engine,
which passes them through to the learner untouched.
*/
type Constraints struct {
	// MaxLeafNodes caps the number of leaves of the grown tree,
	// 0 for no cap. Growth is best-first: the split with the
	// largest impurity decrease is applied first, so capping
	// keeps the most separating splits.
	MaxLeafNodes int
	// MaxDepth caps the root-to-leaf depth, 0 for no cap.
	MaxDepth int
	// MinSamplesLeaf is the minimum number of samples a leaf may
	// hold, values below 1 mean 1.
	MinSamplesLeaf int
}

/*
Learner is a capability that fits a single decision-tree classifier
to a labeled sample. Implementations must be deterministic: the same
inputs produce the same tree.
*/
type Learner interface {
	Fit(ctx context.Context, x [][]float64, y []int, classes int, c Constraints) (*tree.Tree, error)
}

// CART is a gini-impurity CART-style Learner.
type CART struct{}

// NewCART returns a CART learner.
func NewCART() *CART {
	return &CART{}
}

type growNode struct {
	rows      []int
	depth     int
	value     []float64
	samples   int
	impurity  float64
	feature   int
	threshold float64
	left      int
	right     int
	split     *split
}

type split struct {
	feature     int
	threshold   float64
	improvement float64
	leftRows    []int
	rightRows   []int
}

/*
Fit takes a feature matrix, a label vector, the number of classes and
a set of constraints and grows a decision tree predicting the labels
from the matrix. Nodes are laid out in creation order with the root
at index 0. An error is returned if the inputs disagree in shape or
the context expires during growth.
*/
func (c *CART) Fit(ctx context.Context, x [][]float64, y []int, classes int, cons Constraints) (*tree.Tree, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("fitting tree: no samples")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("fitting tree: %d sample rows but %d labels", len(x), len(y))
	}
	if classes < 1 {
		return nil, fmt.Errorf("fitting tree: invalid class count %d", classes)
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("fitting tree: row %d has %d values, row 0 has %d", i, len(row), width)
		}
	}
	for i, label := range y {
		if label < 0 || label >= classes {
			return nil, fmt.Errorf("fitting tree: label %d of row %d out of range", label, i)
		}
	}
	minLeaf := cons.MinSamplesLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}
	rows := make([]int, len(x))
	for i := range rows {
		rows[i] = i
	}
	nodes := []*growNode{c.newNode(x, y, rows, classes, 0, cons, minLeaf)}
	leaves := 1
	for cons.MaxLeafNodes == 0 || leaves < cons.MaxLeafNodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		best := -1
		for i, n := range nodes {
			if n.split == nil {
				continue
			}
			if best == -1 || n.split.improvement > nodes[best].split.improvement {
				best = i
			}
		}
		if best == -1 {
			break
		}
		n := nodes[best]
		n.feature = n.split.feature
		n.threshold = n.split.threshold
		n.left = len(nodes)
		nodes = append(nodes, c.newNode(x, y, n.split.leftRows, classes, n.depth+1, cons, minLeaf))
		n.right = len(nodes)
		nodes = append(nodes, c.newNode(x, y, n.split.rightRows, classes, n.depth+1, cons, minLeaf))
		n.split = nil
		leaves++
	}
	return assemble(nodes), nil
}

// newNode builds a grow node over the given rows, computing its best
// split unless the constraints forbid splitting it further.
func (c *CART) newNode(x [][]float64, y []int, rows []int, classes, depth int, cons Constraints, minLeaf int) *growNode {
	value := make([]float64, classes)
	for _, r := range rows {
		value[y[r]]++
	}
	n := &growNode{
		rows:     rows,
		depth:    depth,
		value:    value,
		samples:  len(rows),
		impurity: gini(value, len(rows)),
		feature:  tree.Leaf,
		left:     tree.Leaf,
		right:    tree.Leaf,
	}
	if n.impurity > 0 && len(rows) >= 2*minLeaf && (cons.MaxDepth == 0 || depth < cons.MaxDepth) {
		n.split = bestSplit(x, y, rows, classes, n.impurity, minLeaf)
	}
	return n
}

/*
bestSplit scans every feature of the given rows for the binary split
with the largest gini impurity decrease. Candidate thresholds are the
midpoints between consecutive distinct values of a feature, scanned
in ascending order; the first split found wins ties, so the result is
deterministic: lowest feature index, then lowest threshold.
It returns nil when no split improves on the node's impurity.
*/
func bestSplit(x [][]float64, y []int, rows []int, classes int, nodeImpurity float64, minLeaf int) *split {
	n := len(rows)
	total := make([]float64, classes)
	for _, r := range rows {
		total[y[r]]++
	}
	var best *split
	order := make([]int, n)
	left := make([]float64, classes)
	right := make([]float64, classes)
	for f := 0; f < len(x[rows[0]]); f++ {
		copy(order, rows)
		sort.SliceStable(order, func(i, j int) bool {
			return x[order[i]][f] < x[order[j]][f]
		})
		for c := range left {
			left[c] = 0
			right[c] = total[c]
		}
		for i := 0; i < n-1; i++ {
			label := y[order[i]]
			left[label]++
			right[label]--
			v, next := x[order[i]][f], x[order[i+1]][f]
			if v == next {
				continue
			}
			nl := i + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			weighted := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			improvement := nodeImpurity - weighted
			if improvement <= 0 {
				continue
			}
			if best == nil || improvement > best.improvement {
				best = &split{feature: f, threshold: (v + next) / 2, improvement: improvement}
			}
		}
	}
	if best == nil {
		return nil
	}
	for _, r := range rows {
		if x[r][best.feature] <= best.threshold {
			best.leftRows = append(best.leftRows, r)
		} else {
			best.rightRows = append(best.rightRows, r)
		}
	}
	return best
}

// assemble flattens grow nodes into the parallel-array tree layout.
func assemble(nodes []*growNode) *tree.Tree {
	t := &tree.Tree{
		Feature:   make([]int, len(nodes)),
		Threshold: make([]float64, len(nodes)),
		Left:      make([]int, len(nodes)),
		Right:     make([]int, len(nodes)),
		Value:     make([][]float64, len(nodes)),
		Samples:   make([]int, len(nodes)),
		Impurity:  make([]float64, len(nodes)),
	}
	for i, n := range nodes {
		t.Feature[i] = n.feature
		t.Threshold[i] = n.threshold
		t.Left[i] = n.left
		t.Right[i] = n.right
		t.Value[i] = n.value
		t.Samples[i] = n.samples
		t.Impurity[i] = n.impurity
	}
	return t
}

// gini returns the gini impurity of a class count vector with the
// given total.
func gini(value []float64, samples int) float64 {
	if samples == 0 {
		return 0
	}
	impurity := 1.0
	for _, count := range value {
		p := count / float64(samples)
		impurity -= p * p
	}
	return impurity
}
