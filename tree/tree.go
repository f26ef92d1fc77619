/*
Package tree provides the decision tree representation shared by the
graft learner, walker and pruner: a flat, index-addressed arena of
parallel arrays, with the root at index 0. Trees are immutable once
built; operations that reduce a tree build a new one.
*/
package tree

import "fmt"

// Leaf marks the absence of a feature or child on a node: leaves
// have it as feature and as both children.
const Leaf = -1

/*
StructureError is the error returned when a tree's node arrays
violate the leaf/internal invariant or the sample-sum invariant.
Malformed trees are never silently repaired, since repairing would
mask a bug in whatever produced them.
*/
type StructureError string

func (e StructureError) Error() string {
	return string(e)
}

/*
Tree is a binary decision tree laid out as parallel arrays indexed by
node id. For every node i:
  - Feature[i] is the index of the feature node i splits on, Leaf for
    leaves.
  - Threshold[i] is the split threshold; samples with
    feature value <= Threshold[i] descend to Left[i], the rest to
    Right[i]. It is meaningless for leaves.
  - Left[i] and Right[i] are child node ids, both Leaf exactly when
    node i is a leaf.
  - Value[i] holds the per-class sample counts of the training rows
    routed through node i.
  - Samples[i] is the total sample count of node i, the sum of
    Value[i].
  - Impurity[i] is the gini impurity of node i's value vector.

On every well-formed tree each internal node's value vector equals
the element-wise sum of its children's value vectors.
*/
type Tree struct {
	Feature   []int       `json:"feature"`
	Threshold []float64   `json:"threshold"`
	Left      []int       `json:"left"`
	Right     []int       `json:"right"`
	Value     [][]float64 `json:"value"`
	Samples   []int       `json:"samples"`
	Impurity  []float64   `json:"impurity"`
}

// valueSumTolerance absorbs float rounding when comparing sample
// count vectors.
const valueSumTolerance = 1e-6

// NodeCount returns the number of nodes in the tree.
func (t *Tree) NodeCount() int {
	return len(t.Feature)
}

// IsLeaf returns whether node i is a leaf.
func (t *Tree) IsLeaf(i int) bool {
	return t.Left[i] == t.Right[i]
}

// NumClasses returns the number of classes the tree predicts.
func (t *Tree) NumClasses() int {
	if len(t.Value) == 0 {
		return 0
	}
	return len(t.Value[0])
}

// LeafCount returns the number of leaves in the tree.
func (t *Tree) LeafCount() int {
	var count int
	for i := range t.Feature {
		if t.IsLeaf(i) {
			count++
		}
	}
	return count
}

/*
Class returns the predicted class of node i: the arg-max of its
value vector, lowest class id winning ties.
*/
func (t *Tree) Class(i int) int {
	return argmax(t.Value[i])
}

/*
Predict takes a sample row and returns the class id predicted for it:
the predicted class of the leaf reached by descending the tree from
the root, or an error if the row has fewer values than some split
feature requires.
*/
func (t *Tree) Predict(row []float64) (int, error) {
	if t.NodeCount() == 0 {
		return 0, StructureError("cannot predict with an empty tree")
	}
	n := 0
	for !t.IsLeaf(n) {
		f := t.Feature[n]
		if f < 0 || f >= len(row) {
			return 0, fmt.Errorf("predicting sample: node %d splits on feature %d, sample has %d values", n, f, len(row))
		}
		if row[f] <= t.Threshold[n] {
			n = t.Left[n]
		} else {
			n = t.Right[n]
		}
	}
	return t.Class(n), nil
}

/*
PredictAll takes a feature matrix and returns the class ids predicted
for its rows, or an error if a prediction fails.
*/
func (t *Tree) PredictAll(x [][]float64) ([]int, error) {
	pred := make([]int, len(x))
	for i, row := range x {
		c, err := t.Predict(row)
		if err != nil {
			return nil, err
		}
		pred[i] = c
	}
	return pred, nil
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	n := t.NodeCount()
	c := &Tree{
		Feature:   append([]int(nil), t.Feature...),
		Threshold: append([]float64(nil), t.Threshold...),
		Left:      append([]int(nil), t.Left...),
		Right:     append([]int(nil), t.Right...),
		Value:     make([][]float64, n),
		Samples:   append([]int(nil), t.Samples...),
		Impurity:  append([]float64(nil), t.Impurity...),
	}
	for i, v := range t.Value {
		c.Value[i] = append([]float64(nil), v...)
	}
	return c
}

/*
Validate checks the tree's node arrays for structural consistency and
returns a StructureError describing the first violation found, or nil
if the tree is well formed. It checks that:
  - all node arrays have the same, non-zero length;
  - leaf-ness is consistent: Left[i] == Right[i] exactly when
    Feature[i] is Leaf;
  - child ids are in range and every node except the root has exactly
    one parent;
  - Samples[i] equals the sum of Value[i];
  - every internal node's value vector is the element-wise sum of its
    children's value vectors.
*/
func (t *Tree) Validate() error {
	n := t.NodeCount()
	if n == 0 {
		return StructureError("tree has no nodes")
	}
	if len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n ||
		len(t.Value) != n || len(t.Samples) != n || len(t.Impurity) != n {
		return StructureError("tree node arrays disagree in length")
	}
	classes := len(t.Value[0])
	if classes == 0 {
		return StructureError("tree value vectors are empty")
	}
	parents := make([]int, n)
	for i := 0; i < n; i++ {
		if len(t.Value[i]) != classes {
			return StructureError(fmt.Sprintf("node %d has a value vector of length %d, expected %d", i, len(t.Value[i]), classes))
		}
		if (t.Left[i] == Leaf) != (t.Right[i] == Leaf) {
			return StructureError(fmt.Sprintf("node %d has exactly one child", i))
		}
		if t.Left[i] == Leaf {
			if t.Feature[i] != Leaf {
				return StructureError(fmt.Sprintf("leaf node %d declares split feature %d", i, t.Feature[i]))
			}
		} else {
			if t.Feature[i] == Leaf {
				return StructureError(fmt.Sprintf("internal node %d declares no split feature", i))
			}
			for _, child := range []int{t.Left[i], t.Right[i]} {
				if child < 0 || child >= n {
					return StructureError(fmt.Sprintf("node %d references child %d out of range", i, child))
				}
				if child == i {
					return StructureError(fmt.Sprintf("node %d is its own child", i))
				}
				parents[child]++
			}
		}
		var sum float64
		for _, v := range t.Value[i] {
			if v < 0 {
				return StructureError(fmt.Sprintf("node %d has a negative class count", i))
			}
			sum += v
		}
		if diff := sum - float64(t.Samples[i]); diff > valueSumTolerance || diff < -valueSumTolerance {
			return StructureError(fmt.Sprintf("node %d has %d samples but its value vector sums %f", i, t.Samples[i], sum))
		}
	}
	if parents[0] != 0 {
		return StructureError("root node has a parent")
	}
	for i := 1; i < n; i++ {
		if parents[i] != 1 {
			return StructureError(fmt.Sprintf("node %d has %d parents", i, parents[i]))
		}
	}
	for i := 0; i < n; i++ {
		if t.IsLeaf(i) {
			continue
		}
		l, r := t.Left[i], t.Right[i]
		for c := 0; c < classes; c++ {
			diff := t.Value[i][c] - t.Value[l][c] - t.Value[r][c]
			if diff > valueSumTolerance || diff < -valueSumTolerance {
				return StructureError(fmt.Sprintf("node %d class %d count is not the sum of its children's", i, c))
			}
		}
	}
	return nil
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
